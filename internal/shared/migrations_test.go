package shared

import (
	"database/sql"
	"errors"
	"testing"
)

func memoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	ConfigureDatabase(db, 1, 1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}
		if len(migrations) < 2 {
			t.Fatalf("expected at least two migrations, got %d", len(migrations))
		}

		for i, m := range migrations {
			if i > 0 && m.Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: %d after %d", m.Version, migrations[i-1].Version)
			}
			if m.Name == "" || m.Up == "" || m.Down == "" {
				t.Errorf("migration %d incomplete: %+v", m.Version, m)
			}
		}
	})

	t.Run("RunMigrations creates tables", func(t *testing.T) {
		db := memoryDB(t)
		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		for _, table := range []string{"health_checks", "error_events"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("%s should exist after migrations: %v", table, err)
			}
		}
	})

	t.Run("RunMigrations is idempotent", func(t *testing.T) {
		db := memoryDB(t)
		for i := 0; i < 2; i++ {
			if err := RunMigrations(db); err != nil {
				t.Fatalf("run %d failed: %v", i, err)
			}
		}

		states, err := MigrationStatus(db)
		if err != nil {
			t.Fatalf("MigrationStatus() error = %v", err)
		}
		for _, st := range states {
			if !st.Applied {
				t.Errorf("migration %d should be applied", st.Version)
			}
		}
	})

	t.Run("RollbackMigration", func(t *testing.T) {
		db := memoryDB(t)
		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback: %v", err)
		}
		if _, err := db.Exec("SELECT 1 FROM error_events"); err == nil {
			t.Error("error_events should be dropped after rollback")
		}
		if _, err := db.Exec("SELECT 1 FROM health_checks"); err != nil {
			t.Errorf("health_checks should survive a single rollback: %v", err)
		}

		RollbackMigration(db)
		if err := RollbackMigration(db); err == nil {
			t.Error("expected error when nothing is left to roll back")
		}
	})

	t.Run("splitStatements", func(t *testing.T) {
		got := splitStatements("-- header\nCREATE TABLE a (x INT); -- trailing\n\nDROP TABLE b;")
		if len(got) != 2 || got[0] != "CREATE TABLE a (x INT)" || got[1] != "DROP TABLE b" {
			t.Errorf("unexpected statements: %q", got)
		}
	})
}

func TestOpenDatabase(t *testing.T) {
	t.Run("disabled without path", func(t *testing.T) {
		if _, err := OpenDatabase(DatabaseConfig{}); !errors.Is(err, ErrStoreDisabled) {
			t.Errorf("expected ErrStoreDisabled, got %v", err)
		}
	})

	t.Run("opens and migrates", func(t *testing.T) {
		db, err := OpenDatabase(DatabaseConfig{Path: t.TempDir() + "/nested/ytmp.db", MaxOpenConns: 1})
		if err != nil {
			t.Fatalf("OpenDatabase() error = %v", err)
		}
		defer db.Close()

		if _, err := db.Exec("SELECT 1 FROM error_events"); err != nil {
			t.Errorf("expected migrated schema: %v", err)
		}
	})
}
