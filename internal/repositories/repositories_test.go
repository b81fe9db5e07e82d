package repositories

import (
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/ytmp/internal/models"
	"github.com/desertthunder/ytmp/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestHealthCheckRepository(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Create", func(t *testing.T) {
		repo := NewHealthCheckRepository(setupTestDB(t))
		check := models.NewHealthCheck(models.StatusHealthy, "Search working normally", 1, 420*time.Millisecond, base)

		if err := repo.Create(check); err != nil {
			t.Fatalf("failed to create health check: %v", err)
		}
		if check.ID() == "" {
			t.Error("health check ID should be set after creation")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewHealthCheckRepository(setupTestDB(t))
		check := models.NewHealthCheck(models.StatusDegraded, "Search API structure changed", 0, 1500*time.Millisecond, base).
			WithError("structure_changed", "'header' (path header)")
		if err := repo.Create(check); err != nil {
			t.Fatalf("failed to create health check: %v", err)
		}

		got, err := repo.Get(check.ID())
		if err != nil {
			t.Fatalf("failed to get health check: %v", err)
		}
		if got.Status() != models.StatusDegraded {
			t.Errorf("expected status degraded, got %s", got.Status())
		}
		if got.ErrorType() != "structure_changed" || got.ErrorDetails() != check.ErrorDetails() {
			t.Errorf("error fields not persisted: %q %q", got.ErrorType(), got.ErrorDetails())
		}
		if got.Duration() != 1500*time.Millisecond {
			t.Errorf("expected duration 1.5s, got %s", got.Duration())
		}
		if !got.CheckedAt().Equal(base) {
			t.Errorf("expected checked_at %s, got %s", base, got.CheckedAt())
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewHealthCheckRepository(setupTestDB(t))
		statuses := []models.HealthStatus{models.StatusHealthy, models.StatusUnhealthy, models.StatusHealthy, models.StatusDegraded}
		for i, s := range statuses {
			if err := repo.Create(models.NewHealthCheck(s, "probe", 1, time.Second, base.Add(time.Duration(i)*time.Minute))); err != nil {
				t.Fatalf("failed to create health check: %v", err)
			}
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list health checks: %v", err)
		}
		if len(all) != 4 {
			t.Fatalf("expected 4 checks, got %d", len(all))
		}
		if all[0].Status() != models.StatusDegraded {
			t.Errorf("expected newest first, got %s", all[0].Status())
		}

		healthy, _ := repo.List(map[string]any{"status": models.StatusHealthy})
		if len(healthy) != 2 {
			t.Errorf("expected 2 healthy checks, got %d", len(healthy))
		}

		recent, _ := repo.List(map[string]any{"since": base.Add(2 * time.Minute)})
		if len(recent) != 2 {
			t.Errorf("expected 2 recent checks, got %d", len(recent))
		}

		limited, _ := repo.List(map[string]any{"limit": 1, "status": "unhealthy"})
		if len(limited) != 1 || limited[0].Status() != models.StatusUnhealthy {
			t.Errorf("unexpected limited list %v", limited)
		}
	})

	t.Run("Latest", func(t *testing.T) {
		repo := NewHealthCheckRepository(setupTestDB(t))
		if _, err := repo.Latest(); err == nil {
			t.Fatal("expected error with no history")
		}

		repo.Create(models.NewHealthCheck(models.StatusHealthy, "old", 1, time.Second, base))
		repo.Create(models.NewHealthCheck(models.StatusUnhealthy, "new", 0, time.Second, base.Add(time.Hour)))

		latest, err := repo.Latest()
		if err != nil {
			t.Fatalf("failed to get latest: %v", err)
		}
		if latest.Message() != "new" {
			t.Errorf("expected newest check, got %q", latest.Message())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewHealthCheckRepository(setupTestDB(t))
		check := models.NewHealthCheck(models.StatusHealthy, "probe", 1, time.Second, base)
		repo.Create(check)

		if err := repo.Delete(check.ID()); err != nil {
			t.Fatalf("failed to delete health check: %v", err)
		}
		if _, err := repo.Get(check.ID()); err == nil {
			t.Error("deleted health check should not be retrievable")
		}
	})

	t.Run("Prune", func(t *testing.T) {
		repo := NewHealthCheckRepository(setupTestDB(t))
		for i := range 5 {
			repo.Create(models.NewHealthCheck(models.StatusHealthy, "probe", 1, time.Second, base.Add(time.Duration(i)*time.Hour)))
		}

		n, err := repo.Prune(base.Add(3 * time.Hour))
		if err != nil {
			t.Fatalf("failed to prune: %v", err)
		}
		if n != 3 {
			t.Errorf("expected 3 pruned, got %d", n)
		}
		rest, _ := repo.List(nil)
		if len(rest) != 2 {
			t.Errorf("expected 2 remaining, got %d", len(rest))
		}
	})
}

func TestErrorEventRepository(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	newEvent := func(op, kind string, status int, at time.Time) *models.ErrorEvent {
		e := models.NewErrorEvent(op, kind, status, "message for "+op).
			WithRequest("req-"+op, "GET", "/browse/"+op).
			WithIdentifier("UCabc").
			WithTechnical("'header' (path header)")
		e.SetCreatedAt(at)
		return e
	}

	t.Run("Create", func(t *testing.T) {
		repo := NewErrorEventRepository(setupTestDB(t))
		event := newEvent("get_artist", "structure_changed", 503, base)

		if err := repo.Create(event); err != nil {
			t.Fatalf("failed to create error event: %v", err)
		}
		if event.ID() == "" {
			t.Error("error event ID should be set after creation")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewErrorEventRepository(setupTestDB(t))
		event := newEvent("get_artist", "structure_changed", 503, base)
		repo.Create(event)

		got, err := repo.Get(event.ID())
		if err != nil {
			t.Fatalf("failed to get error event: %v", err)
		}

		tests := []struct {
			field, got, want string
		}{
			{"request_id", got.RequestID(), "req-get_artist"},
			{"method", got.Method(), "GET"},
			{"path", got.Path(), "/browse/get_artist"},
			{"operation", got.Operation(), "get_artist"},
			{"identifier", got.Identifier(), "UCabc"},
			{"kind", got.Kind(), "structure_changed"},
			{"technical_details", got.TechnicalDetails(), "'header' (path header)"},
		}
		for _, tt := range tests {
			if tt.got != tt.want {
				t.Errorf("%s: expected %q, got %q", tt.field, tt.want, tt.got)
			}
		}
		if got.Status() != 503 {
			t.Errorf("expected status 503, got %d", got.Status())
		}
		if !got.CreatedAt().Equal(base) {
			t.Errorf("expected created_at %s, got %s", base, got.CreatedAt())
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewErrorEventRepository(setupTestDB(t))
		repo.Create(newEvent("search", "structure_changed", 503, base))
		repo.Create(newEvent("get_artist", "not_found", 404, base.Add(time.Minute)))
		repo.Create(newEvent("search", "timeout", 504, base.Add(2*time.Minute)))

		tests := []struct {
			name     string
			criteria map[string]any
			want     int
		}{
			{"all", nil, 3},
			{"by kind", map[string]any{"kind": "not_found"}, 1},
			{"by operation", map[string]any{"operation": "search"}, 2},
			{"by status", map[string]any{"status": 504}, 1},
			{"by request", map[string]any{"request_id": "req-get_artist"}, 1},
			{"since", map[string]any{"since": base.Add(time.Minute)}, 2},
			{"limit", map[string]any{"limit": 2}, 2},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				events, err := repo.List(tt.criteria)
				if err != nil {
					t.Fatalf("failed to list: %v", err)
				}
				if len(events) != tt.want {
					t.Errorf("expected %d events, got %d", tt.want, len(events))
				}
			})
		}

		events, _ := repo.List(nil)
		if events[0].Kind() != "timeout" {
			t.Errorf("expected newest first, got %s", events[0].Kind())
		}
	})

	t.Run("CountByKind", func(t *testing.T) {
		repo := NewErrorEventRepository(setupTestDB(t))
		repo.Create(newEvent("search", "structure_changed", 503, base))
		repo.Create(newEvent("search", "structure_changed", 503, base.Add(time.Minute)))
		repo.Create(newEvent("get_song", "not_found", 404, base.Add(time.Minute)))
		repo.Create(newEvent("get_song", "timeout", 504, base.Add(-time.Hour)))

		counts, err := repo.CountByKind(base)
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if counts["structure_changed"] != 2 || counts["not_found"] != 1 {
			t.Errorf("unexpected counts %v", counts)
		}
		if _, ok := counts["timeout"]; ok {
			t.Error("events before since should not be counted")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewErrorEventRepository(setupTestDB(t))
		event := newEvent("search", "timeout", 504, base)
		repo.Create(event)

		if err := repo.Delete(event.ID()); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if _, err := repo.Get(event.ID()); err == nil {
			t.Error("deleted event should not be retrievable")
		}
	})

	t.Run("Prune", func(t *testing.T) {
		repo := NewErrorEventRepository(setupTestDB(t))
		repo.Create(newEvent("search", "timeout", 504, base.Add(-48*time.Hour)))
		repo.Create(newEvent("search", "timeout", 504, base))

		n, err := repo.Prune(base.Add(-24 * time.Hour))
		if err != nil {
			t.Fatalf("failed to prune: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 pruned, got %d", n)
		}
	})
}
