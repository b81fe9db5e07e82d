// package repositories provides persistence layer implementations for all model types.
//
// Each repository implements models.Repository[T] for a specific record type.
package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/ytmp/internal/shared"
)

// DefaultListLimit caps List when criteria carry no "limit".
const DefaultListLimit = 100

// scanner is satisfied by [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// listLimit reads the "limit" criterion, falling back to [DefaultListLimit].
func listLimit(criteria map[string]any) int {
	if n, ok := criteria["limit"].(int); ok && n > 0 {
		return n
	}
	return DefaultListLimit
}

// since reads the "since" criterion.
func since(criteria map[string]any) (time.Time, bool) {
	t, ok := criteria["since"].(time.Time)
	return t, ok && !t.IsZero()
}

// expectOne reports [shared.ErrNotFound] when a statement touched no rows.
func expectOne(result sql.Result, what, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %s", shared.ErrNotFound, what, id)
	}
	return nil
}

// prune deletes rows of table whose column is older than before.
func prune(db *sql.DB, table, column string, before time.Time) (int64, error) {
	result, err := db.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s < ?", table, column), before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune %s: %w", table, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}
