package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytmp/internal/models"
	"github.com/desertthunder/ytmp/internal/shared"
)

const healthCheckColumns = `id, status, message, error_type, error_details, results, duration_ms, checked_at`

// HealthCheckRepository implements [models.Repository] for [models.HealthCheck] history.
type HealthCheckRepository struct {
	db *sql.DB
}

// NewHealthCheckRepository creates a new [HealthCheckRepository] with the given database connection
func NewHealthCheckRepository(db *sql.DB) *HealthCheckRepository {
	return &HealthCheckRepository{db: db}
}

// Create inserts a probe result, generating its ID.
func (r *HealthCheckRepository) Create(check *models.HealthCheck) error {
	if err := check.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if check.ID() == "" {
		check.SetID(shared.GenerateID())
	}

	_, err := r.db.Exec(
		`INSERT INTO health_checks (`+healthCheckColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		check.ID(),
		string(check.Status()),
		check.Message(),
		check.ErrorType(),
		check.ErrorDetails(),
		check.Results(),
		check.Duration().Milliseconds(),
		check.CheckedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert health check: %w", err)
	}
	return nil
}

// Get retrieves a probe result by ID.
func (r *HealthCheckRepository) Get(id string) (*models.HealthCheck, error) {
	row := r.db.QueryRow(`SELECT `+healthCheckColumns+` FROM health_checks WHERE id = ?`, id)
	check, err := scanHealthCheck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: health check %s", shared.ErrNotFound, id)
	}
	return check, err
}

// Delete removes a probe result by ID.
func (r *HealthCheckRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM health_checks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete health check: %w", err)
	}
	return expectOne(result, "health check", id)
}

// List returns probe results newest first.
//
// Criteria: "status" (string or [models.HealthStatus]), "since" (time.Time), "limit" (int).
func (r *HealthCheckRepository) List(criteria map[string]any) ([]*models.HealthCheck, error) {
	query := `SELECT ` + healthCheckColumns + ` FROM health_checks WHERE 1 = 1`
	args := []any{}

	switch status := criteria["status"].(type) {
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	case models.HealthStatus:
		query += " AND status = ?"
		args = append(args, string(status))
	}

	if t, ok := since(criteria); ok {
		query += " AND checked_at >= ?"
		args = append(args, t.UTC())
	}

	query += " ORDER BY checked_at DESC LIMIT ?"
	args = append(args, listLimit(criteria))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query health checks: %w", err)
	}
	defer rows.Close()

	checks := []*models.HealthCheck{}
	for rows.Next() {
		check, err := scanHealthCheck(rows)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return checks, nil
}

// Latest returns the most recent probe result.
func (r *HealthCheckRepository) Latest() (*models.HealthCheck, error) {
	checks, err := r.List(map[string]any{"limit": 1})
	if err != nil {
		return nil, err
	}
	if len(checks) == 0 {
		return nil, fmt.Errorf("%w: no health checks recorded", shared.ErrNotFound)
	}
	return checks[0], nil
}

// Prune removes probe results checked before the given time.
func (r *HealthCheckRepository) Prune(before time.Time) (int64, error) {
	return prune(r.db, "health_checks", "checked_at", before)
}

func scanHealthCheck(s scanner) (*models.HealthCheck, error) {
	var (
		id           string
		status       string
		message      string
		errorType    string
		errorDetails string
		results      int
		durationMs   int64
		checkedAt    time.Time
	)
	err := s.Scan(&id, &status, &message, &errorType, &errorDetails, &results, &durationMs, &checkedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan health check: %w", err)
	}

	check := models.NewHealthCheck(models.HealthStatus(status), message, results, time.Duration(durationMs)*time.Millisecond, checkedAt)
	check.WithError(errorType, errorDetails)
	check.SetID(id)
	return check, nil
}
