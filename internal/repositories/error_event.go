package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytmp/internal/models"
	"github.com/desertthunder/ytmp/internal/shared"
)

const errorEventColumns = `id, request_id, method, path, operation, identifier, kind, status, message, technical_details, created_at`

// ErrorEventRepository implements [models.Repository] for [models.ErrorEvent] persistence.
//
// Handles the classified failures the server returned, queried by kind, operation and status.
type ErrorEventRepository struct {
	db *sql.DB
}

// NewErrorEventRepository creates a new ErrorEventRepository with the given database connection
func NewErrorEventRepository(db *sql.DB) *ErrorEventRepository {
	return &ErrorEventRepository{db: db}
}

// Create inserts an error event with a generated ID
func (r *ErrorEventRepository) Create(event *models.ErrorEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if event.ID() == "" {
		event.SetID(shared.GenerateID())
	}

	query := `
		INSERT INTO error_events (` + errorEventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		event.ID(),
		event.RequestID(),
		event.Method(),
		event.Path(),
		event.Operation(),
		event.Identifier(),
		event.Kind(),
		event.Status(),
		event.Message(),
		event.TechnicalDetails(),
		event.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert error event: %w", err)
	}

	return nil
}

// Get retrieves an error event by ID
func (r *ErrorEventRepository) Get(id string) (*models.ErrorEvent, error) {
	row := r.db.QueryRow(`SELECT `+errorEventColumns+` FROM error_events WHERE id = ?`, id)
	event, err := scanErrorEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: error event %s", shared.ErrNotFound, id)
	}
	return event, err
}

// Delete removes an error event by ID
func (r *ErrorEventRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM error_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete error event: %w", err)
	}
	return expectOne(result, "error event", id)
}

// List retrieves error events newest first.
//
// Criteria: "kind", "operation", "request_id" (string), "status" (int), "since" (time.Time), "limit" (int).
func (r *ErrorEventRepository) List(criteria map[string]any) ([]*models.ErrorEvent, error) {
	query := `SELECT ` + errorEventColumns + ` FROM error_events WHERE 1 = 1`
	args := []any{}

	for _, key := range []string{"kind", "operation", "request_id"} {
		if v, ok := criteria[key].(string); ok && v != "" {
			query += " AND " + key + " = ?"
			args = append(args, v)
		}
	}

	if status, ok := criteria["status"].(int); ok && status != 0 {
		query += " AND status = ?"
		args = append(args, status)
	}

	if t, ok := since(criteria); ok {
		query += " AND created_at >= ?"
		args = append(args, t.UTC())
	}

	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, listLimit(criteria))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query error events: %w", err)
	}
	defer rows.Close()

	events := []*models.ErrorEvent{}
	for rows.Next() {
		event, err := scanErrorEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

// CountByKind returns the number of events per kind created at or after since.
func (r *ErrorEventRepository) CountByKind(since time.Time) (map[string]int, error) {
	rows, err := r.db.Query(`SELECT kind, COUNT(*) FROM error_events WHERE created_at >= ? GROUP BY kind`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to count error events: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			kind  string
			count int
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("failed to scan error count: %w", err)
		}
		counts[kind] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return counts, nil
}

// Prune removes error events created before the given time
func (r *ErrorEventRepository) Prune(before time.Time) (int64, error) {
	return prune(r.db, "error_events", "created_at", before)
}

// scanErrorEvent scans a single row into a [models.ErrorEvent]
func scanErrorEvent(s scanner) (*models.ErrorEvent, error) {
	var (
		id         string
		requestID  string
		method     string
		path       string
		operation  string
		identifier string
		kind       string
		status     int
		message    string
		technical  string
		createdAt  time.Time
	)

	err := s.Scan(&id, &requestID, &method, &path, &operation, &identifier, &kind, &status, &message, &technical, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan error event: %w", err)
	}

	event := models.NewErrorEvent(operation, kind, status, message).
		WithRequest(requestID, method, path).
		WithIdentifier(identifier).
		WithTechnical(technical)
	event.SetID(id)
	event.SetCreatedAt(createdAt)
	return event, nil
}
