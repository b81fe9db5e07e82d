package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/ytmp/internal/shared"
	json "github.com/goccy/go-json"
)

// HealthStatus is the verdict of one upstream probe.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Valid reports whether s is one of the known statuses.
func (s HealthStatus) Valid() bool {
	switch s {
	case StatusHealthy, StatusDegraded, StatusUnhealthy:
		return true
	}
	return false
}

// HealthCheck records one probe of the upstream search endpoint.
type HealthCheck struct {
	id           string
	status       HealthStatus
	message      string
	errorType    string
	errorDetails string
	results      int
	duration     time.Duration
	checkedAt    time.Time
}

// NewHealthCheck creates an unsaved probe record.
func NewHealthCheck(status HealthStatus, message string, results int, duration time.Duration, checkedAt time.Time) *HealthCheck {
	return &HealthCheck{
		status:    status,
		message:   message,
		results:   results,
		duration:  duration,
		checkedAt: checkedAt.UTC(),
	}
}

// WithError attaches the failure that produced a degraded or unhealthy verdict.
func (h *HealthCheck) WithError(errorType, details string) *HealthCheck {
	h.errorType = errorType
	h.errorDetails = details
	return h
}

func (h *HealthCheck) ID() string              { return h.id }
func (h *HealthCheck) SetID(id string)         { h.id = id }
func (h *HealthCheck) CreatedAt() time.Time    { return h.checkedAt }
func (h *HealthCheck) Status() HealthStatus    { return h.status }
func (h *HealthCheck) Message() string         { return h.message }
func (h *HealthCheck) ErrorType() string       { return h.errorType }
func (h *HealthCheck) ErrorDetails() string    { return h.errorDetails }
func (h *HealthCheck) Results() int            { return h.results }
func (h *HealthCheck) Duration() time.Duration { return h.duration }
func (h *HealthCheck) CheckedAt() time.Time    { return h.checkedAt }

// Validate checks the status and timestamp.
func (h *HealthCheck) Validate() error {
	if !h.status.Valid() {
		return fmt.Errorf("%w: unknown health status %q", shared.ErrInvalidInput, h.status)
	}
	if h.checkedAt.IsZero() {
		return fmt.Errorf("%w: health check has no timestamp", shared.ErrInvalidInput)
	}
	if h.results < 0 || h.duration < 0 {
		return fmt.Errorf("%w: negative result count or duration", shared.ErrInvalidInput)
	}
	return nil
}

// MarshalJSON writes the record as served by /api/health/history.
func (h *HealthCheck) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID           string       `json:"id,omitempty"`
		Status       HealthStatus `json:"status"`
		Message      string       `json:"message"`
		ErrorType    string       `json:"error_type,omitempty"`
		ErrorDetails string       `json:"error_details,omitempty"`
		Results      int          `json:"results"`
		DurationMs   int64        `json:"duration_ms"`
		CheckedAt    time.Time    `json:"checked_at"`
	}{h.id, h.status, h.message, h.errorType, h.errorDetails, h.results, h.duration.Milliseconds(), h.checkedAt})
}
