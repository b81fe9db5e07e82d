package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/ytmp/internal/shared"
	json "github.com/goccy/go-json"
)

// ErrorEvent records one classified failure returned to a client.
type ErrorEvent struct {
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
}

// NewErrorEvent creates an unsaved event for a failure of operation.
func NewErrorEvent(operation, kind string, status int, message string) *ErrorEvent {
	return &ErrorEvent{
		operation: operation,
		kind:      kind,
		status:    status,
		message:   message,
		createdAt: time.Now().UTC(),
	}
}

// WithRequest records the request that failed.
func (e *ErrorEvent) WithRequest(requestID, method, path string) *ErrorEvent {
	e.requestID = requestID
	e.method = method
	e.path = path
	return e
}

func (e *ErrorEvent) WithIdentifier(id string) *ErrorEvent {
	e.identifier = id
	return e
}

func (e *ErrorEvent) WithTechnical(details string) *ErrorEvent {
	e.technical = details
	return e
}

func (e *ErrorEvent) ID() string                  { return e.id }
func (e *ErrorEvent) SetID(id string)             { e.id = id }
func (e *ErrorEvent) CreatedAt() time.Time        { return e.createdAt }
func (e *ErrorEvent) SetCreatedAt(t time.Time)    { e.createdAt = t.UTC() }
func (e *ErrorEvent) RequestID() string           { return e.requestID }
func (e *ErrorEvent) Method() string              { return e.method }
func (e *ErrorEvent) Path() string                { return e.path }
func (e *ErrorEvent) Operation() string           { return e.operation }
func (e *ErrorEvent) Identifier() string          { return e.identifier }
func (e *ErrorEvent) Kind() string                { return e.kind }
func (e *ErrorEvent) Status() int                 { return e.status }
func (e *ErrorEvent) Message() string             { return e.message }
func (e *ErrorEvent) TechnicalDetails() string    { return e.technical }

// Validate requires an operation, a kind and an error status.
func (e *ErrorEvent) Validate() error {
	if e.operation == "" {
		return fmt.Errorf("%w: error event has no operation", shared.ErrInvalidInput)
	}
	if e.kind == "" {
		return fmt.Errorf("%w: error event has no kind", shared.ErrInvalidInput)
	}
	if e.status < 400 || e.status > 599 {
		return fmt.Errorf("%w: status %d is not an error status", shared.ErrInvalidInput, e.status)
	}
	return nil
}

// MarshalJSON writes the event as served by /api/errors.
func (e *ErrorEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID               string    `json:"id,omitempty"`
		RequestID        string    `json:"request_id,omitempty"`
		Method           string    `json:"method,omitempty"`
		Path             string    `json:"path,omitempty"`
		Operation        string    `json:"operation"`
		Identifier       string    `json:"identifier,omitempty"`
		Kind             string    `json:"kind"`
		Status           int       `json:"status"`
		Message          string    `json:"message"`
		TechnicalDetails string    `json:"technical_details,omitempty"`
		CreatedAt        time.Time `json:"created_at"`
	}{e.id, e.requestID, e.method, e.path, e.operation, e.identifier, e.kind, e.status, e.message, e.technical, e.createdAt})
}
