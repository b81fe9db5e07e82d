package ui

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/ytmp/internal/health"
	"github.com/desertthunder/ytmp/internal/services"
	"github.com/desertthunder/ytmp/internal/shared"
)

// Snapshot is the part of the /api/status document the dashboard shows.
type Snapshot struct {
	Status         string                 `json:"status"`
	Message        string                 `json:"message"`
	Version        string                 `json:"version"`
	Uptime         string                 `json:"uptime"`
	Issue          string                 `json:"issue,omitempty"`
	Recommendation string                 `json:"recommendation,omitempty"`
	Breaker        services.BreakerStatus `json:"breaker"`
	Probe          *health.Report         `json:"probe"`
	ErrorCounts    map[string]int         `json:"error_counts,omitempty"`
	Process        *health.ProcessStats   `json:"process,omitempty"`
}

// ErrorRow is one entry of /api/errors.
type ErrorRow struct {
	ID               string    `json:"id"`
	RequestID        string    `json:"request_id"`
	Method           string    `json:"method"`
	Path             string    `json:"path"`
	Operation        string    `json:"operation"`
	Identifier       string    `json:"identifier"`
	Kind             string    `json:"kind"`
	Status           int       `json:"status"`
	Message          string    `json:"message"`
	TechnicalDetails string    `json:"technical_details"`
	CreatedAt        time.Time `json:"created_at"`
}

// Source supplies the monitor with data.
type Source interface {
	Status(ctx context.Context) (*Snapshot, error)
	Errors(ctx context.Context, limit int) ([]ErrorRow, error)
}

// APISource reads a running proxy over HTTP.
type APISource struct {
	api *services.APIService
}

// NewAPISource creates a [Source] backed by api.
func NewAPISource(api *services.APIService) *APISource {
	return &APISource{api: api}
}

func (s *APISource) Status(ctx context.Context) (*Snapshot, error) {
	resp, err := s.fetch(ctx, "/api/status")
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := decode("/api/status", resp, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Errors returns the newest failures. A proxy without an error store yields no rows.
func (s *APISource) Errors(ctx context.Context, limit int) ([]ErrorRow, error) {
	path := "/api/errors?limit=" + strconv.Itoa(limit)
	resp, err := s.fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, nil
	}
	var page struct {
		Result []ErrorRow `json:"result"`
	}
	if err := decode(path, resp, &page); err != nil {
		return nil, err
	}
	return page.Result, nil
}

func (s *APISource) fetch(ctx context.Context, path string) (*services.APIResponse, error) {
	resp, err := s.api.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}
	return resp, nil
}

func decode(path string, resp *services.APIResponse, v any) error {
	if !resp.OK() {
		if d := resp.Detail(); d != nil {
			return fmt.Errorf("%w: %s returned %d: %v", shared.ErrAPIRequest, path, resp.StatusCode, d["message"])
		}
		return fmt.Errorf("%w: %s returned %d", shared.ErrAPIRequest, path, resp.StatusCode)
	}
	return resp.Decode(v)
}
