package health

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmp/internal/models"
	"github.com/desertthunder/ytmp/internal/services"
)

const (
	StatusOperational = "operational"
	StatusDegraded    = "degraded"
	StatusError       = "error"
)

// Areas are the endpoint groups listed in the status report.
var Areas = []string{"search", "browse", "explore", "library", "playlists", "podcasts", "uploads"}

// StatusReport is the /api/status document.
type StatusReport struct {
	Status               string                 `json:"status"`
	Message              string                 `json:"message"`
	Timestamp            time.Time              `json:"timestamp"`
	Version              string                 `json:"version"`
	TestSearchSuccessful bool                   `json:"test_search_successful"`
	Issue                string                 `json:"issue,omitempty"`
	Recommendation       string                 `json:"recommendation,omitempty"`
	TechnicalDetails     string                 `json:"technical_details,omitempty"`
	Error                string                 `json:"error,omitempty"`
	Endpoints            map[string]string      `json:"endpoints"`
	Breaker              services.BreakerStatus `json:"breaker"`
	Uptime               string                 `json:"uptime"`
	Probe                *Report                `json:"probe"`
	RecentChecks         []*models.HealthCheck  `json:"recent_checks,omitempty"`
	ErrorCounts          map[string]int         `json:"error_counts,omitempty"`
	Process              *ProcessStats          `json:"process,omitempty"`
	System               *SystemStats           `json:"system,omitempty"`
}

// ErrorCounter counts recorded failures by kind; the sqlite error event repository satisfies it.
type ErrorCounter interface {
	CountByKind(since time.Time) (map[string]int, error)
}

// Reporter builds [StatusReport] values.
type Reporter struct {
	prober  *Prober
	errors  ErrorCounter
	version string
	started time.Time
	logger  *log.Logger

	// ErrorWindow is how far back error counts reach.
	ErrorWindow time.Duration
	// RecentChecks is how many history entries are included.
	RecentChecks int
}

// NewReporter creates a reporter. errors may be nil.
func NewReporter(prober *Prober, errors ErrorCounter, version string) *Reporter {
	return &Reporter{
		prober:       prober,
		errors:       errors,
		version:      version,
		started:      time.Now(),
		logger:       prober.logger,
		ErrorWindow:  time.Hour,
		RecentChecks: 5,
	}
}

// Status probes (through the cache) and assembles the report.
func (r *Reporter) Status(ctx context.Context) *StatusReport {
	probe := r.prober.Check(ctx, false)
	breaker := r.prober.Breaker()

	report := &StatusReport{
		Timestamp:            time.Now().UTC(),
		Version:              r.version,
		TestSearchSuccessful: probe.SearchSuccessful,
		Breaker:              breaker,
		Uptime:               time.Since(r.started).Round(time.Second).String(),
		Probe:                probe,
	}

	area := StatusOperational
	switch {
	case breaker.State == "open":
		report.Status = StatusError
		report.Message = "Upstream requests are paused after repeated failures"
		report.Recommendation = "Retry after the breaker cool-down"
		area = "unavailable"
	case probe.Status == models.StatusHealthy:
		report.Status = StatusOperational
		report.Message = "All systems operational"
	case probe.Status == models.StatusDegraded:
		report.Status = StatusDegraded
		report.Message = "YouTube Music API structure issues detected"
		report.Issue = "API response parsing errors"
		report.Recommendation = RecommendSimplified
		report.TechnicalDetails = probe.ErrorDetails
		area = StatusDegraded
	default:
		report.Status = StatusError
		report.Message = "API connectivity issues"
		report.Error = probe.ErrorDetails
		report.Recommendation = "Check internet connection and try again"
		area = StatusError
	}

	report.Endpoints = make(map[string]string, len(Areas))
	for _, a := range Areas {
		report.Endpoints[a] = area
	}

	if store := r.prober.Store(); store != nil && r.RecentChecks > 0 {
		checks, err := store.List(map[string]any{"limit": r.RecentChecks})
		if err != nil {
			r.logger.Warn("failed to load health history", "error", err)
		} else {
			report.RecentChecks = checks
		}
	}

	if r.errors != nil {
		counts, err := r.errors.CountByKind(time.Now().Add(-r.ErrorWindow))
		if err != nil {
			r.logger.Warn("failed to count error events", "error", err)
		} else {
			report.ErrorCounts = counts
		}
	}

	if stats, err := gatherProcessStats(ctx); err == nil {
		report.Process = stats
	} else {
		r.logger.Debug("process stats unavailable", "error", err)
	}
	if stats, err := gatherSystemStats(ctx); err == nil {
		report.System = stats
	} else {
		r.logger.Debug("system stats unavailable", "error", err)
	}

	return report
}
