package health

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmp/internal/failures"
	"github.com/desertthunder/ytmp/internal/metrics"
	"github.com/desertthunder/ytmp/internal/models"
	"github.com/desertthunder/ytmp/internal/services"
	"github.com/desertthunder/ytmp/internal/shared"
)

const (
	RecommendSimplified   = "Use simplified search parameters"
	RecommendConnectivity = "Check internet connection and try again later"

	defaultProbeQuery   = "test"
	defaultProbeTimeout = 15 * time.Second
)

// Report is the outcome of one upstream probe.
type Report struct {
	Status           models.HealthStatus `json:"status"`
	Message          string              `json:"message"`
	UpstreamWorking  bool                `json:"upstream_working"`
	SearchSuccessful bool                `json:"test_search_successful"`
	ErrorType        string              `json:"error_type,omitempty"`
	ErrorDetails     string              `json:"error_details,omitempty"`
	Recommendation   string              `json:"recommendation,omitempty"`
	Results          int                 `json:"-"`
	Duration         time.Duration       `json:"-"`
	DurationMs       int64               `json:"duration_ms"`
	CheckedAt        time.Time           `json:"checked_at"`
	Cached           bool                `json:"cached"`
}

// Record converts the report into a persistable [models.HealthCheck].
func (r *Report) Record() *models.HealthCheck {
	return models.NewHealthCheck(r.Status, r.Message, r.Results, r.Duration, r.CheckedAt).
		WithError(r.ErrorType, r.ErrorDetails)
}

// Store persists probe history; the sqlite health check repository satisfies it.
type Store interface {
	Create(check *models.HealthCheck) error
	List(criteria map[string]any) ([]*models.HealthCheck, error)
	Prune(before time.Time) (int64, error)
}

// Prober checks the upstream with a minimal search.
type Prober struct {
	client    services.Client
	store     Store
	logger    *log.Logger
	query     string
	ttl       time.Duration
	interval  time.Duration
	retention time.Duration
	timeout   time.Duration
	now       func() time.Time

	mu   sync.Mutex
	last *Report
}

// NewProber creates a prober from cfg. A nil store disables history.
func NewProber(client services.Client, store Store, cfg shared.HealthConfig, logger *log.Logger) *Prober {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	query := cfg.ProbeQuery
	if query == "" {
		query = defaultProbeQuery
	}
	return &Prober{
		client:    client,
		store:     store,
		logger:    shared.WithLogger(logger, "component", "health"),
		query:     query,
		ttl:       cfg.CacheTTL,
		interval:  cfg.Interval,
		retention: cfg.Retention,
		timeout:   defaultProbeTimeout,
		now:       time.Now,
	}
}

// Breaker reports the upstream circuit breaker state.
func (p *Prober) Breaker() services.BreakerStatus {
	return p.client.Breaker()
}

// Store returns the history store, which may be nil.
func (p *Prober) Store() Store {
	return p.store
}

// Last returns a copy of the most recent report without probing, or nil.
func (p *Prober) Last() *Report {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return nil
	}
	r := *p.last
	return &r
}

// Check returns the cached report while it is younger than the TTL, probing otherwise.
// fresh forces a probe.
func (p *Prober) Check(ctx context.Context, fresh bool) *Report {
	if !fresh {
		p.mu.Lock()
		if p.last != nil && p.ttl > 0 && p.now().Sub(p.last.CheckedAt) < p.ttl {
			r := *p.last
			r.Cached = true
			p.mu.Unlock()
			return &r
		}
		p.mu.Unlock()
	}

	r := p.probe(ctx)

	p.mu.Lock()
	p.last = r
	p.mu.Unlock()

	metrics.SetHealth(string(r.Status), r.Duration)
	if p.store != nil {
		if err := p.store.Create(r.Record()); err != nil {
			p.logger.Warn("failed to record health check", "error", err)
		}
	}

	out := *r
	return &out
}

func (p *Prober) probe(ctx context.Context) *Report {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := p.now()
	items, err := p.client.Search(ctx, services.SearchOptions{Query: p.query, Limit: 1})
	r := &Report{CheckedAt: start.UTC(), Duration: p.now().Sub(start)}
	r.DurationMs = r.Duration.Milliseconds()

	switch {
	case err == nil:
		r.Status = models.StatusHealthy
		r.Message = "YouTube Music API is working correctly"
		r.UpstreamWorking = true
		r.SearchSuccessful = len(items) > 0
		r.Results = len(items)

	case services.IsParseError(err):
		r.Status = models.StatusDegraded
		r.Message = "YouTube Music API has structure issues but may still work for simple queries"
		r.ErrorType = string(failures.KindStructureChanged)
		r.ErrorDetails = err.Error()
		r.Recommendation = RecommendSimplified

	default:
		r.Status = models.StatusUnhealthy
		r.Message = "YouTube Music API is not working"
		r.ErrorType = string(failures.Classify(failures.Op("health_check"), err).Kind)
		r.ErrorDetails = err.Error()
		r.Recommendation = RecommendConnectivity
	}

	p.logger.Log(probeLevel(r.Status), "upstream probe", "status", r.Status, "duration", r.Duration, "error", r.ErrorDetails)
	return r
}

func probeLevel(s models.HealthStatus) log.Level {
	switch s {
	case models.StatusHealthy:
		return log.DebugLevel
	case models.StatusDegraded:
		return log.WarnLevel
	}
	return log.ErrorLevel
}

// Serve probes on the configured interval until ctx is done. It implements suture.Service.
func (p *Prober) Serve(ctx context.Context) error {
	interval := p.interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.Check(ctx, true)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Check(ctx, true)
			p.pruneHistory()
		}
	}
}

func (p *Prober) pruneHistory() {
	if p.store == nil || p.retention <= 0 {
		return
	}
	n, err := p.store.Prune(p.now().Add(-p.retention))
	if err != nil {
		p.logger.Warn("failed to prune health history", "error", err)
		return
	}
	if n > 0 {
		p.logger.Debug("pruned health history", "removed", n)
	}
}

func (p *Prober) String() string { return "health-prober" }
