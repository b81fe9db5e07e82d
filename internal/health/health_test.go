package health

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmp/internal/models"
	"github.com/desertthunder/ytmp/internal/services"
	"github.com/desertthunder/ytmp/internal/shared"
	th "github.com/desertthunder/ytmp/internal/testing"
	json "github.com/goccy/go-json"
)

type memoryStore struct {
	mu      sync.Mutex
	checks  []*models.HealthCheck
	pruned  []time.Time
	failing bool
}

func (s *memoryStore) Create(c *models.HealthCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("disk full")
	}
	s.checks = append(s.checks, c)
	return nil
}

func (s *memoryStore) List(criteria map[string]any) ([]*models.HealthCheck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.HealthCheck{}
	for i := len(s.checks) - 1; i >= 0; i-- {
		out = append(out, s.checks[i])
	}
	if n, ok := criteria["limit"].(int); ok && n < len(out) {
		out = out[:n]
	}
	return out, nil
}

func (s *memoryStore) Prune(before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruned = append(s.pruned, before)
	return 0, nil
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.checks)
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time           { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newProber(m *th.MockClient, store Store, ttl time.Duration) (*Prober, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	p := NewProber(m, store, shared.HealthConfig{ProbeQuery: "probe", CacheTTL: ttl}, log.New(io.Discard))
	p.now = clock.now
	return p, clock
}

func TestProber_Check(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		items          []services.Item
		status         models.HealthStatus
		errorType      string
		recommendation string
		searchOK       bool
	}{
		{"healthy", nil, []services.Item{{Title: "x"}}, models.StatusHealthy, "", "", true},
		{"healthy without results", nil, []services.Item{}, models.StatusHealthy, "", "", false},
		{"degraded on parse error", &services.ParseError{Key: "contents"}, nil, models.StatusDegraded, "structure_changed", RecommendSimplified, false},
		{"unhealthy on connection error", &services.ConnectionError{Err: errors.New("refused")}, nil, models.StatusUnhealthy, "connection", RecommendConnectivity, false},
		{"unhealthy on timeout", &services.TimeoutError{Err: context.DeadlineExceeded}, nil, models.StatusUnhealthy, "timeout", RecommendConnectivity, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got services.SearchOptions
			m := &th.MockClient{SearchFunc: func(ctx context.Context, opts services.SearchOptions) ([]services.Item, error) {
				got = opts
				return tt.items, tt.err
			}}
			p, _ := newProber(m, nil, time.Minute)

			r := p.Check(context.Background(), false)
			if r.Status != tt.status {
				t.Errorf("status = %s, want %s", r.Status, tt.status)
			}
			if r.ErrorType != tt.errorType {
				t.Errorf("error type = %q, want %q", r.ErrorType, tt.errorType)
			}
			if r.Recommendation != tt.recommendation {
				t.Errorf("recommendation = %q, want %q", r.Recommendation, tt.recommendation)
			}
			if r.SearchSuccessful != tt.searchOK {
				t.Errorf("search successful = %v, want %v", r.SearchSuccessful, tt.searchOK)
			}
			if r.UpstreamWorking != (tt.err == nil) {
				t.Errorf("upstream working = %v", r.UpstreamWorking)
			}
			if tt.err != nil && r.ErrorDetails != tt.err.Error() {
				t.Errorf("error details = %q", r.ErrorDetails)
			}
			if got.Query != "probe" || got.Limit != 1 {
				t.Errorf("probe search = %+v", got)
			}
		})
	}
}

func TestReport_Keys(t *testing.T) {
	r := &Report{Status: models.StatusHealthy, UpstreamWorking: true, SearchSuccessful: true}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"status", "message", "upstream_working", "test_search_successful"} {
		if _, ok := body[key]; !ok {
			t.Errorf("missing %q in %s", key, data)
		}
	}
	if _, ok := body["error_type"]; ok {
		t.Errorf("expected error fields to be omitted on success, got %s", data)
	}
}

func TestProber_Cache(t *testing.T) {
	t.Run("reports are cached for the ttl", func(t *testing.T) {
		m := &th.MockClient{}
		p, clock := newProber(m, nil, time.Minute)

		first := p.Check(context.Background(), false)
		if first.Cached {
			t.Error("first report should not be cached")
		}

		clock.advance(30 * time.Second)
		second := p.Check(context.Background(), false)
		if !second.Cached || m.CallCount("Search") != 1 {
			t.Errorf("expected cached report, cached=%v calls=%d", second.Cached, m.CallCount("Search"))
		}

		clock.advance(31 * time.Second)
		third := p.Check(context.Background(), false)
		if third.Cached || m.CallCount("Search") != 2 {
			t.Errorf("expected fresh probe after ttl, cached=%v calls=%d", third.Cached, m.CallCount("Search"))
		}
	})

	t.Run("fresh bypasses the cache", func(t *testing.T) {
		m := &th.MockClient{}
		p, _ := newProber(m, nil, time.Hour)
		p.Check(context.Background(), false)
		if r := p.Check(context.Background(), true); r.Cached {
			t.Error("fresh report should not be cached")
		}
		if m.CallCount("Search") != 2 {
			t.Errorf("expected 2 probes, got %d", m.CallCount("Search"))
		}
	})

	t.Run("zero ttl disables caching", func(t *testing.T) {
		m := &th.MockClient{}
		p, _ := newProber(m, nil, 0)
		p.Check(context.Background(), false)
		p.Check(context.Background(), false)
		if m.CallCount("Search") != 2 {
			t.Errorf("expected 2 probes, got %d", m.CallCount("Search"))
		}
	})

	t.Run("cached copies do not alias", func(t *testing.T) {
		p, _ := newProber(&th.MockClient{}, nil, time.Hour)
		r := p.Check(context.Background(), false)
		r.Message = "changed"
		if p.Last().Message == "changed" {
			t.Error("caller mutated the cached report")
		}
	})
}

func TestProber_History(t *testing.T) {
	t.Run("probes are recorded", func(t *testing.T) {
		store := &memoryStore{}
		p, _ := newProber(&th.MockClient{Err: &services.ParseError{Key: "header"}}, store, time.Hour)

		p.Check(context.Background(), true)
		p.Check(context.Background(), false)

		if store.count() != 1 {
			t.Fatalf("expected 1 recorded check, got %d", store.count())
		}
		rec := store.checks[0]
		if rec.Status() != models.StatusDegraded || rec.ErrorType() != "structure_changed" {
			t.Errorf("unexpected record %s %s", rec.Status(), rec.ErrorType())
		}
	})

	t.Run("store failures do not fail the probe", func(t *testing.T) {
		p, _ := newProber(&th.MockClient{}, &memoryStore{failing: true}, time.Hour)
		if r := p.Check(context.Background(), true); r.Status != models.StatusHealthy {
			t.Errorf("status = %s", r.Status)
		}
	})

	t.Run("prune uses retention", func(t *testing.T) {
		store := &memoryStore{}
		p, clock := newProber(&th.MockClient{}, store, time.Hour)
		p.retention = 24 * time.Hour
		p.pruneHistory()
		if len(store.pruned) != 1 || !store.pruned[0].Equal(clock.t.Add(-24*time.Hour)) {
			t.Errorf("unexpected prune calls %v", store.pruned)
		}
	})
}

func TestProber_Serve(t *testing.T) {
	store := &memoryStore{}
	p, _ := newProber(&th.MockClient{}, store, time.Hour)
	p.now = time.Now
	p.interval = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := p.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context error, got %v", err)
	}
	if store.count() < 2 {
		t.Errorf("expected repeated probes, got %d", store.count())
	}
	if p.String() != "health-prober" {
		t.Errorf("unexpected service name %q", p.String())
	}
}

type countsFunc func(time.Time) (map[string]int, error)

func (f countsFunc) CountByKind(since time.Time) (map[string]int, error) { return f(since) }

func TestReporter_Status(t *testing.T) {
	tests := []struct {
		name    string
		client  *th.MockClient
		status  string
		area    string
		message string
	}{
		{"operational", &th.MockClient{}, StatusOperational, StatusOperational, "All systems operational"},
		{"degraded", &th.MockClient{Err: &services.ParseError{Key: "contents"}}, StatusDegraded, StatusDegraded, "YouTube Music API structure issues detected"},
		{"error", &th.MockClient{Err: &services.ConnectionError{Err: errors.New("dns")}}, StatusError, StatusError, "API connectivity issues"},
		{"breaker open", &th.MockClient{BreakerStatus: services.BreakerStatus{Name: "innertube", State: "open"}}, StatusError, "unavailable", "Upstream requests are paused after repeated failures"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryStore{}
			p, _ := newProber(tt.client, store, time.Minute)
			counts := countsFunc(func(time.Time) (map[string]int, error) {
				return map[string]int{"structure_changed": 3}, nil
			})

			report := NewReporter(p, counts, "1.2.3").Status(context.Background())
			if report.Status != tt.status || report.Message != tt.message {
				t.Errorf("got %s %q, want %s %q", report.Status, report.Message, tt.status, tt.message)
			}
			if report.Version != "1.2.3" {
				t.Errorf("version = %q", report.Version)
			}
			for _, a := range Areas {
				if report.Endpoints[a] != tt.area {
					t.Errorf("endpoint %s = %q, want %q", a, report.Endpoints[a], tt.area)
				}
			}
			if len(report.RecentChecks) != 1 {
				t.Errorf("expected 1 recent check, got %d", len(report.RecentChecks))
			}
			if report.ErrorCounts["structure_changed"] != 3 {
				t.Errorf("unexpected error counts %v", report.ErrorCounts)
			}
		})
	}

	t.Run("degraded carries technical details", func(t *testing.T) {
		p, _ := newProber(&th.MockClient{Err: &services.ParseError{Key: "header", Path: "header"}}, nil, time.Minute)
		report := NewReporter(p, nil, "dev").Status(context.Background())
		if report.Issue != "API response parsing errors" || report.Recommendation != RecommendSimplified {
			t.Errorf("unexpected report %+v", report)
		}
		if report.TechnicalDetails == "" {
			t.Error("technical details should be set")
		}
		if report.RecentChecks != nil || report.ErrorCounts != nil {
			t.Error("history and counts should be absent without stores")
		}
	})
}

func TestHumanBytes(t *testing.T) {
	tests := map[uint64]string{
		512:             "512 B",
		2048:            "2.00 KiB",
		5 * 1024 * 1024: "5.00 MiB",
		3 << 30:         "3.00 GiB",
	}
	for in, want := range tests {
		if got := humanBytes(in); got != want {
			t.Errorf("humanBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
