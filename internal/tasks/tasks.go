// package tasks implements the upstream operations that need more than a single client call.
//
// The core abstraction is Engine, which runs degraded retries, multi-step lookups and bulk exports.
// Failures come back as *failures.Error so handlers can write them unchanged.
package tasks

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmp/internal/failures"
	"github.com/desertthunder/ytmp/internal/metrics"
	"github.com/desertthunder/ytmp/internal/services"
	"github.com/desertthunder/ytmp/internal/shared"
)

const (
	MessageOK                 = "OK"
	MessageSimplifiedResults  = "OK (simplified results due to API changes)"
	MessageSimplifiedSuggests = "OK (simplified suggestions)"

	WarningSearchDegraded      = "Some advanced search features may be temporarily unavailable"
	WarningSuggestionsDegraded = "Detailed search suggestions temporarily unavailable"
)

// fallbackSearchLimit caps the result count of a simplified search retry.
const fallbackSearchLimit = 10

// Result is a successful response, possibly produced by a degraded retry.
type Result struct {
	Message  string
	Warning  string
	Note     string
	Data     any
	Degraded bool
}

// ok wraps data in a plain success result.
func ok(data any) *Result {
	return &Result{Message: MessageOK, Data: data}
}

// Envelope builds the response document {"message": ..., key: query, "result": ...}.
func (r *Result) Envelope(key string, query any) map[string]any {
	env := map[string]any{"message": r.Message, "result": r.Data}
	if key != "" {
		env[key] = query
	}
	if r.Warning != "" {
		env["warning"] = r.Warning
	}
	if r.Note != "" {
		env["note"] = r.Note
	}
	return env
}

// Engine runs fallback-aware operations against a [services.Client].
type Engine struct {
	client services.Client
	logger *log.Logger
}

// NewEngine creates an Engine. A nil logger writes to stderr.
func NewEngine(client services.Client, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{client: client, logger: logger}
}

// Client returns the upstream client the engine wraps.
func (e *Engine) Client() services.Client {
	return e.client
}

// WithClient returns an engine sharing the logger but calling client, used for per-request credentials.
func (e *Engine) WithClient(client services.Client) *Engine {
	return &Engine{client: client, logger: e.logger}
}

// Search runs a search and retries once with simplified parameters when the response cannot be parsed.
//
// The retry keeps the query and filter, drops scope and ignore_spelling and caps the limit at 10.
// With enrich set, every item leaves with a category.
func (e *Engine) Search(ctx context.Context, opts services.SearchOptions, enrich bool) (*Result, error) {
	op := failures.OpID("search", "query", opts.Query)

	items, err := e.client.Search(ctx, opts)
	if err == nil {
		if len(items) == 0 {
			return nil, failures.NotFound(op, "No search result found", "No results found for '"+opts.Query+"'")
		}
		return ok(enrichCategories(items, enrich)), nil
	}
	if !services.IsParseError(err) {
		return nil, failures.Classify(op, err)
	}

	e.logger.Warn("search response could not be parsed, retrying with simplified parameters",
		"query", opts.Query, "filter", opts.Filter, "error", err)

	limit := opts.Limit
	if limit <= 0 || limit > fallbackSearchLimit {
		limit = fallbackSearchLimit
	}
	simple := services.SearchOptions{Query: opts.Query, Filter: opts.Filter, Limit: limit}

	items, retryErr := e.client.Search(ctx, simple)
	if retryErr == nil && len(items) > 0 {
		metrics.RecordFallback(op.Name, true)
		e.logger.Info("simplified search recovered", "query", opts.Query, "results", len(items))
		return &Result{
			Message:  MessageSimplifiedResults,
			Warning:  WarningSearchDegraded,
			Data:     enrichCategories(items, enrich),
			Degraded: true,
		}, nil
	}

	metrics.RecordFallback(op.Name, false)
	if retryErr != nil {
		e.logger.Error("simplified search failed", "query", opts.Query, "error", retryErr)
	}

	technical := "API parsing error"
	if services.IsHeaderParseError(err) {
		technical = err.Error()
	}
	return nil, failures.New(http.StatusServiceUnavailable, failures.KindStructureChanged,
		"YouTube Music API structure has changed",
		"The search service is temporarily experiencing issues due to YouTube Music API changes. Please try again later or contact support.").
		For(op).
		WithTechnical(technical).
		Wrap(err)
}

// Suggestions returns autocomplete suggestions. A detailed request whose response cannot be parsed is retried without runs;
// only a non-empty retry counts as recovered.
func (e *Engine) Suggestions(ctx context.Context, query string, detailed bool) (*Result, error) {
	op := failures.OpID("get_search_suggestions", "query", query)

	suggestions, err := e.client.SearchSuggestions(ctx, query, detailed)
	if err == nil {
		if len(suggestions) == 0 {
			return nil, failures.NotFound(op, "No search result found", "No suggestions found for '"+query+"'")
		}
		return ok(suggestions), nil
	}
	if !services.IsParseError(err) {
		return nil, failures.Classify(op, err)
	}

	if detailed {
		e.logger.Warn("detailed suggestions could not be parsed, retrying without runs", "query", query, "error", err)
		suggestions, retryErr := e.client.SearchSuggestions(ctx, query, false)
		if retryErr == nil && len(suggestions) > 0 {
			metrics.RecordFallback(op.Name, true)
			return &Result{
				Message:  MessageSimplifiedSuggests,
				Warning:  WarningSuggestionsDegraded,
				Data:     suggestions,
				Degraded: true,
			}, nil
		}
		metrics.RecordFallback(op.Name, false)
	}

	return nil, failures.New(http.StatusServiceUnavailable, failures.KindStructureChanged,
		"Search suggestions API error",
		"Search suggestions are temporarily unavailable due to API changes").
		For(op).
		Wrap(err)
}

// categories maps result types to the shelf titles unfiltered search uses.
var categories = map[string]string{
	"song":     "Songs",
	"video":    "Videos",
	"album":    "Albums",
	"artist":   "Artists",
	"playlist": "Community playlists",
	"profile":  "Profiles",
	"podcast":  "Podcasts",
	"episode":  "Episodes",
	"station":  "Stations",
	"upload":   "Uploads",
}

// enrichCategories fills missing categories from the result type.
func enrichCategories(items []services.Item, enrich bool) []services.Item {
	if !enrich {
		return items
	}
	for i := range items {
		if items[i].Category != "" {
			continue
		}
		if c, ok := categories[items[i].ResultType]; ok {
			items[i].Category = c
		} else {
			items[i].Category = "Other"
		}
	}
	return items
}
