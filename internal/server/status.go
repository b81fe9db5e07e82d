package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/ytmp/internal/failures"
	"github.com/desertthunder/ytmp/internal/shared"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// statusHandler serves the index, liveness, status report, histories and metrics.
type statusHandler struct{ s *Server }

func (h *statusHandler) Tag() string { return "Status" }

func (h *statusHandler) Routes() []Route {
	return []Route{
		{http.MethodGet, "/", "Service index", h.index},
		{http.MethodGet, "/health", "Process liveness", h.live},
		{http.MethodGet, "/api/status", "Global status report", h.status},
		{http.MethodGet, "/api/errors", "Recent classified failures", h.errors},
		{http.MethodGet, "/api/health/history", "Upstream probe history", h.history},
		{http.MethodGet, "/metrics", "Prometheus metrics", promhttp.Handler().ServeHTTP},
	}
}

var features = []string{
	"Search music content",
	"Browse artists, albums, playlists",
	"Explore charts and moods",
	"Library management",
	"Podcast support",
	"Upload management",
	"Comprehensive error handling",
	"Playlist export",
}

func (h *statusHandler) index(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"message":      "ytmp is running!",
		"status":       "healthy",
		"version":      h.s.version,
		"features":     features,
		"health_check": "/search/health",
		"status_page":  "/api/status",
	}
	if h.s.cfg.Server.Docs {
		body["documentation"] = "/docs/"
	}
	h.s.writeJSON(w, http.StatusOK, body)
}

func (h *statusHandler) live(w http.ResponseWriter, r *http.Request) {
	h.s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "version": h.s.version})
}

func (h *statusHandler) status(w http.ResponseWriter, r *http.Request) {
	h.s.writeJSON(w, http.StatusOK, h.s.reporter.Status(r.Context()))
}

func (h *statusHandler) errors(w http.ResponseWriter, r *http.Request) {
	op := failures.Op("list_errors")
	if h.s.events == nil {
		h.s.writeError(w, r, op, storeDisabled(op, "Error history"))
		return
	}

	criteria, err := historyCriteria(r, op)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	q := r.URL.Query()
	for _, key := range []string{"kind", "operation", "request_id"} {
		if v := q.Get(key); v != "" {
			criteria[key] = v
		}
	}
	status, err := queryInt(r, op, "status", 0)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	criteria["status"] = status

	events, err := h.s.events.List(criteria)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	h.s.writeJSON(w, http.StatusOK, map[string]any{"message": "OK", "count": len(events), "result": events})
}

func (h *statusHandler) history(w http.ResponseWriter, r *http.Request) {
	op := failures.Op("health_history")
	store := h.s.prober.Store()
	if store == nil {
		h.s.writeError(w, r, op, storeDisabled(op, "Health history"))
		return
	}

	criteria, err := historyCriteria(r, op)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	if v := r.URL.Query().Get("status"); v != "" {
		criteria["status"] = v
	}

	checks, err := store.List(criteria)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	h.s.writeJSON(w, http.StatusOK, map[string]any{"message": "OK", "count": len(checks), "result": checks})
}

// historyCriteria reads "limit" and "since". since is a duration back from now ("1h") or an RFC 3339 time.
func historyCriteria(r *http.Request, op failures.Operation) (map[string]any, error) {
	criteria := map[string]any{}

	limit, err := queryInt(r, op, "limit", 0)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, failures.BadRequest(op, "Query parameter 'limit' must not be negative")
	}
	criteria["limit"] = limit

	if v := r.URL.Query().Get("since"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			criteria["since"] = time.Now().Add(-d)
		} else if t, err := time.Parse(time.RFC3339, v); err == nil {
			criteria["since"] = t
		} else {
			return nil, failures.BadRequest(op, fmt.Sprintf("Query parameter 'since' must be a duration or RFC 3339 time, got %q", v))
		}
	}
	return criteria, nil
}

func storeDisabled(op failures.Operation, what string) *failures.Error {
	return failures.New(http.StatusServiceUnavailable, failures.KindUnavailable, what+" unavailable",
		"Persistence is disabled; set [database] path in the configuration").
		For(op).
		Wrap(shared.ErrStoreDisabled)
}
