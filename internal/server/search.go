package server

import (
	"net/http"

	"github.com/desertthunder/ytmp/internal/failures"
	"github.com/desertthunder/ytmp/internal/services"
)

// defaultSearchLimit matches the upstream default page.
const defaultSearchLimit = 20

type searchHandler struct{ s *Server }

func (h *searchHandler) Tag() string { return "Search" }

func (h *searchHandler) Routes() []Route {
	return []Route{
		{http.MethodGet, "/search/health", "Probe the upstream with a minimal search", h.health},
		{http.MethodGet, "/search/search", "Search with a simplified retry on parse failures", h.search},
		{http.MethodGet, "/search/search_suggestions", "Autocomplete suggestions", h.suggestions},
		{http.MethodDelete, "/search/search_suggestions", "Remove history suggestions", h.removeSuggestions},
	}
}

// health reports the prober verdict; fresh=true skips the cache.
func (h *searchHandler) health(w http.ResponseWriter, r *http.Request) {
	op := failures.Op("health_check")
	fresh, err := queryBool(r, op, "fresh", false)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	h.s.writeJSON(w, http.StatusOK, h.s.prober.Check(r.Context(), fresh))
}

func (h *searchHandler) search(w http.ResponseWriter, r *http.Request) {
	op := failures.Op("search")
	q := r.URL.Query()

	query, err := queryRequired(r, op, "query")
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	op = failures.OpID("search", "query", query)

	limit, err := queryInt(r, op, "limit", defaultSearchLimit)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	ignoreSpelling, err := queryBool(r, op, "ignore_spelling", false)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	enrich, err := queryBool(r, op, "enrich_categories", true)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}

	opts := services.SearchOptions{
		Query:          query,
		Filter:         q.Get("filter"),
		Scope:          q.Get("scope"),
		Limit:          limit,
		IgnoreSpelling: ignoreSpelling,
	}
	res, err := h.s.engineFor(r).Search(r.Context(), opts, enrich)
	h.s.writeResult(w, r, op, res, err, "query", query)
}

func (h *searchHandler) suggestions(w http.ResponseWriter, r *http.Request) {
	op := failures.Op("get_search_suggestions")
	query, err := queryRequired(r, op, "query")
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	op = failures.OpID(op.Name, "query", query)

	detailed, err := queryBool(r, op, "detailed_runs", false)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	res, err := h.s.engineFor(r).Suggestions(r.Context(), query, detailed)
	h.s.writeResult(w, r, op, res, err, "query", query)
}

type removeSuggestionsRequest struct {
	Suggestions []services.Suggestion `json:"suggestions" validate:"required,min=1"`
	Indices     []int                 `json:"indices,omitempty"`
}

// removeSuggestions removes the suggestions at indices, or all of them when indices is empty.
func (h *searchHandler) removeSuggestions(w http.ResponseWriter, r *http.Request) {
	op := failures.Op("remove_search_suggestions",
		failures.NonHeaderParseRule(http.StatusServiceUnavailable, failures.KindStructureChanged,
			"Remove suggestions API error", "Cannot remove search suggestions due to API changes"))

	var req removeSuggestionsRequest
	if err := h.s.decode(r, op, &req); err != nil {
		h.s.writeError(w, r, op, err)
		return
	}

	picked := req.Suggestions
	if len(req.Indices) > 0 {
		picked = make([]services.Suggestion, 0, len(req.Indices))
		for _, i := range req.Indices {
			if i < 0 || i >= len(req.Suggestions) {
				h.s.writeError(w, r, op, failures.BadRequest(op, "Suggestion index out of range"))
				return
			}
			picked = append(picked, req.Suggestions[i])
		}
	}

	tokens := make([]string, 0, len(picked))
	for _, sg := range picked {
		if sg.FeedbackToken != "" {
			tokens = append(tokens, sg.FeedbackToken)
		}
	}

	removed, err := h.s.client(r).RemoveSearchSuggestions(r.Context(), tokens)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	h.s.writeJSON(w, http.StatusOK, map[string]any{"message": "OK", "query": req.Suggestions, "result": removed})
}
