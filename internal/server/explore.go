package server

import (
	"context"
	"net/http"

	"github.com/desertthunder/ytmp/internal/failures"
	"github.com/desertthunder/ytmp/internal/services"
	"github.com/go-chi/chi/v5"
)

// defaultChartsCountry is the global chart.
const defaultChartsCountry = "ZZ"

// exploreHandler serves mood, chart and watch routes.
type exploreHandler struct{ s *Server }

func (h *exploreHandler) Tag() string { return "Explore" }

func (h *exploreHandler) Routes() []Route {
	return []Route{
		{http.MethodGet, "/explore/mood_categories", "Mood and genre categories", h.moodCategories},
		{http.MethodGet, "/explore/mood_playlists/{params}", "Playlists of a mood category", h.moodPlaylists},
		{http.MethodGet, "/explore/charts", "Global charts", h.charts},
		{http.MethodGet, "/explore/charts/{country}", "Charts for a country", h.charts},
		{http.MethodGet, "/watch/mood_categories", "Mood and genre categories", h.moodCategories},
		{http.MethodGet, "/watch/watch/{videoId}", "Up-next queue for a video", h.watch},
	}
}

func (h *exploreHandler) moodCategories(w http.ResponseWriter, r *http.Request) {
	op := failures.Op("get_mood_categories")
	h.s.fetch(w, r, op, "No mood categories found", func(ctx context.Context, c services.Client) (any, error) {
		return c.MoodCategories(ctx)
	})
}

func (h *exploreHandler) moodPlaylists(w http.ResponseWriter, r *http.Request) {
	params := chi.URLParam(r, "params")
	op := failures.OpID("get_mood_playlists", "params", params)
	h.s.fetch(w, r, op, "No mood playlists found", func(ctx context.Context, c services.Client) (any, error) {
		return c.MoodPlaylists(ctx, params)
	}, "query", params)
}

func (h *exploreHandler) charts(w http.ResponseWriter, r *http.Request) {
	country := chi.URLParam(r, "country")
	if country == "" {
		country = defaultChartsCountry
	}
	op := failures.OpID("get_charts", "country", country,
		failures.MessageRule(http.StatusBadRequest, failures.KindInvalidInput, "Invalid country code",
			"Invalid country code: "+country+". Please use a valid ISO country code.", "invalid", "not supported", "unsupported"))
	h.s.fetch(w, r, op, "No charts found for country: "+country, func(ctx context.Context, c services.Client) (any, error) {
		return c.Charts(ctx, country)
	}, "query", country)
}

func (h *exploreHandler) watch(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoId")
	op := failures.OpID("get_watch_playlist", "videoId", videoID)
	if err := requireVideoID(op, videoID); err != nil {
		h.s.writeError(w, r, op, err)
		return
	}

	limit, err := queryInt(r, op, "limit", 25)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	radio, err := queryBool(r, op, "radio", false)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	shuffle, err := queryBool(r, op, "shuffle", false)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}

	playlistID := r.URL.Query().Get("playlistId")
	res, err := h.s.engineFor(r).Watch(r.Context(), services.WatchOptions{
		VideoID:    videoID,
		PlaylistID: playlistID,
		Limit:      limit,
		Radio:      radio,
		Shuffle:    shuffle,
	})

	var pid any
	if playlistID != "" {
		pid = playlistID
	}
	h.s.writeResult(w, r, op, res, err, "videoId", videoID, "playlistId", pid)
}
