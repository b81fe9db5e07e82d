package server

import (
	"context"
	"net/http"

	"github.com/desertthunder/ytmp/internal/failures"
	"github.com/desertthunder/ytmp/internal/services"
	"github.com/go-chi/chi/v5"
)

// defaultLibraryLimit matches the upstream default page of library listings.
const defaultLibraryLimit = 25

type libraryHandler struct{ s *Server }

func (h *libraryHandler) Tag() string { return "Library" }

func (h *libraryHandler) Routes() []Route {
	return []Route{
		{http.MethodGet, "/library/library_playlists", "Playlists in the library", h.playlists},
		{http.MethodGet, "/library/library_songs", "Songs in the library", h.ordered("get_library_songs", services.Client.LibrarySongs)},
		{http.MethodGet, "/library/library_albums", "Albums in the library", h.ordered("get_library_albums", services.Client.LibraryAlbums)},
		{http.MethodGet, "/library/library_artists", "Artists in the library", h.ordered("get_library_artists", services.Client.LibraryArtists)},
		{http.MethodGet, "/library/library_subscriptions", "Subscribed artists", h.ordered("get_library_subscriptions", services.Client.LibrarySubscriptions)},
		{http.MethodGet, "/library/library_podcasts", "Podcasts in the library", h.ordered("get_library_podcasts", services.Client.LibraryPodcasts)},
		{http.MethodGet, "/library/library_channels", "Channels in the library", h.ordered("get_library_channels", services.Client.LibraryChannels)},
		{http.MethodGet, "/library/liked_songs", "Liked songs playlist", h.likedSongs},
		{http.MethodGet, "/library/saved_episodes", "Saved podcast episodes", h.savedEpisodes},
		{http.MethodGet, "/library/history", "Play history", h.history},
		{http.MethodGet, "/library/account_info", "Signed-in account", h.accountInfo},
		{http.MethodPost, "/library/history/{videoId}", "Mark a song as played", h.addHistoryItem},
		{http.MethodDelete, "/library/history", "Remove history items", h.removeHistoryItems},
		{http.MethodPost, "/library/rate_song/{videoId}", "Rate a song", h.rateSong},
		{http.MethodPost, "/library/rate_playlist/{playlistId}", "Rate a playlist", h.ratePlaylist},
		{http.MethodPost, "/library/subscribe_artists", "Subscribe to artists", h.subscribe},
		{http.MethodDelete, "/library/subscribe_artists", "Unsubscribe from artists", h.unsubscribe},
		{http.MethodPatch, "/library/song_library_status", "Add or remove songs from the library", h.editSongLibraryStatus},
	}
}

func (h *libraryHandler) playlists(w http.ResponseWriter, r *http.Request) {
	op := failures.Op("get_library_playlists")
	limit, err := queryInt(r, op, "limit", defaultLibraryLimit)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	h.s.fetch(w, r, op, "", func(ctx context.Context, c services.Client) (any, error) {
		return c.LibraryPlaylists(ctx, limit)
	})
}

// ordered serves a library listing that takes limit and order.
func (h *libraryHandler) ordered(name string,
	list func(c services.Client, ctx context.Context, limit int, order string) ([]services.Item, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		op := failures.Op(name)
		limit, err := queryInt(r, op, "limit", defaultLibraryLimit)
		if err != nil {
			h.s.writeError(w, r, op, err)
			return
		}
		order := r.URL.Query().Get("order")
		h.s.fetch(w, r, op, "", func(ctx context.Context, c services.Client) (any, error) {
			return list(c, ctx, limit, order)
		})
	}
}

func (h *libraryHandler) likedSongs(w http.ResponseWriter, r *http.Request) {
	op := failures.Op("get_liked_songs")
	limit, err := queryInt(r, op, "limit", 100)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	h.s.fetch(w, r, op, "", func(ctx context.Context, c services.Client) (any, error) {
		return c.LikedSongs(ctx, limit)
	})
}

func (h *libraryHandler) savedEpisodes(w http.ResponseWriter, r *http.Request) {
	op := failures.Op("get_saved_episodes")
	limit, err := queryInt(r, op, "limit", 100)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	h.s.fetch(w, r, op, "", func(ctx context.Context, c services.Client) (any, error) {
		return c.SavedEpisodes(ctx, limit)
	})
}

func (h *libraryHandler) history(w http.ResponseWriter, r *http.Request) {
	h.s.fetch(w, r, failures.Op("get_history"), "", func(ctx context.Context, c services.Client) (any, error) {
		return c.History(ctx)
	})
}

func (h *libraryHandler) accountInfo(w http.ResponseWriter, r *http.Request) {
	h.s.fetch(w, r, failures.Op("get_account_info"), "", func(ctx context.Context, c services.Client) (any, error) {
		return c.AccountInfo(ctx)
	})
}

func (h *libraryHandler) addHistoryItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "videoId")
	op := failures.OpID("add_history_item", "videoId", id)
	if err := requireVideoID(op, id); err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	res, err := h.s.engineFor(r).AddHistoryItem(r.Context(), id)
	h.s.writeResult(w, r, op, res, err, "videoId", id)
}

type feedbackTokensRequest struct {
	FeedbackTokens []string `json:"feedbackTokens" validate:"required,min=1,dive,required"`
}

func (h *libraryHandler) removeHistoryItems(w http.ResponseWriter, r *http.Request) {
	op := failures.Op("remove_history_items")
	var req feedbackTokensRequest
	if err := h.s.decode(r, op, &req); err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	h.s.fetch(w, r, op, "", func(ctx context.Context, c services.Client) (any, error) {
		return c.RemoveHistoryItems(ctx, req.FeedbackTokens)
	}, "feedbackTokens", req.FeedbackTokens)
}

func (h *libraryHandler) editSongLibraryStatus(w http.ResponseWriter, r *http.Request) {
	op := failures.Op("edit_song_library_status")
	var req feedbackTokensRequest
	if err := h.s.decode(r, op, &req); err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	h.s.fetch(w, r, op, "", func(ctx context.Context, c services.Client) (any, error) {
		return c.EditSongLibraryStatus(ctx, req.FeedbackTokens)
	}, "feedbackTokens", req.FeedbackTokens)
}

func rating(r *http.Request) string {
	if v := r.URL.Query().Get("rating"); v != "" {
		return v
	}
	return "INDIFFERENT"
}

func (h *libraryHandler) rateSong(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "videoId")
	op := failures.OpID("rate_song", "videoId", id)
	if err := requireVideoID(op, id); err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	value := rating(r)
	h.s.fetch(w, r, op, "", func(ctx context.Context, c services.Client) (any, error) {
		return c.RateSong(ctx, id, value)
	}, "videoId", id, "rating", value)
}

func (h *libraryHandler) ratePlaylist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "playlistId")
	op := failures.OpID("rate_playlist", "playlistId", id)
	value := rating(r)
	h.s.fetch(w, r, op, "", func(ctx context.Context, c services.Client) (any, error) {
		return c.RatePlaylist(ctx, id, value)
	}, "playlistId", id, "rating", value)
}

type channelIDsRequest struct {
	ChannelIDs []string `json:"channelIds" validate:"required,min=1,dive,required"`
}

func (h *libraryHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	h.subscription(w, r, failures.Op("subscribe_artists"), services.Client.SubscribeArtists)
}

func (h *libraryHandler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	h.subscription(w, r, failures.Op("unsubscribe_artists"), services.Client.UnsubscribeArtists)
}

func (h *libraryHandler) subscription(w http.ResponseWriter, r *http.Request, op failures.Operation,
	call func(c services.Client, ctx context.Context, channelIDs []string) (services.Response, error)) {
	var req channelIDsRequest
	if err := h.s.decode(r, op, &req); err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	h.s.fetch(w, r, op, "", func(ctx context.Context, c services.Client) (any, error) {
		return call(c, ctx, req.ChannelIDs)
	}, "channelIds", req.ChannelIDs)
}
