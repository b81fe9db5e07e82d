package server

import (
	"context"
	"net/http"

	"github.com/desertthunder/ytmp/internal/failures"
	"github.com/desertthunder/ytmp/internal/services"
	"github.com/go-chi/chi/v5"
)

type browseHandler struct{ s *Server }

func (h *browseHandler) Tag() string { return "Browse" }

func (h *browseHandler) Routes() []Route {
	return []Route{
		{http.MethodGet, "/browse/home", "Home feed shelves", h.home},
		{http.MethodGet, "/browse/artist/{channelId}", "Artist page, falling back to the user profile", h.artist},
		{http.MethodGet, "/browse/artist_videos/{channelId}", "Videos shelf of an artist", h.artistVideos},
		{http.MethodGet, "/browse/artist_albums/{channelId}", "Albums or singles of an artist", h.artistAlbums},
		{http.MethodGet, "/browse/album/{browseId}", "Album page", h.album},
		{http.MethodGet, "/browse/album_browse_id/{audioPlaylistId}", "Album browse id for an audio playlist", h.albumBrowseID},
		{http.MethodGet, "/browse/user/{channelId}", "User profile, falling back to the artist page", h.user},
		{http.MethodGet, "/browse/user_playlists/{channelId}", "Playlists of a user", h.userPlaylists},
		{http.MethodGet, "/browse/user_videos/{channelId}", "Videos of a user", h.userVideos},
		{http.MethodGet, "/browse/song/{videoId}", "Song metadata", h.song},
		{http.MethodGet, "/browse/related/{browseId}", "Related content by browse id", h.related},
		{http.MethodGet, "/browse/song_related/{songId}", "Related content by song id via the watch playlist", h.songRelated},
		{http.MethodGet, "/browse/lyrics/{browseId}", "Song lyrics", h.lyrics},
		{http.MethodGet, "/browse/tasteprofile", "Taste profile artists", h.tasteProfile},
		{http.MethodPost, "/browse/tasteprofile", "Set taste profile artists", h.setTasteProfile},
	}
}

func (h *browseHandler) home(w http.ResponseWriter, r *http.Request) {
	op := failures.Op("get_home")
	limit, err := queryInt(r, op, "limit", 3)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	h.s.fetch(w, r, op, "No home content found", func(ctx context.Context, c services.Client) (any, error) {
		return c.Home(ctx, limit)
	}, "limit", limit)
}

func (h *browseHandler) artist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "channelId")
	res, err := h.s.engineFor(r).Artist(r.Context(), id)
	h.s.writeResult(w, r, failures.OpID("get_artist", "channelId", id), res, err, "query", id)
}

func (h *browseHandler) artistVideos(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "channelId")
	res, err := h.s.engineFor(r).ArtistVideos(r.Context(), id)
	h.s.writeResult(w, r, failures.OpID("get_artist_videos", "channelId", id), res, err, "query", id)
}

func (h *browseHandler) artistAlbums(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "channelId")
	op := failures.OpID("get_artist_albums", "channelId", id)

	params, err := queryRequired(r, op, "params")
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	limit, err := queryInt(r, op, "limit", 100)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	h.s.fetch(w, r, op, "No albums found for this artist", func(ctx context.Context, c services.Client) (any, error) {
		return c.ArtistAlbums(ctx, id, params, limit)
	}, "query", id)
}

func (h *browseHandler) album(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "browseId")
	op := failures.OpID("get_album", "browseId", id)
	h.s.fetch(w, r, op, "Album not found", func(ctx context.Context, c services.Client) (any, error) {
		return c.Album(ctx, id)
	}, "query", id)
}

func (h *browseHandler) albumBrowseID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "audioPlaylistId")
	op := failures.OpID("get_album_browse_id", "audioPlaylistId", id)
	h.s.fetch(w, r, op, "Album browse ID not found", func(ctx context.Context, c services.Client) (any, error) {
		return c.AlbumBrowseID(ctx, id)
	}, "query", id)
}

func (h *browseHandler) user(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "channelId")
	res, err := h.s.engineFor(r).User(r.Context(), id)
	h.s.writeResult(w, r, failures.OpID("get_user", "channelId", id), res, err, "query", id)
}

func (h *browseHandler) userPlaylists(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "channelId")
	res, err := h.s.engineFor(r).UserPlaylists(r.Context(), id)
	h.s.writeResult(w, r, failures.OpID("get_user_playlists", "channelId", id), res, err, "query", id)
}

func (h *browseHandler) userVideos(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "channelId")
	res, err := h.s.engineFor(r).UserVideos(r.Context(), id)
	h.s.writeResult(w, r, failures.OpID("get_user_videos", "channelId", id), res, err, "query", id)
}

func (h *browseHandler) song(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "videoId")
	op := failures.OpID("get_song", "videoId", id)
	if err := requireVideoID(op, id); err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	h.s.fetch(w, r, op, "Song not found", func(ctx context.Context, c services.Client) (any, error) {
		return c.Song(ctx, id)
	}, "query", id)
}

func (h *browseHandler) related(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "browseId")
	op := failures.OpID("get_song_related", "browseId", id)
	h.s.fetch(w, r, op, "No related content found", func(ctx context.Context, c services.Client) (any, error) {
		return c.SongRelated(ctx, id)
	}, "query", id)
}

// songRelated writes the related document itself; it already carries message and songId.
func (h *browseHandler) songRelated(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "songId")
	related, err := h.s.engineFor(r).SongRelated(r.Context(), id)
	if err != nil {
		h.s.writeError(w, r, failures.OpID("get_song_related", "songId", id), err)
		return
	}
	h.s.writeJSON(w, http.StatusOK, related)
}

func (h *browseHandler) lyrics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "browseId")
	op := failures.OpID("get_lyrics", "browseId", id,
		failures.ErrorRule(services.ErrNoLyrics, http.StatusNotFound, failures.KindNotFound, "Lyrics not found", "Lyrics for "+id+" not found"))
	timestamps, err := queryBool(r, op, "timestamps", false)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	h.s.fetch(w, r, op, "Lyrics not found", func(ctx context.Context, c services.Client) (any, error) {
		return c.Lyrics(ctx, id, timestamps)
	}, "query", id)
}

func (h *browseHandler) tasteProfile(w http.ResponseWriter, r *http.Request) {
	op := failures.Op("get_tasteprofile")
	h.s.fetch(w, r, op, "", func(ctx context.Context, c services.Client) (any, error) {
		return c.TasteProfile(ctx)
	})
}

type tasteProfileRequest struct {
	Artists []string `json:"artists" validate:"required,min=1,dive,required"`
}

func (h *browseHandler) setTasteProfile(w http.ResponseWriter, r *http.Request) {
	op := failures.Op("set_tasteprofile")
	var req tasteProfileRequest
	if err := h.s.decode(r, op, &req); err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	if err := h.s.client(r).SetTasteProfile(r.Context(), req.Artists); err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	h.s.writeJSON(w, http.StatusOK, map[string]any{"message": "OK", "query": req.Artists})
}
