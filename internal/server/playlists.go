package server

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/desertthunder/ytmp/internal/failures"
	"github.com/desertthunder/ytmp/internal/formatter"
	"github.com/desertthunder/ytmp/internal/services"
	"github.com/go-chi/chi/v5"
)

type playlistHandler struct{ s *Server }

func (h *playlistHandler) Tag() string { return "Playlists" }

func (h *playlistHandler) Routes() []Route {
	return []Route{
		{http.MethodGet, "/playlists/{playlistId}", "Playlist with tracks", h.get},
		{http.MethodGet, "/playlists/{playlistId}/export", "Download a playlist as json, csv, markdown or txt", h.export},
		{http.MethodPost, "/playlists", "Create a playlist", h.create},
		{http.MethodPost, "/playlists/", "Create a playlist", h.create},
		{http.MethodPatch, "/playlists", "Edit a playlist", h.edit},
		{http.MethodPatch, "/playlists/", "Edit a playlist", h.edit},
		{http.MethodDelete, "/playlists/{playlistId}", "Delete a playlist", h.delete},
		{http.MethodPost, "/playlists/items", "Add items to a playlist", h.addItems},
		{http.MethodDelete, "/playlists/items/{playlistId}", "Remove items from a playlist", h.removeItems},
	}
}

// playlistOp names a playlist operation with its not-found and permission messages.
func playlistOp(name, id, action string) failures.Operation {
	return failures.OpID(name, "playlistId", id,
		failures.MessageRule(http.StatusNotFound, failures.KindNotFound, "Not found",
			fmt.Sprintf("Playlist with ID %s not found or unavailable", id), "not found", "unavailable"),
		failures.MessageRule(http.StatusForbidden, failures.KindForbidden, "Access forbidden",
			"You don't have permission to "+action+" this playlist", "permission", "forbidden"))
}

func (h *playlistHandler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "playlistId")
	op := playlistOp("get_playlist", id, "view")

	opts, err := playlistOptions(r, op)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	h.s.fetch(w, r, op, "Playlist not found", func(ctx context.Context, c services.Client) (any, error) {
		return c.Playlist(ctx, id, opts)
	}, "playlistId", id)
}

func playlistOptions(r *http.Request, op failures.Operation) (services.PlaylistOptions, error) {
	limit, err := queryInt(r, op, "limit", 100)
	if err != nil {
		return services.PlaylistOptions{}, err
	}
	related, err := queryBool(r, op, "related", false)
	if err != nil {
		return services.PlaylistOptions{}, err
	}
	suggestions, err := queryInt(r, op, "suggestions_limit", 0)
	if err != nil {
		return services.PlaylistOptions{}, err
	}
	return services.PlaylistOptions{Limit: limit, Related: related, SuggestionsLimit: suggestions}, nil
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// export renders a playlist as a download. format defaults to json.
func (h *playlistHandler) export(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "playlistId")
	op := playlistOp("export_playlist", id, "export")

	format, err := formatter.Normalize(r.URL.Query().Get("format"))
	if err != nil {
		h.s.writeError(w, r, op, failures.BadRequest(op, err.Error()))
		return
	}
	limit, err := queryInt(r, op, "limit", 0)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}

	pl, err := h.s.client(r).Playlist(r.Context(), id, services.PlaylistOptions{Limit: limit})
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	if pl == nil {
		h.s.writeError(w, r, op, failures.NotFound(op, "Not found", "Playlist not found"))
		return
	}

	data, contentType, err := formatter.Render(pl, format)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}

	name := unsafeFilename.ReplaceAllString(pl.Title, "_")
	if name == "" || name == "_" {
		name = id
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, formatter.Extension(format)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.s.logger.Warn("failed to write export", "playlistId", id, "error", err)
	}
}

type createPlaylistRequest struct {
	Title          string   `json:"title" validate:"required"`
	Description    string   `json:"description"`
	PrivacyStatus  string   `json:"privacy_status" validate:"omitempty,oneof=PUBLIC PRIVATE UNLISTED"`
	VideoIDs       []string `json:"video_ids"`
	SourcePlaylist string   `json:"source_playlist"`
}

func (h *playlistHandler) create(w http.ResponseWriter, r *http.Request) {
	op := failures.Op("create_playlist")
	var req createPlaylistRequest
	if err := h.s.decode(r, op, &req); err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	if req.PrivacyStatus == "" {
		req.PrivacyStatus = "PRIVATE"
	}

	h.s.fetch(w, r, op, "", func(ctx context.Context, c services.Client) (any, error) {
		return c.CreatePlaylist(ctx, services.CreatePlaylistOptions{
			Title:          req.Title,
			Description:    req.Description,
			Privacy:        req.PrivacyStatus,
			VideoIDs:       req.VideoIDs,
			SourcePlaylist: req.SourcePlaylist,
		})
	}, "title", req.Title, "privacy_status", req.PrivacyStatus)
}

type editPlaylistRequest struct {
	PlaylistID    string             `json:"playlistId" validate:"required"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	PrivacyStatus string             `json:"privacyStatus" validate:"omitempty,oneof=PUBLIC PRIVATE UNLISTED"`
	MoveItem      *services.MoveItem `json:"moveItem"`
	AddPlaylistID string             `json:"addPlaylistId"`
	AddToTop      *bool              `json:"addToTop"`
}

func (e editPlaylistRequest) empty() bool {
	return e.Title == "" && e.Description == "" && e.PrivacyStatus == "" && e.MoveItem == nil &&
		e.AddPlaylistID == "" && e.AddToTop == nil
}

func (h *playlistHandler) edit(w http.ResponseWriter, r *http.Request) {
	var req editPlaylistRequest
	if err := h.s.decode(r, failures.Op("edit_playlist"), &req); err != nil {
		h.s.writeError(w, r, failures.Op("edit_playlist"), err)
		return
	}
	op := playlistOp("edit_playlist", req.PlaylistID, "edit")
	if req.empty() {
		h.s.writeError(w, r, op, failures.BadRequest(op,
			"At least one parameter (title, description, privacyStatus, moveItem, addPlaylistId, addToTop) must be provided"))
		return
	}

	h.s.fetch(w, r, op, "", func(ctx context.Context, c services.Client) (any, error) {
		return c.EditPlaylist(ctx, services.EditPlaylistOptions{
			PlaylistID:    req.PlaylistID,
			Title:         req.Title,
			Description:   req.Description,
			Privacy:       req.PrivacyStatus,
			Move:          req.MoveItem,
			AddPlaylistID: req.AddPlaylistID,
			AddToTop:      req.AddToTop,
		})
	}, "playlistId", req.PlaylistID)
}

func (h *playlistHandler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "playlistId")
	op := playlistOp("delete_playlist", id, "delete")
	h.s.fetch(w, r, op, "", func(ctx context.Context, c services.Client) (any, error) {
		return c.DeletePlaylist(ctx, id)
	}, "playlistId", id)
}

type addItemsRequest struct {
	PlaylistID     string   `json:"playlistId" validate:"required"`
	VideoIDs       []string `json:"videoIds" validate:"required_without=SourcePlaylist,dive,required"`
	SourcePlaylist string   `json:"source_playlist"`
	Duplicates     bool     `json:"duplicates"`
}

func (h *playlistHandler) addItems(w http.ResponseWriter, r *http.Request) {
	var req addItemsRequest
	if err := h.s.decode(r, failures.Op("add_playlist_items"), &req); err != nil {
		h.s.writeError(w, r, failures.Op("add_playlist_items"), err)
		return
	}
	op := playlistOp("add_playlist_items", req.PlaylistID, "edit")

	h.s.fetch(w, r, op, "", func(ctx context.Context, c services.Client) (any, error) {
		return c.AddPlaylistItems(ctx, services.AddItemsOptions{
			PlaylistID:     req.PlaylistID,
			VideoIDs:       req.VideoIDs,
			SourcePlaylist: req.SourcePlaylist,
			Duplicates:     req.Duplicates,
		})
	}, "playlistId", req.PlaylistID, "videoIds", req.VideoIDs, "source_playlist", req.SourcePlaylist)
}

type removeItemsRequest struct {
	Videos []services.PlaylistVideo `json:"videos" validate:"required,min=1"`
}

func (h *playlistHandler) removeItems(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "playlistId")
	op := playlistOp("remove_playlist_items", id, "edit")
	var req removeItemsRequest
	if err := h.s.decode(r, op, &req); err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	h.s.fetch(w, r, op, "", func(ctx context.Context, c services.Client) (any, error) {
		return c.RemovePlaylistItems(ctx, id, req.Videos)
	}, "playlistId", id, "videos_count", len(req.Videos))
}
