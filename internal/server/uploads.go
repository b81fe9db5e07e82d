package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/desertthunder/ytmp/internal/failures"
	"github.com/desertthunder/ytmp/internal/services"
	"github.com/go-chi/chi/v5"
)

const (
	// maxUploadBytes is the upstream per-file limit plus room for multipart framing.
	maxUploadBytes = 300<<20 + 1<<20
	// uploadMemory is how much of a multipart form is buffered before spilling to disk.
	uploadMemory = 32 << 20
)

type uploadHandler struct{ s *Server }

func (h *uploadHandler) Tag() string { return "Uploads" }

func (h *uploadHandler) Routes() []Route {
	return []Route{
		{http.MethodGet, "/uploads/library_upload_songs", "Uploaded songs", h.ordered("get_library_upload_songs", services.Client.LibraryUploadSongs)},
		{http.MethodGet, "/uploads/library_upload_artists", "Uploaded artists", h.ordered("get_library_upload_artists", services.Client.LibraryUploadArtists)},
		{http.MethodGet, "/uploads/library_upload_albums", "Uploaded albums", h.ordered("get_library_upload_albums", services.Client.LibraryUploadAlbums)},
		{http.MethodGet, "/uploads/library_upload_artist/{browseId}", "Songs of an uploaded artist", h.artist},
		{http.MethodGet, "/uploads/library_upload_album/{browseId}", "Uploaded album", h.album},
		{http.MethodPost, "/uploads/upload_song", "Upload an audio file", h.uploadSong},
		{http.MethodDelete, "/uploads/upload_entity/{entityId}", "Delete an uploaded song or album", h.deleteEntity},
	}
}

// uploadRules maps local file and quota failures.
var uploadRules = []failures.Rule{
	failures.MessageRule(http.StatusNotFound, failures.KindNotFound, "File not found",
		"The uploaded file could not be read", "file not found", "no such file", "does not exist"),
	failures.MessageRule(http.StatusTooManyRequests, failures.KindRateLimited, "Upload quota exceeded",
		"The upload quota was exceeded, try again later", "quota"),
	failures.MessageRule(http.StatusBadRequest, failures.KindInvalidInput, "Unsupported file",
		"The file format is not supported by YouTube Music", "format", "unsupported", "not supported"),
}

func (h *uploadHandler) ordered(name string,
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

func (h *uploadHandler) artist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "browseId")
	op := failures.OpID("get_library_upload_artist", "browseId", id)
	limit, err := queryInt(r, op, "limit", defaultLibraryLimit)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	h.s.fetch(w, r, op, "", func(ctx context.Context, c services.Client) (any, error) {
		return c.LibraryUploadArtist(ctx, id, limit)
	}, "browseId", id)
}

func (h *uploadHandler) album(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "browseId")
	op := failures.OpID("get_library_upload_album", "browseId", id)
	h.s.fetch(w, r, op, "Uploaded album not found", func(ctx context.Context, c services.Client) (any, error) {
		return c.LibraryUploadAlbum(ctx, id)
	}, "browseId", id)
}

// uploadSong spools the multipart "file" field to a temporary file that keeps the
// original extension, since the upstream client validates the format by extension.
func (h *uploadHandler) uploadSong(w http.ResponseWriter, r *http.Request) {
	op := failures.Op("upload_song", uploadRules...)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		h.s.writeError(w, r, op, failures.BadRequest(op, "Expected a multipart form with a file field: "+err.Error()))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	src, header, err := r.FormFile("file")
	if err != nil {
		h.s.writeError(w, r, op, failures.BadRequest(op, "file is required"))
		return
	}
	defer src.Close()

	op = failures.OpID(op.Name, "filepath", header.Filename, uploadRules...)
	tmp, err := os.CreateTemp("", "ytmp-upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	defer os.Remove(tmp.Name())

	_, err = io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}

	h.s.fetch(w, r, op, "", func(ctx context.Context, c services.Client) (any, error) {
		return c.UploadSong(ctx, tmp.Name())
	}, "filepath", header.Filename)
}

func (h *uploadHandler) deleteEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "entityId")
	op := failures.OpID("delete_upload_entity", "entityId", id)
	h.s.fetch(w, r, op, "", func(ctx context.Context, c services.Client) (any, error) {
		return c.DeleteUploadEntity(ctx, id)
	}, "entityId", id)
}
