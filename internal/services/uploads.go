package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// UploadExtensions lists the audio formats YouTube Music accepts.
var UploadExtensions = []string{"mp3", "m4a", "wma", "flac", "ogg"}

// maxUploadSize is the upstream per-file limit.
const maxUploadSize = 300 * 1024 * 1024

const uploadReleasePrefix = "FEmusic_library_privately_owned_release_detail"

func (y *YouTubeMusic) LibraryUploadSongs(ctx context.Context, limit int, order string) ([]Item, error) {
	items, err := y.library(ctx, "FEmusic_library_privately_owned_tracks", order, limit)
	if err != nil {
		return nil, err
	}
	songs := items[:0]
	for _, item := range items {
		if item.VideoID != "" {
			item.ResultType = "upload"
			songs = append(songs, item)
		}
	}
	return songs, nil
}

func (y *YouTubeMusic) LibraryUploadArtists(ctx context.Context, limit int, order string) ([]Item, error) {
	return y.library(ctx, "FEmusic_library_privately_owned_artists", order, limit)
}

func (y *YouTubeMusic) LibraryUploadAlbums(ctx context.Context, limit int, order string) ([]Item, error) {
	return y.library(ctx, "FEmusic_library_privately_owned_releases", order, limit)
}

// LibraryUploadArtist lists the uploaded songs of one uploaded artist.
func (y *YouTubeMusic) LibraryUploadArtist(ctx context.Context, browseID string, limit int) ([]Item, error) {
	return y.library(ctx, browseID, "", limit)
}

// LibraryUploadAlbum returns an uploaded album page.
func (y *YouTubeMusic) LibraryUploadAlbum(ctx context.Context, browseID string) (*Album, error) {
	if err := y.requireAuth(); err != nil {
		return nil, err
	}
	doc, err := y.browse(ctx, browseID, "")
	if err != nil {
		return nil, err
	}
	return parseAlbum(browseID, doc)
}

// UploadSong uploads a local audio file with the resumable upload protocol. Only browser credentials can upload.
func (y *YouTubeMusic) UploadSong(ctx context.Context, path string) (string, error) {
	if err := y.requireAuth(); err != nil {
		return "", err
	}
	if y.auth.Kind() != "browser" {
		return "", fmt.Errorf("%w: uploads need browser authentication", ErrAuthRequired)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", inputErr("filepath", "The provided file does not exist.")
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !slices.Contains(UploadExtensions, ext) {
		return "", inputErr("filepath", "The provided file type is not supported by YouTube Music. Supported file types are %s", strings.Join(UploadExtensions, ", "))
	}
	if info.Size() > maxUploadSize {
		return "", inputErr("filepath", "File size exceeds the 300MB upload limit")
	}
	if err := y.wait(ctx); err != nil {
		return "", err
	}

	start, err := http.NewRequestWithContext(ctx, http.MethodPost, y.uploadURL+"?"+url.Values{"authuser": {"0"}}.Encode(),
		strings.NewReader("filename="+url.QueryEscape(filepath.Base(path))))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if err := y.decorate(start); err != nil {
		return "", err
	}
	start.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")
	start.Header.Set("X-Goog-Upload-Command", "start")
	start.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.FormatInt(info.Size(), 10))
	start.Header.Set("X-Goog-Upload-Protocol", "resumable")

	resp, err := y.http.Do(start)
	if err != nil {
		return "", classifyTransport(err)
	}
	resp.Body.Close()
	uploadURL := resp.Header.Get("X-Goog-Upload-URL")
	if resp.StatusCode >= 400 || uploadURL == "" {
		return "", &HTTPError{Status: resp.StatusCode, Message: "upload session was not created"}
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	put, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, f)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if err := y.decorate(put); err != nil {
		return "", err
	}
	put.ContentLength = info.Size()
	put.Header.Set("X-Goog-Upload-Command", "upload, finalize")
	put.Header.Set("X-Goog-Upload-Offset", "0")

	resp, err = y.http.Do(put)
	if err != nil {
		return "", classifyTransport(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{Status: resp.StatusCode}
	}
	return "STATUS_SUCCEEDED", nil
}

// DeleteUploadEntity deletes an uploaded song or album.
func (y *YouTubeMusic) DeleteUploadEntity(ctx context.Context, entityID string) (string, error) {
	if err := y.requireAuth(); err != nil {
		return "", err
	}
	entityID = strings.TrimPrefix(entityID, uploadReleasePrefix)
	if entityID == "" {
		return "", inputErr("entityId", "must not be empty")
	}
	doc, err := y.send(ctx, request{endpoint: "music/delete_privately_owned_entity", body: map[string]any{"entityId": entityID}})
	if err != nil {
		return "", err
	}
	if _, failed := doc["error"]; failed {
		return "", &HTTPError{Status: http.StatusBadRequest, Message: "delete was rejected"}
	}
	return "STATUS_SUCCEEDED", nil
}
