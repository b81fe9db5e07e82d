package tasks

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/ytmp/internal/failures"
	"github.com/desertthunder/ytmp/internal/metrics"
	"github.com/desertthunder/ytmp/internal/services"
)

const (
	NoteUserAsArtist = "This channel has no artist page; its user profile was returned instead"
	NoteArtistAsUser = "This channel is an artist; its artist page was returned instead"
)

// MaxWatchLimit is the largest up-next queue a caller may request.
const MaxWatchLimit = 100

// wrongEndpoint rejects playlist and album ids sent to a channel route.
func wrongEndpoint(op failures.Operation, id string) error {
	switch {
	case services.IsChannelID(id):
		return nil
	case services.IsPlaylistID(id):
		return failures.New(http.StatusBadRequest, failures.KindInvalidInput, "Wrong endpoint",
			fmt.Sprintf("'%s' is a playlist or album ID, not a channel ID", id)).
			For(op).
			WithRecommendation("Use /playlists/" + strings.TrimPrefix(id, "VL") + " to fetch this playlist")
	case strings.HasPrefix(id, "MPRE"):
		return failures.New(http.StatusBadRequest, failures.KindInvalidInput, "Wrong endpoint",
			fmt.Sprintf("'%s' is an album browse ID, not a channel ID", id)).
			For(op).
			WithRecommendation("Use /browse/album/" + id + " to fetch this album")
	}
	return nil
}

// Artist returns an artist page. A channel without an artist header is retried as a user profile.
func (e *Engine) Artist(ctx context.Context, channelID string) (*Result, error) {
	op := failures.OpID("get_artist", "channelId", channelID)
	if err := wrongEndpoint(op, channelID); err != nil {
		return nil, err
	}

	ch, err := e.client.Artist(ctx, channelID)
	if err == nil {
		return ok(ch), nil
	}
	if !services.IsHeaderParseError(err) {
		return nil, failures.Classify(op, err)
	}

	e.logger.Info("artist header missing, trying user profile", "channelId", channelID)
	user, userErr := e.client.User(ctx, channelID)
	if userErr != nil {
		metrics.RecordFallback(op.Name, false)
		return nil, failures.Classify(op, err)
	}
	metrics.RecordFallback(op.Name, true)
	return &Result{Message: MessageOK, Note: NoteUserAsArtist, Data: user, Degraded: true}, nil
}

// User returns a user profile. A channel without a user header is retried as an artist page.
func (e *Engine) User(ctx context.Context, channelID string) (*Result, error) {
	op := failures.OpID("get_user", "channelId", channelID)
	if err := wrongEndpoint(op, channelID); err != nil {
		return nil, err
	}

	ch, err := e.client.User(ctx, channelID)
	if err == nil {
		return ok(ch), nil
	}
	if !services.IsHeaderParseError(err) {
		return nil, failures.Classify(op, err)
	}

	e.logger.Info("user header missing, trying artist page", "channelId", channelID)
	artist, artistErr := e.client.Artist(ctx, channelID)
	if artistErr != nil {
		metrics.RecordFallback(op.Name, false)
		return nil, failures.Classify(op, err)
	}
	metrics.RecordFallback(op.Name, true)
	return &Result{Message: MessageOK, Note: NoteArtistAsUser, Data: artist, Degraded: true}, nil
}

// ArtistVideos resolves the videos shelf of an artist and returns its playlist.
func (e *Engine) ArtistVideos(ctx context.Context, channelID string) (*Result, error) {
	op := failures.OpID("get_artist_videos", "channelId", channelID,
		failures.MissingKeyRule("videos", "No videos available", "This artist doesn't have videos available or the structure has changed"))
	if err := wrongEndpoint(op, channelID); err != nil {
		return nil, err
	}

	ch, err := e.client.Artist(ctx, channelID)
	if err != nil {
		return nil, failures.Classify(op, err)
	}
	shelf := ch.Sections["videos"]
	if shelf == nil || shelf.BrowseID == "" {
		return nil, failures.NotFound(op, "Not found", "No videos found for this artist")
	}

	videos, err := e.client.Playlist(ctx, shelf.BrowseID, services.PlaylistOptions{})
	if err != nil {
		return nil, failures.Classify(op, err)
	}
	return ok(videos), nil
}

// shelfListing resolves the params of a user shelf and lists it with fetch.
func (e *Engine) shelfListing(ctx context.Context, op failures.Operation, channelID, section, missing string,
	fetch func(ctx context.Context, channelID, params string) ([]services.Item, error)) (*Result, error) {
	if err := wrongEndpoint(op, channelID); err != nil {
		return nil, err
	}

	ch, err := e.client.User(ctx, channelID)
	if err != nil {
		return nil, failures.Classify(op, err)
	}
	shelf := ch.Sections[section]
	if shelf == nil || shelf.Params == "" {
		return nil, failures.NotFound(op, "Not found", missing)
	}

	items, err := fetch(ctx, channelID, shelf.Params)
	if err != nil {
		return nil, failures.Classify(op, err)
	}
	return ok(items), nil
}

// UserPlaylists lists the playlists shelf of a user.
func (e *Engine) UserPlaylists(ctx context.Context, channelID string) (*Result, error) {
	op := failures.OpID("get_user_playlists", "channelId", channelID,
		failures.MissingKeyRule("playlists", "Playlists not available", "This user doesn't have accessible playlists or the structure has changed"),
		failures.MissingKeyRule("params", "Playlists not available", "This user doesn't have accessible playlists or the structure has changed"))
	return e.shelfListing(ctx, op, channelID, "playlists", "User playlists not available", e.client.UserPlaylists)
}

// UserVideos lists the videos shelf of a user.
func (e *Engine) UserVideos(ctx context.Context, channelID string) (*Result, error) {
	op := failures.OpID("get_user_videos", "channelId", channelID,
		failures.MissingKeyRule("videos", "Videos not available", "This user doesn't have accessible videos or the structure has changed"),
		failures.MissingKeyRule("params", "Videos not available", "This user doesn't have accessible videos or the structure has changed"))
	return e.shelfListing(ctx, op, channelID, "videos", "User videos not available", e.client.UserVideos)
}

// SongRelated is the related content of a song with the browse id that produced it.
type SongRelated struct {
	Message         string           `json:"message"`
	SongID          string           `json:"songId"`
	RelatedBrowseID string           `json:"related_browse_id"`
	RelatedContent  []services.Shelf `json:"related_content"`
	SongInfo        *services.Song   `json:"song_info"`
	TotalRelated    int              `json:"total_related"`
}

// badSongID matches upstream 400 replies for ids that cannot be browsed.
func badSongID(op failures.Operation, err error) *failures.Error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "400") || !(strings.Contains(msg, "bad request") || strings.Contains(msg, "invalid argument")) {
		return nil
	}
	return failures.New(http.StatusBadRequest, failures.KindInvalidInput, "Invalid song ID",
		fmt.Sprintf("Song ID '%s' is not valid or cannot be used to fetch related content", op.ID)).
		WithRecommendation("Verify the song ID is correct and the song is publicly available")
}

// songRelatedRules maps failures of the related lookup. Header parse failures keep the generic 503.
func songRelatedRules(songID string) []failures.Rule {
	return []failures.Rule{
		failures.NonHeaderParseRule(http.StatusNotFound, failures.KindNotFound, "Related content not available",
			"Related content structure has changed or is not available for this song"),
		badSongID,
		failures.MessageRule(http.StatusNotFound, failures.KindNotFound, "Song not found",
			"Song with ID "+songID+" not found or unavailable", "not found", "unavailable"),
		failures.MessageRule(http.StatusForbidden, failures.KindForbidden, "Access denied",
			"This song may be private or region-restricted", "private", "access", "401"),
		func(op failures.Operation, err error) *failures.Error {
			if !strings.Contains(strings.ToLower(err.Error()), "server returned http") {
				return nil
			}
			return failures.New(http.StatusServiceUnavailable, failures.KindUnavailable, "YouTube Music API error",
				"YouTube Music service is experiencing issues").WithTechnical(err.Error())
		},
	}
}

// SongRelated finds related content for a video id.
//
// The id is first tried as a related browse id. When that fails the watch
// playlist supplies the real browse id. Song metadata is added when available.
func (e *Engine) SongRelated(ctx context.Context, songID string) (*SongRelated, error) {
	op := failures.OpID("get_song_related", "songId", songID, songRelatedRules(songID)...)

	browseID := songID
	related, err := e.client.SongRelated(ctx, songID)
	if err != nil {
		e.logger.Info("direct related lookup failed, trying watch playlist", "songId", songID, "error", err)

		watch, watchErr := e.client.WatchPlaylist(ctx, services.WatchOptions{VideoID: songID})
		if watchErr != nil {
			metrics.RecordFallback(op.Name, false)
			e.logger.Error("both related lookups failed", "songId", songID, "direct", err, "watch", watchErr)
			return nil, failures.Classify(op, watchErr)
		}
		if watch == nil || watch.Related == "" {
			metrics.RecordFallback(op.Name, false)
			return nil, failures.NotFound(op, "No related content available", "This song doesn't have related content available")
		}

		browseID = watch.Related
		related, err = e.client.SongRelated(ctx, browseID)
		if err != nil {
			metrics.RecordFallback(op.Name, false)
			return nil, failures.Classify(op, err)
		}
		metrics.RecordFallback(op.Name, true)
	}

	if len(related) == 0 {
		return nil, failures.NotFound(op, "No related content available", "No related songs found for this song ID")
	}

	info, err := e.client.Song(ctx, songID)
	if err != nil {
		e.logger.Debug("song info unavailable for related content", "songId", songID, "error", err)
		info = nil
	}

	return &SongRelated{
		Message:         MessageOK,
		SongID:          songID,
		RelatedBrowseID: browseID,
		RelatedContent:  related,
		SongInfo:        info,
		TotalRelated:    len(related),
	}, nil
}

// Watch returns the up-next queue for a video or playlist. The limit must be within 1..100.
func (e *Engine) Watch(ctx context.Context, opts services.WatchOptions) (*Result, error) {
	op := failures.OpID("get_watch_playlist", "videoId", opts.VideoID)
	switch {
	case opts.VideoID == "" && opts.PlaylistID == "":
		return nil, failures.BadRequest(op, "You must provide either a video id, a playlist id, or both")
	case opts.Limit <= 0:
		return nil, failures.BadRequest(op, "Limit must be greater than 0")
	case opts.Limit > MaxWatchLimit:
		return nil, failures.BadRequest(op, fmt.Sprintf("Limit cannot exceed %d", MaxWatchLimit))
	}

	watch, err := e.client.WatchPlaylist(ctx, opts)
	if err != nil {
		return nil, failures.Classify(op, err)
	}
	return ok(watch), nil
}

// AddHistoryItem looks up a song and marks it as played, returning the upstream status code.
func (e *Engine) AddHistoryItem(ctx context.Context, videoID string) (*Result, error) {
	op := failures.OpID("add_history_item", "videoId", videoID)

	song, err := e.client.Song(ctx, videoID)
	if err != nil {
		return nil, failures.Classify(op, err)
	}
	status, err := e.client.AddHistoryItem(ctx, song)
	if err != nil {
		return nil, failures.Classify(op, err)
	}
	return ok(map[string]any{"status": status, "videoId": videoID}), nil
}
