package services

import (
	"context"
	"crypto/rand"
	"net/url"
	"slices"
	"strings"
)

// LibraryOrders lists the accepted sort orders for library listings.
var LibraryOrders = []string{"a_to_z", "z_to_a", "recently_added"}

var orderParams = map[string]string{
	"a_to_z":         "ggMGKgQIARAA",
	"z_to_a":         "ggMGKgQIARAB",
	"recently_added": "ggMGKgQIABAB",
}

// Ratings lists the accepted values for [Client.RateSong] and [Client.RatePlaylist].
var Ratings = []string{"LIKE", "DISLIKE", "INDIFFERENT"}

var ratingEndpoints = map[string]string{
	"LIKE":        "like/like",
	"DISLIKE":     "like/dislike",
	"INDIFFERENT": "like/removelike",
}

func orderParam(order string) (string, error) {
	if order == "" {
		return "", nil
	}
	p, ok := orderParams[order]
	if !ok {
		return "", inputErr("order", "Invalid order provided. Please use one of the following orderings or leave out the parameter: %s", strings.Join(LibraryOrders, ", "))
	}
	return p, nil
}

// library fetches a signed-in listing page and pages until limit items are loaded.
func (y *YouTubeMusic) library(ctx context.Context, browseID, order string, limit int) ([]Item, error) {
	if err := y.requireAuth(); err != nil {
		return nil, err
	}
	params, err := orderParam(order)
	if err != nil {
		return nil, err
	}
	doc, err := y.browse(ctx, browseID, params)
	if err != nil {
		return nil, err
	}
	sections, err := singleColumnSections(doc)
	if err != nil {
		return nil, err
	}

	var (
		container map[string]any
		raw       []any
	)
	for _, s := range sections {
		if _, c, items := shelfContainer(s); c != nil {
			container, raw = c, items
			break
		}
	}
	if container == nil {
		return []Item{}, nil
	}

	items := libraryItems(raw)
	token := continuationToken(raw, container)
	for token != "" && (limit <= 0 || len(items) < limit) {
		next, tok, err := y.continuation(ctx, "browse", token)
		if err != nil {
			return nil, err
		}
		items = append(items, libraryItems(next)...)
		token = tok
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// libraryItems drops the action rows ("New playlist", "Shuffle all") that lead library pages.
func libraryItems(raw []any) []Item {
	parsed := parseItems(raw)
	items := parsed[:0]
	for _, item := range parsed {
		if item.VideoID == "" && item.BrowseID == "" && item.PlaylistID == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}

func (y *YouTubeMusic) LibraryPlaylists(ctx context.Context, limit int) ([]Item, error) {
	return y.library(ctx, "FEmusic_liked_playlists", "", limit)
}

func (y *YouTubeMusic) LibrarySongs(ctx context.Context, limit int, order string) ([]Item, error) {
	return y.library(ctx, "FEmusic_liked_videos", order, limit)
}

func (y *YouTubeMusic) LibraryAlbums(ctx context.Context, limit int, order string) ([]Item, error) {
	return y.library(ctx, "FEmusic_liked_albums", order, limit)
}

func (y *YouTubeMusic) LibraryArtists(ctx context.Context, limit int, order string) ([]Item, error) {
	return y.library(ctx, "FEmusic_library_corpus_track_artists", order, limit)
}

func (y *YouTubeMusic) LibrarySubscriptions(ctx context.Context, limit int, order string) ([]Item, error) {
	return y.library(ctx, "FEmusic_library_corpus_artists", order, limit)
}

func (y *YouTubeMusic) LibraryPodcasts(ctx context.Context, limit int, order string) ([]Item, error) {
	return y.library(ctx, "FEmusic_library_non_music_audio_list", order, limit)
}

func (y *YouTubeMusic) LibraryChannels(ctx context.Context, limit int, order string) ([]Item, error) {
	return y.library(ctx, "FEmusic_library_non_music_audio_channels_list", order, limit)
}

// LikedSongs returns the "Liked Music" playlist.
func (y *YouTubeMusic) LikedSongs(ctx context.Context, limit int) (*Playlist, error) {
	if err := y.requireAuth(); err != nil {
		return nil, err
	}
	return y.Playlist(ctx, "LM", PlaylistOptions{Limit: limit})
}

// SavedEpisodes returns the "Episodes for later" playlist.
func (y *YouTubeMusic) SavedEpisodes(ctx context.Context, limit int) (*Playlist, error) {
	if err := y.requireAuth(); err != nil {
		return nil, err
	}
	return y.Playlist(ctx, "SE", PlaylistOptions{Limit: limit})
}

// History returns recently played items. Each item's Played field holds its shelf title, such as "Today".
func (y *YouTubeMusic) History(ctx context.Context) ([]Item, error) {
	if err := y.requireAuth(); err != nil {
		return nil, err
	}
	doc, err := y.browse(ctx, "FEmusic_history", "")
	if err != nil {
		return nil, err
	}
	sections, err := singleColumnSections(doc)
	if err != nil {
		return nil, err
	}
	items := []Item{}
	for _, s := range sections {
		shelf := asMap(getPath(s, "musicShelfRenderer"))
		if shelf == nil {
			continue
		}
		played := text(shelf["title"])
		for _, item := range parseItems(asSlice(shelf["contents"])) {
			item.Played = played
			items = append(items, item)
		}
	}
	return items, nil
}

// AddHistoryItem marks song as played by hitting its playback tracking url and returns the upstream status code.
func (y *YouTubeMusic) AddHistoryItem(ctx context.Context, song *Song) (int, error) {
	if err := y.requireAuth(); err != nil {
		return 0, err
	}
	if song == nil || song.PlaybackTrackingURL == "" {
		return 0, inputErr("song", "song has no playback tracking url")
	}
	params := url.Values{"ver": {"2"}, "c": {"WEB_REMIX"}, "cpn": {clientPlaybackNonce()}}
	status, _, err := y.get(ctx, song.PlaybackTrackingURL, params)
	return status, err
}

const cpnAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_"

// clientPlaybackNonce returns the 16 character cpn sent with playback pings.
func clientPlaybackNonce() string {
	buf := make([]byte, 16)
	rand.Read(buf)
	for i, b := range buf {
		buf[i] = cpnAlphabet[int(b)%len(cpnAlphabet)]
	}
	return string(buf)
}

// RemoveHistoryItems removes history entries by their feedback tokens.
func (y *YouTubeMusic) RemoveHistoryItems(ctx context.Context, tokens []string) (Response, error) {
	if err := y.requireAuth(); err != nil {
		return nil, err
	}
	return y.feedback(ctx, tokens)
}

func (y *YouTubeMusic) rate(ctx context.Context, target map[string]any, rating string) (Response, error) {
	if err := y.requireAuth(); err != nil {
		return nil, err
	}
	endpoint, ok := ratingEndpoints[rating]
	if !ok {
		return nil, inputErr("rating", "Invalid rating '%s'. Must be one of: %s", rating, strings.Join(Ratings, ", "))
	}
	doc, err := y.send(ctx, request{endpoint: endpoint, body: map[string]any{"target": target}})
	return Response(doc), err
}

func (y *YouTubeMusic) RateSong(ctx context.Context, videoID, rating string) (Response, error) {
	return y.rate(ctx, map[string]any{"videoId": videoID}, rating)
}

func (y *YouTubeMusic) RatePlaylist(ctx context.Context, playlistID, rating string) (Response, error) {
	return y.rate(ctx, map[string]any{"playlistId": strings.TrimPrefix(playlistID, "VL")}, rating)
}

func (y *YouTubeMusic) subscription(ctx context.Context, endpoint, params string, channelIDs []string) (Response, error) {
	if err := y.requireAuth(); err != nil {
		return nil, err
	}
	if len(channelIDs) == 0 {
		return nil, inputErr("channelIds", "at least one channel id is required")
	}
	doc, err := y.send(ctx, request{endpoint: endpoint, body: map[string]any{"channelIds": channelIDs, "params": params}})
	return Response(doc), err
}

func (y *YouTubeMusic) SubscribeArtists(ctx context.Context, channelIDs []string) (Response, error) {
	return y.subscription(ctx, "subscription/subscribe", "EgIIAhgA", channelIDs)
}

func (y *YouTubeMusic) UnsubscribeArtists(ctx context.Context, channelIDs []string) (Response, error) {
	return y.subscription(ctx, "subscription/unsubscribe", "CgIIAhgA", channelIDs)
}

// EditSongLibraryStatus adds or removes songs from the library using their feedback tokens.
func (y *YouTubeMusic) EditSongLibraryStatus(ctx context.Context, tokens []string) (Response, error) {
	if err := y.requireAuth(); err != nil {
		return nil, err
	}
	if len(tokens) == 0 || slices.Contains(tokens, "") {
		return nil, inputErr("feedbackTokens", "feedback tokens must be non-empty")
	}
	return y.feedback(ctx, tokens)
}

// AccountInfo returns the signed-in account name, handle and photo.
func (y *YouTubeMusic) AccountInfo(ctx context.Context) (*Account, error) {
	if err := y.requireAuth(); err != nil {
		return nil, err
	}
	doc, err := y.send(ctx, request{endpoint: "account/account_menu", body: map[string]any{}})
	if err != nil {
		return nil, err
	}
	header, err := requireMap(doc, "actions", 0, "openPopupAction", "popup", "multiPageMenuRenderer", "header", "activeAccountHeaderRenderer")
	if err != nil {
		return nil, err
	}
	return &Account{
		Name:          text(header["accountName"]),
		ChannelHandle: text(header["channelHandle"]),
		PhotoURL:      getString(getPath(header, "accountPhoto", "thumbnails", 0, "url")),
	}, nil
}
