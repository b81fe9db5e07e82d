package services

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var albumBrowsePattern = regexp.MustCompile(`"(MPRE[^"]+)"`)

func (y *YouTubeMusic) browse(ctx context.Context, browseID, params string) (map[string]any, error) {
	body := map[string]any{"browseId": browseID}
	if params != "" {
		body["params"] = params
	}
	return y.send(ctx, request{endpoint: "browse", body: body})
}

// singleColumnSections returns the section list of a single column browse page.
func singleColumnSections(doc map[string]any) ([]any, error) {
	return requireSlice(doc, concat(pathSingleColumnTab, pathSectionList)...)
}

// Home returns the home feed, following continuations until limit shelves are loaded.
func (y *YouTubeMusic) Home(ctx context.Context, limit int) ([]Shelf, error) {
	doc, err := y.browse(ctx, "FEmusic_home", "")
	if err != nil {
		return nil, err
	}
	sections, err := singleColumnSections(doc)
	if err != nil {
		return nil, err
	}
	shelves := parseShelves(sections)

	list := asMap(getPath(doc, concat(pathSingleColumnTab, []any{"sectionListRenderer"})...))
	token := continuationToken(nil, list)
	for token != "" && len(shelves) < limit {
		items, next, err := y.continuation(ctx, "browse", token)
		if err != nil {
			return nil, err
		}
		shelves = append(shelves, parseShelves(items)...)
		token = next
	}
	if limit > 0 && len(shelves) > limit {
		shelves = shelves[:limit]
	}
	return shelves, nil
}

// channelPage fills the sections shared by artist, user and podcast channel pages.
func channelPage(kind, channelID string, header map[string]any, sections []any) *Channel {
	ch := &Channel{
		Kind:        kind,
		Name:        text(header["title"]),
		ChannelID:   channelID,
		Description: text(header["description"]),
		Subscribers: text(getPath(header, "subscriptionButton", "subscribeButtonRenderer", "subscriberCountText")),
		Thumbnails:  thumbnails(findKey(header["thumbnail"], "thumbnails")),
		Sections:    map[string]*Shelf{},
	}
	ch.Subscribed, _ = getPath(header, "subscriptionButton", "subscribeButtonRenderer", "subscribed").(bool)

	for _, s := range sections {
		if desc := asMap(getPath(s, "musicDescriptionShelfRenderer")); desc != nil {
			if ch.Description == "" {
				ch.Description = text(desc["description"])
			}
			ch.Views = text(desc["subheader"])
			continue
		}
		shelf, ok := parseShelf(s)
		if !ok || shelf.Title == "" {
			continue
		}
		sh := shelf
		ch.Sections[sectionKey(shelf.Title)] = &sh
	}
	return ch
}

// Artist returns an artist page. Pages without an immersive header fail with a header [ParseError].
func (y *YouTubeMusic) Artist(ctx context.Context, channelID string) (*Channel, error) {
	channelID = strings.TrimPrefix(channelID, "MPLA")
	doc, err := y.browse(ctx, channelID, "")
	if err != nil {
		return nil, err
	}
	header, err := requireMap(doc, "header", "musicImmersiveHeaderRenderer")
	if err != nil {
		return nil, err
	}
	sections, err := singleColumnSections(doc)
	if err != nil {
		return nil, err
	}
	return channelPage("artist", channelID, header, sections), nil
}

// User returns a user channel page. Pages without a visual header fail with a header [ParseError].
func (y *YouTubeMusic) User(ctx context.Context, channelID string) (*Channel, error) {
	doc, err := y.browse(ctx, channelID, "")
	if err != nil {
		return nil, err
	}
	header, err := requireMap(doc, "header", "musicVisualHeaderRenderer")
	if err != nil {
		return nil, err
	}
	sections, err := singleColumnSections(doc)
	if err != nil {
		return nil, err
	}
	return channelPage("user", channelID, header, sections), nil
}

// gridItems returns the items of the first grid on a single column page.
func (y *YouTubeMusic) gridItems(ctx context.Context, browseID, params string, limit int) ([]Item, error) {
	doc, err := y.browse(ctx, browseID, params)
	if err != nil {
		return nil, err
	}
	sections, err := singleColumnSections(doc)
	if err != nil {
		return nil, err
	}
	grid, err := requireMap(sections, 0, "gridRenderer")
	if err != nil {
		return nil, err
	}
	raw := asSlice(grid["items"])
	items := parseItems(raw)

	token := continuationToken(raw, grid)
	for token != "" && limit > 0 && len(items) < limit {
		next, tok, err := y.continuation(ctx, "browse", token)
		if err != nil {
			return nil, err
		}
		items = append(items, parseItems(next)...)
		token = tok
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// ArtistAlbums lists an artist's albums or singles using the params of the artist page shelf.
func (y *YouTubeMusic) ArtistAlbums(ctx context.Context, channelID, params string, limit int) ([]Item, error) {
	if params == "" {
		return nil, inputErr("params", "params from the artist page albums or singles shelf are required")
	}
	return y.gridItems(ctx, channelID, params, limit)
}

// UserPlaylists lists a user's playlists using the params of the user page shelf.
func (y *YouTubeMusic) UserPlaylists(ctx context.Context, channelID, params string) ([]Item, error) {
	return y.gridItems(ctx, channelID, params, 0)
}

// UserVideos lists a user's videos using the params of the user page shelf.
func (y *YouTubeMusic) UserVideos(ctx context.Context, channelID, params string) ([]Item, error) {
	return y.gridItems(ctx, channelID, params, 0)
}

// twoColumnPage is the header and secondary section list of a two column browse page.
type twoColumnPage struct {
	header    map[string]any
	edit      map[string]any // set on playlists the caller owns
	secondary []any
}

func twoColumn(doc map[string]any) (*twoColumnPage, error) {
	root, err := requireMap(doc, pathTwoColumn...)
	if err != nil {
		return nil, err
	}
	first, err := requireMap(root, "tabs", 0, "tabRenderer", "content", "sectionListRenderer", "contents", 0)
	if err != nil {
		return nil, err
	}
	page := &twoColumnPage{}
	if editable := asMap(first["musicEditablePlaylistDetailHeaderRenderer"]); editable != nil {
		page.edit = asMap(getPath(editable, "editHeader", "musicPlaylistEditHeaderRenderer"))
		first = asMap(editable["header"])
	}
	if page.header, err = requireMap(first, "musicResponsiveHeaderRenderer"); err != nil {
		return nil, err
	}
	if page.secondary, err = requireSlice(root, "secondaryContents", "sectionListRenderer", "contents"); err != nil {
		return nil, err
	}
	return page, nil
}

// Album returns an album page.
func (y *YouTubeMusic) Album(ctx context.Context, browseID string) (*Album, error) {
	if !strings.HasPrefix(browseID, "MPRE") && !strings.HasPrefix(browseID, "FEmusic_library_privately_owned_release_detail") {
		return nil, inputErr("browseId", "Invalid album browseId provided, must start with MPRE.")
	}
	doc, err := y.browse(ctx, browseID, "")
	if err != nil {
		return nil, err
	}
	return parseAlbum(browseID, doc)
}

func parseAlbum(browseID string, doc map[string]any) (*Album, error) {
	page, err := twoColumn(doc)
	if err != nil {
		return nil, err
	}
	header := page.header
	album := &Album{
		BrowseID:        browseID,
		Title:           text(header["title"]),
		Description:     text(findKey(header["description"], "description")),
		Thumbnails:      thumbnails(findKey(header["thumbnail"], "thumbnails")),
		AudioPlaylistID: getString(findKey(header["buttons"], "playlistId")),
		Tracks:          []Item{},
	}
	subtitle := strings.Split(text(header["subtitle"]), "•")
	if len(subtitle) > 0 {
		album.Type = strings.TrimSpace(subtitle[0])
	}
	if n := len(subtitle); n > 1 && yearPattern.MatchString(strings.TrimSpace(subtitle[n-1])) {
		album.Year = strings.TrimSpace(subtitle[n-1])
	}
	var strap Item
	applyRuns(&strap, asSlice(getPath(header, "straplineTextOne", "runs")))
	album.Artists = strap.Artists

	second := strings.Split(text(header["secondSubtitle"]), "•")
	album.TrackCount = parseCount(second[0])
	if len(second) > 1 {
		album.Duration = strings.TrimSpace(second[1])
	}

	_, _, raw := shelfContainer(firstOr(page.secondary))
	for _, track := range parseItems(raw) {
		if track.Album == nil {
			track.Album = &Ref{Name: album.Title, ID: browseID}
		}
		if len(track.Artists) == 0 {
			track.Artists = album.Artists
		}
		album.Tracks = append(album.Tracks, track)
	}
	return album, nil
}

func firstOr(s []any) any {
	if len(s) == 0 {
		return nil
	}
	return s[0]
}

// AlbumBrowseID resolves an album's audio playlist id (OLAK5uy_...) to its MPRE browse id.
func (y *YouTubeMusic) AlbumBrowseID(ctx context.Context, audioPlaylistID string) (string, error) {
	_, body, err := y.get(ctx, "/playlist", url.Values{"list": {audioPlaylistID}})
	if err != nil {
		return "", err
	}
	decoded := strings.ReplaceAll(string(body), `\x22`, `"`)
	m := albumBrowsePattern.FindStringSubmatch(decoded)
	if m == nil {
		return "", fmt.Errorf("%w: album for playlist %s not found", ErrUnavailable, audioPlaylistID)
	}
	return m[1], nil
}

// Song returns player metadata for a video. Unplayable videos fail with [ErrUnavailable].
func (y *YouTubeMusic) Song(ctx context.Context, videoID string) (*Song, error) {
	sts := time.Now().Unix()/86400 - 1
	doc, err := y.send(ctx, request{endpoint: "player", body: map[string]any{
		"video_id": videoID,
		"playbackContext": map[string]any{
			"contentPlaybackContext": map[string]any{"signatureTimestamp": sts},
		},
	}})
	if err != nil {
		return nil, err
	}

	status := asMap(doc["playabilityStatus"])
	song := &Song{Playability: Playability{Status: getString(status["status"]), Reason: getString(status["reason"])}}
	if song.Playability.Status == "ERROR" || (song.Playability.Status == "LOGIN_REQUIRED" && doc["videoDetails"] == nil) {
		reason := song.Playability.Reason
		if reason == "" {
			reason = "Video unavailable"
		}
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, reason)
	}

	details, err := requireMap(doc, "videoDetails")
	if err != nil {
		return nil, err
	}
	song.VideoID = getString(details["videoId"])
	song.Title = getString(details["title"])
	song.Author = getString(details["author"])
	song.ChannelID = getString(details["channelId"])
	song.ViewCount = getString(details["viewCount"])
	song.IsLive, _ = details["isLiveContent"].(bool)
	song.Thumbnails = thumbnails(getPath(details, "thumbnail", "thumbnails"))
	song.LengthSeconds, _ = strconv.Atoi(getString(details["lengthSeconds"]))
	for _, k := range asSlice(details["keywords"]) {
		song.Keywords = append(song.Keywords, getString(k))
	}
	song.PlaybackTrackingURL = getString(getPath(doc, "playbackTracking", "videostatsPlaybackUrl", "baseUrl"))
	return song, nil
}

// SongRelated returns the related shelves behind a watch playlist's related browse id.
func (y *YouTubeMusic) SongRelated(ctx context.Context, browseID string) ([]Shelf, error) {
	if browseID == "" {
		return nil, inputErr("browseId", "Invalid browseId provided.")
	}
	doc, err := y.browse(ctx, browseID, "")
	if err != nil {
		return nil, err
	}
	sections, err := requireSlice(doc, "contents", "sectionListRenderer", "contents")
	if err != nil {
		return nil, err
	}
	return parseShelves(sections), nil
}

// ErrNoLyrics is returned when a lyrics page carries no lyrics.
var ErrNoLyrics = fmt.Errorf("%w: no lyrics available for this song", ErrUnavailable)

// Lyrics returns plain lyrics, or timed lyrics when timestamps is set and the mobile client has them.
func (y *YouTubeMusic) Lyrics(ctx context.Context, browseID string, timestamps bool) (*Lyrics, error) {
	if browseID == "" {
		return nil, inputErr("browseId", "Invalid browseId provided. This song might not have lyrics.")
	}

	if timestamps {
		doc, err := y.send(ctx, request{
			endpoint: "browse",
			body:     map[string]any{"browseId": browseID},
			client:   map[string]any{"clientName": "ANDROID_MUSIC", "clientVersion": "7.21.50"},
		})
		if err != nil {
			return nil, err
		}
		if data := asMap(findKey(doc, "timedLyricsModel")); data != nil {
			return parseTimedLyrics(data), nil
		}
	}

	doc, err := y.browse(ctx, browseID, "")
	if err != nil {
		return nil, err
	}
	shelf := asMap(findKey(doc["contents"], "musicDescriptionShelfRenderer"))
	if shelf == nil {
		return nil, ErrNoLyrics
	}
	return &Lyrics{Lyrics: text(shelf["description"]), Source: text(shelf["footer"])}, nil
}

func parseTimedLyrics(model map[string]any) *Lyrics {
	out := &Lyrics{
		HasTimestamps: true,
		Source:        getString(getPath(model, "lyricsData", "sourceMessage")),
	}
	var plain []string
	for _, l := range asSlice(getPath(model, "lyricsData", "timedLyricsData")) {
		m := asMap(l)
		cue := asMap(m["cueRange"])
		line := LyricLine{Text: getString(m["lyricLine"])}
		line.StartMs, _ = strconv.Atoi(getString(cue["startTimeMilliseconds"]))
		line.EndMs, _ = strconv.Atoi(getString(cue["endTimeMilliseconds"]))
		line.ID, _ = strconv.Atoi(getString(getPath(cue, "metadata", "id")))
		out.Lines = append(out.Lines, line)
		plain = append(plain, line.Text)
	}
	out.Lyrics = strings.Join(plain, "\n")
	return out
}

// TasteProfile returns the artists offered by the taste builder.
func (y *YouTubeMusic) TasteProfile(ctx context.Context) (TasteProfile, error) {
	doc, err := y.browse(ctx, "FEmusic_tastebuilder", "")
	if err != nil {
		return nil, err
	}
	lists, err := requireSlice(doc, "contents", "tastebuilderRenderer", "contents")
	if err != nil {
		return nil, err
	}
	profile := TasteProfile{}
	for _, list := range lists {
		for _, entry := range asSlice(getPath(list, "tastebuilderItemListRenderer", "contents")) {
			r, err := requireMap(entry, "tastebuilderItemRenderer")
			if err != nil {
				return nil, err
			}
			name := text(r["title"])
			profile[name] = TasteArtist{
				SelectionValue:  getString(r["selectionFormValue"]),
				ImpressionValue: getString(r["impressionFormValue"]),
			}
		}
	}
	return profile, nil
}

// SetTasteProfile selects artists in the taste builder. Every name must appear in [YouTubeMusic.TasteProfile].
func (y *YouTubeMusic) SetTasteProfile(ctx context.Context, artists []string) error {
	if err := y.requireAuth(); err != nil {
		return err
	}
	profile, err := y.TasteProfile(ctx)
	if err != nil {
		return err
	}

	impressions := make([]string, 0, len(profile))
	for _, a := range profile {
		impressions = append(impressions, a.ImpressionValue)
	}
	selections := make([]string, 0, len(artists))
	for _, name := range artists {
		a, ok := profile[name]
		if !ok {
			return inputErr("artists", "The artist, %s, was not present in taste!", name)
		}
		selections = append(selections, a.SelectionValue)
	}

	_, err = y.send(ctx, request{endpoint: "browse", body: map[string]any{
		"browseId": "FEmusic_home",
		"formData": map[string]any{"impressionValues": impressions, "selectedValues": selections},
	}})
	return err
}
