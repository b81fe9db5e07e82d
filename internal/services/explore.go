package services

import (
	"context"
	"regexp"
	"strings"
)

var countryPattern = regexp.MustCompile(`^[A-Z]{2}$`)

// MoodCategories returns the moods and genres buttons grouped by section title.
func (y *YouTubeMusic) MoodCategories(ctx context.Context) (map[string][]MoodCategory, error) {
	doc, err := y.browse(ctx, "FEmusic_moods_and_genres", "")
	if err != nil {
		return nil, err
	}
	sections, err := singleColumnSections(doc)
	if err != nil {
		return nil, err
	}

	out := map[string][]MoodCategory{}
	for _, section := range sections {
		grid, err := requireMap(section, "gridRenderer")
		if err != nil {
			return nil, err
		}
		title := text(getPath(grid, "header", "gridHeaderRenderer", "title"))
		for _, entry := range asSlice(grid["items"]) {
			button := asMap(getPath(entry, "musicNavigationButtonRenderer"))
			if button == nil {
				continue
			}
			out[title] = append(out[title], MoodCategory{
				Title:  text(button["buttonText"]),
				Params: getString(getPath(button, "clickCommand", "browseEndpoint", "params")),
			})
		}
	}
	return out, nil
}

// MoodPlaylists returns the playlists for a mood category params value.
func (y *YouTubeMusic) MoodPlaylists(ctx context.Context, params string) ([]Item, error) {
	if params == "" {
		return nil, inputErr("params", "mood category params are required")
	}
	doc, err := y.browse(ctx, "FEmusic_moods_and_genres_category", params)
	if err != nil {
		return nil, err
	}
	sections, err := singleColumnSections(doc)
	if err != nil {
		return nil, err
	}

	playlists := []Item{}
	for _, section := range sections {
		key, r := firstKey(section)
		var raw []any
		switch key {
		case "gridRenderer":
			raw = asSlice(r["items"])
		case "musicCarouselShelfRenderer", "musicImmersiveCarouselShelfRenderer":
			raw = asSlice(r["contents"])
		default:
			continue
		}
		for _, item := range parseItems(raw) {
			if item.PlaylistID != "" || item.ResultType == "playlist" {
				playlists = append(playlists, item)
			}
		}
	}
	return playlists, nil
}

// Charts returns the chart shelves for a country code, "ZZ" meaning global.
func (y *YouTubeMusic) Charts(ctx context.Context, country string) (*Charts, error) {
	if country == "" {
		country = "ZZ"
	}
	country = strings.ToUpper(country)
	if !countryPattern.MatchString(country) {
		return nil, inputErr("country", "unsupported country code %q", country)
	}

	doc, err := y.send(ctx, request{endpoint: "browse", body: map[string]any{
		"browseId": "FEmusic_charts",
		"formData": map[string]any{"selectedValues": []string{country}},
	}})
	if err != nil {
		return nil, err
	}
	sections, err := singleColumnSections(doc)
	if err != nil {
		return nil, err
	}

	charts := &Charts{Country: country, Shelves: []Shelf{}}
	for _, opt := range collectKey(firstOr(sections), "musicMultiSelectMenuItemRenderer") {
		if t := text(asMap(opt)["title"]); t != "" {
			charts.Countries = append(charts.Countries, t)
		}
	}
	for _, s := range sections {
		if _, ok := asMap(s)["musicCarouselShelfRenderer"]; !ok {
			continue
		}
		if shelf, ok := parseShelf(s); ok {
			charts.Shelves = append(charts.Shelves, shelf)
		}
	}
	return charts, nil
}

// WatchPlaylist returns the up-next queue. Without a playlist id an automix radio for the video is used.
func (y *YouTubeMusic) WatchPlaylist(ctx context.Context, opts WatchOptions) (*WatchPlaylist, error) {
	if opts.VideoID == "" && opts.PlaylistID == "" {
		return nil, inputErr("videoId", "You must provide either a video id, a playlist id, or both")
	}
	if opts.Limit <= 0 {
		opts.Limit = 25
	}

	body := map[string]any{
		"enablePersistentPlaylistPanel": true,
		"isAudioOnly":                   true,
		"tunerSettingValue":             "AUTOMIX_SETTING_NORMAL",
	}
	playlistID := strings.TrimPrefix(opts.PlaylistID, "VL")
	if opts.VideoID != "" {
		body["videoId"] = opts.VideoID
		if playlistID == "" {
			playlistID = "RDAMVM" + opts.VideoID
		}
		if !opts.Radio && !opts.Shuffle {
			body["watchEndpointMusicSupportedConfigs"] = map[string]any{
				"watchEndpointMusicConfig": map[string]any{
					"hasPersistentPlaylistPanel": true,
					"musicVideoType":             "MUSIC_VIDEO_TYPE_ATV",
				},
			}
		}
	}
	body["playlistId"] = playlistID
	switch {
	case opts.Shuffle:
		body["params"] = "wAEB8gECKAE%3D"
	case opts.Radio:
		body["params"] = "wAEB"
	}

	doc, err := y.send(ctx, request{endpoint: "next", body: body})
	if err != nil {
		return nil, err
	}
	tabs, err := requireSlice(doc, "contents", "singleColumnMusicWatchNextResultsRenderer", "tabbedRenderer", "watchNextTabbedResultsRenderer", "tabs")
	if err != nil {
		return nil, err
	}
	panel, err := requireMap(tabs, 0, "tabRenderer", "content", "musicQueueRenderer", "content", "playlistPanelRenderer")
	if err != nil {
		return nil, err
	}

	out := &WatchPlaylist{
		PlaylistID: getString(panel["playlistId"]),
		Lyrics:     tabBrowseID(tabs, 1),
		Related:    tabBrowseID(tabs, 2),
	}
	if out.PlaylistID == "" {
		out.PlaylistID = playlistID
	}
	raw := asSlice(panel["contents"])
	out.Tracks = parseItems(raw)

	token := getString(getPath(panel, "continuations", 0, "nextRadioContinuationData", "continuation"))
	for token != "" && len(out.Tracks) < opts.Limit {
		cdoc, err := y.send(ctx, request{endpoint: "next", body: map[string]any{
			"continuation":                  token,
			"enablePersistentPlaylistPanel": true,
			"isAudioOnly":                   true,
		}})
		if err != nil {
			return nil, err
		}
		cont := asMap(getPath(cdoc, "continuationContents", "playlistPanelContinuation"))
		if cont == nil {
			break
		}
		out.Tracks = append(out.Tracks, parseItems(asSlice(cont["contents"]))...)
		token = getString(getPath(cont, "continuations", 0, "nextRadioContinuationData", "continuation"))
	}
	if len(out.Tracks) > opts.Limit {
		out.Tracks = out.Tracks[:opts.Limit]
	}
	return out, nil
}

// tabBrowseID returns the browse id behind a watch page tab, or "" when the tab is disabled.
func tabBrowseID(tabs []any, i int) string {
	tab := asMap(getPath(tabs, i, "tabRenderer"))
	if tab == nil || tab["unselectable"] != nil {
		return ""
	}
	return getString(getPath(tab, "endpoint", "browseEndpoint", "browseId"))
}
