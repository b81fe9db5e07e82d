package services

import (
	"regexp"
	"strings"
)

var (
	durationPattern = regexp.MustCompile(`^(\d+:)*\d+:\d+$`)
	yearPattern     = regexp.MustCompile(`^\d{4}$`)
	countPattern    = regexp.MustCompile(`(\d[\d,.]*)`)
)

// pageTypes maps browse page types to result types.
var pageTypes = map[string]string{
	"MUSIC_PAGE_TYPE_ARTIST":                     "artist",
	"MUSIC_PAGE_TYPE_LIBRARY_ARTIST":             "artist",
	"MUSIC_PAGE_TYPE_ALBUM":                      "album",
	"MUSIC_PAGE_TYPE_PLAYLIST":                   "playlist",
	"MUSIC_PAGE_TYPE_USER_CHANNEL":               "profile",
	"MUSIC_PAGE_TYPE_PODCAST_SHOW_DETAIL_PAGE":   "podcast",
	"MUSIC_PAGE_TYPE_NON_MUSIC_AUDIO_TRACK_PAGE": "episode",
}

// videoTypes maps watch endpoint music video types to result types.
var videoTypes = map[string]string{
	"MUSIC_VIDEO_TYPE_ATV":                   "song",
	"MUSIC_VIDEO_TYPE_PRIVATELY_OWNED_TRACK": "song",
	"MUSIC_VIDEO_TYPE_OMV":                   "video",
	"MUSIC_VIDEO_TYPE_UGC":                   "video",
	"MUSIC_VIDEO_TYPE_OFFICIAL_SOURCE_MUSIC": "video",
	"MUSIC_VIDEO_TYPE_PODCAST_EPISODE":       "episode",
}

func thumbnails(value any) []Thumbnail {
	raw := asSlice(value)
	if len(raw) == 0 {
		return nil
	}
	out := make([]Thumbnail, 0, len(raw))
	for _, t := range raw {
		m := asMap(t)
		out = append(out, Thumbnail{
			URL:    getString(m["url"]),
			Width:  toInt(m["width"]),
			Height: toInt(m["height"]),
		})
	}
	return out
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

// findKey returns the first value stored under key anywhere in value, breadth first.
func findKey(value any, key string) any {
	queue := []any{value}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		switch v := cur.(type) {
		case map[string]any:
			if found, ok := v[key]; ok {
				return found
			}
			for _, child := range v {
				queue = append(queue, child)
			}
		case []any:
			queue = append(queue, v...)
		}
	}
	return nil
}

// collectKey returns every value stored under key anywhere in value, depth first.
func collectKey(value any, key string) []any {
	var out []any
	switch v := value.(type) {
	case map[string]any:
		if found, ok := v[key]; ok {
			out = append(out, found)
		}
		for k, child := range v {
			if k != key {
				out = append(out, collectKey(child, key)...)
			}
		}
	case []any:
		for _, child := range v {
			out = append(out, collectKey(child, key)...)
		}
	}
	return out
}

// parseCount extracts the leading integer from text such as "12 songs".
func parseCount(s string) int {
	m := countPattern.FindString(s)
	if m == "" {
		return 0
	}
	n := 0
	for _, r := range m {
		if r >= '0' && r <= '9' {
			n = n*10 + int(r-'0')
		}
	}
	return n
}

// applyRuns fills artist, album, duration, views and year from subtitle or column runs.
func applyRuns(item *Item, runs []any) {
	for _, r := range runs {
		run := asMap(r)
		txt := strings.TrimSpace(getString(run["text"]))
		if txt == "" || txt == "•" || txt == "&" || txt == "," {
			continue
		}

		if id := getString(getPath(run, pathBrowseID...)); id != "" {
			switch pageTypes[getString(getPath(run, pathPageType...))] {
			case "album":
				item.Album = &Ref{Name: txt, ID: id}
			case "artist", "profile":
				item.Artists = append(item.Artists, Ref{Name: txt, ID: id})
			}
			continue
		}

		switch {
		case durationPattern.MatchString(txt):
			item.Duration = txt
			item.DurationSeconds = parseDuration(txt)
		case strings.HasSuffix(txt, "views") || strings.HasSuffix(txt, "plays"):
			item.Views = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(txt, "views"), "plays"))
		case yearPattern.MatchString(txt):
			item.Year = txt
		case strings.HasSuffix(txt, "songs") || strings.HasSuffix(txt, "tracks") || strings.HasSuffix(txt, "episodes"):
			item.ItemCount = txt
		}
	}
}

// detectType derives a result type from the item's endpoints.
func detectType(item *Item, pageType string) string {
	if t, ok := videoTypes[item.VideoType]; ok {
		return t
	}
	if t, ok := pageTypes[pageType]; ok {
		return t
	}
	if item.VideoID != "" {
		return "song"
	}
	if item.PlaylistID != "" {
		return "playlist"
	}
	return ""
}

// feedbackTokens reads library add/remove toggles and history removal tokens from a menu.
func feedbackTokens(item *Item, menu any) {
	for _, entry := range asSlice(getPath(menu, "menuRenderer", "items")) {
		if toggle := asMap(getPath(entry, "toggleMenuServiceItemRenderer")); toggle != nil {
			add := getString(getPath(toggle, "defaultServiceEndpoint", "feedbackEndpoint", "feedbackToken"))
			remove := getString(getPath(toggle, "toggledServiceEndpoint", "feedbackEndpoint", "feedbackToken"))
			if add != "" || remove != "" {
				item.FeedbackTokens = &FeedbackTokens{Add: add, Remove: remove}
			}
			continue
		}
		if svc := asMap(getPath(entry, "menuServiceItemRenderer")); svc != nil {
			if tok := getString(getPath(svc, "serviceEndpoint", "feedbackEndpoint", "feedbackToken")); tok != "" {
				item.FeedbackToken = tok
			}
			continue
		}
		if nav := asMap(getPath(entry, "menuNavigationItemRenderer")); nav != nil {
			if id := getString(findKey(nav, "entityId")); id != "" {
				item.EntityID = id
			}
		}
	}
}

// parseResponsive parses a musicResponsiveListItemRenderer row.
func parseResponsive(r map[string]any) Item {
	var item Item
	cols := asSlice(r["flexColumns"])
	for i, c := range cols {
		col := asMap(getPath(c, "musicResponsiveListItemFlexColumnRenderer", "text"))
		if i == 0 {
			item.Title = text(col)
			if id := getString(getPath(col, "runs", 0, "navigationEndpoint", "watchEndpoint", "videoId")); id != "" {
				item.VideoID = id
			}
			continue
		}
		applyRuns(&item, asSlice(col["runs"]))
	}
	for _, c := range asSlice(r["fixedColumns"]) {
		if d := text(getPath(c, "musicResponsiveListItemFixedColumnRenderer", "text")); durationPattern.MatchString(d) {
			item.Duration = d
			item.DurationSeconds = parseDuration(d)
		}
	}

	if id := getString(getPath(r, "playlistItemData", "videoId")); id != "" {
		item.VideoID = id
	}
	item.SetVideoID = getString(getPath(r, "playlistItemData", "playlistSetVideoId"))

	watch := getPath(r, "overlay", "musicItemThumbnailOverlayRenderer", "content", "musicPlayButtonRenderer", "playNavigationEndpoint")
	if item.VideoID == "" {
		item.VideoID = getString(getPath(watch, "watchEndpoint", "videoId"))
	}
	item.VideoType = getString(getPath(watch, "watchEndpoint", "watchEndpointMusicSupportedConfigs", "watchEndpointMusicConfig", "musicVideoType"))
	if pl := getString(getPath(watch, "watchPlaylistEndpoint", "playlistId")); pl != "" {
		item.PlaylistID = pl
	}

	item.BrowseID = getString(getPath(r, pathBrowseID...))
	pageType := getString(getPath(r, pathPageType...))
	if pageTypes[pageType] == "playlist" && item.PlaylistID == "" {
		item.PlaylistID = strings.TrimPrefix(item.BrowseID, "VL")
	}

	item.Thumbnails = thumbnails(getPath(r, pathThumbnails...))
	for _, b := range asSlice(r["badges"]) {
		if getString(getPath(b, "musicInlineBadgeRenderer", "icon", "iconType")) == "MUSIC_EXPLICIT_BADGE" {
			item.IsExplicit = true
		}
	}
	feedbackTokens(&item, r["menu"])
	item.ResultType = detectType(&item, pageType)
	return item
}

// parseTwoRow parses a musicTwoRowItemRenderer card.
func parseTwoRow(r map[string]any) Item {
	item := Item{
		Title:      text(r["title"]),
		Subtitle:   text(r["subtitle"]),
		Thumbnails: thumbnails(getPath(r, pathThumbnailCrop...)),
	}
	applyRuns(&item, asSlice(getPath(r, "subtitle", "runs")))

	item.BrowseID = getString(getPath(r, pathBrowseID...))
	item.Params = getString(getPath(r, "navigationEndpoint", "browseEndpoint", "params"))
	pageType := getString(getPath(r, pathPageType...))

	if id := getString(getPath(r, pathWatchVideoID...)); id != "" {
		item.VideoID = id
		item.PlaylistID = getString(getPath(r, "navigationEndpoint", "watchEndpoint", "playlistId"))
		item.VideoType = getString(getPath(r, "navigationEndpoint", "watchEndpoint", "watchEndpointMusicSupportedConfigs", "watchEndpointMusicConfig", "musicVideoType"))
	}
	switch pageTypes[pageType] {
	case "playlist", "podcast":
		item.PlaylistID = strings.TrimPrefix(item.BrowseID, "VL")
	case "album":
		item.PlaylistID = getString(findKey(r["thumbnailOverlay"], "playlistId"))
	}
	feedbackTokens(&item, r["menu"])
	item.ResultType = detectType(&item, pageType)
	return item
}

// parseMultiRow parses a musicMultiRowListItemRenderer podcast episode.
func parseMultiRow(r map[string]any) Item {
	item := Item{
		ResultType:  "episode",
		Title:       text(r["title"]),
		Description: text(r["description"]),
		VideoID:     getString(getPath(r, "onTap", "watchEndpoint", "videoId")),
		BrowseID:    getString(getPath(r, "title", "runs", 0, "navigationEndpoint", "browseEndpoint", "browseId")),
		Thumbnails:  thumbnails(getPath(r, pathThumbnails...)),
	}
	for _, part := range strings.Split(text(r["subtitle"]), "•") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case strings.Contains(part, "min") || strings.Contains(part, "sec") || strings.Contains(part, "hr"):
			item.Duration = part
		default:
			item.Date = part
		}
	}
	feedbackTokens(&item, r["menu"])
	return item
}

// parsePanelVideo parses a playlistPanelVideoRenderer watch queue entry.
func parsePanelVideo(r map[string]any) Item {
	item := Item{
		Title:      text(r["title"]),
		VideoID:    getString(r["videoId"]),
		SetVideoID: getString(r["playlistSetVideoId"]),
		Thumbnails: thumbnails(getPath(r, "thumbnail", "thumbnails")),
		VideoType:  getString(getPath(r, "navigationEndpoint", "watchEndpoint", "watchEndpointMusicSupportedConfigs", "watchEndpointMusicConfig", "musicVideoType")),
	}
	if d := text(r["lengthText"]); d != "" {
		item.Duration = d
		item.DurationSeconds = parseDuration(d)
	}
	applyRuns(&item, asSlice(getPath(r, "longBylineText", "runs")))
	feedbackTokens(&item, r["menu"])
	item.ResultType = detectType(&item, "")
	return item
}

// parseItems parses every recognised renderer in a contents array.
func parseItems(contents []any) []Item {
	items := make([]Item, 0, len(contents))
	for _, entry := range contents {
		key, r := firstKey(entry)
		switch key {
		case "musicResponsiveListItemRenderer":
			items = append(items, parseResponsive(r))
		case "musicTwoRowItemRenderer":
			items = append(items, parseTwoRow(r))
		case "musicMultiRowListItemRenderer":
			items = append(items, parseMultiRow(r))
		case "playlistPanelVideoRenderer":
			items = append(items, parsePanelVideo(r))
		case "playlistPanelVideoWrapperRenderer":
			if p := asMap(getPath(r, "primaryRenderer", "playlistPanelVideoRenderer")); p != nil {
				items = append(items, parsePanelVideo(p))
			}
		}
	}
	return items
}

// shelfContainer locates the list container and its items inside a section wrapper.
func shelfContainer(section any) (string, map[string]any, []any) {
	key, r := firstKey(section)
	switch key {
	case "musicShelfRenderer", "musicPlaylistShelfRenderer", "musicCarouselShelfRenderer":
		return key, r, asSlice(r["contents"])
	case "gridRenderer":
		return key, r, asSlice(r["items"])
	case "itemSectionRenderer":
		for _, inner := range asSlice(r["contents"]) {
			if k, c, items := shelfContainer(inner); c != nil {
				return k, c, items
			}
		}
	}
	return "", nil, nil
}

// parseShelf converts one section list entry to a [Shelf]. It reports false for sections without items.
func parseShelf(section any) (Shelf, bool) {
	key, r := firstKey(section)
	switch key {
	case "musicCarouselShelfRenderer":
		header := getPath(r, "header", "musicCarouselShelfBasicHeaderRenderer")
		return Shelf{
			Title:    text(getPath(header, "title")),
			BrowseID: getString(getPath(header, "title", "runs", 0, "navigationEndpoint", "browseEndpoint", "browseId")),
			Params:   getString(getPath(header, "title", "runs", 0, "navigationEndpoint", "browseEndpoint", "params")),
			Contents: parseItems(asSlice(r["contents"])),
		}, true
	case "musicShelfRenderer":
		return Shelf{
			Title:    text(r["title"]),
			BrowseID: getString(getPath(r, "bottomEndpoint", "browseEndpoint", "browseId")),
			Params:   getString(getPath(r, "bottomEndpoint", "browseEndpoint", "params")),
			Contents: parseItems(asSlice(r["contents"])),
		}, true
	case "musicDescriptionShelfRenderer":
		return Shelf{Title: text(r["header"]), Text: text(r["description"]), Contents: []Item{}}, true
	case "gridRenderer":
		return Shelf{
			Title:    text(getPath(r, "header", "gridHeaderRenderer", "title")),
			Contents: parseItems(asSlice(r["items"])),
		}, true
	case "itemSectionRenderer", "musicPlaylistShelfRenderer":
		if _, c, items := shelfContainer(section); c != nil {
			return Shelf{Title: text(c["title"]), Contents: parseItems(items)}, true
		}
	}
	return Shelf{}, false
}

func parseShelves(sections []any) []Shelf {
	out := make([]Shelf, 0, len(sections))
	for _, s := range sections {
		if shelf, ok := parseShelf(s); ok {
			out = append(out, shelf)
		}
	}
	return out
}

// sectionKey normalises a shelf title for [Channel.Sections].
func sectionKey(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	switch {
	case t == "fans might also like" || t == "similar artists":
		return "related"
	case strings.HasPrefix(t, "featured on"):
		return "featured"
	case t == "top songs":
		return "songs"
	}
	return strings.ReplaceAll(t, " ", "_")
}
