package services

import (
	"context"
	"slices"
	"strings"
)

// SearchFilters lists the accepted values for [SearchOptions.Filter].
var SearchFilters = []string{
	"songs", "videos", "albums", "artists", "playlists",
	"community_playlists", "featured_playlists", "uploads",
	"profiles", "podcasts", "episodes",
}

// SearchScopes lists the accepted values for [SearchOptions.Scope].
var SearchScopes = []string{"library", "uploads"}

// filterParams holds the filter-specific fragment of the search params.
var filterParams = map[string]string{
	"songs":     "II",
	"videos":    "IQ",
	"albums":    "IY",
	"artists":   "Ig",
	"playlists": "Io",
	"profiles":  "JY",
	"podcasts":  "JQ",
	"episodes":  "JI",
}

// singular maps a filter to the result type its items carry.
var singular = map[string]string{
	"songs":               "song",
	"videos":              "video",
	"albums":              "album",
	"artists":             "artist",
	"playlists":           "playlist",
	"community_playlists": "playlist",
	"featured_playlists":  "playlist",
	"uploads":             "upload",
	"profiles":            "profile",
	"podcasts":            "podcast",
	"episodes":            "episode",
}

// searchParams encodes filter, scope and spelling into the protobuf params string InnerTube expects.
func searchParams(filter, scope string, ignoreSpelling bool) (string, error) {
	if filter != "" && !slices.Contains(SearchFilters, filter) {
		return "", inputErr("filter", "Invalid filter provided. Please use one of the following filters or leave out the parameter: %s", strings.Join(SearchFilters, ", "))
	}
	if scope != "" && !slices.Contains(SearchScopes, scope) {
		return "", inputErr("scope", "Invalid scope provided. Please use one of the following scopes or leave out the parameter: %s", strings.Join(SearchScopes, ", "))
	}
	if scope == "uploads" && filter != "" {
		return "", inputErr("filter", "No filter can be set when searching uploads. Please unset the filter parameter when scope is set to uploads.")
	}
	if scope == "library" && (filter == "community_playlists" || filter == "featured_playlists") {
		return "", inputErr("filter", "community_playlists and featured_playlists cannot be set when searching library")
	}

	const param1 = "EgWKAQ"
	switch {
	case scope == "uploads":
		return "agIYAw%3D%3D", nil
	case scope == "library" && filter != "":
		return param1 + filterParams[filter] + "AWoKEAUQCRADEAoYBA%3D%3D", nil
	case scope == "library":
		return "agIYBA%3D%3D", nil
	case filter == "playlists":
		if ignoreSpelling {
			return "Eg-KAQwIABAAGAAgACgB" + "MABCAggBagoQBBADEAkQBRAK", nil
		}
		return "Eg-KAQwIABAAGAAgACgB" + "MABqChAEEAMQCRAFEAo%3D", nil
	case filter == "featured_playlists", filter == "community_playlists":
		p2 := "Dg"
		if filter == "community_playlists" {
			p2 = "EA"
		}
		if ignoreSpelling {
			return "EgeKAQQoA" + p2 + "BQgIIAWoMEA4QChADEAQQCRAF", nil
		}
		return "EgeKAQQoA" + p2 + "BagwQDhAKEAMQBBAJEAU%3D", nil
	case filter != "":
		if ignoreSpelling {
			return param1 + filterParams[filter] + "AUICCAFqDBAOEAoQAxAEEAkQBQ%3D%3D", nil
		}
		return param1 + filterParams[filter] + "AWoMEA4QChADEAQQCRAF", nil
	case ignoreSpelling:
		return "EhGKAQ4IARABGAEgASgAOAFAAUICCAE%3D", nil
	}
	return "", nil
}

// Search runs a search. Unfiltered searches return every shelf; filtered searches page until Limit is reached.
func (y *YouTubeMusic) Search(ctx context.Context, opts SearchOptions) ([]Item, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, inputErr("query", "must not be empty")
	}
	resultType := singular[opts.Filter]
	if opts.Filter == "uploads" {
		opts.Filter, opts.Scope = "", "uploads"
	}
	params, err := searchParams(opts.Filter, opts.Scope, opts.IgnoreSpelling)
	if err != nil {
		return nil, err
	}
	if opts.Scope != "" {
		if err := y.requireAuth(); err != nil {
			return nil, err
		}
	}

	body := map[string]any{"query": opts.Query}
	if params != "" {
		body["params"] = params
	}
	doc, err := y.send(ctx, request{endpoint: "search", body: body})
	if err != nil {
		return nil, err
	}
	if _, ok := doc["contents"]; !ok {
		return []Item{}, nil
	}

	var content any = doc["contents"]
	if tabs := asSlice(getPath(doc, "contents", "tabbedSearchResultsRenderer", "tabs")); tabs != nil {
		idx := 0
		if opts.Scope != "" && opts.Filter == "" {
			idx = slices.Index(SearchScopes, opts.Scope) + 1
		}
		if content, err = require(tabs, idx, "tabRenderer", "content"); err != nil {
			return nil, err
		}
	}
	sections, err := requireSlice(content, pathSectionList...)
	if err != nil {
		return nil, err
	}

	results := []Item{}
	var shelf map[string]any
	for _, section := range sections {
		key, r := firstKey(section)
		switch key {
		case "musicCardShelfRenderer":
			top, err := parseTopResult(r)
			if err != nil {
				return nil, err
			}
			results = append(results, top)
			for _, item := range parseItems(asSlice(r["contents"])) {
				item.Category = "Top result"
				results = append(results, item)
			}
		case "musicShelfRenderer":
			shelf = r
			category := text(r["title"])
			for _, item := range parseItems(asSlice(r["contents"])) {
				item.Category = category
				if resultType != "" && !strings.HasSuffix(opts.Filter, "playlists") {
					item.ResultType = resultType
				}
				results = append(results, item)
			}
		}
	}

	if opts.Filter == "" || shelf == nil {
		return results, nil
	}

	token := continuationToken(asSlice(shelf["contents"]), shelf)
	for token != "" && len(results) < opts.Limit {
		items, next, err := y.continuation(ctx, "search", token)
		if err != nil {
			return nil, err
		}
		for _, item := range parseItems(items) {
			item.Category = text(shelf["title"])
			if resultType != "" && !strings.HasSuffix(opts.Filter, "playlists") {
				item.ResultType = resultType
			}
			results = append(results, item)
		}
		token = next
	}
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// parseTopResult parses the card shelf shown above unfiltered results.
func parseTopResult(r map[string]any) (Item, error) {
	header, err := requireMap(r, "header", "musicCardShelfHeaderBasicRenderer")
	if err != nil {
		return Item{}, err
	}
	item := Item{
		Category:   text(header["title"]),
		Title:      text(r["title"]),
		Thumbnails: thumbnails(getPath(r, pathThumbnails...)),
	}
	applyRuns(&item, asSlice(getPath(r, "subtitle", "runs")))

	endpoint := getPath(r, "title", "runs", 0)
	item.BrowseID = getString(getPath(endpoint, pathBrowseID...))
	pageType := getString(getPath(endpoint, pathPageType...))
	item.VideoID = getString(getPath(endpoint, pathWatchVideoID...))
	item.VideoType = getString(getPath(endpoint, "navigationEndpoint", "watchEndpoint", "watchEndpointMusicSupportedConfigs", "watchEndpointMusicConfig", "musicVideoType"))
	if pageTypes[pageType] == "playlist" {
		item.PlaylistID = strings.TrimPrefix(item.BrowseID, "VL")
	}
	item.ResultType = detectType(&item, pageType)
	return item, nil
}

// SearchSuggestions returns autocomplete entries for query.
//
// Plain suggestions tolerate missing runs; detailed suggestions require them.
func (y *YouTubeMusic) SearchSuggestions(ctx context.Context, query string, detailed bool) ([]Suggestion, error) {
	doc, err := y.send(ctx, request{endpoint: "music/get_search_suggestions", body: map[string]any{"input": query}})
	if err != nil {
		return nil, err
	}

	out := []Suggestion{}
	for _, section := range asSlice(doc["contents"]) {
		contents := asSlice(getPath(section, "searchSuggestionsSectionRenderer", "contents"))
		for _, entry := range contents {
			key, r := firstKey(entry)
			if key != "searchSuggestionRenderer" && key != "historySuggestionRenderer" {
				continue
			}

			s := Suggestion{Text: text(r["suggestion"])}
			if !detailed {
				out = append(out, s)
				continue
			}

			runs, err := requireSlice(r, "suggestion", "runs")
			if err != nil {
				return nil, err
			}
			for _, run := range runs {
				m := asMap(run)
				bold, _ := m["bold"].(bool)
				s.Runs = append(s.Runs, Run{Text: getString(m["text"]), Bold: bold})
			}
			if key == "historySuggestionRenderer" {
				s.FromHistory = true
				s.FeedbackToken = getString(getPath(r, "serviceEndpoint", "feedbackEndpoint", "feedbackToken"))
			}
			out = append(out, s)
		}
	}
	return out, nil
}

// RemoveSearchSuggestions removes history suggestions and reports whether every removal was processed.
func (y *YouTubeMusic) RemoveSearchSuggestions(ctx context.Context, tokens []string) (bool, error) {
	if err := y.requireAuth(); err != nil {
		return false, err
	}
	if len(tokens) == 0 {
		return false, inputErr("suggestions", "no feedback tokens provided; fetch suggestions with detailed runs first")
	}
	doc, err := y.feedback(ctx, tokens)
	if err != nil {
		return false, err
	}
	responses := asSlice(doc["feedbackResponses"])
	if len(responses) == 0 {
		return false, nil
	}
	for _, r := range responses {
		if ok, _ := asMap(r)["isProcessed"].(bool); !ok {
			return false, nil
		}
	}
	return true, nil
}

func (y *YouTubeMusic) feedback(ctx context.Context, tokens []string) (Response, error) {
	doc, err := y.send(ctx, request{endpoint: "feedback", body: map[string]any{"feedbackTokens": tokens}})
	if err != nil {
		return nil, err
	}
	return Response(doc), nil
}

// continuation fetches the next page for token and returns its items and the following token.
func (y *YouTubeMusic) continuation(ctx context.Context, endpoint, token string) ([]any, string, error) {
	doc, err := y.send(ctx, request{endpoint: endpoint, body: map[string]any{"continuation": token}})
	if err != nil {
		return nil, "", err
	}

	if cc := asMap(doc["continuationContents"]); cc != nil {
		_, c := firstKey(cc)
		items := asSlice(c["contents"])
		if items == nil {
			items = asSlice(c["items"])
		}
		return items, continuationToken(items, c), nil
	}
	for _, action := range asSlice(doc["onResponseReceivedActions"]) {
		items := asSlice(getPath(action, "appendContinuationItemsAction", "continuationItems"))
		if items != nil {
			return items, continuationToken(items, nil), nil
		}
	}
	return nil, "", nil
}
