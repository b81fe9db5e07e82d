package services

import (
	"context"
	"slices"
	"strings"
)

// PrivacyStatuses lists the accepted playlist privacy values.
var PrivacyStatuses = []string{"PRIVATE", "PUBLIC", "UNLISTED"}

func validPrivacy(p string) error {
	if p != "" && !slices.Contains(PrivacyStatuses, p) {
		return inputErr("privacyStatus", "Invalid privacy status '%s'. Must be one of: %s", p, strings.Join(PrivacyStatuses, ", "))
	}
	return nil
}

// Playlist returns a playlist page with up to opts.Limit tracks.
func (y *YouTubeMusic) Playlist(ctx context.Context, playlistID string, opts PlaylistOptions) (*Playlist, error) {
	if playlistID == "" {
		return nil, inputErr("playlistId", "must not be empty")
	}
	browseID := playlistID
	if !strings.HasPrefix(browseID, "VL") {
		browseID = "VL" + playlistID
	}
	doc, err := y.browse(ctx, browseID, "")
	if err != nil {
		return nil, err
	}

	page, err := twoColumn(doc)
	if err != nil {
		return nil, err
	}
	header := page.header
	pl := &Playlist{
		ID:          strings.TrimPrefix(browseID, "VL"),
		Title:       text(header["title"]),
		Description: text(findKey(header["description"], "description")),
		Privacy:     "PUBLIC",
		Thumbnails:  thumbnails(findKey(header["thumbnail"], "thumbnails")),
		Tracks:      []Item{},
	}
	if page.edit != nil {
		pl.Owned = true
		if p := getString(page.edit["privacy"]); p != "" {
			pl.Privacy = p
		}
	}
	if run := asMap(getPath(header, "straplineTextOne", "runs", 0)); run != nil {
		pl.Author = &Ref{Name: getString(run["text"]), ID: getString(getPath(run, pathBrowseID...))}
	}
	for _, part := range strings.Split(text(header["subtitle"]), "•") {
		if part = strings.TrimSpace(part); yearPattern.MatchString(part) {
			pl.Year = part
		}
	}
	second := strings.Split(text(header["secondSubtitle"]), "•")
	for _, part := range second {
		part = strings.TrimSpace(part)
		switch {
		case strings.Contains(part, "track") || strings.Contains(part, "song") || strings.Contains(part, "episode"):
			pl.TrackCount = parseCount(part)
		case strings.Contains(part, "hour") || strings.Contains(part, "minute"):
			pl.Duration = part
		}
	}

	var (
		container map[string]any
		raw       []any
	)
	for _, s := range page.secondary {
		key, c, items := shelfContainer(s)
		if key == "musicPlaylistShelfRenderer" || key == "musicShelfRenderer" {
			container, raw = c, items
			break
		}
	}
	if container != nil {
		pl.Tracks = parseItems(raw)
		token := continuationToken(raw, container)
		for token != "" && (opts.Limit <= 0 || len(pl.Tracks) < opts.Limit) {
			next, tok, err := y.continuation(ctx, "browse", token)
			if err != nil {
				return nil, err
			}
			pl.Tracks = append(pl.Tracks, parseItems(next)...)
			token = tok
		}
	}
	if opts.Limit > 0 && len(pl.Tracks) > opts.Limit {
		pl.Tracks = pl.Tracks[:opts.Limit]
	}
	if pl.TrackCount == 0 {
		pl.TrackCount = len(pl.Tracks)
	}

	for _, s := range page.secondary {
		shelf, ok := parseShelf(s)
		if !ok || asMap(s)["musicCarouselShelfRenderer"] == nil {
			continue
		}
		if strings.Contains(strings.ToLower(shelf.Title), "suggest") {
			pl.Suggestions = append(pl.Suggestions, shelf.Contents...)
		} else if opts.Related {
			pl.Related = append(pl.Related, shelf.Contents...)
		}
	}
	if opts.SuggestionsLimit >= 0 && len(pl.Suggestions) > opts.SuggestionsLimit {
		pl.Suggestions = pl.Suggestions[:opts.SuggestionsLimit]
	}
	return pl, nil
}

// CreatePlaylist creates a playlist and returns its id.
func (y *YouTubeMusic) CreatePlaylist(ctx context.Context, opts CreatePlaylistOptions) (string, error) {
	if err := y.requireAuth(); err != nil {
		return "", err
	}
	if strings.TrimSpace(opts.Title) == "" {
		return "", inputErr("title", "Playlist title cannot be empty")
	}
	if opts.Privacy == "" {
		opts.Privacy = "PRIVATE"
	}
	if err := validPrivacy(opts.Privacy); err != nil {
		return "", err
	}

	body := map[string]any{
		"title":         opts.Title,
		"description":   opts.Description,
		"privacyStatus": opts.Privacy,
	}
	if len(opts.VideoIDs) > 0 {
		body["videoIds"] = opts.VideoIDs
	}
	if opts.SourcePlaylist != "" {
		body["sourcePlaylistId"] = strings.TrimPrefix(opts.SourcePlaylist, "VL")
	}
	doc, err := y.send(ctx, request{endpoint: "playlist/create", body: body})
	if err != nil {
		return "", err
	}
	id, err := require(doc, "playlistId")
	if err != nil {
		return "", err
	}
	return getString(id), nil
}

// EditPlaylist applies title, description, privacy, move and merge edits and returns the upstream status.
func (y *YouTubeMusic) EditPlaylist(ctx context.Context, opts EditPlaylistOptions) (string, error) {
	if err := y.requireAuth(); err != nil {
		return "", err
	}
	if err := validPrivacy(opts.Privacy); err != nil {
		return "", err
	}

	var actions []map[string]any
	if opts.Title != "" {
		actions = append(actions, map[string]any{"action": "ACTION_SET_PLAYLIST_NAME", "playlistName": opts.Title})
	}
	if opts.Description != "" {
		actions = append(actions, map[string]any{"action": "ACTION_SET_PLAYLIST_DESCRIPTION", "playlistDescription": opts.Description})
	}
	if opts.Privacy != "" {
		actions = append(actions, map[string]any{"action": "ACTION_SET_PLAYLIST_PRIVACY", "playlistPrivacy": opts.Privacy})
	}
	if opts.Move != nil {
		move := map[string]any{"action": "ACTION_MOVE_VIDEO_BEFORE", "setVideoId": opts.Move.SetVideoID}
		if opts.Move.Successor != "" {
			move["movedSetVideoIdSuccessor"] = opts.Move.Successor
		}
		actions = append(actions, move)
	}
	if opts.AddPlaylistID != "" {
		actions = append(actions, map[string]any{"action": "ACTION_ADD_PLAYLIST", "addedFullListId": strings.TrimPrefix(opts.AddPlaylistID, "VL")})
	}
	if opts.AddToTop != nil {
		v := "false"
		if *opts.AddToTop {
			v = "true"
		}
		actions = append(actions, map[string]any{"action": "ACTION_SET_ADD_TO_TOP", "addToTop": v})
	}
	if len(actions) == 0 {
		return "", inputErr("playlist", "no changes requested")
	}

	doc, err := y.send(ctx, request{endpoint: "browse/edit_playlist", body: map[string]any{
		"playlistId": strings.TrimPrefix(opts.PlaylistID, "VL"),
		"actions":    actions,
	}})
	if err != nil {
		return "", err
	}
	return getString(doc["status"]), nil
}

// DeletePlaylist deletes a playlist the caller owns.
func (y *YouTubeMusic) DeletePlaylist(ctx context.Context, playlistID string) (string, error) {
	if err := y.requireAuth(); err != nil {
		return "", err
	}
	doc, err := y.send(ctx, request{endpoint: "playlist/delete", body: map[string]any{"playlistId": strings.TrimPrefix(playlistID, "VL")}})
	if err != nil {
		return "", err
	}
	status := getString(doc["status"])
	if status == "" {
		status = "STATUS_SUCCEEDED"
	}
	return status, nil
}

// AddPlaylistItems adds videos and/or the contents of another playlist. Duplicates are skipped unless requested.
func (y *YouTubeMusic) AddPlaylistItems(ctx context.Context, opts AddItemsOptions) (*PlaylistEditResult, error) {
	if err := y.requireAuth(); err != nil {
		return nil, err
	}
	if len(opts.VideoIDs) == 0 && opts.SourcePlaylist == "" {
		return nil, inputErr("videoIds", "You must provide either videoIds or a source_playlist to add to the playlist")
	}

	var actions []map[string]any
	for _, id := range opts.VideoIDs {
		action := map[string]any{"action": "ACTION_ADD_VIDEO", "addedVideoId": id}
		if !opts.Duplicates {
			action["dedupeOption"] = "DEDUPE_OPTION_SKIP"
		}
		actions = append(actions, action)
	}
	if opts.SourcePlaylist != "" {
		actions = append(actions, map[string]any{"action": "ACTION_ADD_PLAYLIST", "addedFullListId": strings.TrimPrefix(opts.SourcePlaylist, "VL")})
		if len(opts.VideoIDs) == 0 {
			actions = append(actions, map[string]any{"action": "ACTION_ADD_VIDEO", "addedVideoId": nil})
		}
	}

	doc, err := y.send(ctx, request{endpoint: "browse/edit_playlist", body: map[string]any{
		"playlistId": strings.TrimPrefix(opts.PlaylistID, "VL"),
		"actions":    actions,
	}})
	if err != nil {
		return nil, err
	}

	result := &PlaylistEditResult{Status: getString(doc["status"]), Results: []PlaylistVideo{}}
	for _, r := range asSlice(doc["playlistEditResults"]) {
		data := asMap(getPath(r, "playlistEditVideoAddedResultData"))
		if data == nil {
			continue
		}
		result.Results = append(result.Results, PlaylistVideo{
			VideoID:    getString(data["videoId"]),
			SetVideoID: getString(data["setVideoId"]),
		})
	}
	return result, nil
}

// RemovePlaylistItems removes entries; each needs the setVideoId from [Client.Playlist].
func (y *YouTubeMusic) RemovePlaylistItems(ctx context.Context, playlistID string, videos []PlaylistVideo) (string, error) {
	if err := y.requireAuth(); err != nil {
		return "", err
	}
	if len(videos) == 0 {
		return "", inputErr("videos", "at least one video is required")
	}
	actions := make([]map[string]any, 0, len(videos))
	for _, v := range videos {
		if v.SetVideoID == "" {
			return "", inputErr("videos", "Cannot remove songs, because setVideoId is missing. Do you own this playlist?")
		}
		actions = append(actions, map[string]any{
			"action":         "ACTION_REMOVE_VIDEO",
			"setVideoId":     v.SetVideoID,
			"removedVideoId": v.VideoID,
		})
	}
	doc, err := y.send(ctx, request{endpoint: "browse/edit_playlist", body: map[string]any{
		"playlistId": strings.TrimPrefix(playlistID, "VL"),
		"actions":    actions,
	}})
	if err != nil {
		return "", err
	}
	return getString(doc["status"]), nil
}
