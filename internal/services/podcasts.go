package services

import (
	"context"
	"strings"
)

// PodcastChannel returns a podcast channel page with its episodes and podcasts shelves.
func (y *YouTubeMusic) PodcastChannel(ctx context.Context, channelID string) (*Channel, error) {
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
	return channelPage("podcast_channel", channelID, header, sections), nil
}

// ChannelEpisodes lists a channel's episodes using the params of its episodes shelf.
func (y *YouTubeMusic) ChannelEpisodes(ctx context.Context, channelID, params string) ([]Item, error) {
	if params == "" {
		return nil, inputErr("params", "params from the channel episodes shelf are required")
	}
	return y.gridItems(ctx, channelID, params, 0)
}

// Podcast returns a show with up to limit episodes.
func (y *YouTubeMusic) Podcast(ctx context.Context, playlistID string, limit int) (*Podcast, error) {
	browseID := playlistID
	if !strings.HasPrefix(browseID, "MPSP") {
		browseID = "MPSP" + playlistID
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
	pod := &Podcast{
		ID:          strings.TrimPrefix(browseID, "MPSP"),
		Title:       text(header["title"]),
		Description: text(findKey(header["description"], "description")),
		Thumbnails:  thumbnails(findKey(header["thumbnail"], "thumbnails")),
		Episodes:    []Item{},
	}
	if run := asMap(getPath(header, "straplineTextOne", "runs", 0)); run != nil {
		pod.Author = &Ref{Name: getString(run["text"]), ID: getString(getPath(run, pathBrowseID...))}
	}
	pod.Saved, _ = findKey(header["buttons"], "isToggled").(bool)

	_, container, raw := shelfContainer(firstOr(page.secondary))
	if container == nil {
		return pod, nil
	}
	pod.Episodes = parseItems(raw)
	token := continuationToken(raw, container)
	for token != "" && (limit <= 0 || len(pod.Episodes) < limit) {
		next, tok, err := y.continuation(ctx, "browse", token)
		if err != nil {
			return nil, err
		}
		pod.Episodes = append(pod.Episodes, parseItems(next)...)
		token = tok
	}
	if limit > 0 && len(pod.Episodes) > limit {
		pod.Episodes = pod.Episodes[:limit]
	}
	return pod, nil
}

// Episode returns a single episode page.
func (y *YouTubeMusic) Episode(ctx context.Context, videoID string) (*Episode, error) {
	browseID := videoID
	if !strings.HasPrefix(browseID, "MPED") {
		browseID = "MPED" + videoID
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
	ep := &Episode{
		VideoID:    strings.TrimPrefix(browseID, "MPED"),
		Title:      text(header["title"]),
		Thumbnails: thumbnails(findKey(header["thumbnail"], "thumbnails")),
	}
	if run := asMap(getPath(header, "straplineTextOne", "runs", 0)); run != nil {
		ep.Podcast = &Ref{Name: getString(run["text"]), ID: getString(getPath(run, pathBrowseID...))}
	}
	for _, part := range strings.Split(text(header["subtitle"]), "•") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case strings.Contains(part, "min") || strings.Contains(part, "sec") || strings.Contains(part, "hr"):
			ep.Duration = part
		default:
			ep.Date = part
		}
	}
	if desc := asMap(findKey(page.secondary, "musicDescriptionShelfRenderer")); desc != nil {
		ep.Description = text(desc["description"])
	}
	return ep, nil
}

// EpisodesPlaylist returns an auto-generated episodes playlist such as "RDPN" (New Episodes).
func (y *YouTubeMusic) EpisodesPlaylist(ctx context.Context, playlistID string) (*Playlist, error) {
	if playlistID == "" {
		playlistID = "RDPN"
	}
	return y.Playlist(ctx, playlistID, PlaylistOptions{})
}
