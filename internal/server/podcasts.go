package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/ytmp/internal/failures"
	"github.com/desertthunder/ytmp/internal/services"
	"github.com/go-chi/chi/v5"
)

// defaultEpisodesPlaylist is the "New Episodes" auto playlist.
const defaultEpisodesPlaylist = "RDPN"

type podcastHandler struct{ s *Server }

func (h *podcastHandler) Tag() string { return "Podcasts" }

func (h *podcastHandler) Routes() []Route {
	return []Route{
		{http.MethodGet, "/podcasts/channel/{channelId}", "Podcast channel page", h.channel},
		{http.MethodGet, "/podcasts/channel_episodes/{channelId}", "Episodes of a podcast channel", h.channelEpisodes},
		{http.MethodGet, "/podcasts/podcast/{playlistId}", "Podcast with episodes", h.podcast},
		{http.MethodGet, "/podcasts/episode/{videoId}", "Single episode", h.episode},
		{http.MethodGet, "/podcasts/episodes_playlist", "New episodes playlist", h.episodesPlaylist},
		{http.MethodGet, "/podcasts/episodes_playlist/{playlistId}", "Episodes playlist", h.episodesPlaylist},
	}
}

// podcastOp names a podcast operation whose upstream not-found messages map to 404.
func podcastOp(name, key, id, title string) failures.Operation {
	return failures.OpID(name, key, id,
		failures.MessageRule(http.StatusNotFound, failures.KindNotFound, "Not found",
			fmt.Sprintf("%s with ID %s not found or unavailable", title, id), "not found", "unavailable"))
}

func (h *podcastHandler) channel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "channelId")
	op := podcastOp("get_channel", "channelId", id, "Channel")
	h.s.fetch(w, r, op, "Channel not found", func(ctx context.Context, c services.Client) (any, error) {
		return c.PodcastChannel(ctx, id)
	}, "query", id)
}

func (h *podcastHandler) channelEpisodes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "channelId")
	op := podcastOp("get_channel_episodes", "channelId", id, "Channel")
	params, err := queryRequired(r, op, "params")
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	h.s.fetch(w, r, op, "No episodes found", func(ctx context.Context, c services.Client) (any, error) {
		return c.ChannelEpisodes(ctx, id, params)
	}, "query", id, "params", params)
}

func (h *podcastHandler) podcast(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "playlistId")
	op := podcastOp("get_podcast", "playlistId", id, "Podcast")
	limit, err := queryInt(r, op, "limit", 100)
	if err != nil {
		h.s.writeError(w, r, op, err)
		return
	}
	h.s.fetch(w, r, op, "Podcast not found", func(ctx context.Context, c services.Client) (any, error) {
		return c.Podcast(ctx, id, limit)
	}, "query", id)
}

func (h *podcastHandler) episode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "videoId")
	op := podcastOp("get_episode", "videoId", id, "Episode")
	h.s.fetch(w, r, op, "Episode not found", func(ctx context.Context, c services.Client) (any, error) {
		return c.Episode(ctx, id)
	}, "query", id)
}

func (h *podcastHandler) episodesPlaylist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "playlistId")
	if id == "" {
		id = defaultEpisodesPlaylist
	}
	op := podcastOp("get_episodes_playlist", "playlistId", id, "Episodes playlist")
	h.s.fetch(w, r, op, "Episodes playlist not found", func(ctx context.Context, c services.Client) (any, error) {
		return c.EpisodesPlaylist(ctx, id)
	}, "query", id)
}
