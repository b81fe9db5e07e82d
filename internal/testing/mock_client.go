package testing

import (
	"context"
	"sync"

	"github.com/desertthunder/ytmp/internal/services"
)

// MockClient is a test double for [services.Client].
//
// Methods with a func field call it when set. Every other method returns an
// empty result and Err. Calls records the method names in order.
type MockClient struct {
	Err error

	SearchFunc            func(ctx context.Context, opts services.SearchOptions) ([]services.Item, error)
	SearchSuggestionsFunc func(ctx context.Context, query string, detailed bool) ([]services.Suggestion, error)
	HomeFunc              func(ctx context.Context, limit int) ([]services.Shelf, error)
	ArtistFunc            func(ctx context.Context, channelID string) (*services.Channel, error)
	AlbumFunc             func(ctx context.Context, browseID string) (*services.Album, error)
	UserFunc              func(ctx context.Context, channelID string) (*services.Channel, error)
	UserPlaylistsFunc     func(ctx context.Context, channelID, params string) ([]services.Item, error)
	UserVideosFunc        func(ctx context.Context, channelID, params string) ([]services.Item, error)
	SongFunc              func(ctx context.Context, videoID string) (*services.Song, error)
	SongRelatedFunc       func(ctx context.Context, browseID string) ([]services.Shelf, error)
	LyricsFunc            func(ctx context.Context, browseID string, timestamps bool) (*services.Lyrics, error)
	ChartsFunc            func(ctx context.Context, country string) (*services.Charts, error)
	WatchPlaylistFunc     func(ctx context.Context, opts services.WatchOptions) (*services.WatchPlaylist, error)
	LibraryPlaylistsFunc  func(ctx context.Context, limit int) ([]services.Item, error)
	AddHistoryItemFunc    func(ctx context.Context, song *services.Song) (int, error)
	PlaylistFunc          func(ctx context.Context, playlistID string, opts services.PlaylistOptions) (*services.Playlist, error)
	CreatePlaylistFunc    func(ctx context.Context, opts services.CreatePlaylistOptions) (string, error)
	AddPlaylistItemsFunc  func(ctx context.Context, opts services.AddItemsOptions) (*services.PlaylistEditResult, error)
	UploadSongFunc        func(ctx context.Context, path string) (string, error)
	BreakerStatus         services.BreakerStatus

	mu    sync.Mutex
	calls []string
}

var _ services.Client = (*MockClient)(nil)

func (m *MockClient) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

// Calls returns the recorded method names.
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how many times name was called.
func (m *MockClient) CallCount(name string) int {
	n := 0
	for _, c := range m.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

func (m *MockClient) Search(ctx context.Context, opts services.SearchOptions) ([]services.Item, error) {
	m.record("Search")
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, opts)
	}
	return []services.Item{}, m.Err
}

func (m *MockClient) SearchSuggestions(ctx context.Context, query string, detailed bool) ([]services.Suggestion, error) {
	m.record("SearchSuggestions")
	if m.SearchSuggestionsFunc != nil {
		return m.SearchSuggestionsFunc(ctx, query, detailed)
	}
	return []services.Suggestion{}, m.Err
}

func (m *MockClient) RemoveSearchSuggestions(ctx context.Context, tokens []string) (bool, error) {
	m.record("RemoveSearchSuggestions")
	return m.Err == nil, m.Err
}

func (m *MockClient) Home(ctx context.Context, limit int) ([]services.Shelf, error) {
	m.record("Home")
	if m.HomeFunc != nil {
		return m.HomeFunc(ctx, limit)
	}
	return []services.Shelf{}, m.Err
}

func (m *MockClient) Artist(ctx context.Context, channelID string) (*services.Channel, error) {
	m.record("Artist")
	if m.ArtistFunc != nil {
		return m.ArtistFunc(ctx, channelID)
	}
	return nil, m.Err
}

func (m *MockClient) ArtistAlbums(ctx context.Context, channelID, params string, limit int) ([]services.Item, error) {
	m.record("ArtistAlbums")
	return []services.Item{}, m.Err
}

func (m *MockClient) Album(ctx context.Context, browseID string) (*services.Album, error) {
	m.record("Album")
	if m.AlbumFunc != nil {
		return m.AlbumFunc(ctx, browseID)
	}
	return nil, m.Err
}

func (m *MockClient) AlbumBrowseID(ctx context.Context, audioPlaylistID string) (string, error) {
	m.record("AlbumBrowseID")
	return "", m.Err
}

func (m *MockClient) User(ctx context.Context, channelID string) (*services.Channel, error) {
	m.record("User")
	if m.UserFunc != nil {
		return m.UserFunc(ctx, channelID)
	}
	return nil, m.Err
}

func (m *MockClient) UserPlaylists(ctx context.Context, channelID, params string) ([]services.Item, error) {
	m.record("UserPlaylists")
	if m.UserPlaylistsFunc != nil {
		return m.UserPlaylistsFunc(ctx, channelID, params)
	}
	return []services.Item{}, m.Err
}

func (m *MockClient) UserVideos(ctx context.Context, channelID, params string) ([]services.Item, error) {
	m.record("UserVideos")
	if m.UserVideosFunc != nil {
		return m.UserVideosFunc(ctx, channelID, params)
	}
	return []services.Item{}, m.Err
}

func (m *MockClient) Song(ctx context.Context, videoID string) (*services.Song, error) {
	m.record("Song")
	if m.SongFunc != nil {
		return m.SongFunc(ctx, videoID)
	}
	return nil, m.Err
}

func (m *MockClient) SongRelated(ctx context.Context, browseID string) ([]services.Shelf, error) {
	m.record("SongRelated")
	if m.SongRelatedFunc != nil {
		return m.SongRelatedFunc(ctx, browseID)
	}
	return []services.Shelf{}, m.Err
}

func (m *MockClient) Lyrics(ctx context.Context, browseID string, timestamps bool) (*services.Lyrics, error) {
	m.record("Lyrics")
	if m.LyricsFunc != nil {
		return m.LyricsFunc(ctx, browseID, timestamps)
	}
	return nil, m.Err
}

func (m *MockClient) TasteProfile(ctx context.Context) (services.TasteProfile, error) {
	m.record("TasteProfile")
	return services.TasteProfile{}, m.Err
}

func (m *MockClient) SetTasteProfile(ctx context.Context, artists []string) error {
	m.record("SetTasteProfile")
	return m.Err
}

func (m *MockClient) MoodCategories(ctx context.Context) (map[string][]services.MoodCategory, error) {
	m.record("MoodCategories")
	return map[string][]services.MoodCategory{}, m.Err
}

func (m *MockClient) MoodPlaylists(ctx context.Context, params string) ([]services.Item, error) {
	m.record("MoodPlaylists")
	return []services.Item{}, m.Err
}

func (m *MockClient) Charts(ctx context.Context, country string) (*services.Charts, error) {
	m.record("Charts")
	if m.ChartsFunc != nil {
		return m.ChartsFunc(ctx, country)
	}
	return nil, m.Err
}

func (m *MockClient) WatchPlaylist(ctx context.Context, opts services.WatchOptions) (*services.WatchPlaylist, error) {
	m.record("WatchPlaylist")
	if m.WatchPlaylistFunc != nil {
		return m.WatchPlaylistFunc(ctx, opts)
	}
	return nil, m.Err
}

func (m *MockClient) LibraryPlaylists(ctx context.Context, limit int) ([]services.Item, error) {
	m.record("LibraryPlaylists")
	if m.LibraryPlaylistsFunc != nil {
		return m.LibraryPlaylistsFunc(ctx, limit)
	}
	return []services.Item{}, m.Err
}

func (m *MockClient) LibrarySongs(ctx context.Context, limit int, order string) ([]services.Item, error) {
	m.record("LibrarySongs")
	return []services.Item{}, m.Err
}

func (m *MockClient) LibraryAlbums(ctx context.Context, limit int, order string) ([]services.Item, error) {
	m.record("LibraryAlbums")
	return []services.Item{}, m.Err
}

func (m *MockClient) LibraryArtists(ctx context.Context, limit int, order string) ([]services.Item, error) {
	m.record("LibraryArtists")
	return []services.Item{}, m.Err
}

func (m *MockClient) LibrarySubscriptions(ctx context.Context, limit int, order string) ([]services.Item, error) {
	m.record("LibrarySubscriptions")
	return []services.Item{}, m.Err
}

func (m *MockClient) LibraryPodcasts(ctx context.Context, limit int, order string) ([]services.Item, error) {
	m.record("LibraryPodcasts")
	return []services.Item{}, m.Err
}

func (m *MockClient) LibraryChannels(ctx context.Context, limit int, order string) ([]services.Item, error) {
	m.record("LibraryChannels")
	return []services.Item{}, m.Err
}

func (m *MockClient) LikedSongs(ctx context.Context, limit int) (*services.Playlist, error) {
	m.record("LikedSongs")
	return &services.Playlist{ID: "LM", Tracks: []services.Item{}}, m.Err
}

func (m *MockClient) SavedEpisodes(ctx context.Context, limit int) (*services.Playlist, error) {
	m.record("SavedEpisodes")
	return &services.Playlist{ID: "SE", Tracks: []services.Item{}}, m.Err
}

func (m *MockClient) History(ctx context.Context) ([]services.Item, error) {
	m.record("History")
	return []services.Item{}, m.Err
}

func (m *MockClient) AddHistoryItem(ctx context.Context, song *services.Song) (int, error) {
	m.record("AddHistoryItem")
	if m.AddHistoryItemFunc != nil {
		return m.AddHistoryItemFunc(ctx, song)
	}
	return 204, m.Err
}

func (m *MockClient) RemoveHistoryItems(ctx context.Context, tokens []string) (services.Response, error) {
	m.record("RemoveHistoryItems")
	return services.Response{}, m.Err
}

func (m *MockClient) RateSong(ctx context.Context, videoID, rating string) (services.Response, error) {
	m.record("RateSong")
	return services.Response{}, m.Err
}

func (m *MockClient) RatePlaylist(ctx context.Context, playlistID, rating string) (services.Response, error) {
	m.record("RatePlaylist")
	return services.Response{}, m.Err
}

func (m *MockClient) SubscribeArtists(ctx context.Context, channelIDs []string) (services.Response, error) {
	m.record("SubscribeArtists")
	return services.Response{}, m.Err
}

func (m *MockClient) UnsubscribeArtists(ctx context.Context, channelIDs []string) (services.Response, error) {
	m.record("UnsubscribeArtists")
	return services.Response{}, m.Err
}

func (m *MockClient) EditSongLibraryStatus(ctx context.Context, tokens []string) (services.Response, error) {
	m.record("EditSongLibraryStatus")
	return services.Response{}, m.Err
}

func (m *MockClient) AccountInfo(ctx context.Context) (*services.Account, error) {
	m.record("AccountInfo")
	return &services.Account{}, m.Err
}

func (m *MockClient) Playlist(ctx context.Context, playlistID string, opts services.PlaylistOptions) (*services.Playlist, error) {
	m.record("Playlist")
	if m.PlaylistFunc != nil {
		return m.PlaylistFunc(ctx, playlistID, opts)
	}
	return nil, m.Err
}

func (m *MockClient) CreatePlaylist(ctx context.Context, opts services.CreatePlaylistOptions) (string, error) {
	m.record("CreatePlaylist")
	if m.CreatePlaylistFunc != nil {
		return m.CreatePlaylistFunc(ctx, opts)
	}
	return "", m.Err
}

func (m *MockClient) EditPlaylist(ctx context.Context, opts services.EditPlaylistOptions) (string, error) {
	m.record("EditPlaylist")
	return "STATUS_SUCCEEDED", m.Err
}

func (m *MockClient) DeletePlaylist(ctx context.Context, playlistID string) (string, error) {
	m.record("DeletePlaylist")
	return "STATUS_SUCCEEDED", m.Err
}

func (m *MockClient) AddPlaylistItems(ctx context.Context, opts services.AddItemsOptions) (*services.PlaylistEditResult, error) {
	m.record("AddPlaylistItems")
	if m.AddPlaylistItemsFunc != nil {
		return m.AddPlaylistItemsFunc(ctx, opts)
	}
	return &services.PlaylistEditResult{Status: "STATUS_SUCCEEDED", Results: []services.PlaylistVideo{}}, m.Err
}

func (m *MockClient) RemovePlaylistItems(ctx context.Context, playlistID string, videos []services.PlaylistVideo) (string, error) {
	m.record("RemovePlaylistItems")
	return "STATUS_SUCCEEDED", m.Err
}

func (m *MockClient) PodcastChannel(ctx context.Context, channelID string) (*services.Channel, error) {
	m.record("PodcastChannel")
	return nil, m.Err
}

func (m *MockClient) ChannelEpisodes(ctx context.Context, channelID, params string) ([]services.Item, error) {
	m.record("ChannelEpisodes")
	return []services.Item{}, m.Err
}

func (m *MockClient) Podcast(ctx context.Context, playlistID string, limit int) (*services.Podcast, error) {
	m.record("Podcast")
	return nil, m.Err
}

func (m *MockClient) Episode(ctx context.Context, videoID string) (*services.Episode, error) {
	m.record("Episode")
	return nil, m.Err
}

func (m *MockClient) EpisodesPlaylist(ctx context.Context, playlistID string) (*services.Playlist, error) {
	m.record("EpisodesPlaylist")
	return nil, m.Err
}

func (m *MockClient) LibraryUploadSongs(ctx context.Context, limit int, order string) ([]services.Item, error) {
	m.record("LibraryUploadSongs")
	return []services.Item{}, m.Err
}

func (m *MockClient) LibraryUploadArtists(ctx context.Context, limit int, order string) ([]services.Item, error) {
	m.record("LibraryUploadArtists")
	return []services.Item{}, m.Err
}

func (m *MockClient) LibraryUploadAlbums(ctx context.Context, limit int, order string) ([]services.Item, error) {
	m.record("LibraryUploadAlbums")
	return []services.Item{}, m.Err
}

func (m *MockClient) LibraryUploadArtist(ctx context.Context, browseID string, limit int) ([]services.Item, error) {
	m.record("LibraryUploadArtist")
	return []services.Item{}, m.Err
}

func (m *MockClient) LibraryUploadAlbum(ctx context.Context, browseID string) (*services.Album, error) {
	m.record("LibraryUploadAlbum")
	return nil, m.Err
}

func (m *MockClient) UploadSong(ctx context.Context, path string) (string, error) {
	m.record("UploadSong")
	if m.UploadSongFunc != nil {
		return m.UploadSongFunc(ctx, path)
	}
	return "STATUS_SUCCEEDED", m.Err
}

func (m *MockClient) DeleteUploadEntity(ctx context.Context, entityID string) (string, error) {
	m.record("DeleteUploadEntity")
	return "STATUS_SUCCEEDED", m.Err
}

func (m *MockClient) Breaker() services.BreakerStatus {
	if m.BreakerStatus.State == "" {
		return services.BreakerStatus{Name: "mock", State: "closed"}
	}
	return m.BreakerStatus
}
