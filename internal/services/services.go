package services

import (
	"context"
)

// Client is the full set of upstream operations the proxy exposes.
//
// Every method may return a [ParseError], [InputError], [HTTPError], [ConnectionError],
// [TimeoutError], [ErrAuthRequired] or [ErrCircuitOpen].
type Client interface {
	// Search runs a catalogue or library search.
	Search(ctx context.Context, opts SearchOptions) ([]Item, error)
	// SearchSuggestions returns autocomplete suggestions. With detailed set, bold runs and history flags are included.
	SearchSuggestions(ctx context.Context, query string, detailed bool) ([]Suggestion, error)
	// RemoveSearchSuggestions removes history suggestions by feedback token.
	RemoveSearchSuggestions(ctx context.Context, tokens []string) (bool, error)

	Home(ctx context.Context, limit int) ([]Shelf, error)
	Artist(ctx context.Context, channelID string) (*Channel, error)
	ArtistAlbums(ctx context.Context, channelID, params string, limit int) ([]Item, error)
	Album(ctx context.Context, browseID string) (*Album, error)
	AlbumBrowseID(ctx context.Context, audioPlaylistID string) (string, error)
	User(ctx context.Context, channelID string) (*Channel, error)
	UserPlaylists(ctx context.Context, channelID, params string) ([]Item, error)
	UserVideos(ctx context.Context, channelID, params string) ([]Item, error)
	Song(ctx context.Context, videoID string) (*Song, error)
	SongRelated(ctx context.Context, browseID string) ([]Shelf, error)
	Lyrics(ctx context.Context, browseID string, timestamps bool) (*Lyrics, error)
	TasteProfile(ctx context.Context) (TasteProfile, error)
	SetTasteProfile(ctx context.Context, artists []string) error

	MoodCategories(ctx context.Context) (map[string][]MoodCategory, error)
	MoodPlaylists(ctx context.Context, params string) ([]Item, error)
	Charts(ctx context.Context, country string) (*Charts, error)
	WatchPlaylist(ctx context.Context, opts WatchOptions) (*WatchPlaylist, error)

	LibraryPlaylists(ctx context.Context, limit int) ([]Item, error)
	LibrarySongs(ctx context.Context, limit int, order string) ([]Item, error)
	LibraryAlbums(ctx context.Context, limit int, order string) ([]Item, error)
	LibraryArtists(ctx context.Context, limit int, order string) ([]Item, error)
	LibrarySubscriptions(ctx context.Context, limit int, order string) ([]Item, error)
	LibraryPodcasts(ctx context.Context, limit int, order string) ([]Item, error)
	LibraryChannels(ctx context.Context, limit int, order string) ([]Item, error)
	LikedSongs(ctx context.Context, limit int) (*Playlist, error)
	SavedEpisodes(ctx context.Context, limit int) (*Playlist, error)
	History(ctx context.Context) ([]Item, error)
	AddHistoryItem(ctx context.Context, song *Song) (int, error)
	RemoveHistoryItems(ctx context.Context, tokens []string) (Response, error)
	RateSong(ctx context.Context, videoID, rating string) (Response, error)
	RatePlaylist(ctx context.Context, playlistID, rating string) (Response, error)
	SubscribeArtists(ctx context.Context, channelIDs []string) (Response, error)
	UnsubscribeArtists(ctx context.Context, channelIDs []string) (Response, error)
	EditSongLibraryStatus(ctx context.Context, tokens []string) (Response, error)
	AccountInfo(ctx context.Context) (*Account, error)

	Playlist(ctx context.Context, playlistID string, opts PlaylistOptions) (*Playlist, error)
	CreatePlaylist(ctx context.Context, opts CreatePlaylistOptions) (string, error)
	EditPlaylist(ctx context.Context, opts EditPlaylistOptions) (string, error)
	DeletePlaylist(ctx context.Context, playlistID string) (string, error)
	AddPlaylistItems(ctx context.Context, opts AddItemsOptions) (*PlaylistEditResult, error)
	RemovePlaylistItems(ctx context.Context, playlistID string, videos []PlaylistVideo) (string, error)

	PodcastChannel(ctx context.Context, channelID string) (*Channel, error)
	ChannelEpisodes(ctx context.Context, channelID, params string) ([]Item, error)
	Podcast(ctx context.Context, playlistID string, limit int) (*Podcast, error)
	Episode(ctx context.Context, videoID string) (*Episode, error)
	EpisodesPlaylist(ctx context.Context, playlistID string) (*Playlist, error)

	LibraryUploadSongs(ctx context.Context, limit int, order string) ([]Item, error)
	LibraryUploadArtists(ctx context.Context, limit int, order string) ([]Item, error)
	LibraryUploadAlbums(ctx context.Context, limit int, order string) ([]Item, error)
	LibraryUploadArtist(ctx context.Context, browseID string, limit int) ([]Item, error)
	LibraryUploadAlbum(ctx context.Context, browseID string) (*Album, error)
	UploadSong(ctx context.Context, path string) (string, error)
	DeleteUploadEntity(ctx context.Context, entityID string) (string, error)

	// Breaker reports the state of the upstream circuit breaker.
	Breaker() BreakerStatus
}

// Response is an upstream reply passed through unchanged, used by mutations.
type Response map[string]any

// Thumbnail is one resolution of an image.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Ref names a linked entity such as an artist or album.
type Ref struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

// FeedbackTokens toggle library membership of an item.
type FeedbackTokens struct {
	Add    string `json:"add,omitempty"`
	Remove string `json:"remove,omitempty"`
}

// Item is a single row or card from any listing: search results, shelves, library pages and playlists.
type Item struct {
	Category        string          `json:"category,omitempty"`
	ResultType      string          `json:"resultType,omitempty"`
	Title           string          `json:"title,omitempty"`
	Subtitle        string          `json:"subtitle,omitempty"`
	Description     string          `json:"description,omitempty"`
	VideoID         string          `json:"videoId,omitempty"`
	PlaylistID      string          `json:"playlistId,omitempty"`
	BrowseID        string          `json:"browseId,omitempty"`
	Params          string          `json:"params,omitempty"`
	Artists         []Ref           `json:"artists,omitempty"`
	Album           *Ref            `json:"album,omitempty"`
	Duration        string          `json:"duration,omitempty"`
	DurationSeconds int             `json:"duration_seconds,omitempty"`
	Views           string          `json:"views,omitempty"`
	Year            string          `json:"year,omitempty"`
	Date            string          `json:"date,omitempty"`
	ItemCount       string          `json:"itemCount,omitempty"`
	VideoType       string          `json:"videoType,omitempty"`
	IsExplicit      bool            `json:"isExplicit,omitempty"`
	SetVideoID      string          `json:"setVideoId,omitempty"`
	FeedbackToken   string          `json:"feedbackToken,omitempty"`
	FeedbackTokens  *FeedbackTokens `json:"feedbackTokens,omitempty"`
	EntityID        string          `json:"entityId,omitempty"`
	Played          string          `json:"played,omitempty"`
	Thumbnails      []Thumbnail     `json:"thumbnails,omitempty"`
}

// Shelf is a titled section of items.
type Shelf struct {
	Title    string `json:"title"`
	BrowseID string `json:"browseId,omitempty"`
	Params   string `json:"params,omitempty"`
	Text     string `json:"text,omitempty"`
	Contents []Item `json:"contents"`
}

// SearchOptions are the inputs to [Client.Search].
type SearchOptions struct {
	Query          string
	Filter         string
	Scope          string
	Limit          int
	IgnoreSpelling bool
}

// Run is a fragment of suggestion text.
type Run struct {
	Text string `json:"text"`
	Bold bool   `json:"bold,omitempty"`
}

// Suggestion is a search autocomplete entry.
type Suggestion struct {
	Text          string `json:"text"`
	Runs          []Run  `json:"runs,omitempty"`
	FromHistory   bool   `json:"fromHistory,omitempty"`
	FeedbackToken string `json:"feedbackToken,omitempty"`
}

// Channel is an artist, user or podcast channel page.
type Channel struct {
	Kind        string            `json:"kind"`
	Name        string            `json:"name"`
	ChannelID   string            `json:"channelId"`
	Description string            `json:"description,omitempty"`
	Views       string            `json:"views,omitempty"`
	Subscribers string            `json:"subscribers,omitempty"`
	Subscribed  bool              `json:"subscribed"`
	Thumbnails  []Thumbnail       `json:"thumbnails,omitempty"`
	Sections    map[string]*Shelf `json:"sections"`
}

// Album is a release page.
type Album struct {
	BrowseID        string      `json:"browseId,omitempty"`
	Title           string      `json:"title"`
	Type            string      `json:"type,omitempty"`
	Description     string      `json:"description,omitempty"`
	Year            string      `json:"year,omitempty"`
	TrackCount      int         `json:"trackCount"`
	Duration        string      `json:"duration,omitempty"`
	AudioPlaylistID string      `json:"audioPlaylistId,omitempty"`
	Artists         []Ref       `json:"artists,omitempty"`
	Thumbnails      []Thumbnail `json:"thumbnails,omitempty"`
	Tracks          []Item      `json:"tracks"`
}

// PlaylistOptions are the inputs to [Client.Playlist].
type PlaylistOptions struct {
	Limit            int
	Related          bool
	SuggestionsLimit int
}

// Playlist is a playlist page with its tracks.
type Playlist struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Privacy     string      `json:"privacy"`
	Owned       bool        `json:"owned"`
	Author      *Ref        `json:"author,omitempty"`
	Year        string      `json:"year,omitempty"`
	Duration    string      `json:"duration,omitempty"`
	TrackCount  int         `json:"trackCount"`
	Thumbnails  []Thumbnail `json:"thumbnails,omitempty"`
	Tracks      []Item      `json:"tracks"`
	Related     []Item      `json:"related,omitempty"`
	Suggestions []Item      `json:"suggestions,omitempty"`
}

// CreatePlaylistOptions are the inputs to [Client.CreatePlaylist].
type CreatePlaylistOptions struct {
	Title          string
	Description    string
	Privacy        string
	VideoIDs       []string
	SourcePlaylist string
}

// MoveItem moves the item with SetVideoID before Successor.
type MoveItem struct {
	SetVideoID string `json:"setVideoId" validate:"required"`
	Successor  string `json:"successor,omitempty"`
}

// EditPlaylistOptions are the inputs to [Client.EditPlaylist]. Zero values leave a field unchanged.
type EditPlaylistOptions struct {
	PlaylistID    string
	Title         string
	Description   string
	Privacy       string
	Move          *MoveItem
	AddPlaylistID string
	AddToTop      *bool
}

// AddItemsOptions are the inputs to [Client.AddPlaylistItems].
type AddItemsOptions struct {
	PlaylistID     string
	VideoIDs       []string
	SourcePlaylist string
	Duplicates     bool
}

// PlaylistVideo identifies a playlist entry for removal.
type PlaylistVideo struct {
	VideoID    string `json:"videoId"`
	SetVideoID string `json:"setVideoId"`
}

// PlaylistEditResult reports the entries added by [Client.AddPlaylistItems].
type PlaylistEditResult struct {
	Status  string          `json:"status"`
	Results []PlaylistVideo `json:"playlistEditResults"`
}

// Playability is the player verdict on a video.
type Playability struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Song is the player metadata for a video.
type Song struct {
	VideoID       string      `json:"videoId"`
	Title         string      `json:"title"`
	Author        string      `json:"author"`
	ChannelID     string      `json:"channelId"`
	LengthSeconds int         `json:"lengthSeconds"`
	ViewCount     string      `json:"viewCount,omitempty"`
	Keywords      []string    `json:"keywords,omitempty"`
	IsLive        bool        `json:"isLiveContent"`
	Thumbnails    []Thumbnail `json:"thumbnails,omitempty"`
	Playability   Playability `json:"playabilityStatus"`

	// PlaybackTrackingURL is used by [Client.AddHistoryItem].
	PlaybackTrackingURL string `json:"-"`
}

// LyricLine is one timed line of lyrics.
type LyricLine struct {
	Text    string `json:"text"`
	StartMs int    `json:"start_time"`
	EndMs   int    `json:"end_time"`
	ID      int    `json:"id"`
}

// Lyrics are plain or timed song lyrics.
type Lyrics struct {
	Lyrics        string      `json:"lyrics"`
	Source        string      `json:"source,omitempty"`
	HasTimestamps bool        `json:"hasTimestamps"`
	Lines         []LyricLine `json:"lines,omitempty"`
}

// TasteArtist holds the form values for one taste-profile artist.
type TasteArtist struct {
	SelectionValue  string `json:"selectionValue"`
	ImpressionValue string `json:"impressionValue"`
}

// TasteProfile maps artist names to their form values.
type TasteProfile map[string]TasteArtist

// MoodCategory is a mood or genre button.
type MoodCategory struct {
	Title  string `json:"title"`
	Params string `json:"params"`
}

// Charts are the chart shelves for a country.
type Charts struct {
	Country   string   `json:"country"`
	Countries []string `json:"countries,omitempty"`
	Shelves   []Shelf  `json:"shelves"`
}

// WatchOptions are the inputs to [Client.WatchPlaylist].
type WatchOptions struct {
	VideoID    string
	PlaylistID string
	Limit      int
	Radio      bool
	Shuffle    bool
}

// WatchPlaylist is the up-next queue for a video or playlist.
type WatchPlaylist struct {
	PlaylistID string `json:"playlistId,omitempty"`
	Tracks     []Item `json:"tracks"`
	Lyrics     string `json:"lyrics,omitempty"`
	Related    string `json:"related,omitempty"`
}

// Account is the signed-in account summary.
type Account struct {
	Name          string `json:"accountName"`
	ChannelHandle string `json:"channelHandle,omitempty"`
	PhotoURL      string `json:"accountPhotoUrl,omitempty"`
}

// Podcast is a podcast show with its episodes.
type Podcast struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Author      *Ref        `json:"author,omitempty"`
	Description string      `json:"description,omitempty"`
	Saved       bool        `json:"saved"`
	Thumbnails  []Thumbnail `json:"thumbnails,omitempty"`
	Episodes    []Item      `json:"episodes"`
}

// Episode is a single podcast episode page.
type Episode struct {
	VideoID     string      `json:"videoId"`
	Title       string      `json:"title"`
	Author      *Ref        `json:"author,omitempty"`
	Date        string      `json:"date,omitempty"`
	Duration    string      `json:"duration,omitempty"`
	Description string      `json:"description,omitempty"`
	Podcast     *Ref        `json:"podcast,omitempty"`
	Thumbnails  []Thumbnail `json:"thumbnails,omitempty"`
}

// BreakerStatus is a snapshot of the upstream circuit breaker.
type BreakerStatus struct {
	Name                 string `json:"name"`
	State                string `json:"state"`
	Requests             uint32 `json:"requests"`
	TotalFailures        uint32 `json:"total_failures"`
	ConsecutiveFailures  uint32 `json:"consecutive_failures"`
	ConsecutiveSuccesses uint32 `json:"consecutive_successes"`
}
