package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/ytmp/internal/shared"
	json "github.com/goccy/go-json"
)

// fakeInnerTube serves canned InnerTube replies keyed by endpoint.
type fakeInnerTube struct {
	t        *testing.T
	replies  map[string]func(body map[string]any) (int, any)
	requests atomic.Int32

	mu       sync.Mutex
	last     *http.Request
	lastBody map[string]any
}

func (f *fakeInnerTube) lastRequest() (*http.Request, map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, f.lastBody
}

func newFake(t *testing.T) (*fakeInnerTube, *httptest.Server) {
	f := &fakeInnerTube{t: t, replies: map[string]func(map[string]any) (int, any){}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeInnerTube) on(endpoint string, reply func(body map[string]any) (int, any)) {
	f.replies[endpoint] = reply
}

func (f *fakeInnerTube) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)
	var body map[string]any
	json.NewDecoder(r.Body).Decode(&body)
	f.mu.Lock()
	f.last, f.lastBody = r, body
	f.mu.Unlock()

	endpoint := strings.TrimPrefix(r.URL.Path, apiPath)
	reply, ok := f.replies[endpoint]
	if !ok {
		f.t.Errorf("unexpected request to %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	status, doc := reply(body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(doc)
}

func testClient(srv *httptest.Server, creds Credentials) *YouTubeMusic {
	return NewYouTubeMusic(Options{
		BaseURL:     srv.URL,
		Credentials: creds,
		Timeout:     5 * time.Second,
		Breaker: shared.BreakerConfig{
			MaxRequests:  1,
			Interval:     time.Minute,
			Timeout:      time.Minute,
			MinRequests:  3,
			FailureRatio: 0.6,
		},
	})
}

func run(text, browseID, pageType string) map[string]any {
	r := map[string]any{"text": text}
	if browseID != "" {
		r["navigationEndpoint"] = map[string]any{"browseEndpoint": map[string]any{
			"browseId": browseID,
			"browseEndpointContextSupportedConfigs": map[string]any{"browseEndpointContextMusicConfig": map[string]any{
				"pageType": pageType,
			}},
		}}
	}
	return r
}

func songRow(title, videoID string) map[string]any {
	return map[string]any{"musicResponsiveListItemRenderer": map[string]any{
		"flexColumns": []any{
			map[string]any{"musicResponsiveListItemFlexColumnRenderer": map[string]any{
				"text": map[string]any{"runs": []any{map[string]any{
					"text":               title,
					"navigationEndpoint": map[string]any{"watchEndpoint": map[string]any{"videoId": videoID}},
				}}},
			}},
			map[string]any{"musicResponsiveListItemFlexColumnRenderer": map[string]any{
				"text": map[string]any{"runs": []any{
					run("Song", "", ""),
					run(" • ", "", ""),
					run("Daft Punk", "UCartist", "MUSIC_PAGE_TYPE_ARTIST"),
					run(" • ", "", ""),
					run("3:45", "", ""),
				}},
			}},
		},
		"overlay": map[string]any{"musicItemThumbnailOverlayRenderer": map[string]any{"content": map[string]any{
			"musicPlayButtonRenderer": map[string]any{"playNavigationEndpoint": map[string]any{"watchEndpoint": map[string]any{
				"videoId": videoID,
				"watchEndpointMusicSupportedConfigs": map[string]any{"watchEndpointMusicConfig": map[string]any{
					"musicVideoType": "MUSIC_VIDEO_TYPE_ATV",
				}},
			}}},
		}}},
	}}
}

func searchDoc(sections ...any) map[string]any {
	return map[string]any{"contents": map[string]any{"tabbedSearchResultsRenderer": map[string]any{"tabs": []any{
		map[string]any{"tabRenderer": map[string]any{"content": map[string]any{
			"sectionListRenderer": map[string]any{"contents": sections},
		}}},
	}}}}
}

func topCard(withHeader bool) map[string]any {
	card := map[string]any{
		"title": map[string]any{"runs": []any{run("Get Lucky", "", "")}},
	}
	if withHeader {
		card["header"] = map[string]any{"musicCardShelfHeaderBasicRenderer": map[string]any{
			"title": map[string]any{"runs": []any{run("Top result", "", "")}},
		}}
	}
	card["title"].(map[string]any)["runs"].([]any)[0].(map[string]any)["navigationEndpoint"] = map[string]any{
		"watchEndpoint": map[string]any{"videoId": "5NV6Rdv1a3I"},
	}
	return map[string]any{"musicCardShelfRenderer": card}
}

func songShelf(title string, rows ...any) map[string]any {
	return map[string]any{"musicShelfRenderer": map[string]any{
		"title":    map[string]any{"runs": []any{run(title, "", "")}},
		"contents": rows,
	}}
}

func TestYouTubeMusic(t *testing.T) {
	t.Run("Search", func(t *testing.T) {
		t.Run("Unfiltered With Top Result", func(t *testing.T) {
			fake, srv := newFake(t)
			fake.on("search", func(body map[string]any) (int, any) {
				return http.StatusOK, searchDoc(topCard(true), songShelf("Songs", songRow("One More Time", "FGBhQbmPwH8")))
			})

			results, err := testClient(srv, nil).Search(context.Background(), SearchOptions{Query: "daft punk"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(results) != 2 {
				t.Fatalf("expected 2 results, got %d", len(results))
			}
			if results[0].Category != "Top result" || results[0].VideoID != "5NV6Rdv1a3I" {
				t.Errorf("unexpected top result %+v", results[0])
			}
			song := results[1]
			if song.Category != "Songs" || song.ResultType != "song" || song.DurationSeconds != 225 {
				t.Errorf("unexpected song %+v", song)
			}
			if len(song.Artists) != 1 || song.Artists[0].Name != "Daft Punk" {
				t.Errorf("unexpected artists %+v", song.Artists)
			}

			req, body := fake.lastRequest()
			if req.URL.Query().Get("alt") != "json" {
				t.Error("expected alt=json query parameter")
			}
			if req.Header.Get("Cookie") != "SOCS=CAI" {
				t.Errorf("expected consent cookie for unauthenticated calls, got %q", req.Header.Get("Cookie"))
			}
			client := getPath(body, "context", "client")
			if getString(asMap(client)["clientName"]) != "WEB_REMIX" {
				t.Errorf("expected WEB_REMIX client context, got %v", client)
			}
			if _, ok := body["params"]; ok {
				t.Error("expected no params for an unfiltered search")
			}
		})

		t.Run("Top Result Without Header", func(t *testing.T) {
			fake, srv := newFake(t)
			fake.on("search", func(map[string]any) (int, any) {
				return http.StatusOK, searchDoc(topCard(false))
			})

			_, err := testClient(srv, nil).Search(context.Background(), SearchOptions{Query: "x"})
			if !IsHeaderParseError(err) {
				t.Fatalf("expected header parse error, got %v", err)
			}
		})

		t.Run("Filtered Pages Until Limit", func(t *testing.T) {
			fake, srv := newFake(t)
			fake.on("search", func(body map[string]any) (int, any) {
				if body["continuation"] != nil {
					return http.StatusOK, map[string]any{"continuationContents": map[string]any{
						"musicShelfContinuation": map[string]any{"contents": []any{
							songRow("B", "bbbbbbbbbbb"), songRow("C", "ccccccccccc"),
						}},
					}}
				}
				shelf := songShelf("Songs", songRow("A", "aaaaaaaaaaa"))
				shelf["musicShelfRenderer"].(map[string]any)["continuations"] = []any{
					map[string]any{"nextContinuationData": map[string]any{"continuation": "page-2"}},
				}
				return http.StatusOK, searchDoc(shelf)
			})

			results, err := testClient(srv, nil).Search(context.Background(), SearchOptions{Query: "x", Filter: "songs", Limit: 2})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(results) != 2 || results[1].VideoID != "bbbbbbbbbbb" {
				t.Errorf("expected 2 paged results, got %+v", results)
			}
			if fake.requests.Load() != 2 {
				t.Errorf("expected 2 upstream requests, got %d", fake.requests.Load())
			}
		})

		t.Run("Invalid Filter", func(t *testing.T) {
			fake, srv := newFake(t)
			_, err := testClient(srv, nil).Search(context.Background(), SearchOptions{Query: "x", Filter: "lyrics"})
			var inErr *InputError
			if !errors.As(err, &inErr) {
				t.Fatalf("expected input error, got %v", err)
			}
			if fake.requests.Load() != 0 {
				t.Error("expected no upstream request")
			}
		})

		t.Run("Scope Needs Authentication", func(t *testing.T) {
			_, srv := newFake(t)
			_, err := testClient(srv, nil).Search(context.Background(), SearchOptions{Query: "x", Scope: "library"})
			if !errors.Is(err, ErrAuthRequired) {
				t.Fatalf("expected ErrAuthRequired, got %v", err)
			}
		})
	})

	t.Run("SearchSuggestions", func(t *testing.T) {
		fake, srv := newFake(t)
		fake.on("music/get_search_suggestions", func(map[string]any) (int, any) {
			return http.StatusOK, map[string]any{"contents": []any{
				map[string]any{"searchSuggestionsSectionRenderer": map[string]any{"contents": []any{
					map[string]any{"searchSuggestionRenderer": map[string]any{
						"suggestion": map[string]any{"simpleText": "daft punk"},
					}},
				}}},
			}}
		})
		ym := testClient(srv, nil)

		plain, err := ym.SearchSuggestions(context.Background(), "daft", false)
		if err != nil || len(plain) != 1 || plain[0].Text != "daft punk" {
			t.Fatalf("unexpected plain suggestions %+v (%v)", plain, err)
		}
		if _, err := ym.SearchSuggestions(context.Background(), "daft", true); !IsParseError(err) {
			t.Errorf("expected detailed suggestions without runs to fail parsing, got %v", err)
		}
	})

	t.Run("Artist And User Headers", func(t *testing.T) {
		fake, srv := newFake(t)
		fake.on("browse", func(map[string]any) (int, any) {
			return http.StatusOK, map[string]any{
				"header": map[string]any{"musicVisualHeaderRenderer": map[string]any{
					"title": map[string]any{"runs": []any{run("Some User", "", "")}},
				}},
				"contents": map[string]any{"singleColumnBrowseResultsRenderer": map[string]any{"tabs": []any{
					map[string]any{"tabRenderer": map[string]any{"content": map[string]any{
						"sectionListRenderer": map[string]any{"contents": []any{
							map[string]any{"musicCarouselShelfRenderer": map[string]any{
								"header": map[string]any{"musicCarouselShelfBasicHeaderRenderer": map[string]any{
									"title": map[string]any{"runs": []any{map[string]any{
										"text": "Playlists",
										"navigationEndpoint": map[string]any{"browseEndpoint": map[string]any{
											"browseId": "UCuser", "params": "playlist-params",
										}},
									}}},
								}},
								"contents": []any{},
							}},
						}},
					}}},
				}}},
			}
		})
		ym := testClient(srv, nil)

		if _, err := ym.Artist(context.Background(), "UCuser"); !IsHeaderParseError(err) {
			t.Errorf("expected artist lookup of a user page to fail on the header, got %v", err)
		}
		user, err := ym.User(context.Background(), "UCuser")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.Name != "Some User" || user.Kind != "user" {
			t.Errorf("unexpected user %+v", user)
		}
		if s := user.Sections["playlists"]; s == nil || s.Params != "playlist-params" {
			t.Errorf("expected playlists shelf params, got %+v", s)
		}
	})

	t.Run("Song Unavailable", func(t *testing.T) {
		fake, srv := newFake(t)
		fake.on("player", func(map[string]any) (int, any) {
			return http.StatusOK, map[string]any{"playabilityStatus": map[string]any{"status": "ERROR", "reason": "Video unavailable"}}
		})
		_, err := testClient(srv, nil).Song(context.Background(), "aaaaaaaaaaa")
		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("Authentication", func(t *testing.T) {
		t.Run("Required", func(t *testing.T) {
			fake, srv := newFake(t)
			_, err := testClient(srv, nil).LibraryPlaylists(context.Background(), 25)
			if !errors.Is(err, ErrAuthRequired) {
				t.Fatalf("expected ErrAuthRequired, got %v", err)
			}
			if err.Error() != "please provide authentication before using this function" {
				t.Errorf("unexpected message %q", err.Error())
			}
			if fake.requests.Load() != 0 {
				t.Error("expected no upstream request")
			}
		})

		t.Run("Browser Headers", func(t *testing.T) {
			fake, srv := newFake(t)
			fake.on("account/account_menu", func(map[string]any) (int, any) {
				return http.StatusOK, map[string]any{"actions": []any{map[string]any{"openPopupAction": map[string]any{"popup": map[string]any{
					"multiPageMenuRenderer": map[string]any{"header": map[string]any{"activeAccountHeaderRenderer": map[string]any{
						"accountName":   map[string]any{"runs": []any{run("Listener", "", "")}},
						"channelHandle": map[string]any{"runs": []any{run("@listener", "", "")}},
					}}},
				}}}}}
			})
			creds := &BrowserCredentials{Headers: map[string]string{"cookie": "SAPISID=abc; other=1", "x-goog-authuser": "0"}}

			acct, err := testClient(srv, creds).AccountInfo(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if acct.Name != "Listener" || acct.ChannelHandle != "@listener" {
				t.Errorf("unexpected account %+v", acct)
			}
			req, _ := fake.lastRequest()
			if !strings.HasPrefix(req.Header.Get("Authorization"), "SAPISIDHASH ") {
				t.Errorf("expected SAPISIDHASH authorization, got %q", req.Header.Get("Authorization"))
			}
			if req.Header.Get("Cookie") != "SAPISID=abc; other=1" {
				t.Errorf("expected captured cookie, got %q", req.Header.Get("Cookie"))
			}
		})
	})

	t.Run("Upstream Errors", func(t *testing.T) {
		t.Run("Client Error Does Not Trip Breaker", func(t *testing.T) {
			fake, srv := newFake(t)
			fake.on("browse", func(map[string]any) (int, any) {
				return http.StatusBadRequest, map[string]any{"error": map[string]any{"message": "Request contains an invalid argument."}}
			})
			ym := testClient(srv, nil)
			for range 5 {
				_, err := ym.Album(context.Background(), "MPREb_x")
				var httpErr *HTTPError
				if !errors.As(err, &httpErr) || httpErr.Status != http.StatusBadRequest {
					t.Fatalf("expected HTTP 400, got %v", err)
				}
				if !strings.Contains(err.Error(), "invalid argument") {
					t.Errorf("expected upstream message, got %q", err.Error())
				}
			}
			if state := ym.Breaker().State; state != "closed" {
				t.Errorf("expected closed breaker, got %s", state)
			}
		})

		t.Run("Server Errors Open Breaker", func(t *testing.T) {
			fake, srv := newFake(t)
			fake.on("browse", func(map[string]any) (int, any) {
				return http.StatusBadGateway, map[string]any{}
			})
			ym := testClient(srv, nil)
			for range 3 {
				if _, err := ym.Home(context.Background(), 3); err == nil {
					t.Fatal("expected error")
				}
			}
			_, err := ym.Home(context.Background(), 3)
			if !errors.Is(err, ErrCircuitOpen) {
				t.Fatalf("expected ErrCircuitOpen, got %v", err)
			}
			var open *CircuitOpenError
			if !errors.As(err, &open) || open.Cooldown != time.Minute {
				t.Errorf("expected the configured cool-down, got %v", err)
			}
			if fake.requests.Load() != 3 {
				t.Errorf("expected the open breaker to short circuit, got %d requests", fake.requests.Load())
			}
			status := ym.Breaker()
			if status.State != "open" || status.Name != "innertube" {
				t.Errorf("unexpected breaker status %+v", status)
			}
		})

		t.Run("Malformed JSON", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>"))
			}))
			defer srv.Close()
			_, err := testClient(srv, nil).Home(context.Background(), 1)
			if !IsParseError(err) {
				t.Errorf("expected parse error, got %v", err)
			}
		})

		t.Run("Connection Refused", func(t *testing.T) {
			srv := httptest.NewServer(http.NotFoundHandler())
			ym := testClient(srv, nil)
			srv.Close()
			_, err := ym.Home(context.Background(), 1)
			var connErr *ConnectionError
			if !errors.As(err, &connErr) {
				t.Errorf("expected connection error, got %T %v", err, err)
			}
		})
	})

	t.Run("Playlist Mutations Validate Input", func(t *testing.T) {
		fake, srv := newFake(t)
		ym := testClient(srv, &BrowserCredentials{Headers: map[string]string{"cookie": "SAPISID=abc"}})

		var inErr *InputError
		if _, err := ym.CreatePlaylist(context.Background(), CreatePlaylistOptions{Title: "  "}); !errors.As(err, &inErr) {
			t.Errorf("expected empty title to be rejected, got %v", err)
		} else if inErr.Reason != "Playlist title cannot be empty" {
			t.Errorf("unexpected reason %q", inErr.Reason)
		}
		if _, err := ym.RateSong(context.Background(), "aaaaaaaaaaa", "LOVE"); !errors.As(err, &inErr) {
			t.Errorf("expected invalid rating to be rejected, got %v", err)
		} else if !strings.Contains(inErr.Reason, "Invalid rating 'LOVE'") {
			t.Errorf("unexpected reason %q", inErr.Reason)
		}
		if fake.requests.Load() != 0 {
			t.Error("expected no upstream requests")
		}
	})

	t.Run("WithCredentials Shares Breaker", func(t *testing.T) {
		_, srv := newFake(t)
		ym := testClient(srv, nil)
		authed := ym.WithCredentials(&BrowserCredentials{Headers: map[string]string{"cookie": "SAPISID=abc"}})
		if ym.Authenticated() || !authed.Authenticated() {
			t.Error("expected only the copy to be authenticated")
		}
		if ym.breaker != authed.breaker {
			t.Error("expected breaker to be shared")
		}
	})
}
