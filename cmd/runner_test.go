package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/ytmp/internal/models"
	"github.com/desertthunder/ytmp/internal/repositories"
	"github.com/desertthunder/ytmp/internal/services"
	"github.com/desertthunder/ytmp/internal/shared"
	tu "github.com/desertthunder/ytmp/internal/testing"
	json "github.com/goccy/go-json"
)

const signedInCurl = `curl 'https://music.youtube.com/youtubei/v1/browse?prettyPrint=false' \
  -H 'accept: */*' \
  -H 'content-type: application/json' \
  -H 'x-goog-authuser: 0' \
  -H 'user-agent: Mozilla/5.0' \
  -b 'SAPISID=abc123/def; __Secure-3PAPISID=abc123/def' \
  --data-raw '{}'`

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			client := &tu.MockClient{}
			api := services.NewAPIService("", nil)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Client:     client,
				API:        api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.client != client {
				t.Error("expected client to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.engine == nil || runner.engine.Client() != client {
				t.Error("expected engine to wrap the client")
			}
		})

		t.Run("with nil dependencies uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
			if runner.engine != nil {
				t.Error("expected engine to wait for a client")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"serve", "setup", "auth", "health", "errors", "api", "export", "monitor"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})

	t.Run("authPath", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})

		path, err := runner.authPath("/tmp/explicit.json", "browser.json")
		if err != nil || path != "/tmp/explicit.json" {
			t.Errorf("expected flag to win, got %q (%v)", path, err)
		}

		runner.config.YouTube.AuthFile = "/etc/ytmp/browser.json"
		path, _ = runner.authPath("", "browser.json")
		if path != "/etc/ytmp/browser.json" {
			t.Errorf("expected configured auth file, got %q", path)
		}

		runner.config.YouTube.AuthFile = ""
		path, _ = runner.authPath("", "oauth.json")
		if !strings.HasSuffix(path, filepath.Join(".ytmp", "oauth.json")) {
			t.Errorf("expected home default, got %q", path)
		}
	})
}

func TestSetup(t *testing.T) {
	ctx := context.Background()

	t.Run("youtube writes browser.json", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})
		dest := filepath.Join(t.TempDir(), "auth", "browser.json")

		err := setupCommand(runner).Run(ctx, []string{"setup", "youtube", "--curl", signedInCurl, "--output", dest})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		creds, err := services.LoadCredentials(ctx, dest, nil)
		if err != nil {
			t.Fatalf("expected written file to load, got %v", err)
		}
		if creds.Kind() != "browser" {
			t.Errorf("expected browser credentials, got %s", creds.Kind())
		}
		if !strings.Contains(output.String(), dest) {
			t.Errorf("expected output to name %s, got %q", dest, output.String())
		}
	})

	t.Run("youtube needs exactly one source", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

		err := setupCommand(runner).Run(ctx, []string{"setup", "youtube"})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}

		err = setupCommand(runner).Run(ctx, []string{"setup", "youtube", "--curl", "x", "--curl-file", "y"})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("youtube rejects a signed-out request", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		curl := `curl 'https://music.youtube.com/' -H 'accept: */*' -b 'VISITOR_INFO1_LIVE=x'`

		err := setupCommand(runner).Run(ctx, []string{"setup", "youtube", "--curl", curl, "--output", filepath.Join(t.TempDir(), "b.json")})
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("database reports migrations", func(t *testing.T) {
		output := &bytes.Buffer{}
		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(t.TempDir(), "ytmp.db")
		runner := NewRunner(RunnerOpts{Config: config, Output: output})

		if err := setupCommand(runner).Run(ctx, []string{"setup", "database"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, config.Database.Path)
		if !strings.Contains(output.String(), "✓ 001") {
			t.Errorf("expected first migration applied, got %q", output.String())
		}
	})

	t.Run("database without a path", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Path = ""
		runner := NewRunner(RunnerOpts{Config: config, Output: &bytes.Buffer{}})

		err := setupCommand(runner).Run(ctx, []string{"setup", "database"})
		if !errors.Is(err, shared.ErrStoreDisabled) {
			t.Errorf("expected ErrStoreDisabled, got %v", err)
		}
	})

	t.Run("oauth needs a client id", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		runner.config.OAuth.ClientID = ""

		err := setupCommand(runner).Run(ctx, []string{"setup", "oauth", "--no-browser"})
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestAuthStatus(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "browser.json")
	if err := services.WriteBrowserFile(path, map[string]string{"cookie": "SAPISID=abc"}); err != nil {
		t.Fatal(err)
	}

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Output: output})
	if err := authCommand(runner).Run(ctx, []string{"auth", "status", path}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(output.String(), "browser credentials") {
		t.Errorf("expected credential kind, got %q", output.String())
	}

	err := authCommand(runner).Run(ctx, []string{"auth", "status", filepath.Join(t.TempDir(), "missing.json")})
	if !errors.Is(err, shared.ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
}

func proxyStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/health":
			w.Write([]byte(`{"status":"ok"}`))
		case "/search/health":
			w.Write([]byte(`{"status":"unhealthy","message":"YouTube Music search is failing","duration_ms":12}`))
		case "/library/account_info":
			if r.Header.Get("X-Auth-File") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail":{"error":"Authentication required","message":"Authentication required to access get account info"}}`))
				return
			}
			w.Write([]byte(`{"message":"Success","result":{"accountName":"Tester","channelHandle":"@tester"}}`))
		case "/playlists/":
			body := map[string]any{}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Write([]byte(`{"message":"Success","result":"PLnew"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":{"error":"Not found","message":"Endpoint not found"}}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAPI(t *testing.T) {
	ctx := context.Background()
	srv := proxyStub(t)

	newRunner := func() (*Runner, *bytes.Buffer) {
		output := &bytes.Buffer{}
		return NewRunner(RunnerOpts{Output: output, API: services.NewAPIService(srv.URL, srv.Client())}), output
	}

	t.Run("get prints JSON", func(t *testing.T) {
		runner, output := newRunner()
		if err := apiCommand(runner).Run(ctx, []string{"api", "get", "--json", "/health"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != `{"status":"ok"}`+"\n" {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("get surfaces the error detail", func(t *testing.T) {
		runner, _ := newRunner()
		err := apiCommand(runner).Run(ctx, []string{"api", "get", "/nope"})
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if !strings.Contains(err.Error(), "Endpoint not found") {
			t.Errorf("expected detail message, got %v", err)
		}
	})

	t.Run("post validates the body", func(t *testing.T) {
		runner, _ := newRunner()
		err := apiCommand(runner).Run(ctx, []string{"api", "post", "--data", "{not json", "/playlists/"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("post sends the body", func(t *testing.T) {
		runner, output := newRunner()
		err := apiCommand(runner).Run(ctx, []string{"api", "post", "--data", `{"title":"Road Trip"}`, "/playlists/"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "PLnew") {
			t.Errorf("expected playlist id, got %q", output.String())
		}
	})

	t.Run("transport failures", func(t *testing.T) {
		for name, rt := range map[string]*tu.MockRoundTripper{
			"dial":      tu.NewMockRoundTripper(nil, errors.New("connection refused")),
			"read body": tu.NewMockRoundTripper(&http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}, nil),
		} {
			t.Run(name, func(t *testing.T) {
				api := services.NewAPIService("http://proxy.invalid", &http.Client{Transport: rt})
				runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, API: api})

				err := apiCommand(runner).Run(ctx, []string{"api", "get", "/health"})
				if !errors.Is(err, shared.ErrAPIRequest) {
					t.Errorf("expected ErrAPIRequest, got %v", err)
				}
			})
		}
	})

	t.Run("auth check", func(t *testing.T) {
		runner, output := newRunner()
		err := authCommand(runner).Run(ctx, []string{"auth", "check"})
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}

		err = authCommand(runner).Run(ctx, []string{"auth", "check", "--auth-file", "/tmp/browser.json"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Tester") || !strings.Contains(output.String(), "@tester") {
			t.Errorf("expected account, got %q", output.String())
		}
	})

	t.Run("remote health", func(t *testing.T) {
		runner, output := newRunner()
		err := healthCommand(runner).Run(ctx, []string{"health", "--remote"})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected unhealthy verdict as error, got %v", err)
		}
		if !strings.Contains(output.String(), "unhealthy") {
			t.Errorf("expected status line, got %q", output.String())
		}
	})
}

func TestHealth(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy", func(t *testing.T) {
		client := &tu.MockClient{SearchFunc: func(ctx context.Context, opts services.SearchOptions) ([]services.Item, error) {
			return []services.Item{{Title: "Test", VideoID: "dQw4w9WgXcQ"}}, nil
		}}
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Client: client, Output: output})

		if err := healthCommand(runner).Run(ctx, []string{"health", "--json"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var report map[string]any
		if err := json.Unmarshal(output.Bytes(), &report); err != nil {
			t.Fatalf("expected JSON report, got %q", output.String())
		}
		if report["status"] != "healthy" {
			t.Errorf("expected healthy, got %v", report["status"])
		}
	})

	t.Run("unhealthy", func(t *testing.T) {
		client := &tu.MockClient{Err: &services.ConnectionError{Err: errors.New("dial tcp: connection refused")}}
		runner := NewRunner(RunnerOpts{Client: client, Output: &bytes.Buffer{}})

		err := healthCommand(runner).Run(ctx, []string{"health"})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestErrors(t *testing.T) {
	ctx := context.Background()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "ytmp.db")

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		t.Fatal(err)
	}
	repo := repositories.NewErrorEventRepository(db)
	for _, e := range []*models.ErrorEvent{
		models.NewErrorEvent("get_song", "not_found", 404, "Song not found").WithRequest("r1", "GET", "/browse/song/x"),
		models.NewErrorEvent("search", "unavailable", 503, "Circuit open").WithRequest("r2", "GET", "/search/search"),
		models.NewErrorEvent("get_album", "not_found", 404, "Album not found").WithRequest("r3", "GET", "/browse/album/y"),
	} {
		if err := repo.Create(e); err != nil {
			t.Fatal(err)
		}
	}
	db.Close()

	t.Run("lists filtered entries", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Config: config, Output: output})

		if err := errorsCommand(runner).Run(ctx, []string{"errors", "--kind", "not_found"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := output.String()
		if !strings.Contains(out, "get_song") || !strings.Contains(out, "get_album") {
			t.Errorf("expected both not_found entries, got %q", out)
		}
		if strings.Contains(out, "Circuit open") {
			t.Errorf("expected unavailable entry to be filtered, got %q", out)
		}
	})

	t.Run("summary", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Config: config, Output: output})

		if err := errorsCommand(runner).Run(ctx, []string{"errors", "--summary", "--json"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var counts map[string]int
		if err := json.Unmarshal(output.Bytes(), &counts); err != nil {
			t.Fatalf("expected JSON counts, got %q", output.String())
		}
		if counts["not_found"] != 2 || counts["unavailable"] != 1 {
			t.Errorf("unexpected counts %v", counts)
		}
	})

	t.Run("without a database", func(t *testing.T) {
		disabled := shared.DefaultConfig()
		disabled.Database.Path = ""
		runner := NewRunner(RunnerOpts{Config: disabled, Output: &bytes.Buffer{}})

		err := errorsCommand(runner).Run(ctx, []string{"errors"})
		if !errors.Is(err, shared.ErrStoreDisabled) {
			t.Errorf("expected ErrStoreDisabled, got %v", err)
		}
	})
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	client := &tu.MockClient{
		LibraryPlaylistsFunc: func(ctx context.Context, limit int) ([]services.Item, error) {
			return []services.Item{{Title: "Mix", PlaylistID: "PL2"}, {Title: "Liked"}}, nil
		},
		PlaylistFunc: func(ctx context.Context, id string, opts services.PlaylistOptions) (*services.Playlist, error) {
			return &services.Playlist{ID: id, Title: "Playlist " + id, Tracks: []services.Item{{Title: "Track", VideoID: "dQw4w9WgXcQ"}}}, nil
		},
	}

	t.Run("ids and library", func(t *testing.T) {
		dir := t.TempDir()
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Client: client, Output: output})

		err := exportCommand(runner).Run(ctx, []string{"export", "--output", dir, "--format", "csv", "--library", "PL1"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
		if !strings.Contains(output.String(), "Exported: 2/2") {
			t.Errorf("expected summary, got %q", output.String())
		}
	})

	t.Run("nothing to export", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Client: client, Output: &bytes.Buffer{}})
		err := exportCommand(runner).Run(ctx, []string{"export"})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}
