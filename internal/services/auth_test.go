package services

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/ytmp/internal/shared"
	"golang.org/x/oauth2"
)

func TestAuth(t *testing.T) {
	t.Run("sapisidHash", func(t *testing.T) {
		got := sapisidHash("abc", "https://music.youtube.com", time.Unix(1700000000, 0))
		want := "SAPISIDHASH 1700000000_2f3ec011e870f3fbd0238c090c2062c208cead32"
		if got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("cookieValue", func(t *testing.T) {
		cookie := "VISITOR=1; __Secure-3PAPISID=secure; SAPISID=plain"
		if got := cookieValue(cookie, "__Secure-3PAPISID"); got != "secure" {
			t.Errorf("expected secure, got %q", got)
		}
		if got := cookieValue(cookie, "MISSING"); got != "" {
			t.Errorf("expected empty value, got %q", got)
		}
	})

	t.Run("BrowserCredentials", func(t *testing.T) {
		restore := nowFunc
		nowFunc = func() time.Time { return time.Unix(1700000000, 0) }
		defer func() { nowFunc = restore }()

		t.Run("Prefers Secure Cookie", func(t *testing.T) {
			creds := &BrowserCredentials{Headers: map[string]string{
				"cookie":        "SAPISID=plain; __Secure-3PAPISID=abc",
				"authorization": "stale",
			}}
			req, _ := http.NewRequest(http.MethodPost, "https://music.youtube.com/youtubei/v1/browse", nil)
			if err := creds.Apply(req, "https://music.youtube.com"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := req.Header.Get("Authorization"); got != "SAPISIDHASH 1700000000_2f3ec011e870f3fbd0238c090c2062c208cead32" {
				t.Errorf("unexpected authorization %q", got)
			}
		})

		t.Run("Missing SAPISID", func(t *testing.T) {
			creds := &BrowserCredentials{Headers: map[string]string{"cookie": "VISITOR=1"}}
			req, _ := http.NewRequest(http.MethodPost, "https://music.youtube.com", nil)
			if err := creds.Apply(req, "https://music.youtube.com"); !errors.Is(err, shared.ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	})

	t.Run("LoadCredentials", func(t *testing.T) {
		dir := t.TempDir()

		t.Run("Browser File", func(t *testing.T) {
			path := filepath.Join(dir, "browser.json")
			if err := WriteBrowserFile(path, map[string]string{"Cookie": "SAPISID=abc", "X-Goog-AuthUser": "0"}); err != nil {
				t.Fatalf("failed to write browser file: %v", err)
			}
			creds, err := LoadCredentials(context.Background(), path, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			browser, ok := creds.(*BrowserCredentials)
			if !ok || browser.Kind() != "browser" {
				t.Fatalf("expected browser credentials, got %T", creds)
			}
			if browser.Headers["cookie"] != "SAPISID=abc" {
				t.Errorf("expected lower-cased header keys, got %v", browser.Headers)
			}

			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("stat failed: %v", err)
			}
			if info.Mode().Perm() != 0600 {
				t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
			}
		})

		t.Run("OAuth File", func(t *testing.T) {
			path := filepath.Join(dir, "oauth.json")
			tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
			if err := WriteTokenFile(path, tok); err != nil {
				t.Fatalf("failed to write token file: %v", err)
			}
			creds, err := LoadCredentials(context.Background(), path, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if creds.Kind() != "oauth" {
				t.Fatalf("expected oauth credentials, got %s", creds.Kind())
			}
			req, _ := http.NewRequest(http.MethodPost, "https://music.youtube.com", nil)
			if err := creds.Apply(req, ""); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := req.Header.Get("Authorization"); got != "Bearer access" {
				t.Errorf("expected bearer token, got %q", got)
			}
			if req.Header.Get("X-Goog-Request-Time") == "" {
				t.Error("expected request time header")
			}
		})

		t.Run("Refresh Only Without Client", func(t *testing.T) {
			path := filepath.Join(dir, "refresh.json")
			os.WriteFile(path, []byte(`{"refresh_token":"r"}`), 0600)
			if _, err := LoadCredentials(context.Background(), path, nil); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing File", func(t *testing.T) {
			_, err := LoadCredentials(context.Background(), filepath.Join(dir, "nope.json"), nil)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Headers Without Cookie", func(t *testing.T) {
			path := filepath.Join(dir, "nocookie.json")
			os.WriteFile(path, []byte(`{"user-agent":"x"}`), 0600)
			if _, err := LoadCredentials(context.Background(), path, nil); !errors.Is(err, shared.ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})

		t.Run("Invalid JSON", func(t *testing.T) {
			path := filepath.Join(dir, "bad.json")
			os.WriteFile(path, []byte(`not json`), 0600)
			if _, err := LoadCredentials(context.Background(), path, nil); !errors.Is(err, shared.ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	})
}
