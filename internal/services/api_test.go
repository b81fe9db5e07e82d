package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

type failingTransport struct{ err error }

func (f failingTransport) RoundTrip(*http.Request) (*http.Response, error) { return nil, f.err }

type bodyTransport struct{ body io.ReadCloser }

func (b bodyTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return &http.Response{StatusCode: http.StatusOK, Body: b.body, Header: http.Header{}}, nil
}

type brokenBody struct{}

func (brokenBody) Read([]byte) (int, error) { return 0, errors.New("read failed") }
func (brokenBody) Close() error             { return nil }

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("Defaults", func(t *testing.T) {
			srv := NewAPIService("", nil)
			if srv.baseURL != DefaultProxyURL {
				t.Errorf("expected default base url %s, got %s", DefaultProxyURL, srv.baseURL)
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})

		t.Run("Trims Trailing Slash", func(t *testing.T) {
			srv := NewAPIService("http://example.com/", nil)
			if srv.baseURL != "http://example.com" {
				t.Errorf("expected trimmed base url, got %s", srv.baseURL)
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Decodes JSON", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet || r.URL.Path != "/search/search" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"message":"OK","result":[]}`))
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).Get(context.Background(), "/search/search")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.OK() || !resp.IsJSON {
				t.Fatalf("expected a JSON 200, got %d json=%v", resp.StatusCode, resp.IsJSON)
			}
			if resp.JSONData.(map[string]any)["message"] != "OK" {
				t.Errorf("unexpected body %v", resp.JSONData)
			}
		})

		t.Run("Plain Text", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("plain text response"))
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).Get(context.Background(), "/")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.IsJSON || resp.JSONData != nil {
				t.Error("expected response to not be JSON")
			}
			if string(resp.Body) != "plain text response" {
				t.Errorf("unexpected body %q", resp.Body)
			}
		})

		t.Run("Error Detail", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"detail":{"error":"API parsing error"}}`))
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).Get(context.Background(), "/browse/artist/x")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			detail := resp.Detail()
			if detail == nil || detail["error"] != "API parsing error" {
				t.Errorf("expected detail, got %v", detail)
			}
			if resp.Headers.Get("Retry-After") != "60" {
				t.Errorf("expected Retry-After header to be preserved")
			}
		})

		t.Run("Sends Auth File Override", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("X-Auth-File"); got != "/tmp/browser.json" {
					t.Errorf("expected X-Auth-File header, got %q", got)
				}
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil).WithAuthFile("/tmp/browser.json")
			if _, err := srv.Get(context.Background(), "/library/playlists"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Invalid URL", func(t *testing.T) {
			_, err := NewAPIService("http://example.com", nil).Get(context.Background(), "/test\x00invalid")
			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected request creation error, got %v", err)
			}
		})

		t.Run("Transport Failure", func(t *testing.T) {
			client := &http.Client{Transport: failingTransport{errors.New("connection refused")}}
			_, err := NewAPIService("http://example.com", client).Get(context.Background(), "/test")
			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected request failure, got %v", err)
			}
		})

		t.Run("Body Read Failure", func(t *testing.T) {
			client := &http.Client{Transport: bodyTransport{brokenBody{}}}
			_, err := NewAPIService("http://example.com", client).Get(context.Background(), "/test")
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected read failure, got %v", err)
			}
		})

		t.Run("Canceled Context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			if _, err := NewAPIService(server.URL, nil).Get(ctx, "/"); err == nil {
				t.Error("expected error for canceled context")
			}
		})
	})

	t.Run("Post", func(t *testing.T) {
		t.Run("Sends JSON", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.Header.Get("Content-Type") != "application/json" {
					t.Errorf("expected JSON content type, got %s", r.Header.Get("Content-Type"))
				}
				var body map[string]string
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["title"] != "Mix" {
					t.Errorf("unexpected body %v (%v)", body, err)
				}
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"message":"OK","result":"PL123"}`))
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).PostJSON(context.Background(), "/playlists/create", map[string]string{"title": "Mix"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			var out struct{ Result string }
			if err := resp.Decode(&out); err != nil || out.Result != "PL123" {
				t.Errorf("unexpected result %+v (%v)", out, err)
			}
		})

		t.Run("Empty Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				if len(body) != 0 {
					t.Errorf("expected empty body, got %d bytes", len(body))
				}
			}))
			defer server.Close()

			if _, err := NewAPIService(server.URL, nil).Post(context.Background(), "/test", []byte{}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				t.Errorf("expected DELETE, got %s", r.Method)
			}
			w.Write([]byte(`{"message":"OK"}`))
		}))
		defer server.Close()

		resp, err := NewAPIService(server.URL, nil).Delete(context.Background(), "/playlists/PL1")
		if err != nil || !resp.OK() {
			t.Fatalf("expected success, got %v", err)
		}
	})
}
