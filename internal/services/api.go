package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

// DefaultProxyURL is where `ytmp serve` listens unless configured otherwise.
const DefaultProxyURL = "http://localhost:8000"

// APIService makes raw HTTP requests against a running ytmp proxy.
//
// It backs the `api`, `health --remote` and `monitor` commands.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	authFile   string
}

// NewAPIService creates a client for the proxy at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = DefaultProxyURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &APIService{baseURL: strings.TrimRight(baseURL, "/"), httpClient: client}
}

// WithAuthFile sends path as the X-Auth-File override on every request.
func (a *APIService) WithAuthFile(path string) *APIService {
	c := *a
	c.authFile = path
	return &c
}

// APIResponse is a raw proxy reply. JSONData is set when the body decodes as JSON.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Detail returns the error detail of a failed proxy reply, or nil.
func (r *APIResponse) Detail() map[string]any {
	if r.OK() {
		return nil
	}
	if m, ok := r.JSONData.(map[string]any); ok {
		if d, ok := m["detail"].(map[string]any); ok {
			return d
		}
	}
	return nil
}

// Decode unmarshals the body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, nil)
}

// Post sends data as a JSON body.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, data)
}

func (a *APIService) Put(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPut, path, data)
}

func (a *APIService) Delete(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodDelete, path, nil)
}

// PostJSON marshals v and posts it.
func (a *APIService) PostJSON(ctx context.Context, path string, v any) (*APIResponse, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return a.Post(ctx, path, data)
}

func (a *APIService) do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if a.authFile != "" {
		req.Header.Set("X-Auth-File", a.authFile)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	out := &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: raw}
	var decoded any
	if len(raw) > 0 && json.Unmarshal(raw, &decoded) == nil {
		out.IsJSON = true
		out.JSONData = decoded
	}
	return out, nil
}
