package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytmp/internal/shared"
	json "github.com/goccy/go-json"
	"golang.org/x/oauth2"
)

// OAuthScope is the single scope requested during device flow.
const OAuthScope = "https://www.googleapis.com/auth/youtube"

// googleEndpoint is the Google OAuth endpoint with device authorization.
var googleEndpoint = oauth2.Endpoint{
	AuthURL:       "https://accounts.google.com/o/oauth2/auth",
	DeviceAuthURL: "https://oauth2.googleapis.com/device/code",
	TokenURL:      "https://oauth2.googleapis.com/token",
}

var nowFunc = time.Now

// Credentials sign upstream requests.
type Credentials interface {
	// Apply sets authorization headers on req. Origin is the scheme and host requests are made from.
	Apply(req *http.Request, origin string) error
	// Kind returns "browser" or "oauth".
	Kind() string
}

// BrowserCredentials replay headers captured from a signed-in browser session.
type BrowserCredentials struct {
	Headers map[string]string
}

func (b *BrowserCredentials) Kind() string { return "browser" }

// Apply copies the captured headers and adds a SAPISIDHASH authorization derived from the cookie.
func (b *BrowserCredentials) Apply(req *http.Request, origin string) error {
	for k, v := range b.Headers {
		if strings.EqualFold(k, "authorization") {
			continue
		}
		req.Header.Set(k, v)
	}

	sapisid := cookieValue(b.Headers["cookie"], "__Secure-3PAPISID")
	if sapisid == "" {
		sapisid = cookieValue(b.Headers["cookie"], "SAPISID")
	}
	if sapisid == "" {
		return fmt.Errorf("%w: cookie has no SAPISID", shared.ErrInvalidCredentials)
	}
	req.Header.Set("Authorization", sapisidHash(sapisid, origin, nowFunc()))
	return nil
}

// OAuthCredentials authorize with a bearer token that refreshes itself.
type OAuthCredentials struct {
	Source oauth2.TokenSource
}

func (o *OAuthCredentials) Kind() string { return "oauth" }

func (o *OAuthCredentials) Apply(req *http.Request, _ string) error {
	tok, err := o.Source.Token()
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrTokenExpired, err)
	}
	tok.SetAuthHeader(req)
	req.Header.Set("X-Goog-Request-Time", strconv.FormatInt(nowFunc().Unix(), 10))
	return nil
}

// sapisidHash computes the SAPISIDHASH authorization value.
func sapisidHash(sapisid, origin string, now time.Time) string {
	ts := strconv.FormatInt(now.Unix(), 10)
	sum := sha1.Sum([]byte(ts + " " + sapisid + " " + origin))
	return "SAPISIDHASH " + ts + "_" + hex.EncodeToString(sum[:])
}

func cookieValue(cookie, name string) string {
	for _, part := range strings.Split(cookie, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && k == name {
			return v
		}
	}
	return ""
}

// tokenFile is the on-disk OAuth token shape. Both expiry and expires_at are accepted on read.
type tokenFile struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Scope        string    `json:"scope,omitempty"`
	Expiry       time.Time `json:"expiry"`
	ExpiresAt    int64     `json:"expires_at,omitempty"`
}

// OAuthConfig returns the device-flow configuration for a Google client.
func OAuthConfig(cfg shared.OAuthConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     googleEndpoint,
		Scopes:       []string{OAuthScope},
	}
}

// LoadCredentials reads a browser.json or oauth.json file.
//
// A file with an access or refresh token is treated as OAuth and needs oauthCfg to refresh;
// anything else must be a header map with a cookie.
func LoadCredentials(ctx context.Context, path string, oauthCfg *oauth2.Config) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrMissingCredentials, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s is not valid JSON", shared.ErrInvalidCredentials, filepath.Base(path))
	}

	if _, ok := raw["access_token"]; ok {
		return oauthCredentials(ctx, data, oauthCfg)
	}
	if _, ok := raw["refresh_token"]; ok {
		return oauthCredentials(ctx, data, oauthCfg)
	}

	headers := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			headers[strings.ToLower(k)] = s
		}
	}
	if headers["cookie"] == "" {
		return nil, fmt.Errorf("%w: browser headers have no cookie", shared.ErrInvalidCredentials)
	}
	return &BrowserCredentials{Headers: headers}, nil
}

func oauthCredentials(ctx context.Context, data []byte, cfg *oauth2.Config) (Credentials, error) {
	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidCredentials, err)
	}
	tok := &oauth2.Token{
		AccessToken:  tf.AccessToken,
		RefreshToken: tf.RefreshToken,
		TokenType:    tf.TokenType,
		Expiry:       tf.Expiry,
	}
	if tok.Expiry.IsZero() && tf.ExpiresAt > 0 {
		tok.Expiry = time.Unix(tf.ExpiresAt, 0)
	}

	if cfg == nil || cfg.ClientID == "" {
		if tok.AccessToken == "" {
			return nil, fmt.Errorf("%w: oauth client id required to refresh token", shared.ErrMissingCredentials)
		}
		return &OAuthCredentials{Source: oauth2.StaticTokenSource(tok)}, nil
	}
	return &OAuthCredentials{Source: cfg.TokenSource(ctx, tok)}, nil
}

// WriteTokenFile stores tok in the oauth.json format read by [LoadCredentials].
func WriteTokenFile(path string, tok *oauth2.Token) error {
	tf := tokenFile{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		Scope:        OAuthScope,
		Expiry:       tok.Expiry,
	}
	if !tok.Expiry.IsZero() {
		tf.ExpiresAt = tok.Expiry.Unix()
	}
	return writeJSON(path, tf)
}

// WriteBrowserFile stores captured browser headers in the browser.json format.
func WriteBrowserFile(path string, headers map[string]string) error {
	return writeJSON(path, headers)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
