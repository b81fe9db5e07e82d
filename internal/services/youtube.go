// YouTube Music InnerTube [Client] implementation
//
// Talks to music.youtube.com/youtubei/v1 directly with the WEB_REMIX client context.
// Calls are paced by a token bucket and guarded by a circuit breaker.
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmp/internal/metrics"
	"github.com/desertthunder/ytmp/internal/shared"
	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "https://music.youtube.com"
	defaultUploadURL = "https://upload.youtube.com/upload/usermusic/http"
	apiPath          = "/youtubei/v1/"
	userAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:128.0) Gecko/20100101 Firefox/128.0"
	breakerName      = "innertube"

	// defaultBreakerCooldown is gobreaker's open-state timeout when none is configured.
	defaultBreakerCooldown = 60 * time.Second
)

// Options configures a [YouTubeMusic] client.
type Options struct {
	BaseURL           string
	UploadURL         string
	Language          string
	Location          string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	Breaker           shared.BreakerConfig
	Credentials       Credentials
	HTTPClient        *http.Client
	Logger            *log.Logger
}

// OptionsFromConfig builds client options from the loaded configuration.
func OptionsFromConfig(cfg *shared.Config, logger *log.Logger) Options {
	return Options{
		Language:          cfg.YouTube.Language,
		Location:          cfg.YouTube.Location,
		RequestsPerSecond: cfg.YouTube.RequestsPerSecond,
		Burst:             cfg.YouTube.Burst,
		Timeout:           cfg.YouTube.Timeout,
		Breaker:           cfg.Breaker,
		Logger:            logger,
	}
}

var _ Client = (*YouTubeMusic)(nil)

// YouTubeMusic implements [Client] against the InnerTube API.
type YouTubeMusic struct {
	baseURL   string
	uploadURL string
	language  string
	location  string
	auth      Credentials
	http      *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[map[string]any]
	cooldown  time.Duration
	logger    *log.Logger
}

// NewYouTubeMusic creates a client. Credentials may be nil for unauthenticated use.
func NewYouTubeMusic(opts Options) *YouTubeMusic {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.UploadURL == "" {
		opts.UploadURL = defaultUploadURL
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := max(opts.Burst, 1)

	y := &YouTubeMusic{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		uploadURL: opts.UploadURL,
		language:  opts.Language,
		location:  opts.Location,
		auth:      opts.Credentials,
		http:      opts.HTTPClient,
		limiter:   rate.NewLimiter(limit, burst),
		logger:    opts.Logger,
	}
	y.breaker = newBreaker(opts.Breaker, opts.Logger)
	y.cooldown = opts.Breaker.Timeout
	if y.cooldown <= 0 {
		y.cooldown = defaultBreakerCooldown
	}
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	return y
}

func newBreaker(cfg shared.BreakerConfig, logger *log.Logger) *gobreaker.CircuitBreaker[map[string]any] {
	return gobreaker.NewCircuitBreaker[map[string]any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < max(cfg.MinRequests, 1) {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			metrics.RecordBreakerTransition(name, from.String(), to.String())
		},
		IsSuccessful: func(err error) bool { return !breakerFailure(err) },
	})
}

// Authenticated reports whether credentials are loaded.
func (y *YouTubeMusic) Authenticated() bool {
	return y.auth != nil
}

// WithCredentials returns a client that shares transport, limiter and breaker but uses creds.
func (y *YouTubeMusic) WithCredentials(creds Credentials) *YouTubeMusic {
	cp := *y
	cp.auth = creds
	return &cp
}

// Breaker reports the breaker state and counts.
func (y *YouTubeMusic) Breaker() BreakerStatus {
	counts := y.breaker.Counts()
	return BreakerStatus{
		Name:                 y.breaker.Name(),
		State:                y.breaker.State().String(),
		Requests:             counts.Requests,
		TotalFailures:        counts.TotalFailures,
		ConsecutiveFailures:  counts.ConsecutiveFailures,
		ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
	}
}

func (y *YouTubeMusic) requireAuth() error {
	if y.auth == nil {
		return ErrAuthRequired
	}
	return nil
}

// clientContext returns the InnerTube context block for the WEB_REMIX client.
func (y *YouTubeMusic) clientContext(now time.Time) map[string]any {
	client := map[string]any{
		"clientName":    "WEB_REMIX",
		"clientVersion": "1." + now.UTC().Format("20060102") + ".01.00",
		"hl":            y.language,
	}
	if y.location != "" {
		client["gl"] = y.location
	}
	return map[string]any{"client": client, "user": map[string]any{}}
}

// request is one InnerTube POST.
type request struct {
	endpoint string
	body     map[string]any
	query    url.Values
	client   map[string]any // replaces fields of the default client context
}

// send posts to an InnerTube endpoint through the limiter and breaker and decodes the reply.
func (y *YouTubeMusic) send(ctx context.Context, r request) (map[string]any, error) {
	if err := y.wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	doc, err := y.breaker.Execute(func() (map[string]any, error) {
		return y.post(ctx, r)
	})
	metrics.RecordUpstream(r.endpoint, time.Since(start), err)
	y.recordBreaker(err)
	if err != nil {
		y.logger.Debug("upstream call failed", "endpoint", r.endpoint, "error", err)
		return nil, fromBreaker(err, y.cooldown)
	}
	return doc, nil
}

func (y *YouTubeMusic) wait(ctx context.Context) error {
	if err := y.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return classifyTransport(ctxErr)
		}
		return &TimeoutError{Err: err}
	}
	return nil
}

func (y *YouTubeMusic) recordBreaker(err error) {
	switch {
	case err == nil:
		metrics.RecordBreakerResult(breakerName, "success")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordBreakerResult(breakerName, "rejected")
	default:
		metrics.RecordBreakerResult(breakerName, "failure")
	}
}

func (y *YouTubeMusic) post(ctx context.Context, r request) (map[string]any, error) {
	body := make(map[string]any, len(r.body)+1)
	for k, v := range r.body {
		body[k] = v
	}
	ictx := y.clientContext(time.Now())
	if r.client != nil {
		client := asMap(ictx["client"])
		for k, v := range r.client {
			client[k] = v
		}
	}
	body["context"] = ictx

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	query := url.Values{"alt": {"json"}}
	for k, vs := range r.query {
		query[k] = vs
	}
	endpoint := y.baseURL + apiPath + r.endpoint + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if err := y.decorate(req); err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := y.http.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(err)
	}
	if resp.StatusCode >= 400 {
		return nil, upstreamError(resp.StatusCode, data)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Key: "response", Path: r.endpoint}
	}
	return doc, nil
}

// get performs a GET against the YouTube Music domain or an absolute URL and returns the raw body.
func (y *YouTubeMusic) get(ctx context.Context, target string, params url.Values) (int, []byte, error) {
	if err := y.wait(ctx); err != nil {
		return 0, nil, err
	}
	if strings.HasPrefix(target, "/") {
		target = y.baseURL + target
	}
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var (
		status int
		data   []byte
	)
	_, err := y.breaker.Execute(func() (map[string]any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if err := y.decorate(req); err != nil {
			return nil, err
		}
		resp, err := y.http.Do(req)
		if err != nil {
			return nil, classifyTransport(err)
		}
		defer resp.Body.Close()
		status = resp.StatusCode
		if data, err = io.ReadAll(resp.Body); err != nil {
			return nil, classifyTransport(err)
		}
		if status >= 400 {
			return nil, upstreamError(status, data)
		}
		return nil, nil
	})
	y.recordBreaker(err)
	if err != nil {
		return status, nil, fromBreaker(err, y.cooldown)
	}
	return status, data, nil
}

// decorate sets browser-like headers and credentials on req.
func (y *YouTubeMusic) decorate(req *http.Request) error {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", y.language)
	req.Header.Set("Origin", y.baseURL)
	req.Header.Set("X-Origin", y.baseURL)
	req.Header.Set("X-Goog-AuthUser", "0")
	if y.auth == nil {
		req.Header.Set("Cookie", "SOCS=CAI")
		return nil
	}
	return y.auth.Apply(req, y.baseURL)
}

// upstreamError builds an [HTTPError] from an error reply body.
func upstreamError(status int, data []byte) error {
	var reply struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(data, &reply); err == nil {
		msg = reply.Error.Message
	}
	return &HTTPError{Status: status, Message: msg}
}
