package server

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmp/internal/failures"
	"github.com/desertthunder/ytmp/internal/metrics"
	"github.com/desertthunder/ytmp/internal/services"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderAuthFile  = "X-Auth-File"

	maxRequestIDLength = 64
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	engineKey
)

// RequestIDFrom returns the id assigned by [RequestID], or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestID keeps a caller supplied X-Request-ID or assigns a UUID, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// AccessLog logs every request at the level its status calls for: 4xx at info, 5xx at error.
func AccessLog(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := statusOf(ww)
			level := failures.Level(status)
			if status < http.StatusBadRequest {
				level = log.DebugLevel
			}
			logger.Log(level, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).Round(time.Microsecond),
				"request_id", RequestIDFrom(r.Context()),
			)
		})
	}
}

// Metrics records request counts, latency and in-flight requests by route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.RecordAPIRequest(r.Method, route, statusOf(ww), time.Since(start))
	})
}

func statusOf(ww chimiddleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}

// CORS allows the given origins; an empty list allows all.
func CORS(origins []string) Middleware {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{HeaderRequestID, "Retry-After"},
		MaxAge:         300,
	})
}

// rateLimit limits each client IP to perMinute requests. Zero disables limiting.
func (s *Server) rateLimit(perMinute int) Middleware {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			s.writeError(w, r, failures.Op("rate_limit"),
				failures.New(http.StatusTooManyRequests, failures.KindRateLimited, "Rate limit exceeded",
					fmt.Sprintf("More than %d requests per minute. Please try again later.", perMinute)).
					WithRetry(time.Minute))
		}),
	)
}

// recoverer turns a panic into a 500 error envelope.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.logger.Error("panic serving request", "path", r.URL.Path, "panic", rec, "stack", string(debug.Stack()))
			s.writeError(w, r, failures.Op("request"),
				failures.New(http.StatusInternalServerError, failures.KindInternal, "Internal server error",
					"An unexpected error occurred while processing the request").
					Wrap(fmt.Errorf("panic: %v", rec)))
		}()
		next.ServeHTTP(w, r)
	})
}

// credentials swaps in a per-request client when X-Auth-File is sent and allowed.
func (s *Server) credentials(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.Header.Get(HeaderAuthFile)
		if path == "" || !s.cfg.YouTube.AllowHeaderOverride {
			next.ServeHTTP(w, r)
			return
		}

		client, err := s.auth(r.Context(), path)
		if err != nil {
			s.writeError(w, r, failures.Op("authenticate"),
				failures.New(http.StatusUnauthorized, failures.KindAuthRequired, "Authentication failed",
					"Could not load credentials from "+HeaderAuthFile).
					WithTechnical(err.Error()).
					Wrap(err))
			return
		}
		ctx := context.WithValue(r.Context(), engineKey, s.engine.WithClient(client))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// client returns the upstream client for r, honouring a per-request override.
func (s *Server) client(r *http.Request) services.Client {
	return s.engineFor(r).Client()
}
