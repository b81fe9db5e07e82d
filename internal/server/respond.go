package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/desertthunder/ytmp/internal/failures"
	"github.com/desertthunder/ytmp/internal/metrics"
	"github.com/desertthunder/ytmp/internal/models"
	"github.com/desertthunder/ytmp/internal/services"
	"github.com/desertthunder/ytmp/internal/tasks"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

func (s *Server) engineFor(r *http.Request) *tasks.Engine {
	if e, ok := r.Context().Value(engineKey).(*tasks.Engine); ok {
		return e
	}
	return s.engine
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

// envelope builds the success document from res plus extra key/value pairs.
func envelope(res *tasks.Result, kv ...any) map[string]any {
	env := res.Envelope("", nil)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			env[k] = kv[i+1]
		}
	}
	return env
}

// writeResult writes a task result or its failure.
func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, op failures.Operation, res *tasks.Result, err error, kv ...any) {
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope(res, kv...))
}

// writeError classifies err, counts and logs it, records an error event and writes {"detail": ...}.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op failures.Operation, err error) {
	fe := failures.Classify(op, err)
	reqID := RequestIDFrom(r.Context())

	if fe.Detail.Operation == "" {
		fe.For(op)
	}
	operation := fe.Detail.Operation
	if operation == "" {
		operation = "request"
	}
	metrics.RecordClassifiedError(operation, string(fe.Kind), fe.Status)
	failures.Log(s.logger, fe, "request_id", reqID, "method", r.Method, "path", r.URL.Path)
	s.recordEvent(r, operation, fe)

	if ra := fe.RetryAfterSeconds(); ra != "" {
		w.Header().Set("Retry-After", ra)
	}
	s.writeJSON(w, fe.Status, fe.Body())
}

func (s *Server) recordEvent(r *http.Request, operation string, fe *failures.Error) {
	if s.events == nil {
		return
	}
	event := models.NewErrorEvent(operation, string(fe.Kind), fe.Status, fe.Detail.Message).
		WithRequest(RequestIDFrom(r.Context()), r.Method, r.URL.Path).
		WithIdentifier(fe.Detail.Identifier).
		WithTechnical(fe.Detail.TechnicalDetails)
	if err := s.events.Create(event); err != nil {
		s.logger.Warn("failed to record error event", "operation", operation, "error", err)
	}
}

// fetch runs fn against the request's client and writes {"message": "OK", ..., "result": data}.
// A non-empty missing message turns an empty result into a 404.
func (s *Server) fetch(w http.ResponseWriter, r *http.Request, op failures.Operation, missing string,
	fn func(ctx context.Context, c services.Client) (any, error), kv ...any) {
	data, err := fn(r.Context(), s.client(r))
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	if missing != "" && isEmpty(data) {
		s.writeError(w, r, op, failures.NotFound(op, "Not found", missing))
		return
	}
	s.writeJSON(w, http.StatusOK, envelope(&tasks.Result{Message: tasks.MessageOK, Data: data}, kv...))
}

// isEmpty reports nil pointers and empty slices, maps and strings.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.Slice, reflect.Map, reflect.String:
		return rv.Len() == 0
	}
	return false
}

// decode reads a JSON body into v and validates its struct tags.
func (s *Server) decode(r *http.Request, op failures.Operation, v any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return failures.BadRequest(op, "Request body is required")
		}
		return failures.BadRequest(op, "Request body is not valid JSON: "+err.Error())
	}
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return failures.BadRequest(op, validationMessage(verrs))
		}
		return failures.BadRequest(op, err.Error())
	}
	return nil
}

func validationMessage(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_without":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s needs at least %s entries", fe.Field(), fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", ")))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// queryInt parses an integer query parameter, returning def when it is absent.
func queryInt(r *http.Request, op failures.Operation, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, failures.BadRequest(op, fmt.Sprintf("Query parameter '%s' must be an integer, got %q", name, v))
	}
	return n, nil
}

// queryBool parses a boolean query parameter, returning def when it is absent.
func queryBool(r *http.Request, op failures.Operation, name string, def bool) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, failures.BadRequest(op, fmt.Sprintf("Query parameter '%s' must be a boolean, got %q", name, v))
	}
	return b, nil
}

// queryRequired returns a non-empty query parameter.
func queryRequired(r *http.Request, op failures.Operation, name string) (string, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return "", failures.BadRequest(op, fmt.Sprintf("Query parameter '%s' is required", name))
	}
	return v, nil
}

// requireVideoID rejects ids that are not 11 characters long.
func requireVideoID(op failures.Operation, id string) error {
	if !services.IsVideoID(id) {
		return failures.BadRequest(op, "Invalid video ID format: "+id)
	}
	return nil
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, failures.Op("route"),
		failures.New(http.StatusNotFound, failures.KindNotFound, "Not found", "No route for "+r.URL.Path).
			WithRecommendation("See /docs for the list of endpoints"))
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, failures.Op("route"),
		failures.New(http.StatusMethodNotAllowed, failures.KindInvalidInput, "Method not allowed",
			r.Method+" is not supported on "+r.URL.Path))
}
