package failures

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind names a class of failure. Kinds are stable strings for logs, metrics and clients.
type Kind string

const (
	KindStructureChanged Kind = "structure_changed"
	KindInvalidInput     Kind = "invalid_input"
	KindConnection       Kind = "connection"
	KindTimeout          Kind = "timeout"
	KindAuthRequired     Kind = "auth_required"
	KindNotFound         Kind = "not_found"
	KindForbidden        Kind = "forbidden"
	KindRateLimited      Kind = "rate_limited"
	KindUnavailable      Kind = "unavailable"
	KindInternal         Kind = "internal"
)

// Retryable reports whether a client may retry the same request later.
func (k Kind) Retryable() bool {
	switch k {
	case KindStructureChanged, KindConnection, KindTimeout, KindRateLimited, KindUnavailable:
		return true
	}
	return false
}

// Operation describes what was being done when a failure happened.
type Operation struct {
	Name   string // snake_case, e.g. "get_artist"
	IDName string // request key of the identifier, e.g. "channelId"
	ID     string
	Rules  []Rule
}

// Op is shorthand for an [Operation] without an identifier.
func Op(name string, rules ...Rule) Operation {
	return Operation{Name: name, Rules: rules}
}

// OpID is shorthand for an [Operation] on one identified resource.
func OpID(name, idName, id string, rules ...Rule) Operation {
	return Operation{Name: name, IDName: idName, ID: id, Rules: rules}
}

// Phrase returns the name with underscores as spaces: "get_artist" becomes "get artist".
func (o Operation) Phrase() string {
	return strings.ReplaceAll(o.Name, "_", " ")
}

var titleCaser = cases.Title(language.English)

// Title returns [Operation.Phrase] in title case.
func (o Operation) Title() string {
	return titleCaser.String(o.Phrase())
}

// Detail is the body of an error response, served as {"detail": {...}}.
type Detail struct {
	Error            string
	Message          string
	Operation        string
	Identifier       string
	Solution         string
	TechnicalDetails string
	Recommendation   string
	RetryAfter       string
	Extras           map[string]any
}

// Map flattens d into its wire form. Empty fields are omitted and extras are merged last.
func (d Detail) Map() map[string]any {
	m := map[string]any{"error": d.Error, "message": d.Message}
	set := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	set("operation", d.Operation)
	set("identifier", d.Identifier)
	set("solution", d.Solution)
	set("technical_details", d.TechnicalDetails)
	set("recommendation", d.Recommendation)
	set("retry_after", d.RetryAfter)
	for k, v := range d.Extras {
		m[k] = v
	}
	return m
}

func (d Detail) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Map())
}

// Error is a classified failure ready to be written as an HTTP response.
type Error struct {
	Status     int
	Kind       Kind
	Detail     Detail
	RetryAfter time.Duration
	Err        error
}

// New creates an error with the given status, kind and detail title and message.
func New(status int, kind Kind, title, message string) *Error {
	return &Error{Status: status, Kind: kind, Detail: Detail{Error: title, Message: message}}
}

// BadRequest is a 400 for arguments rejected before reaching the upstream.
func BadRequest(op Operation, message string) *Error {
	return New(400, KindInvalidInput, "Invalid input", message).For(op)
}

// NotFound is a 404 with a custom title.
func NotFound(op Operation, title, message string) *Error {
	return New(404, KindNotFound, title, message).For(op)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%d %s: %s", e.Status, e.Detail.Error, e.Detail.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// For stamps the operation name and identifier on the detail.
func (e *Error) For(op Operation) *Error {
	if op.Name != "" && e.Detail.Operation == "" {
		e.Detail.Operation = op.Name
	}
	if op.ID != "" {
		e.Detail.Identifier = op.ID
		if op.IDName != "" {
			e.With(op.IDName, op.ID)
		}
	}
	return e
}

// With adds an extra key to the detail.
func (e *Error) With(key string, value any) *Error {
	if e.Detail.Extras == nil {
		e.Detail.Extras = map[string]any{}
	}
	e.Detail.Extras[key] = value
	return e
}

// Wrap records the underlying cause without changing the response.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

func (e *Error) WithSolution(s string) *Error {
	e.Detail.Solution = s
	return e
}

func (e *Error) WithRecommendation(s string) *Error {
	e.Detail.Recommendation = s
	return e
}

func (e *Error) WithTechnical(s string) *Error {
	e.Detail.TechnicalDetails = s
	return e
}

// WithRetry sets the retry hint; it is rounded up to whole seconds on the wire.
func (e *Error) WithRetry(d time.Duration) *Error {
	e.RetryAfter = d
	if d > 0 {
		e.Detail.RetryAfter = e.RetryAfterSeconds()
	}
	return e
}

// RetryAfterSeconds returns the hint for the Retry-After header, or "" when there is none.
func (e *Error) RetryAfterSeconds() string {
	if e.RetryAfter <= 0 {
		return ""
	}
	secs := int64((e.RetryAfter + time.Second - 1) / time.Second)
	return strconv.FormatInt(secs, 10)
}

// Body returns the response document {"detail": {...}}.
func (e *Error) Body() map[string]any {
	return map[string]any{"detail": e.Detail.Map()}
}

// Level returns the log level for a response status.
func Level(status int) log.Level {
	switch {
	case status >= 500:
		return log.ErrorLevel
	}
	return log.InfoLevel
}

// Log writes e at the level its status calls for.
func Log(logger *log.Logger, e *Error, keyvals ...any) {
	kv := append([]any{
		"status", e.Status,
		"kind", string(e.Kind),
		"operation", e.Detail.Operation,
	}, keyvals...)
	if e.Detail.Identifier != "" {
		kv = append(kv, "identifier", e.Detail.Identifier)
	}
	if e.Err != nil {
		kv = append(kv, "cause", e.Err.Error())
	}
	logger.Log(Level(e.Status), e.Detail.Error, kv...)
}
