package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

var (
	// ErrAuthRequired is returned by operations that need credentials when none are loaded.
	ErrAuthRequired = errors.New("please provide authentication before using this function")

	// ErrUnavailable marks content the upstream reports as missing or unplayable.
	ErrUnavailable = errors.New("content unavailable")

	// ErrCircuitOpen is returned while the upstream breaker rejects calls.
	ErrCircuitOpen = errors.New("upstream circuit open")
)

// ParseError reports a key that was expected in an upstream document but is missing.
//
// This is the shape produced whenever YouTube Music changes its response layout.
type ParseError struct {
	Key  string // first missing key or index
	Path string // full path that was being navigated
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("'%s' (path %s)", e.Key, e.Path)
}

// InputError reports an argument the upstream would reject.
type InputError struct {
	Param  string
	Reason string
}

func (e *InputError) Error() string {
	if e.Param == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

// HTTPError is a non-2xx reply from the upstream API.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("Server returned HTTP %d: %s.", e.Status, http.StatusText(e.Status))
	if e.Message != "" {
		msg += "\n" + e.Message
	}
	return msg
}

// ConnectionError wraps a transport failure before a response was received.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string { return "connection failed: " + e.Err.Error() }
func (e *ConnectionError) Unwrap() error { return e.Err }

// TimeoutError wraps a deadline or network timeout.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string { return "request timed out: " + e.Err.Error() }
func (e *TimeoutError) Unwrap() error { return e.Err }

func inputErr(param, format string, args ...any) error {
	return &InputError{Param: param, Reason: fmt.Sprintf(format, args...)}
}

// IsParseError reports whether err is, or wraps, a [ParseError].
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsHeaderParseError reports whether err is a [ParseError] on a page header.
func IsHeaderParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) && strings.Contains(strings.ToLower(pe.Key), "header")
}

// classifyTransport converts errors from [http.Client.Do] into the package error types.
func classifyTransport(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return &TimeoutError{Err: err}
	default:
		return &ConnectionError{Err: err}
	}
}

// breakerFailure reports whether err should count against the circuit breaker.
//
// Only transport failures and upstream 5xx replies do; a 4xx or a parse failure
// means the upstream is reachable and answering.
func breakerFailure(err error) bool {
	if err == nil {
		return false
	}
	var (
		connErr *ConnectionError
		toErr   *TimeoutError
		httpErr *HTTPError
	)
	switch {
	case errors.As(err, &connErr), errors.As(err, &toErr):
		return true
	case errors.As(err, &httpErr):
		return httpErr.Status >= 500
	}
	return false
}

// CircuitOpenError is a call the breaker rejected. It matches [ErrCircuitOpen].
type CircuitOpenError struct {
	Cooldown time.Duration // how long the breaker stays open before probing again
	Err      error
}

func (e *CircuitOpenError) Error() string   { return ErrCircuitOpen.Error() + ": " + e.Err.Error() }
func (e *CircuitOpenError) Unwrap() []error { return []error{ErrCircuitOpen, e.Err} }

// fromBreaker maps gobreaker rejections to [CircuitOpenError].
func fromBreaker(err error, cooldown time.Duration) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &CircuitOpenError{Cooldown: cooldown, Err: err}
	}
	return err
}
