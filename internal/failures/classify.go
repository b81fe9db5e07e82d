package failures

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/ytmp/internal/services"
)

// Rule inspects an error before the generic mapping and returns nil when it does not apply.
type Rule func(op Operation, err error) *Error

const (
	// RateLimitRetry is the retry hint sent with 429 responses.
	RateLimitRetry = 60 * time.Second

	// BreakerRetry is the retry hint for a breaker rejection that does not carry its cool-down.
	BreakerRetry = 60 * time.Second
)

var keywordClasses = []struct {
	words []string
	build func(op Operation, err error) *Error
}{
	{
		words: []string{"auth", "login", "unauthorized", "credentials"},
		build: func(op Operation, _ error) *Error {
			return New(http.StatusUnauthorized, KindAuthRequired, "Authentication required",
				"Authentication required to access "+op.Phrase())
		},
	},
	{
		words: []string{"not found", "unavailable", "does not exist"},
		build: func(op Operation, _ error) *Error {
			msg := op.Title() + " not found"
			if op.ID != "" {
				msg = "Content with ID " + op.ID + " not found or unavailable"
			}
			return New(http.StatusNotFound, KindNotFound, "Not found", msg)
		},
	},
	{
		words: []string{"permission", "forbidden", "access denied"},
		build: func(op Operation, _ error) *Error {
			return New(http.StatusForbidden, KindForbidden, "Access forbidden",
				"You don't have permission to access "+op.Phrase())
		},
	},
	{
		words: []string{"quota", "limit", "rate", "too many requests"},
		build: func(Operation, error) *Error {
			return New(http.StatusTooManyRequests, KindRateLimited, "Rate limit exceeded",
				"API rate limit exceeded. Please try again later.").WithRetry(RateLimitRetry)
		},
	},
	{
		words: []string{"invalid", "format", "unsupported", "malformed"},
		build: func(_ Operation, err error) *Error {
			return New(http.StatusBadRequest, KindInvalidInput, "Invalid input",
				"Invalid input provided: "+err.Error())
		},
	},
}

// Classify maps err to an [Error]. Rules on op run first; the first non-nil result wins.
func Classify(op Operation, err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	for _, rule := range op.Rules {
		if e := rule(op, err); e != nil {
			return e.For(op).Wrap(err)
		}
	}
	return generic(op, err).For(op).Wrap(err)
}

func generic(op Operation, err error) *Error {
	var (
		parseErr *services.ParseError
		inputErr *services.InputError
		toErr    *services.TimeoutError
		connErr  *services.ConnectionError
		httpErr  *services.HTTPError
	)
	switch {
	case errors.Is(err, services.ErrCircuitOpen):
		return New(http.StatusServiceUnavailable, KindUnavailable, "Service temporarily unavailable",
			"YouTube Music is failing repeatedly; requests are paused while it recovers.").
			WithRetry(breakerRetry(err)).
			WithRecommendation("Retry after the indicated delay")

	case errors.As(err, &parseErr):
		return StructureChanged(op, parseErr)

	case errors.As(err, &inputErr):
		return New(http.StatusBadRequest, KindInvalidInput, "Invalid input",
			"Invalid parameter provided: "+inputErr.Error())

	case errors.As(err, &toErr), errors.Is(err, context.DeadlineExceeded):
		return New(http.StatusGatewayTimeout, KindTimeout, "Request timeout",
			"Request to YouTube Music timed out. Please try again.")

	case errors.Is(err, context.Canceled):
		return New(http.StatusGatewayTimeout, KindTimeout, "Request cancelled",
			"The request was cancelled before YouTube Music responded.")

	case errors.As(err, &connErr):
		return New(http.StatusServiceUnavailable, KindConnection, "Connection failed",
			"Unable to connect to YouTube Music. Please check your internet connection.")

	case errors.As(err, &httpErr) && httpErr.Status >= 500:
		return New(http.StatusServiceUnavailable, KindUnavailable, "YouTube Music API error",
			"YouTube Music returned a server error. Please try again later.").
			WithTechnical(httpErr.Error())
	}

	msg := strings.ToLower(err.Error())
	for _, class := range keywordClasses {
		for _, w := range class.words {
			if strings.Contains(msg, w) {
				return class.build(op, err)
			}
		}
	}
	return New(http.StatusInternalServerError, KindInternal, "Internal server error",
		"An unexpected error occurred while "+op.Phrase())
}

// breakerRetry is how long the rejecting breaker stays open.
func breakerRetry(err error) time.Duration {
	var open *services.CircuitOpenError
	if errors.As(err, &open) && open.Cooldown > 0 {
		return open.Cooldown
	}
	return BreakerRetry
}

// StructureChanged is the 503 for a missing upstream key. Header keys get the
// "API structure changed" variant with a suggested workaround.
func StructureChanged(op Operation, pe *services.ParseError) *Error {
	if services.IsHeaderParseError(pe) {
		return New(http.StatusServiceUnavailable, KindStructureChanged, "API structure changed",
			"YouTube Music changed their response structure. This is a known issue that occurs when YouTube updates their API.").
			WithSolution("Try again later or use simpler search parameters").
			WithTechnical(pe.Error())
	}
	return New(http.StatusServiceUnavailable, KindStructureChanged, "API parsing error",
		"YouTube Music API structure has changed, "+op.Phrase()+" temporarily unavailable").
		WithTechnical(pe.Error())
}
