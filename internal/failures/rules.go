package failures

import (
	"errors"
	"strings"

	"github.com/desertthunder/ytmp/internal/services"
)

// MissingKeyRule maps a parse failure whose missing key contains substr to a 404.
func MissingKeyRule(substr, title, message string) Rule {
	substr = strings.ToLower(substr)
	return func(op Operation, err error) *Error {
		var pe *services.ParseError
		if !errors.As(err, &pe) || !strings.Contains(strings.ToLower(pe.Key), substr) {
			return nil
		}
		return NotFound(op, title, message)
	}
}

// MessageRule maps errors whose lowercased message contains any of substrs.
// Transport failures and upstream 5xx replies fall through to the generic mapping.
func MessageRule(status int, kind Kind, title, message string, substrs ...string) Rule {
	return func(op Operation, err error) *Error {
		if transport(err) {
			return nil
		}
		msg := strings.ToLower(err.Error())
		for _, s := range substrs {
			if strings.Contains(msg, strings.ToLower(s)) {
				return New(status, kind, title, message)
			}
		}
		return nil
	}
}

// ErrorRule maps errors matching target with [errors.Is].
func ErrorRule(target error, status int, kind Kind, title, message string) Rule {
	return func(op Operation, err error) *Error {
		if errors.Is(err, target) {
			return New(status, kind, title, message)
		}
		return nil
	}
}

// NonHeaderParseRule maps parse failures on keys other than a page header.
// Header failures still reach the generic structure-changed mapping.
func NonHeaderParseRule(status int, kind Kind, title, message string) Rule {
	return func(op Operation, err error) *Error {
		if services.IsParseError(err) && !services.IsHeaderParseError(err) {
			return New(status, kind, title, message)
		}
		return nil
	}
}

func transport(err error) bool {
	var (
		httpErr *services.HTTPError
		connErr *services.ConnectionError
		toErr   *services.TimeoutError
	)
	return errors.Is(err, services.ErrCircuitOpen) || errors.As(err, &connErr) || errors.As(err, &toErr) ||
		(errors.As(err, &httpErr) && httpErr.Status >= 500)
}
