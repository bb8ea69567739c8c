// Package errs defines the closed set of failure kinds the service produces.
// The HTTP boundary maps kinds to status codes; inner packages never emit a
// wire format.
package errs

import (
	"errors"
	"fmt"
)

// Kind discriminates the failure classes.
type Kind string

const (
	KindProviderFetch   Kind = "PROVIDER_FETCH_ERROR"
	KindBusConnection   Kind = "BUS_CONNECTION_ERROR"
	KindCacheConnection Kind = "CACHE_CONNECTION_ERROR"
	KindCacheRead       Kind = "CACHE_READ_ERROR"
	KindMatching        Kind = "MATCHING_ERROR"
	KindValidation      Kind = "VALIDATION_ERROR"
)

// Error is a tagged failure carrying the operation that produced it and the
// wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps cause as a tagged error.
func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Newf creates a tagged error from a format string, with no wrapped cause.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from err, unwrapping as needed.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
