package api

import (
	"errors"
	"fmt"
)

// Kind classifies a failed API call.
type Kind string

const (
	// KindRequest means the request could not be built or encoded.
	KindRequest Kind = "request"
	// KindTransport means the backend was unreachable or the connection broke.
	KindTransport Kind = "transport"
	// KindStatus means the backend answered with a non-2xx status.
	KindStatus Kind = "status"
	// KindRejected means the backend answered 2xx with success=false.
	KindRejected Kind = "rejected"
	// KindDecode means the response body could not be decoded.
	KindDecode Kind = "decode"
)

// Error is returned by every Client method.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		if e.Message != "" {
			return fmt.Sprintf("api %s returned status %d: %s", e.Op, e.StatusCode, e.Message)
		}
		return fmt.Sprintf("api %s returned status %d", e.Op, e.StatusCode)
	case KindRejected:
		return fmt.Sprintf("api %s rejected: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("api %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("api %s: %s", e.Op, e.Kind)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Kind == kind
}
