package api

import (
	"errors"
	"fmt"
)

// Kind classifies a failed call so callers can branch without poking at
// raw status codes. Every non-2xx response and every transport failure
// maps to exactly one kind.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindValidation   Kind = "validation"
	KindServer       Kind = "server"
	KindNetwork      Kind = "network"
)

// Error is the single error type raised by the client. Status is zero
// for transport-level failures.
type Error struct {
	Status int
	Kind   Kind
	Detail string
	cause  error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api: %s: %v", e.Kind, e.cause)
	}
	if e.Detail != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, e.Kind, e.Detail)
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Kind)
}

func (e *Error) Unwrap() error { return e.cause }

func kindForStatus(status int) Kind {
	switch {
	case status == 401:
		return KindUnauthorized
	case status == 403:
		return KindForbidden
	case status == 404:
		return KindNotFound
	case status == 409:
		return KindConflict
	case status == 400 || status == 422:
		return KindValidation
	default:
		return KindServer
	}
}

// KindOf extracts the kind from any error in the chain, or "" when the
// error did not come from the API client.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsConflict(err error) bool     { return KindOf(err) == KindConflict }

// IsUnavailable reports failures the demo fallback may recover from:
// the backend is unreachable or broken, rather than rejecting the call.
func IsUnavailable(err error) bool {
	k := KindOf(err)
	return k == KindNetwork || k == KindServer
}
