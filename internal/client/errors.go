package client

import (
	"errors"
	"fmt"
)

// AuthKind classifies an authorization failure
type AuthKind int

const (
	// Unauthorized is an HTTP 401: no usable credentials
	Unauthorized AuthKind = iota + 1
	// Forbidden is an HTTP 403: credentials lack permission
	Forbidden
)

func (k AuthKind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

var (
	// ErrUnauthorized matches any 401 AuthError via errors.Is
	ErrUnauthorized = errors.New("401 Unauthorized")
	// ErrForbidden matches any 403 AuthError via errors.Is
	ErrForbidden = errors.New("403 Forbidden")
	// ErrNotJSON is returned when decoding a text result
	ErrNotJSON = errors.New("response body is not JSON")
)

// AuthError is returned by Perform for 401 and 403 responses
type AuthError struct {
	Kind   AuthKind
	Method string
	Path   string
}

func (e *AuthError) Error() string {
	return e.Unwrap().Error()
}

// Unwrap exposes the sentinel for the error kind
func (e *AuthError) Unwrap() error {
	if e.Kind == Forbidden {
		return ErrForbidden
	}
	return ErrUnauthorized
}

// NetworkError wraps transport and body read failures
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
