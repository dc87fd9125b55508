package client

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when the remote store has no credentials
var ErrNotConfigured = errors.New("remote store not configured")

// ErrorKind classifies a remote store failure
type ErrorKind string

const (
	KindUnreachable   ErrorKind = "unreachable"
	KindUnauthorized  ErrorKind = "unauthorized"
	KindBadStatus     ErrorKind = "bad_status"
	KindMalformedBody ErrorKind = "malformed_body"
)

// StoreError is a failed remote document store call
type StoreError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *StoreError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote store %s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("remote store %s: %v", e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from err, if it is a StoreError
func KindOf(err error) (ErrorKind, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}

func statusError(code int) *StoreError {
	kind := KindBadStatus
	if code == 401 || code == 403 {
		kind = KindUnauthorized
	}
	return &StoreError{Kind: kind, StatusCode: code, Err: fmt.Errorf("unexpected status %d", code)}
}
