// SPDX-License-Identifier: MIT

package store

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrNotFound    = errors.New("store: session not found")
	ErrConflict    = errors.New("store: write rejected")
	ErrForbidden   = errors.New("store: access forbidden")
	ErrUnavailable = errors.New("store: host unreachable or transport failure")
	ErrTimeout     = errors.New("store: request timed out")
	ErrUpstream    = errors.New("store: internal error (5xx)")
	ErrBadResponse = errors.New("store: invalid response format or malformed data")
	ErrAuthExpired = errors.New("store: authentication expired")
)

// Error is a rich error type that wraps the sentinel errors with context.
type Error struct {
	Sentinel  error
	Operation string
	Status    int
	Body      string
	Err       error // Nested lower-level error (e.g. net.Error)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("store: %s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Sentinel
}
