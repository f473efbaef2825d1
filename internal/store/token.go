// SPDX-License-Identifier: MIT

package store

import "context"

// TokenSource supplies the opaque bearer credential attached to every store
// call. Refresh is invoked at most once per request, after a 401; the
// refreshed token is used for a single retry.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource backed by a fixed credential. It cannot be
// refreshed; a 401 with a static token is terminal.
type StaticToken string

func (t StaticToken) Token(ctx context.Context) (string, error) {
	return string(t), nil
}

func (t StaticToken) Refresh(ctx context.Context) (string, error) {
	return "", ErrAuthExpired
}
