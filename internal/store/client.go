// SPDX-License-Identifier: MIT

// Package store is the client for the remote admission-session store. It
// wraps the five wire operations and classifies failures; retry policy lives
// with the caller, except for the single refresh-and-retry on a 401.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sureshg03/unified-portal/internal/metrics"
	"github.com/sureshg03/unified-portal/internal/session"
)

// Client talks to the remote session store. All writes are last-write-wins;
// the caller must not treat its cached records as authoritative afterwards.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTokenSource attaches bearer authentication to every call.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// New builds a client for the store at base, e.g. "https://portal.example/api".
func New(base string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// List fetches every session record.
func (c *Client) List(ctx context.Context) ([]session.Record, error) {
	var out []session.Record
	if err := c.do(ctx, http.MethodGet, "/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create submits a validated draft and returns the stored record.
func (c *Client) Create(ctx context.Context, draft session.Draft) (session.Record, error) {
	if err := draft.Validate(); err != nil {
		return session.Record{}, err
	}
	var out session.Record
	if err := c.do(ctx, http.MethodPost, "/sessions", draft, &out); err != nil {
		return session.Record{}, err
	}
	return out, nil
}

// Update applies a partial update to the record with the given id.
func (c *Client) Update(ctx context.Context, id session.ID, patch session.Patch) (session.Record, error) {
	var out session.Record
	if err := c.do(ctx, http.MethodPut, "/sessions/"+url.PathEscape(string(id)), patch, &out); err != nil {
		return session.Record{}, err
	}
	return out, nil
}

// Delete removes the record with the given id.
func (c *Client) Delete(ctx context.Context, id session.ID) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(string(id)), nil, nil)
}

// Toggle flips the manual override server-side: an OPEN session becomes
// forced closed, anything else becomes forced open. The store enforces its
// own date guards and may reject the flip.
func (c *Client) Toggle(ctx context.Context, id session.ID) (session.Record, error) {
	var envelope struct {
		Message string         `json:"message"`
		Data    session.Record `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(string(id))+"/toggle", nil, &envelope); err != nil {
		return session.Record{}, err
	}
	return envelope.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("store: encode %s: %w", op, err)
		}
	}

	res, err := c.send(ctx, method, path, payload, "")
	if err != nil {
		metrics.StoreRequest(method, "transport_error")
		return c.classifyTransport(op, err)
	}

	if res.StatusCode == http.StatusUnauthorized && c.tokens != nil {
		drain(res)
		token, rerr := c.tokens.Refresh(ctx)
		if rerr != nil {
			metrics.StoreRequest(method, "auth_expired")
			return &Error{Sentinel: ErrAuthExpired, Operation: op, Status: res.StatusCode, Err: rerr}
		}
		res, err = c.send(ctx, method, path, payload, token)
		if err != nil {
			metrics.StoreRequest(method, "transport_error")
			return c.classifyTransport(op, err)
		}
	}
	defer drain(res)

	if err := classifyStatus(op, res); err != nil {
		metrics.StoreRequest(method, "rejected")
		return err
	}

	if out != nil && res.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			metrics.StoreRequest(method, "bad_response")
			return &Error{Sentinel: ErrBadResponse, Operation: op, Status: res.StatusCode, Err: err}
		}
	}
	metrics.StoreRequest(method, "success")
	return nil
}

// send issues one HTTP request. An explicit token overrides the token
// source; it carries the refreshed credential on the retry leg.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token == "" && c.tokens != nil {
		token, err = c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.http.Do(req)
}

func (c *Client) classifyTransport(op string, err error) error {
	sentinel := ErrUnavailable
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		sentinel = ErrTimeout
	}
	return &Error{Sentinel: sentinel, Operation: op, Err: err}
}

func classifyStatus(op string, res *http.Response) error {
	switch {
	case res.StatusCode < 300:
		return nil
	case res.StatusCode == http.StatusUnauthorized:
		return &Error{Sentinel: ErrAuthExpired, Operation: op, Status: res.StatusCode}
	case res.StatusCode == http.StatusForbidden:
		return &Error{Sentinel: ErrForbidden, Operation: op, Status: res.StatusCode}
	case res.StatusCode == http.StatusNotFound:
		return &Error{Sentinel: ErrNotFound, Operation: op, Status: res.StatusCode}
	case res.StatusCode >= 500:
		return &Error{Sentinel: ErrUpstream, Operation: op, Status: res.StatusCode, Body: readBody(res)}
	default:
		// 4xx from the store on a write is its authority; surfaced verbatim.
		return &Error{Sentinel: ErrConflict, Operation: op, Status: res.StatusCode, Body: readBody(res)}
	}
}

// readBody returns a short excerpt of the response body for error context.
func readBody(res *http.Response) string {
	b, err := io.ReadAll(io.LimitReader(res.Body, 512))
	if err != nil {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if jerr := json.Unmarshal(b, &payload); jerr == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(b))
}

func drain(res *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
	_ = res.Body.Close()
}
