// SPDX-License-Identifier: MIT

// Package health provides liveness and readiness checks for the daemon.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sureshg03/unified-portal/internal/log"
)

// Status represents the overall health/readiness status.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a component health check.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Response is the full health or readiness payload.
type Response struct {
	Status    Status                 `json:"status"`
	Ready     bool                   `json:"ready"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker defines the interface for health checks.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager runs registered checkers and serves probe endpoints.
type Manager struct {
	checkers []Checker
}

// NewManager creates a health check manager.
func NewManager() *Manager {
	return &Manager{}
}

// RegisterChecker adds a checker to the manager.
func (m *Manager) RegisterChecker(c Checker) {
	m.checkers = append(m.checkers, c)
}

func (m *Manager) evaluate(ctx context.Context) Response {
	resp := Response{Status: StatusHealthy, Ready: true, Timestamp: time.Now()}
	if len(m.checkers) == 0 {
		return resp
	}
	resp.Checks = make(map[string]CheckResult, len(m.checkers))
	for _, c := range m.checkers {
		result := c.Check(ctx)
		resp.Checks[c.Name()] = result
		switch result.Status {
		case StatusUnhealthy:
			resp.Status = StatusUnhealthy
			resp.Ready = false
		case StatusDegraded:
			if resp.Status != StatusUnhealthy {
				resp.Status = StatusDegraded
			}
		}
	}
	return resp
}

// ServeHealth handles liveness probes. It always returns 200: the process
// is alive regardless of upstream state.
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	resp := m.evaluate(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		l := log.WithComponentFromContext(r.Context(), "health")
		l.Error().
			Err(err).
			Str("event", "health.encode_error").
			Msg("failed to encode health response")
	}
}

// ServeReady handles readiness probes. Unready components yield 503.
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	resp := m.evaluate(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if resp.Ready {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		l := log.WithComponentFromContext(r.Context(), "readiness")
		l.Error().
			Err(err).
			Str("event", "readiness.encode_error").
			Msg("failed to encode readiness response")
	}
}

// LastPollChecker verifies that the watcher applied a poll recently.
type LastPollChecker struct {
	getLastRun func() (time.Time, string)
	maxAge     time.Duration
}

// NewLastPollChecker builds a checker over the watcher's last-run state.
// A last successful apply older than maxAge degrades readiness.
func NewLastPollChecker(getLastRun func() (time.Time, string), maxAge time.Duration) *LastPollChecker {
	if maxAge <= 0 {
		maxAge = time.Minute
	}
	return &LastPollChecker{getLastRun: getLastRun, maxAge: maxAge}
}

func (c *LastPollChecker) Name() string { return "last_poll" }

func (c *LastPollChecker) Check(ctx context.Context) CheckResult {
	lastRun, lastErr := c.getLastRun()
	if lastRun.IsZero() {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "no successful poll yet",
			Error:   lastErr,
		}
	}
	if age := time.Since(lastRun); age > c.maxAge {
		return CheckResult{
			Status:  StatusDegraded,
			Message: "last successful poll is stale",
			Error:   lastErr,
		}
	}
	return CheckResult{Status: StatusHealthy, Message: "polling"}
}

// StoreChecker probes the remote store. An unreachable store degrades
// readiness rather than failing it; the daemon keeps serving its cached
// snapshot.
type StoreChecker struct {
	ping    func(ctx context.Context) error
	timeout time.Duration
}

// NewStoreChecker builds a checker around a ping function, typically a
// bounded List call against the store.
func NewStoreChecker(ping func(ctx context.Context) error, timeout time.Duration) *StoreChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &StoreChecker{ping: ping, timeout: timeout}
}

func (c *StoreChecker) Name() string { return "session_store" }

func (c *StoreChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.ping(ctx); err != nil {
		return CheckResult{
			Status:  StatusDegraded,
			Message: "store unreachable, serving cached snapshot",
			Error:   err.Error(),
		}
	}
	return CheckResult{Status: StatusHealthy, Message: "store reachable"}
}
