// SPDX-License-Identifier: MIT

// Package api serves the admin dashboard over the watched session snapshot
// and proxies admin writes to the remote store.
package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sureshg03/unified-portal/internal/health"
	"github.com/sureshg03/unified-portal/internal/session"
	"github.com/sureshg03/unified-portal/internal/view"
	"github.com/sureshg03/unified-portal/internal/watch"
)

// Store is the slice of the store client the API needs for writes.
type Store interface {
	Create(ctx context.Context, draft session.Draft) (session.Record, error)
	Update(ctx context.Context, id session.ID, patch session.Patch) (session.Record, error)
	Delete(ctx context.Context, id session.ID) error
	Toggle(ctx context.Context, id session.ID) (session.Record, error)
}

// Watcher is the slice of the polling synchronizer the API needs.
type Watcher interface {
	Snapshot() watch.Snapshot
	Refresh(ctx context.Context) error
}

// Server is the dashboard HTTP API.
type Server struct {
	store    Store
	watcher  Watcher
	health   *health.Manager
	notifier *watch.LogNotifier
	pageSize int
	rate     int
	clock    func() time.Time

	// engine holds the shared admin selection state; one dashboard per daemon.
	mu     sync.Mutex
	engine *view.Engine
}

// Option configures the Server.
type Option func(*Server)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.clock = now }
}

// WithNotifier exposes recent notifications at /api/notifications.
func WithNotifier(n *watch.LogNotifier) Option {
	return func(s *Server) { s.notifier = n }
}

// WithRateLimit sets the per-IP request budget per minute. Zero disables
// rate limiting.
func WithRateLimit(n int) Option {
	return func(s *Server) { s.rate = n }
}

// New builds the API server.
func New(st Store, w Watcher, hm *health.Manager, pageSize int, opts ...Option) *Server {
	if pageSize <= 0 {
		pageSize = 10
	}
	s := &Server{
		store:    st,
		watcher:  w,
		health:   hm,
		pageSize: pageSize,
		clock:    time.Now,
		engine:   view.NewEngine(pageSize),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Router assembles the chi router with the daemon's middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger)
	if s.rate > 0 {
		r.Use(rateLimiter(s.rate))
	}

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/sessions", s.handleList)
		r.Get("/sessions/stats", s.handleStats)
		r.Get("/sessions/active", s.handleActive)
		r.Post("/sessions", s.handleCreate)
		r.Put("/sessions/{id}", s.handleUpdate)
		r.Delete("/sessions/{id}", s.handleDelete)
		r.Post("/sessions/{id}/toggle", s.handleToggle)
		r.Post("/sessions/bulk-delete", s.handleBulkDelete)
		r.Post("/refresh", s.handleRefresh)
		if s.notifier != nil {
			r.Get("/notifications", s.handleNotifications)
		}
	})
	return r
}

// parseQuery feeds request parameters through the dashboard engine so the
// page-reset and clamping rules apply to API consumers too.
func (s *Server) parseQuery(r *http.Request) view.Query {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := r.URL.Query()
	if term := q.Get("q"); term != s.engine.Query().Search {
		s.engine.SetSearch(term)
	}
	if f := q.Get("status"); f != "" {
		s.engine.SetStatusFilter(view.Filter(f))
	} else {
		s.engine.SetStatusFilter(view.FilterAll)
	}
	if ps := q.Get("page_size"); ps != "" {
		if n, err := strconv.Atoi(ps); err == nil {
			s.engine.SetPageSize(n)
		}
	}
	if p := q.Get("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			s.engine.SetPage(n)
		}
	}
	return s.engine.Query()
}
