// SPDX-License-Identifier: MIT

// Package watch keeps a resolved view of the remote session store fresh.
//
// A Watcher polls on a fixed interval that is never reset by in-flight
// requests, so polls may overlap. Every dispatched fetch carries a
// monotonically increasing sequence number and a response is applied only if
// its sequence exceeds the highest applied so far; superseded responses are
// discarded. Silent polls that change a previously observed effective status
// emit a Change to the configured Notifier.
package watch

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sureshg03/unified-portal/internal/log"
	"github.com/sureshg03/unified-portal/internal/metrics"
	"github.com/sureshg03/unified-portal/internal/session"
)

// Mode distinguishes user-visible fetches from background ones. Interactive
// fetch errors surface to the caller; silent fetch errors are logged and the
// watcher simply waits for the next tick. Only silent fetches drive
// notifications, since the acting user already knows what they changed.
type Mode int

const (
	ModeInteractive Mode = iota
	ModeSilent
)

func (m Mode) String() string {
	if m == ModeSilent {
		return "silent"
	}
	return "interactive"
}

// State is the watcher's position in its fetch cycle. With overlapping polls
// it reflects the most recent transition.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateApplying
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateApplying:
		return "applying"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Lister is the slice of the store client the watcher needs.
type Lister interface {
	List(ctx context.Context) ([]session.Record, error)
}

// Change describes one observed effective-status transition.
type Change struct {
	Previous session.Status
	New      session.Status
	Record   session.Record
}

// Notifier receives status-change notifications.
type Notifier interface {
	StatusChanged(Change)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Change)

func (f NotifierFunc) StatusChanged(c Change) { f(c) }

// Snapshot is a copy of the watcher's current view.
type Snapshot struct {
	Records   []session.Record
	Statuses  map[session.ID]session.Status
	LastRun   time.Time
	LastError string
	Seq       uint64
}

// ErrStopped is returned by Refresh after Stop.
var ErrStopped = errors.New("watch: watcher stopped")

// Watcher owns one polling loop over the session store.
type Watcher struct {
	store    Lister
	notifier Notifier
	interval time.Duration
	clock    func() time.Time
	wakeLim  *rate.Limiter

	mu       sync.Mutex
	state    State
	nextSeq  uint64
	applied  uint64
	records  []session.Record
	statuses map[session.ID]session.Status
	lastRun  time.Time
	lastErr  string
	stopped  bool
	started  bool

	cancel context.CancelFunc
	done   chan struct{}
	wakeCh chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithInterval sets the poll period. The timer is fixed; it does not stretch
// for slow fetches.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) { w.interval = d }
}

// WithNotifier sets the status-change subscriber.
func WithNotifier(n Notifier) Option {
	return func(w *Watcher) { w.notifier = n }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) { w.clock = now }
}

// WithWakeLimit bounds how often Wake may trigger an extra silent poll.
// Visibility and focus events tend to arrive in pairs.
func WithWakeLimit(l *rate.Limiter) Option {
	return func(w *Watcher) { w.wakeLim = l }
}

// New builds a watcher over the given store slice.
func New(store Lister, opts ...Option) *Watcher {
	w := &Watcher{
		store:    store,
		interval: 5 * time.Second,
		clock:    time.Now,
		wakeLim:  rate.NewLimiter(rate.Every(time.Second), 1),
		statuses: make(map[session.ID]session.Status),
		wakeCh:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Start issues the first, interactive fetch and starts the polling loop.
// The loop runs even when the first fetch fails; the error is returned so
// the caller can surface it.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started || w.stopped {
		w.mu.Unlock()
		return errors.New("watch: watcher already started")
	}
	w.started = true
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.mu.Unlock()

	go w.run(runCtx)

	seq := w.claim()
	return w.fetch(runCtx, seq, ModeInteractive)
}

// Refresh performs a manual, interactive fetch.
func (w *Watcher) Refresh(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return ErrStopped
	}
	w.mu.Unlock()
	seq := w.claim()
	return w.fetch(ctx, seq, ModeInteractive)
}

// Wake requests an immediate silent poll, the analogue of a dashboard tab
// regaining visibility or focus. Requests are coalesced through the wake
// limiter and dropped when one is already pending.
func (w *Watcher) Wake() {
	if !w.wakeLim.Allow() {
		return
	}
	select {
	case w.wakeCh <- struct{}{}:
	default:
	}
}

// Stop halts the loop. No fetch dispatched before or during Stop will apply
// its result afterwards.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	cancel := w.cancel
	started := w.started
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if started {
		<-w.done
	} else {
		close(w.done)
	}
}

// Snapshot returns a copy of the current view.
func (w *Watcher) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	records := make([]session.Record, len(w.records))
	copy(records, w.records)
	statuses := make(map[session.ID]session.Status, len(w.statuses))
	for id, st := range w.statuses {
		statuses[id] = st
	}
	return Snapshot{
		Records:   records,
		Statuses:  statuses,
		LastRun:   w.lastRun,
		LastError: w.lastErr,
		Seq:       w.applied,
	}
}

// State reports the most recent cycle state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// LastRun reports the last successful apply time and the last fetch error,
// for readiness checks.
func (w *Watcher) LastRun() (time.Time, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastRun, w.lastErr
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.dispatchSilent(ctx)
		case <-w.wakeCh:
			w.dispatchSilent(ctx)
		}
	}
}

// dispatchSilent claims the next sequence and fetches in the background so a
// slow store never blocks the tick loop.
func (w *Watcher) dispatchSilent(ctx context.Context) {
	seq := w.claim()
	go func() {
		_ = w.fetch(ctx, seq, ModeSilent)
	}()
}

func (w *Watcher) claim() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextSeq++
	w.state = StateFetching
	return w.nextSeq
}

func (w *Watcher) fetch(ctx context.Context, seq uint64, mode Mode) error {
	logger := log.WithComponentFromContext(ctx, "watch")

	records, err := w.store.List(ctx)
	if err != nil {
		metrics.Refresh(mode.String(), "failure")
		w.fail(seq, err)
		if mode == ModeSilent {
			logger.Warn().
				Err(err).
				Str("event", "poll.silent_failure").
				Uint64("seq", seq).
				Msg("silent poll failed, waiting for next tick")
			return nil
		}
		return err
	}

	applied, changes := w.apply(seq, mode, records)
	if !applied {
		metrics.StaleResponseDiscarded()
		logger.Debug().
			Str("event", "poll.stale_discarded").
			Uint64("seq", seq).
			Msg("discarding superseded poll response")
		return nil
	}

	metrics.Refresh(mode.String(), "success")
	logger.Debug().
		Str("event", "poll.applied").
		Uint64("seq", seq).
		Str("mode", mode.String()).
		Int("sessions", len(records)).
		Msg("poll applied")

	for _, c := range changes {
		metrics.StatusTransition(string(c.Previous), string(c.New))
		metrics.NotificationEmitted()
		if w.notifier != nil {
			w.notifier.StatusChanged(c)
		}
	}
	return nil
}

// apply installs a fetched snapshot if it is still the newest. It returns
// the silent-mode status changes to notify; a record seen for the first
// time never produces a change.
func (w *Watcher) apply(seq uint64, mode Mode, records []session.Record) (bool, []Change) {
	now := w.clock()

	w.mu.Lock()
	if w.stopped || seq <= w.applied {
		w.mu.Unlock()
		return false, nil
	}
	w.state = StateApplying

	statuses := make(map[session.ID]session.Status, len(records))
	var changes []Change
	for _, r := range records {
		st := session.Resolve(r, now)
		statuses[r.ID] = st
		if mode == ModeSilent {
			if prev, seen := w.statuses[r.ID]; seen && prev != st {
				changes = append(changes, Change{Previous: prev, New: st, Record: r})
			}
		}
	}

	w.applied = seq
	w.records = records
	w.statuses = statuses
	w.lastRun = now
	w.lastErr = ""
	w.state = StateIdle
	w.mu.Unlock()

	counts := make(map[string]int, 4)
	for _, st := range statuses {
		counts[string(st)]++
	}
	metrics.SetSessions(counts)

	return true, changes
}

// fail records a fetch failure unless a newer poll has already applied.
func (w *Watcher) fail(seq uint64, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped || seq <= w.applied {
		return
	}
	w.state = StateFailed
	w.lastErr = err.Error()
}
