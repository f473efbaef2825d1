// SPDX-License-Identifier: MIT

package view

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sureshg03/unified-portal/internal/log"
	"github.com/sureshg03/unified-portal/internal/metrics"
	"github.com/sureshg03/unified-portal/internal/session"
)

// DeletePhase is the bulk-delete confirmation state.
type DeletePhase int

const (
	DeleteIdle DeletePhase = iota
	DeleteConfirmPending
	DeleteRunning
)

// Deleter is the slice of the store client bulk delete needs.
type Deleter interface {
	Delete(ctx context.Context, id session.ID) error
}

// ErrNoSelection is returned when a delete is requested with nothing selected.
var ErrNoSelection = errors.New("view: no sessions selected")

// maxParallelDeletes bounds concurrent delete calls against the store.
const maxParallelDeletes = 4

// RequestDelete moves the engine to confirmation-pending. It fails when the
// selection is empty or a delete is already in flight.
func (e *Engine) RequestDelete() error {
	if e.phase == DeleteRunning {
		return errors.New("view: bulk delete already running")
	}
	if len(e.selected) == 0 {
		return ErrNoSelection
	}
	e.phase = DeleteConfirmPending
	return nil
}

// CancelDelete abandons a pending confirmation; the selection is kept.
func (e *Engine) CancelDelete() {
	if e.phase == DeleteConfirmPending {
		e.phase = DeleteIdle
	}
}

// DeletePhase returns the current confirmation state.
func (e *Engine) DeletePhase() DeletePhase { return e.phase }

// ConfirmDelete deletes the selected records in parallel. On full success
// the selection is cleared. Any partial failure means the local view no
// longer knows which deletes landed, so it re-syncs from the store instead
// of reconciling, and the selection is kept for the caller to inspect.
// resync runs in both outcomes; the store is authoritative after any write.
func (e *Engine) ConfirmDelete(ctx context.Context, deleter Deleter, resync func(context.Context) error) error {
	if e.phase != DeleteConfirmPending {
		return errors.New("view: no delete pending confirmation")
	}
	ids := e.Selected()
	e.phase = DeleteRunning

	err := BulkDelete(ctx, deleter, ids)
	e.phase = DeleteIdle
	if err == nil {
		e.ClearSelection()
	}

	if resync != nil {
		if rerr := resync(ctx); rerr != nil {
			err = errors.Join(err, fmt.Errorf("re-sync after bulk delete: %w", rerr))
		}
	}
	return err
}

// BulkDelete issues one delete per id with bounded parallelism and reports
// the first failure. Callers must treat any error as "state unknown" and
// re-fetch the authoritative list.
func BulkDelete(ctx context.Context, deleter Deleter, ids []session.ID) error {
	if len(ids) == 0 {
		return ErrNoSelection
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDeletes)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := deleter.Delete(gctx, id); err != nil {
				return fmt.Errorf("delete session %s: %w", id, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		metrics.BulkDeleteResync()
		l := log.WithComponentFromContext(ctx, "view")
		l.Warn().
			Err(err).
			Int("requested", len(ids)).
			Str("event", "bulk_delete.partial_failure").
			Msg("bulk delete failed, local state unknown until re-sync")
		return err
	}
	return nil
}
