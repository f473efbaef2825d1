// SPDX-License-Identifier: MIT
package view

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sureshg03/unified-portal/internal/session"
)

type fakeDeleter struct {
	mu      sync.Mutex
	deleted []session.ID
	failOn  map[session.ID]error
}

func (f *fakeDeleter) Delete(ctx context.Context, id session.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failOn[id]; ok {
		return err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeDeleter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deleted)
}

func TestBulkDelete(t *testing.T) {
	d := &fakeDeleter{}
	require.NoError(t, BulkDelete(context.Background(), d, []session.ID{"1", "2", "3"}))
	assert.Equal(t, 3, d.count())
}

func TestBulkDeleteEmpty(t *testing.T) {
	assert.ErrorIs(t, BulkDelete(context.Background(), &fakeDeleter{}, nil), ErrNoSelection)
}

func TestBulkDeletePartialFailure(t *testing.T) {
	boom := errors.New("store rejected delete")
	d := &fakeDeleter{failOn: map[session.ID]error{"2": boom}}

	err := BulkDelete(context.Background(), d, []session.ID{"1", "2", "3"})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "delete session 2")
}

func TestRequestDeleteFlow(t *testing.T) {
	e := NewEngine(10)

	assert.ErrorIs(t, e.RequestDelete(), ErrNoSelection)
	assert.Equal(t, DeleteIdle, e.DeletePhase())

	e.ToggleSelect("1")
	require.NoError(t, e.RequestDelete())
	assert.Equal(t, DeleteConfirmPending, e.DeletePhase())

	// Cancelling keeps the selection for a second attempt.
	e.CancelDelete()
	assert.Equal(t, DeleteIdle, e.DeletePhase())
	assert.True(t, e.IsSelected("1"))
}

func TestDeselectingLastClearsPendingConfirmation(t *testing.T) {
	e := NewEngine(10)
	e.ToggleSelect("1")
	require.NoError(t, e.RequestDelete())

	e.ToggleSelect("1")
	assert.Equal(t, DeleteIdle, e.DeletePhase())
}

func TestConfirmDeleteSuccess(t *testing.T) {
	e := NewEngine(10)
	e.ToggleSelect("1")
	e.ToggleSelect("2")
	require.NoError(t, e.RequestDelete())

	d := &fakeDeleter{}
	var resyncs int
	err := e.ConfirmDelete(context.Background(), d, func(context.Context) error {
		resyncs++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, d.count())
	assert.Equal(t, 1, resyncs)
	assert.Empty(t, e.Selected())
	assert.Equal(t, DeleteIdle, e.DeletePhase())
}

func TestConfirmDeleteWithoutPending(t *testing.T) {
	e := NewEngine(10)
	e.ToggleSelect("1")
	assert.Error(t, e.ConfirmDelete(context.Background(), &fakeDeleter{}, nil))
}

func TestConfirmDeletePartialFailure(t *testing.T) {
	e := NewEngine(10)
	e.ToggleSelect("1")
	e.ToggleSelect("2")
	require.NoError(t, e.RequestDelete())

	boom := errors.New("store rejected delete")
	d := &fakeDeleter{failOn: map[session.ID]error{"2": boom}}
	var resyncs int
	err := e.ConfirmDelete(context.Background(), d, func(context.Context) error {
		resyncs++
		return nil
	})
	require.ErrorIs(t, err, boom)

	// Partial failure: the store is re-synced and the selection is kept so
	// the operator can see what was requested.
	assert.Equal(t, 1, resyncs)
	assert.Equal(t, []session.ID{"1", "2"}, e.Selected())
	assert.Equal(t, DeleteIdle, e.DeletePhase())
}

func TestConfirmDeleteResyncFailureJoined(t *testing.T) {
	e := NewEngine(10)
	e.ToggleSelect("1")
	require.NoError(t, e.RequestDelete())

	rerr := errors.New("refresh failed")
	err := e.ConfirmDelete(context.Background(), &fakeDeleter{}, func(context.Context) error {
		return rerr
	})
	require.ErrorIs(t, err, rerr)
	// The deletes themselves landed; the selection is still cleared.
	assert.Empty(t, e.Selected())
}
