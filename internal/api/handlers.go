// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sureshg03/unified-portal/internal/session"
	"github.com/sureshg03/unified-portal/internal/view"
	"github.com/sureshg03/unified-portal/internal/watch"
)

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := s.parseQuery(r)
	snap := s.watcher.Snapshot()
	page := view.Apply(snap.Records, s.clock(), q)
	writeJSON(w, http.StatusOK, struct {
		view.Page
		LastRefresh string `json:"last_refresh,omitempty"`
	}{Page: page, LastRefresh: lastRefresh(snap)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.watcher.Snapshot()
	writeJSON(w, http.StatusOK, session.Collect(snap.Records, s.clock()))
}

// handleActive lists the sessions currently open and still accepting
// applications, the student-facing slice of the snapshot.
func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	now := s.clock()
	snap := s.watcher.Snapshot()
	type activeSession struct {
		Record        session.Record `json:"record"`
		DaysRemaining int            `json:"days_remaining"`
		Accepting     bool           `json:"can_accept_applications"`
	}
	out := make([]activeSession, 0)
	for _, rec := range snap.Records {
		if session.Resolve(rec, now) != session.StatusOpen {
			continue
		}
		out = append(out, activeSession{
			Record:        rec,
			DaysRemaining: session.DaysRemaining(rec, now),
			Accepting:     session.CanAcceptApplications(rec, now),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var draft session.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if err := draft.Validate(); err != nil {
		writeError(w, err)
		return
	}
	rec, err := s.store.Create(r.Context(), draft)
	if err != nil {
		writeError(w, err)
		return
	}
	s.resync(r)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := session.ID(chi.URLParam(r, "id"))
	current, ok := s.currentRecord(id)
	if !ok {
		writeNotFound(w)
		return
	}

	var patch session.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if err := patch.Validate(current); err != nil {
		writeError(w, err)
		return
	}
	rec, err := s.store.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	s.resync(r)
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := session.ID(chi.URLParam(r, "id"))
	if err := s.store.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.resync(r)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id := session.ID(chi.URLParam(r, "id"))
	rec, err := s.store.Toggle(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	s.resync(r)
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []session.ID `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	deleter, ok := s.store.(view.Deleter)
	if !ok {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "bulk delete unsupported"})
		return
	}

	err := view.BulkDelete(r.Context(), deleter, body.IDs)
	// Any write, partial or complete, invalidates the local cache.
	s.resync(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": len(body.IDs)})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.watcher.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	snap := s.watcher.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions":     len(snap.Records),
		"last_refresh": lastRefresh(snap),
	})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.notifier.Recent())
}

// currentRecord looks an id up in the watched snapshot.
func (s *Server) currentRecord(id session.ID) (session.Record, bool) {
	for _, rec := range s.watcher.Snapshot().Records {
		if rec.ID == id {
			return rec, true
		}
	}
	return session.Record{}, false
}

// resync refreshes the watched snapshot after a write so the dashboard
// reflects the store's authority, not the local cache's guess.
func (s *Server) resync(r *http.Request) {
	_ = s.watcher.Refresh(r.Context())
}

func lastRefresh(snap watch.Snapshot) string {
	if snap.LastRun.IsZero() {
		return ""
	}
	return snap.LastRun.UTC().Format(time.RFC3339)
}
