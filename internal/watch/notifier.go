// SPDX-License-Identifier: MIT

package watch

import (
	"sync"

	"github.com/google/uuid"

	"github.com/sureshg03/unified-portal/internal/log"
	"github.com/sureshg03/unified-portal/internal/session"
)

// Notification is a delivered status change with an identifier, suitable for
// dashboards that list recent changes.
type Notification struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Previous session.Status `json:"previous_status"`
	New      session.Status `json:"new_status"`
	Code     string         `json:"admission_code"`
	Year     string         `json:"admission_year"`
}

// LogNotifier logs every status change and retains the most recent ones in a
// fixed-size ring.
type LogNotifier struct {
	mu     sync.Mutex
	recent []Notification
	limit  int
}

// NewLogNotifier retains up to limit recent notifications.
func NewLogNotifier(limit int) *LogNotifier {
	if limit <= 0 {
		limit = 20
	}
	return &LogNotifier{limit: limit}
}

func (n *LogNotifier) StatusChanged(c Change) {
	note := Notification{
		ID:       uuid.NewString(),
		Previous: c.Previous,
		New:      c.New,
		Code:     c.Record.Code,
		Year:     c.Record.Year,
	}
	if c.New == session.StatusOpen {
		note.Title = "Applications Now Open"
		note.Body = "Applications for " + c.Record.Year + " are now accepting submissions."
	} else {
		note.Title = "Applications Closed"
		note.Body = "The application period for " + c.Record.Year + " is no longer open."
	}

	n.mu.Lock()
	n.recent = append(n.recent, note)
	if len(n.recent) > n.limit {
		n.recent = n.recent[len(n.recent)-n.limit:]
	}
	n.mu.Unlock()

	l := log.WithComponent("notify")
	l.Info().
		Str("event", "session.status_changed").
		Str("notification_id", note.ID).
		Str("admission_code", note.Code).
		Str("from", string(c.Previous)).
		Str("to", string(c.New)).
		Msg(note.Title)
}

// Recent returns the retained notifications, newest last.
func (n *LogNotifier) Recent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.recent))
	copy(out, n.recent)
	return out
}
