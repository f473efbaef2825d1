// SPDX-License-Identifier: MIT

package session

import "time"

// Resolve derives the effective status of a record at the given wall-clock
// time. Priority, highest first:
//
//  1. forced open
//  2. forced closed
//  3. before the opening date → SCHEDULED
//  4. after the closing date → EXPIRED
//  5. inactive → CLOSED
//  6. otherwise OPEN
//
// Manual overrides beat date arithmetic, and date arithmetic beats the soft
// active flag. A record without a complete application period is CLOSED
// unless overridden.
func Resolve(r Record, now time.Time) Status {
	switch r.Override {
	case OverrideOpen:
		return StatusOpen
	case OverrideClose:
		return StatusClosed
	}
	if r.OpeningAt.IsZero() || r.ClosingAt.IsZero() {
		return StatusClosed
	}
	today := DateOf(now)
	if today.Before(r.OpeningAt) {
		return StatusScheduled
	}
	if today.After(r.ClosingAt) {
		return StatusExpired
	}
	if !r.Active {
		return StatusClosed
	}
	return StatusOpen
}

// CanAcceptApplications reports whether the session is open and below its
// application cap. Open and accepting are distinct: a full session stays
// OPEN but accepts nothing more.
func CanAcceptApplications(r Record, now time.Time) bool {
	if Resolve(r, now) != StatusOpen {
		return false
	}
	return r.MaxApplications == 0 || r.CurrentApplications < r.MaxApplications
}

// DaysRemaining returns the whole days until the closing date, or 0 when the
// period has ended or no closing date is set.
func DaysRemaining(r Record, now time.Time) int {
	if r.ClosingAt.IsZero() {
		return 0
	}
	today := DateOf(now)
	if r.ClosingAt.Before(today) {
		return 0
	}
	return today.DaysUntil(r.ClosingAt)
}

// Stats summarises a collection of records by effective status.
type Stats struct {
	Total     int `json:"total_sessions"`
	Open      int `json:"open"`
	Closed    int `json:"closed"`
	Scheduled int `json:"scheduled"`
	Expired   int `json:"expired"`
}

// Collect computes Stats over records at the given time.
func Collect(records []Record, now time.Time) Stats {
	s := Stats{Total: len(records)}
	for _, r := range records {
		switch Resolve(r, now) {
		case StatusOpen:
			s.Open++
		case StatusClosed:
			s.Closed++
		case StatusScheduled:
			s.Scheduled++
		case StatusExpired:
			s.Expired++
		}
	}
	return s
}
