// SPDX-License-Identifier: MIT

// Package session defines the admission session record model and the rules
// that resolve a record's effective open/closed state.
package session

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// ID is the store-assigned identifier of a session record. It is opaque to
// this package; the remote store may serialise it as a number or a string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return fmt.Errorf("session id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	*id = ID(b)
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(id))), nil
}

// Status is the effective admission state of a session.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusClosed    Status = "CLOSED"
	StatusScheduled Status = "SCHEDULED"
	StatusExpired   Status = "EXPIRED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusScheduled, StatusExpired:
		return true
	}
	return false
}

// Type classifies the admission program a session covers.
type Type string

const (
	TypeAcademicYear Type = "ACADEMIC_YEAR"
	TypeCalendarYear Type = "CALENDAR_YEAR"
	TypeUG           Type = "UG"
	TypePG           Type = "PG"
	TypeDiploma      Type = "DIPLOMA"
	TypeCertificate  Type = "CERTIFICATE"
	TypePhD          Type = "PHD"
	TypeDistance     Type = "DISTANCE"
	TypeOnline       Type = "ONLINE"
)

// Valid reports whether t is a known admission type.
func (t Type) Valid() bool {
	switch t {
	case TypeAcademicYear, TypeCalendarYear, TypeUG, TypePG, TypeDiploma,
		TypeCertificate, TypePhD, TypeDistance, TypeOnline:
		return true
	}
	return false
}

// Override is the manual status override of a session. Exactly one value is
// in effect at a time, which makes the old pair of force-open/force-close
// booleans impossible to set simultaneously.
type Override int

const (
	// OverrideNone lets dates and the active flag decide.
	OverrideNone Override = iota
	// OverrideOpen forces the session open regardless of dates.
	OverrideOpen
	// OverrideClose forces the session closed regardless of dates.
	OverrideClose
)

func (o Override) String() string {
	switch o {
	case OverrideOpen:
		return "forced_open"
	case OverrideClose:
		return "forced_close"
	default:
		return "auto"
	}
}

// overrideFromFlags maps the wire pair to an Override. The store serialises
// the override as two booleans; when both arrive true the open flag wins,
// matching the store's own reconciliation.
func overrideFromFlags(isOpen, isClose bool) Override {
	switch {
	case isOpen:
		return OverrideOpen
	case isClose:
		return OverrideClose
	default:
		return OverrideNone
	}
}

// flags returns the wire representation of the override.
func (o Override) flags() (isOpen, isClose bool) {
	return o == OverrideOpen, o == OverrideClose
}

// Date is a calendar date without a time-of-day component. The zero Date is
// "unset"; the store allows records without an application period.
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

// NewDate builds a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

func (d Date) IsZero() bool       { return d.t.IsZero() }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

// DaysUntil returns the whole days from d to o, negative when o is earlier.
func (d Date) DaysUntil(o Date) int {
	return int(o.t.Sub(d.t) / (24 * time.Hour))
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(d.t.Format(dateLayout))), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	unquoted, err := strconv.Unquote(s)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	t, err := time.ParseInLocation(dateLayout, unquoted, time.UTC)
	if err != nil {
		return fmt.Errorf("date %q: %w", unquoted, err)
	}
	*d = Date{t: t}
	return nil
}
