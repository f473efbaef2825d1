// SPDX-License-Identifier: MIT

package session

import (
	"encoding/json"
	"time"
)

// Record is one admission window as held by the remote store. The copy in
// memory is a cache between polls; the store remains authoritative after
// every write (last-write-wins, no version token).
type Record struct {
	ID   ID
	Code string
	Type Type
	Year string
	Key  string

	OpeningAt Date
	ClosingAt Date

	// LifecycleStatus is the status the store last computed from dates.
	// Resolve derives the effective status locally and may disagree with it
	// between polls.
	LifecycleStatus Status

	Override Override

	MaxApplications     int
	CurrentApplications int
	Active              bool

	Description string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SetOverride replaces the manual override. Assignment is last-write-wins:
// forcing open while forced closed simply becomes forced open.
func (r *Record) SetOverride(o Override) {
	r.Override = o
}

// wireRecord is the store's JSON shape. Field names follow the store's API.
type wireRecord struct {
	ID                  ID        `json:"id"`
	Code                string    `json:"admission_code"`
	Type                Type      `json:"admission_type"`
	Year                string    `json:"admission_year"`
	Key                 string    `json:"admission_key"`
	OpeningAt           Date      `json:"opening_date"`
	ClosingAt           Date      `json:"closing_date"`
	Status              Status    `json:"status"`
	IsOpen              bool      `json:"is_open"`
	IsClose             bool      `json:"is_close"`
	MaxApplications     int       `json:"max_applications"`
	CurrentApplications int       `json:"current_applications"`
	Active              bool      `json:"is_active"`
	Description         string    `json:"description,omitempty"`
	CreatedBy           string    `json:"created_by,omitempty"`
	CreatedAt           time.Time `json:"created_at,omitempty"`
	UpdatedAt           time.Time `json:"updated_at,omitempty"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	isOpen, isClose := r.Override.flags()
	return json.Marshal(wireRecord{
		ID:                  r.ID,
		Code:                r.Code,
		Type:                r.Type,
		Year:                r.Year,
		Key:                 r.Key,
		OpeningAt:           r.OpeningAt,
		ClosingAt:           r.ClosingAt,
		Status:              r.LifecycleStatus,
		IsOpen:              isOpen,
		IsClose:             isClose,
		MaxApplications:     r.MaxApplications,
		CurrentApplications: r.CurrentApplications,
		Active:              r.Active,
		Description:         r.Description,
		CreatedBy:           r.CreatedBy,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	})
}

func (r *Record) UnmarshalJSON(b []byte) error {
	var w wireRecord
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*r = Record{
		ID:                  w.ID,
		Code:                w.Code,
		Type:                w.Type,
		Year:                w.Year,
		Key:                 w.Key,
		OpeningAt:           w.OpeningAt,
		ClosingAt:           w.ClosingAt,
		LifecycleStatus:     w.Status,
		Override:            overrideFromFlags(w.IsOpen, w.IsClose),
		MaxApplications:     w.MaxApplications,
		CurrentApplications: w.CurrentApplications,
		Active:              w.Active,
		Description:         w.Description,
		CreatedBy:           w.CreatedBy,
		CreatedAt:           w.CreatedAt,
		UpdatedAt:           w.UpdatedAt,
	}
	return nil
}
