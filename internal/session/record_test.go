// SPDX-License-Identifier: MIT
package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordUnmarshalWire(t *testing.T) {
	raw := `{
		"id": 7,
		"admission_code": "A24",
		"admission_type": "ACADEMIC_YEAR",
		"admission_year": "2024-25",
		"admission_key": "KEY24",
		"opening_date": "2024-06-01",
		"closing_date": "2024-08-31",
		"status": "OPEN",
		"is_open": false,
		"is_close": false,
		"max_applications": 100,
		"current_applications": 42,
		"is_active": true
	}`
	var r Record
	require.NoError(t, json.Unmarshal([]byte(raw), &r))

	assert.Equal(t, ID("7"), r.ID)
	assert.Equal(t, "A24", r.Code)
	assert.Equal(t, TypeAcademicYear, r.Type)
	assert.Equal(t, NewDate(2024, time.June, 1), r.OpeningAt)
	assert.Equal(t, NewDate(2024, time.August, 31), r.ClosingAt)
	assert.Equal(t, StatusOpen, r.LifecycleStatus)
	assert.Equal(t, OverrideNone, r.Override)
	assert.Equal(t, 100, r.MaxApplications)
	assert.True(t, r.Active)
}

func TestRecordUnmarshalStringID(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"id": "abc-123"}`), &r))
	assert.Equal(t, ID("abc-123"), r.ID)
}

func TestRecordUnmarshalBothFlagsPrefersOpen(t *testing.T) {
	// A store that sent both flags true is reconciled the way the store
	// itself does: the open flag wins.
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"is_open": true, "is_close": true}`), &r))
	assert.Equal(t, OverrideOpen, r.Override)
}

func TestRecordUnmarshalNullDates(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"opening_date": null, "closing_date": null}`), &r))
	assert.True(t, r.OpeningAt.IsZero())
	assert.True(t, r.ClosingAt.IsZero())
}

func TestRecordMarshalFlagsExclusive(t *testing.T) {
	// Whatever sequence of override mutations happened, the wire pair is
	// never both true.
	r := baseRecord()
	sequences := [][]Override{
		{OverrideOpen},
		{OverrideOpen, OverrideClose},
		{OverrideClose, OverrideOpen, OverrideClose},
		{OverrideOpen, OverrideNone},
		{OverrideClose, OverrideOpen, OverrideNone, OverrideOpen},
	}
	for _, seq := range sequences {
		for _, o := range seq {
			r.SetOverride(o)

			b, err := json.Marshal(r)
			require.NoError(t, err)
			var wire struct {
				IsOpen  bool `json:"is_open"`
				IsClose bool `json:"is_close"`
			}
			require.NoError(t, json.Unmarshal(b, &wire))
			assert.False(t, wire.IsOpen && wire.IsClose, "sequence %v", seq)
		}
	}
}

func TestSetOverrideLastWriteWins(t *testing.T) {
	r := baseRecord()
	r.SetOverride(OverrideClose)
	r.SetOverride(OverrideOpen)
	assert.Equal(t, OverrideOpen, r.Override)

	r.SetOverride(OverrideClose)
	assert.Equal(t, OverrideClose, r.Override)
}

func TestRecordRoundTrip(t *testing.T) {
	r := baseRecord()
	r.SetOverride(OverrideClose)
	r.Description = "summer intake"
	r.CreatedBy = "registrar"

	b, err := json.Marshal(r)
	require.NoError(t, err)
	var back Record
	require.NoError(t, json.Unmarshal(b, &back))

	assert.Equal(t, r.ID, back.ID)
	assert.Equal(t, r.Code, back.Code)
	assert.Equal(t, r.Override, back.Override)
	assert.Equal(t, r.Description, back.Description)
	assert.Equal(t, r.CreatedBy, back.CreatedBy)
	assert.True(t, r.OpeningAt.Equal(back.OpeningAt))
	assert.True(t, r.ClosingAt.Equal(back.ClosingAt))
}
