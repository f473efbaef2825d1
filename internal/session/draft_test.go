// SPDX-License-Identifier: MIT
package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() Draft {
	return Draft{
		Code:            "A25",
		Type:            TypeAcademicYear,
		Year:            "2025-26",
		Key:             "KEY25",
		OpeningAt:       NewDate(2025, time.January, 1),
		ClosingAt:       NewDate(2025, time.March, 31),
		MaxApplications: 100,
		Active:          true,
	}
}

func TestDraftValidateOK(t *testing.T) {
	assert.NoError(t, validDraft().Validate())
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.Fields
}

func TestDraftValidateMissingRequired(t *testing.T) {
	var d Draft
	fields := fieldErrors(t, d.Validate())
	assert.Contains(t, fields, "admission_code")
	assert.Contains(t, fields, "admission_type")
	assert.Contains(t, fields, "admission_year")
	assert.Contains(t, fields, "admission_key")
}

func TestDraftValidateCodeFormat(t *testing.T) {
	d := validDraft()
	d.Code = "a-25"
	fields := fieldErrors(t, d.Validate())
	assert.Equal(t, "only uppercase letters and numbers allowed", fields["admission_code"])
}

func TestDraftValidateYearFormat(t *testing.T) {
	for _, year := range []string{"25", "2025-2026", "next year"} {
		d := validDraft()
		d.Year = year
		fields := fieldErrors(t, d.Validate())
		assert.Contains(t, fields, "admission_year", "year=%q", year)
	}
	for _, year := range []string{"2025", "2025-26"} {
		d := validDraft()
		d.Year = year
		assert.NoError(t, d.Validate(), "year=%q", year)
	}
}

func TestDraftValidateUnknownType(t *testing.T) {
	d := validDraft()
	d.Type = Type("SUMMER_CAMP")
	fields := fieldErrors(t, d.Validate())
	assert.Equal(t, "unknown admission type", fields["admission_type"])
}

func TestDraftValidateNegativeMax(t *testing.T) {
	d := validDraft()
	d.MaxApplications = -1
	fields := fieldErrors(t, d.Validate())
	assert.Contains(t, fields, "max_applications")
}

func TestDraftValidateDates(t *testing.T) {
	d := validDraft()
	d.OpeningAt = Date{}
	fields := fieldErrors(t, d.Validate())
	assert.Equal(t, "required", fields["opening_date"])

	d = validDraft()
	d.ClosingAt = Date{}
	fields = fieldErrors(t, d.Validate())
	assert.Equal(t, "required", fields["closing_date"])

	d = validDraft()
	d.ClosingAt = NewDate(2024, time.December, 31)
	fields = fieldErrors(t, d.Validate())
	assert.Contains(t, fields, "closing_date")
}

func TestPatchValidateDateOrdering(t *testing.T) {
	current := baseRecord()

	closing := NewDate(2024, time.June, 1)
	p := Patch{ClosingAt: &closing}
	fields := fieldErrors(t, p.Validate(current))
	assert.Contains(t, fields, "closing_date")

	// Moving both dates together is fine even when the new closing date is
	// before the old opening date.
	opening := NewDate(2024, time.January, 1)
	p = Patch{OpeningAt: &opening, ClosingAt: &closing}
	assert.NoError(t, p.Validate(current))
}

func TestPatchValidateNegativeMax(t *testing.T) {
	neg := -5
	p := Patch{MaxApplications: &neg}
	fields := fieldErrors(t, p.Validate(baseRecord()))
	assert.Contains(t, fields, "max_applications")
}

func TestPatchMarshalOverrideFlags(t *testing.T) {
	o := OverrideClose
	b, err := json.Marshal(Patch{Override: &o})
	require.NoError(t, err)
	assert.JSONEq(t, `{"is_open": false, "is_close": true}`, string(b))

	// No override requested: the flag pair is absent, not false/false.
	b, err = json.Marshal(Patch{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))
}

func TestValidationErrorMessage(t *testing.T) {
	ve := &ValidationError{Fields: map[string]string{
		"opening_date":   "required",
		"admission_code": "required",
	}}
	assert.Equal(t, "validation failed: admission_code: required; opening_date: required", ve.Error())
}
