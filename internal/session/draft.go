// SPDX-License-Identifier: MIT

package session

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Draft is the payload for creating a session record. It is validated
// locally before any network call; an invalid draft never reaches the store.
type Draft struct {
	Code            string `json:"admission_code" validate:"required,admission_code"`
	Type            Type   `json:"admission_type" validate:"required,admission_type"`
	Year            string `json:"admission_year" validate:"required,admission_year"`
	Key             string `json:"admission_key" validate:"required,max=50"`
	OpeningAt       Date   `json:"opening_date"`
	ClosingAt       Date   `json:"closing_date"`
	MaxApplications int    `json:"max_applications" validate:"gte=0"`
	Active          bool   `json:"is_active"`
	Description     string `json:"description,omitempty"`
}

// Patch is a partial update. Nil fields are left untouched by the store.
type Patch struct {
	OpeningAt       *Date     `json:"opening_date,omitempty"`
	ClosingAt       *Date     `json:"closing_date,omitempty"`
	MaxApplications *int      `json:"max_applications,omitempty"`
	Active          *bool     `json:"is_active,omitempty"`
	Description     *string   `json:"description,omitempty"`
	Override        *Override `json:"-"`
}

// MarshalJSON spells the override out as the store's boolean pair.
func (p Patch) MarshalJSON() ([]byte, error) {
	type alias Patch
	var flags struct {
		alias
		IsOpen  *bool `json:"is_open,omitempty"`
		IsClose *bool `json:"is_close,omitempty"`
	}
	flags.alias = alias(p)
	if p.Override != nil {
		isOpen, isClose := p.Override.flags()
		flags.IsOpen = &isOpen
		flags.IsClose = &isClose
	}
	return json.Marshal(flags)
}

var (
	validate = validator.New()

	codeRe = regexp.MustCompile(`^[A-Z0-9]+$`)
	yearRe = regexp.MustCompile(`^\d{4}(-\d{2})?$`)
)

func init() {
	// Error keys use the wire field names, not Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("admission_code", func(fl validator.FieldLevel) bool {
		return codeRe.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("admission_year", func(fl validator.FieldLevel) bool {
		return yearRe.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("admission_type", func(fl validator.FieldLevel) bool {
		return Type(fl.Field().String()).Valid()
	})
}

// ValidationError reports local, pre-network validation failures keyed by
// wire field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Validate checks the draft locally. Date ordering is enforced here so the
// store is never contacted with a period that closes before it opens.
func (d Draft) Validate() error {
	if err := validate.Struct(d); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		ve := &ValidationError{Fields: make(map[string]string, len(verrs))}
		for _, fe := range verrs {
			ve.Fields[fe.Field()] = messageFor(fe)
		}
		return ve
	}
	if d.OpeningAt.IsZero() {
		return newValidationError("opening_date", "required")
	}
	if d.ClosingAt.IsZero() {
		return newValidationError("closing_date", "required")
	}
	if d.ClosingAt.Before(d.OpeningAt) {
		return newValidationError("closing_date", "must not be before opening_date")
	}
	return nil
}

// Validate checks the patch against the record it would apply to. Partial
// date updates are checked against the current value of the other date.
func (p Patch) Validate(current Record) error {
	opening, closing := current.OpeningAt, current.ClosingAt
	if p.OpeningAt != nil {
		opening = *p.OpeningAt
	}
	if p.ClosingAt != nil {
		closing = *p.ClosingAt
	}
	if !opening.IsZero() && !closing.IsZero() && closing.Before(opening) {
		return newValidationError("closing_date", "must not be before opening_date")
	}
	if p.MaxApplications != nil && *p.MaxApplications < 0 {
		return newValidationError("max_applications", "must not be negative")
	}
	return nil
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "admission_code":
		return "only uppercase letters and numbers allowed"
	case "admission_year":
		return "format: YYYY or YYYY-YY"
	case "admission_type":
		return "unknown admission type"
	case "max":
		return "too long"
	case "gte":
		return "must not be negative"
	default:
		return "invalid"
	}
}
