// SPDX-License-Identifier: MIT

// Package view implements the admin list dashboard over an in-memory set of
// session records: search, status filtering, pagination and bulk selection.
package view

import (
	"sort"
	"strings"
	"time"

	"github.com/sureshg03/unified-portal/internal/session"
)

// Filter selects records by effective status; FilterAll passes everything.
type Filter string

const FilterAll Filter = "ALL"

// Matches reports whether a status passes the filter.
func (f Filter) Matches(s session.Status) bool {
	return f == "" || f == FilterAll || session.Status(f) == s
}

// Query is one view over a record collection, applied in order: text search,
// status filter, pagination.
type Query struct {
	Search   string
	Status   Filter
	Page     int
	PageSize int
}

// Item pairs a record with its resolved status for display.
type Item struct {
	Record session.Record `json:"record"`
	Status session.Status `json:"effective_status"`
}

// Page is the result of applying a Query.
type Page struct {
	Items      []Item `json:"items"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
}

// Apply filters, resolves and paginates records. The requested page is
// clamped into range so a shrunken result set never yields an empty page.
func Apply(records []session.Record, now time.Time, q Query) Page {
	if q.PageSize <= 0 {
		q.PageSize = 10
	}
	if q.Page <= 0 {
		q.Page = 1
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))
	filtered := make([]Item, 0, len(records))
	for _, r := range records {
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Code), search) &&
			!strings.Contains(strings.ToLower(r.Year), search) {
			continue
		}
		st := session.Resolve(r, now)
		if !q.Status.Matches(st) {
			continue
		}
		filtered = append(filtered, Item{Record: r, Status: st})
	}

	total := len(filtered)
	totalPages := (total + q.PageSize - 1) / q.PageSize
	if totalPages == 0 {
		totalPages = 1
	}
	page := q.Page
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * q.PageSize
	end := start + q.PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Items:      filtered[start:end],
		Total:      total,
		TotalPages: totalPages,
		Page:       page,
		PageSize:   q.PageSize,
	}
}

// filteredIDs returns the ids of every record passing the query's search and
// status filter, ignoring pagination.
func filteredIDs(records []session.Record, now time.Time, q Query) []session.ID {
	q.Page = 1
	q.PageSize = len(records) + 1
	page := Apply(records, now, q)
	ids := make([]session.ID, 0, len(page.Items))
	for _, it := range page.Items {
		ids = append(ids, it.Record.ID)
	}
	return ids
}

// Engine is the stateful dashboard: the current query plus the bulk
// selection and its delete confirmation flow. Selection survives filter and
// page changes until explicitly cleared.
type Engine struct {
	query    Query
	selected map[session.ID]struct{}
	phase    DeletePhase
}

// NewEngine builds an engine with the given default page size.
func NewEngine(pageSize int) *Engine {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Engine{
		query:    Query{Status: FilterAll, Page: 1, PageSize: pageSize},
		selected: make(map[session.ID]struct{}),
	}
}

// Query returns the engine's current query.
func (e *Engine) Query() Query { return e.query }

// SetSearch updates the text search term.
func (e *Engine) SetSearch(term string) {
	e.query.Search = term
}

// SetStatusFilter changes the status filter and resets to page 1 so the view
// never lands on an out-of-range page.
func (e *Engine) SetStatusFilter(f Filter) {
	if f != e.query.Status {
		e.query.Status = f
		e.query.Page = 1
	}
}

// SetPageSize changes the page size and resets to page 1.
func (e *Engine) SetPageSize(n int) {
	if n > 0 && n != e.query.PageSize {
		e.query.PageSize = n
		e.query.Page = 1
	}
}

// SetPage moves to the given page; Apply clamps it into range.
func (e *Engine) SetPage(n int) {
	if n > 0 {
		e.query.Page = n
	}
}

// Apply runs the current query over records.
func (e *Engine) Apply(records []session.Record, now time.Time) Page {
	return Apply(records, now, e.query)
}

// ToggleSelect flips one record in or out of the selection.
func (e *Engine) ToggleSelect(id session.ID) {
	if _, ok := e.selected[id]; ok {
		delete(e.selected, id)
	} else {
		e.selected[id] = struct{}{}
	}
	if len(e.selected) == 0 && e.phase == DeleteConfirmPending {
		e.phase = DeleteIdle
	}
}

// SelectAllFiltered selects exactly the records passing the current search
// and status filter, across all pages. It replaces the previous selection.
func (e *Engine) SelectAllFiltered(records []session.Record, now time.Time) {
	e.selected = make(map[session.ID]struct{})
	for _, id := range filteredIDs(records, now, e.query) {
		e.selected[id] = struct{}{}
	}
}

// ClearSelection empties the selection.
func (e *Engine) ClearSelection() {
	e.selected = make(map[session.ID]struct{})
	if e.phase == DeleteConfirmPending {
		e.phase = DeleteIdle
	}
}

// Selected returns the selected ids in a stable order.
func (e *Engine) Selected() []session.ID {
	ids := make([]session.ID, 0, len(e.selected))
	for id := range e.selected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IsSelected reports whether id is part of the selection.
func (e *Engine) IsSelected(id session.ID) bool {
	_, ok := e.selected[id]
	return ok
}
