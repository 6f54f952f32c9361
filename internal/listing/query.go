// Package listing holds the list-screen state shared by the customer and
// order lists: search and sort query, status tabs, and multi-select.
package listing

import (
	"net/url"
	"strconv"
	"strings"
)

// SortField names the field a list is ordered by.
type SortField string

const (
	SortByDate   SortField = "date"
	SortByName   SortField = "name"
	SortByNumber SortField = "number"
)

// SortFields lists the choices of the sort menu.
var SortFields = []SortField{SortByDate, SortByName, SortByNumber}

// ParseSortField normalizes raw; unknown values fall back to date.
func ParseSortField(raw string) SortField {
	switch SortField(strings.ToLower(strings.TrimSpace(raw))) {
	case SortByName:
		return SortByName
	case SortByNumber:
		return SortByNumber
	default:
		return SortByDate
	}
}

// Label is the capitalized menu label.
func (f SortField) Label() string {
	switch f {
	case SortByName:
		return "Name"
	case SortByNumber:
		return "Number"
	default:
		return "Date"
	}
}

// Query is the search and sort state of a list screen.
type Query struct {
	Search     string
	SortBy     SortField
	Descending bool
}

// NewQuery returns a query with the given defaults.
func NewQuery(sortBy string, descending bool) Query {
	return Query{SortBy: ParseSortField(sortBy), Descending: descending}
}

// ToggleDirection flips ascending/descending.
func (q *Query) ToggleDirection() {
	q.Descending = !q.Descending
}

// SetSortBy selects the sort field.
func (q *Query) SetSortBy(f SortField) {
	q.SortBy = ParseSortField(string(f))
}

// Term is the trimmed, lower-cased search term used for local filtering.
func (q Query) Term() string {
	return strings.ToLower(strings.TrimSpace(q.Search))
}

// Label renders the sort button, e.g. "Date ↑".
func (q Query) Label() string {
	arrow := "↑"
	if q.Descending {
		arrow = "↓"
	}
	return q.field().Label() + " " + arrow
}

// Values renders the server-side list parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	v.Set("sortBy", string(q.field()))
	v.Set("isDescending", strconv.FormatBool(q.Descending))
	return v
}

func (q Query) field() SortField {
	return ParseSortField(string(q.SortBy))
}
