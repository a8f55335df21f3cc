// Package query holds the list view state and its mapping to URL query parameters.
package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Filter selects the category listing shown when neither a genre nor a search term is active.
type Filter string

const (
	FilterAll  Filter = "all"
	FilterYear Filter = "year"
	FilterIMDb Filter = "imdb"
)

// MaxPage is the highest page the metadata API will serve.
const MaxPage = 500

// URL parameter names.
const (
	ParamFilter = "filter"
	ParamPage   = "page"
	ParamGenre  = "genre"
	ParamQuery  = "query"
)

// Filters lists the categories in navigation order.
var Filters = []Filter{FilterAll, FilterYear, FilterIMDb}

// ParseFilter maps raw input to a known filter, defaulting to FilterAll.
func ParseFilter(raw string) Filter {
	switch Filter(strings.ToLower(strings.TrimSpace(raw))) {
	case FilterYear:
		return FilterYear
	case FilterIMDb:
		return FilterIMDb
	default:
		return FilterAll
	}
}

// State is the tuple of filter, page, genre and search term that drives the result fetch.
type State struct {
	Filter  Filter
	Page    int
	GenreID *int
	Search  string
}

// Default returns the state for a bare list URL.
func Default() State {
	return State{Filter: FilterAll, Page: 1}
}

// Parse reads a State from URL query parameters. Unknown or malformed values fall back
// to their defaults; it never fails.
func Parse(values url.Values) State {
	s := Default()
	if values == nil {
		return s
	}
	s.Filter = ParseFilter(values.Get(ParamFilter))
	s.Page = parsePage(values.Get(ParamPage))
	if raw := strings.TrimSpace(values.Get(ParamGenre)); raw != "" {
		if id, err := strconv.Atoi(raw); err == nil {
			s.GenreID = &id
		}
	}
	s.Search = values.Get(ParamQuery)
	return s
}

// ParseQuery parses a raw query string, with or without the leading "?".
func ParseQuery(raw string) State {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "?")
	if i := strings.Index(raw, "?"); i >= 0 {
		raw = raw[i+1:]
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return Default()
	}
	return Parse(values)
}

func parsePage(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > MaxPage {
		return 1
	}
	return n
}

// Normalize coerces the state into its valid range.
func (s State) Normalize() State {
	s.Filter = ParseFilter(string(s.Filter))
	s.Page = clampPage(s.Page)
	if s.GenreID != nil {
		id := *s.GenreID
		s.GenreID = &id
	}
	return s
}

func clampPage(p int) int {
	if p < 1 {
		return 1
	}
	if p > MaxPage {
		return MaxPage
	}
	return p
}

// Encode serializes the state, omitting every parameter equal to its default.
// Parameters are written in the order filter, page, genre, query.
func (s State) Encode() string {
	var b strings.Builder
	add := func(key, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}
	if f := ParseFilter(string(s.Filter)); f != FilterAll {
		add(ParamFilter, string(f))
	}
	if s.Page > 1 {
		add(ParamPage, strconv.Itoa(s.Page))
	}
	if s.GenreID != nil {
		add(ParamGenre, strconv.Itoa(*s.GenreID))
	}
	if s.Search != "" {
		add(ParamQuery, s.Search)
	}
	return b.String()
}

// Href returns path with the encoded state appended, or path alone for the default state.
func (s State) Href(path string) string {
	if path == "" {
		path = "/"
	}
	if q := s.Encode(); q != "" {
		return path + "?" + q
	}
	return path
}

// Equal reports whether two states describe the same listing.
func (s State) Equal(o State) bool {
	if s.Filter != o.Filter || s.Page != o.Page || s.Search != o.Search {
		return false
	}
	if (s.GenreID == nil) != (o.GenreID == nil) {
		return false
	}
	return s.GenreID == nil || *s.GenreID == *o.GenreID
}

// HasSearch reports whether a non-blank search term is active.
func (s State) HasSearch() bool {
	return strings.TrimSpace(s.Search) != ""
}

// GenreIs reports whether the given genre is selected; nil matches "all genres".
func (s State) GenreIs(id *int) bool {
	if id == nil || s.GenreID == nil {
		return id == nil && s.GenreID == nil
	}
	return *id == *s.GenreID
}
