package query

import (
	"net/http"
	"strings"
)

// SelectGenre switches to a genre listing (nil means all genres). Page resets to 1 and
// the search term is cleared.
func (s State) SelectGenre(id *int) State {
	next := State{Filter: FilterAll, Page: 1}
	if id != nil {
		v := *id
		next.GenreID = &v
	}
	return next
}

// SelectFilter switches category. Page resets to 1; genre and search are cleared.
func (s State) SelectFilter(f Filter) State {
	return State{Filter: ParseFilter(string(f)), Page: 1}
}

// SubmitSearch starts a text search. Page resets to 1, genre is cleared and the filter
// is forced to all.
func (s State) SubmitSearch(term string) State {
	return State{Filter: FilterAll, Page: 1, Search: strings.TrimSpace(term)}
}

// GotoPage moves to page p, keeping the rest of the state.
func (s State) GotoPage(p int) State {
	next := s.Normalize()
	next.Page = clampPage(p)
	return next
}

// Navigation decides how a URL rewrite lands in browser history.
type Navigation int

const (
	// Replace rewrites the current history entry; used for in-place list updates.
	Replace Navigation = iota
	// Push adds a history entry; used when the change starts outside the list view.
	Push
)

// NavigationHeader is the request header a page uses to tell fragment routes where
// the interaction started.
const NavigationHeader = "X-Navigation"

func (n Navigation) String() string {
	if n == Push {
		return "push"
	}
	return "replace"
}

// ParseNavigation maps "push" to Push; everything else is Replace.
func ParseNavigation(raw string) Navigation {
	if strings.EqualFold(strings.TrimSpace(raw), "push") {
		return Push
	}
	return Replace
}

// Change is a requested URL rewrite.
type Change struct {
	State      State
	URL        string
	Navigation Navigation
}

// Rewrite builds the change that moves the browser to next under path.
func Rewrite(path string, next State, nav Navigation) Change {
	next = next.Normalize()
	return Change{State: next, URL: next.Href(path), Navigation: nav}
}

// Apply tells htmx how to update the location bar for this response.
func (c Change) Apply(w http.ResponseWriter) {
	if c.Navigation == Push {
		w.Header().Set("HX-Push-Url", c.URL)
		return
	}
	w.Header().Set("HX-Replace-Url", c.URL)
}
