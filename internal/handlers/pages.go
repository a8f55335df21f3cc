package handlers

import (
	"finitefield.org/cinema-web/internal/nav"
	"finitefield.org/cinema-web/internal/seo"
)

// NavBar is the view model for the navigation bar's category buttons and search
// box. Fragment responses render it again as an out-of-band swap.
type NavBar struct {
	Lang          string
	Filters       []nav.FilterItem
	Search        string
	SearchDelayMS int64
	OOB           bool
}

// PageData is the view model for every page rendered through the shared layout.
type PageData struct {
	Title     string
	Lang      string
	Langs     []string
	SEO       seo.Meta
	Analytics Analytics

	Path        string
	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb
	// LiveURL is the websocket endpoint; empty disables live search on the page.
	LiveURL string
	// ViewID names this page view; fragment requests send it back in X-View-ID.
	ViewID string
	Bar     NavBar

	// Optional per-page view model payloads
	List    any
	Movie   any
	Content any
	Error   any
}

// HasCrumbs reports whether the breadcrumb trail goes below home.
func (p PageData) HasCrumbs() bool { return len(p.Breadcrumbs) > 1 }
