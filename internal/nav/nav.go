package nav

import (
	"strconv"
	"strings"

	"finitefield.org/cinema-web/internal/query"
	"finitefield.org/cinema-web/internal/tmdb"
)

// Item represents a top-level navigation item.
type Item struct {
	Path     string // e.g. "/pages/about"
	LabelKey string // i18n key, e.g. "nav.about"
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href     string
	LabelKey string
	Active   bool
}

// Crumb represents a breadcrumb entry. If LabelKey is empty, use Label.
type Crumb struct {
	Href     string
	LabelKey string
	Label    string
	Active   bool
}

// Main is the primary navigation definition.
var Main = []Item{
	{Path: "/", LabelKey: "nav.home"},
	{Path: "/pages/about", LabelKey: "nav.about"},
	{Path: "/pages/attribution", LabelKey: "nav.attribution"},
}

// Build renders navigation items with active state given the current path.
func Build(currentPath string) []RenderedItem {
	if currentPath == "" {
		currentPath = "/"
	}
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Href:     it.Path,
			LabelKey: it.LabelKey,
			Active:   isActive(it.Path, currentPath),
		})
	}
	return items
}

func isActive(itemPath, currentPath string) bool {
	if itemPath == "/" {
		return currentPath == "/" || strings.HasPrefix(currentPath, "/movie/")
	}
	return currentPath == itemPath || strings.HasPrefix(currentPath, itemPath+"/")
}

// FilterItem is one category button of the navigation bar.
type FilterItem struct {
	Filter   query.Filter
	LabelKey string
	Href     string
	Active   bool
}

// Filters builds the category buttons for s. A button is only active while
// neither a genre nor a search term narrows the listing.
func Filters(path string, s query.State) []FilterItem {
	out := make([]FilterItem, 0, len(query.Filters))
	for _, f := range query.Filters {
		next := s.SelectFilter(f)
		out = append(out, FilterItem{
			Filter:   f,
			LabelKey: "nav.filter." + string(f),
			Href:     next.Href(path),
			Active:   s.Filter == f && s.GenreID == nil && !s.HasSearch(),
		})
	}
	return out
}

// GenreItem is one entry of the genre sidebar. ID is nil and Value empty for
// "all genres".
type GenreItem struct {
	ID     *int
	Value  string
	Name   string
	Href   string
	Active bool
}

// Genres builds the sidebar with the "all genres" entry first.
func Genres(path string, s query.State, genres []tmdb.Genre, allLabel string) []GenreItem {
	out := make([]GenreItem, 0, len(genres)+1)
	out = append(out, GenreItem{
		Name:   allLabel,
		Href:   s.SelectGenre(nil).Href(path),
		Active: s.GenreID == nil,
	})
	for _, g := range genres {
		id := g.ID
		out = append(out, GenreItem{
			ID:     &id,
			Value:  strconv.Itoa(id),
			Name:   g.Name,
			Href:   s.SelectGenre(&id).Href(path),
			Active: s.GenreIs(&id),
		})
	}
	return out
}

// Breadcrumbs builds the trail for a page below home. leaf is the label of the
// current page; section crumbs sit between home and the leaf.
func Breadcrumbs(leaf string, sections ...Crumb) []Crumb {
	crumbs := []Crumb{{Href: "/", LabelKey: "nav.home", Active: leaf == "" && len(sections) == 0}}
	crumbs = append(crumbs, sections...)
	if leaf != "" {
		crumbs = append(crumbs, Crumb{Label: leaf, Active: true})
	}
	return crumbs
}
