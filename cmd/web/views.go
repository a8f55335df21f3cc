package main

import (
	"errors"
	"strconv"

	"finitefield.org/cinema-web/internal/catalog"
	"finitefield.org/cinema-web/internal/format"
	"finitefield.org/cinema-web/internal/handlers"
	"finitefield.org/cinema-web/internal/nav"
	"finitefield.org/cinema-web/internal/query"
	"finitefield.org/cinema-web/internal/tmdb"
)

const (
	kindError       = "error"
	overviewPreview = 160
)

// movieCard is one tile of the results grid. Text is already localized.
type movieCard struct {
	ID       int
	Href     string
	Title    string
	Poster   string
	Year     string
	Rating   string
	Overview string
}

// genreSidebar is the view model of the "genres" partial.
type genreSidebar struct {
	Lang         string
	Genres       []nav.GenreItem
	GenresFailed bool
}

// listView drives the "shell" partial and the fragment responses built on it.
type listView struct {
	genreSidebar

	State   query.State
	Heading string
	// Kind is one of results, no-search-results, empty or error; it is written to
	// data-state on the shell.
	Kind         string
	Items        []movieCard
	TotalResults string
	Pager        nav.Pager
	Error        string

	Bar handlers.NavBar
	// OOBSearch also replaces the search box. Search fragments leave it alone so
	// the input the user is typing in keeps focus.
	OOBSearch bool
}

func (a *app) navBar(lang string, s query.State) handlers.NavBar {
	return handlers.NavBar{
		Lang:          lang,
		Filters:       nav.Filters(listPath, s),
		Search:        s.Search,
		SearchDelayMS: a.cfg.Catalog.SearchDebounce.Milliseconds(),
	}
}

func (a *app) sidebar(lang string, s query.State, genres []tmdb.Genre, genreErr error) genreSidebar {
	return genreSidebar{
		Lang:         lang,
		Genres:       nav.Genres(listPath, s, genres, a.bundle.T(lang, "genres.all")),
		GenresFailed: genreErr != nil,
	}
}

// buildListView turns a Browse result into the shell view. A non-nil err makes it
// an error view that still carries the navigation state.
func (a *app) buildListView(lang string, s query.State, listing catalog.Listing, err error) listView {
	v := listView{
		genreSidebar: a.sidebar(lang, s, listing.Genres, listing.GenreErr),
		State:        s,
		Heading:      a.listHeading(lang, s, listing.Genres),
		Bar:          a.navBar(lang, s),
	}
	if err != nil {
		v.Kind = kindError
		v.Error = fetchErrorMessage(err)
		return v
	}
	out := listing.Outcome
	v.Kind = out.Kind.String()
	v.TotalResults = format.Thousands(out.TotalResults, lang)
	v.Pager = nav.BuildPager(listPath, s, out.TotalPages)
	v.Items = make([]movieCard, 0, len(out.Items))
	for _, m := range out.Items {
		v.Items = append(v.Items, a.card(lang, m))
	}
	return v
}

func (a *app) card(lang string, m tmdb.MovieSummary) movieCard {
	overview := format.Truncate(m.Overview, overviewPreview)
	if overview == "" {
		overview = a.bundle.T(lang, "movie.no_overview")
	}
	return movieCard{
		ID:       m.ID,
		Href:     moviePath(m.ID),
		Title:    m.Title,
		Poster:   a.client.ImageURL(tmdb.SizePoster, m.PosterPath),
		Year:     format.Year(m.ReleaseDate),
		Rating:   format.Rating(m.VoteAverage, lang),
		Overview: overview,
	}
}

// listHeading names what the listing shows: the search, the genre or the category.
func (a *app) listHeading(lang string, s query.State, genres []tmdb.Genre) string {
	switch {
	case s.HasSearch():
		return a.bundle.Tf(lang, "list.heading.search", s.Search)
	case s.GenreID != nil:
		if name := catalog.GenreName(genres, *s.GenreID); name != "" {
			return name
		}
		return a.bundle.T(lang, "genres.title")
	default:
		return a.bundle.T(lang, "nav.filter."+string(s.Filter))
	}
}

func moviePath(id int) string { return "/movie/" + strconv.Itoa(id) }

// fetchErrorMessage is the user-facing text for a failed upstream call.
func fetchErrorMessage(err error) string {
	var fe *tmdb.FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return err.Error()
}

// castCard is one billed actor on the detail page.
type castCard struct {
	Name      string
	Character string
	Photo     string
}

// genreTag links a movie's genre back to the filtered listing.
type genreTag struct {
	Name string
	Href string
}

// detailView is the movie detail page.
type detailView struct {
	ID            int
	Title         string
	OriginalTitle string
	Tagline       string
	Overview      string
	Poster        string
	Backdrop      string
	Release       string
	Year          string
	Rating        string
	VoteCount     string
	Runtime       string
	Director      string
	Genres        []genreTag
	Cast          []castCard
	Trailer       string
	// Video is a playable file handed in through ?videoUrl=; VideoRejected marks a
	// value that was given but is not an http(s) URL.
	Video         string
	VideoRejected bool
	IMDbURL       string
	Homepage      string

	Sidebar genreSidebar
}

func (a *app) buildDetailView(lang string, dv catalog.DetailView) detailView {
	m := dv.Movie
	v := detailView{
		ID:            m.ID,
		Title:         m.Title,
		OriginalTitle: m.OriginalTitle,
		Tagline:       m.Tagline,
		Overview:      m.Overview,
		Poster:        a.client.ImageURL(tmdb.SizePoster, m.PosterPath),
		Release:       format.ReleaseDate(m.ReleaseDate, lang),
		Year:          format.Year(m.ReleaseDate),
		Rating:        format.Rating(m.VoteAverage, lang),
		VoteCount:     format.Thousands(m.VoteCount, lang),
		Runtime:       format.Runtime(m.Runtime, lang),
		Director:      m.Director,
		Trailer:       m.TrailerEmbedURL(),
		Homepage:      m.Homepage,
		Sidebar:       a.sidebar(lang, query.Default(), dv.Genres, dv.GenreErr),
	}
	if v.OriginalTitle == v.Title {
		v.OriginalTitle = ""
	}
	if v.Overview == "" {
		v.Overview = a.bundle.T(lang, "movie.no_overview")
	}
	if m.BackdropPath != "" {
		v.Backdrop = a.client.ImageURL(tmdb.SizeBackdrop, m.BackdropPath)
	}
	if m.IMDbID != "" {
		v.IMDbURL = "https://www.imdb.com/title/" + m.IMDbID + "/"
	}
	for _, g := range m.Genres {
		id := g.ID
		v.Genres = append(v.Genres, genreTag{Name: g.Name, Href: query.Default().SelectGenre(&id).Href(listPath)})
	}
	for _, c := range m.Cast {
		v.Cast = append(v.Cast, castCard{
			Name:      c.Name,
			Character: c.Character,
			Photo:     a.client.ImageURL(tmdb.SizeThumb, c.ProfilePath),
		})
	}
	// no genre is selected on a detail page
	for i := range v.Sidebar.Genres {
		v.Sidebar.Genres[i].Active = false
	}
	return v
}
