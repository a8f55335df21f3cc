package main

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"finitefield.org/cinema-web/internal/logging"
	mw "finitefield.org/cinema-web/internal/middleware"
	"finitefield.org/cinema-web/internal/nav"
	"finitefield.org/cinema-web/internal/seo"
	"finitefield.org/cinema-web/internal/tmdb"
)

// moviePage renders the detail page of one movie.
func (a *app) moviePage(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		a.notFound(w, r)
		return
	}
	view, err := a.fetcher.DetailPage(r.Context(), id, a.apiLang(lang))
	switch {
	case errors.Is(err, tmdb.ErrNotFound):
		a.notFound(w, r)
		return
	case err != nil:
		logging.FromContext(r.Context()).Warn("detail fetch failed", zap.Int("movie_id", id), zap.Error(err))
		a.fetchFailure(w, r, err)
		return
	}

	dv := a.buildDetailView(lang, view)
	if raw := r.URL.Query().Get(paramVideoURL); raw != "" {
		dv.Video = playableURL(raw)
		dv.VideoRejected = dv.Video == ""
	}
	vm := a.pageData(r, lang, dv.Title)
	vm.Movie = dv
	vm.Breadcrumbs = nav.Breadcrumbs(dv.Title)
	vm.SEO = a.movieSEO(lang, dv, view.Movie)
	a.renderPage(w, r, http.StatusOK, "detail", vm)
}

// imdbRedirect resolves an IMDb id and redirects to the movie's detail page.
func (a *app) imdbRedirect(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	imdbID := chi.URLParam(r, "imdbID")
	id, err := a.fetcher.FindByIMDb(r.Context(), imdbID, a.apiLang(lang))
	switch {
	case errors.Is(err, tmdb.ErrNotFound):
		a.notFound(w, r)
		return
	case err != nil:
		logging.FromContext(r.Context()).Warn("imdb lookup failed", zap.String("imdb_id", imdbID), zap.Error(err))
		a.fetchFailure(w, r, err)
		return
	}
	target := moviePath(id)
	if v := playableURL(r.URL.Query().Get(paramVideoURL)); v != "" {
		target += "?" + url.Values{paramVideoURL: {v}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// paramVideoURL names a video file to play on the detail page.
const paramVideoURL = "videoUrl"

// playableURL returns raw if it is an absolute http(s) URL, else "".
func playableURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func (a *app) movieSEO(lang string, dv detailView, m tmdb.MovieDetail) seo.Meta {
	brand := a.bundle.T(lang, "brand.name")
	base := a.cfg.Site.BaseURL
	path := moviePath(dv.ID)
	canonical := seo.Absolute(base, path)

	title := dv.Title
	if dv.Year != "" {
		title += " (" + dv.Year + ")"
	}
	image := ""
	if m.PosterPath != "" {
		image = dv.Poster
	}
	desc := m.Overview
	if desc == "" {
		desc = a.bundle.T(lang, "seo.description")
	}
	meta := seo.New(title+" | "+brand, desc, canonical, image, "video.movie", lang)
	meta.Alternates = seo.Alternates(base, path, a.bundle.Supported())

	info := seo.MovieInfo{
		Name:          dv.Title,
		Description:   m.Overview,
		URL:           canonical,
		Image:         image,
		DatePublished: m.ReleaseDate,
		Director:      m.Director,
		Rating:        m.VoteAverage,
		RatingCount:   m.VoteCount,
		RuntimeMins:   m.Runtime,
		IMDbID:        m.IMDbID,
	}
	for _, c := range dv.Cast {
		info.Actors = append(info.Actors, c.Name)
	}
	for _, g := range dv.Genres {
		info.Genres = append(info.Genres, g.Name)
	}
	meta.AddJSONLD(seo.Movie(info))
	meta.AddJSONLD(seo.BreadcrumbList([]seo.BreadcrumbItem{
		{Name: a.bundle.T(lang, "nav.home"), Item: seo.Absolute(base, listPath)},
		{Name: dv.Title, Item: canonical},
	}))
	return meta
}
