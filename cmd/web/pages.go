package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"finitefield.org/cinema-web/internal/cms"
	"finitefield.org/cinema-web/internal/config"
	"finitefield.org/cinema-web/internal/handlers"
	"finitefield.org/cinema-web/internal/logging"
	mw "finitefield.org/cinema-web/internal/middleware"
	"finitefield.org/cinema-web/internal/nav"
	"finitefield.org/cinema-web/internal/query"
	"finitefield.org/cinema-web/internal/seo"
)

// pageData fills the fields every layout render needs.
func (a *app) pageData(r *http.Request, lang, title string) handlers.PageData {
	brand := a.bundle.T(lang, "brand.name")
	full := brand
	if title != "" {
		full = title + " | " + brand
	}
	// pages other than the list have no active category
	bar := a.navBar(lang, query.Default())
	for i := range bar.Filters {
		bar.Filters[i].Active = false
	}
	return handlers.PageData{
		Title:       title,
		Lang:        lang,
		Langs:       a.bundle.Supported(),
		SEO:         seo.New(full, a.bundle.T(lang, "seo.description"), "", "", "website", lang),
		Analytics:   a.analytics,
		Path:        r.URL.Path,
		Nav:         nav.Build(r.URL.Path),
		Breadcrumbs: nav.Breadcrumbs(""),
		Bar:         bar,
		ViewID:      uuid.NewString(),
	}
}

// contentPage renders a static markdown page such as about or attribution.
func (a *app) contentPage(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	page, err := a.pages.Page(chi.URLParam(r, "slug"), lang)
	switch {
	case errors.Is(err, cms.ErrNotFound):
		a.notFound(w, r)
		return
	case err != nil:
		logging.FromContext(r.Context()).Error("content page failed", zap.Error(err))
		a.errorPage(w, r, http.StatusInternalServerError, "")
		return
	}

	vm := a.pageData(r, lang, page.Title)
	vm.Content = page
	vm.Breadcrumbs = nav.Breadcrumbs(page.Title)

	title := firstNonEmpty(page.SEO.Title, page.Title)
	desc := firstNonEmpty(page.SEO.Description, page.Summary, a.bundle.T(lang, "seo.description"))
	canonical := seo.Absolute(a.cfg.Site.BaseURL, r.URL.Path)
	vm.SEO = seo.New(title+" | "+a.bundle.T(lang, "brand.name"), desc, canonical, page.SEO.OGImage, "article", lang)
	vm.SEO.Alternates = seo.Alternates(a.cfg.Site.BaseURL, r.URL.Path, a.bundle.Supported())
	a.renderPage(w, r, http.StatusOK, "page", vm)
}

// errorView is the payload of the error and not-found pages.
type errorView struct {
	Code    int
	Message string
}

func (a *app) notFound(w http.ResponseWriter, r *http.Request) {
	if mw.IsHTMX(r.Context()) {
		mw.WriteError(w, r, http.StatusNotFound, "not found")
		return
	}
	lang := mw.Lang(r)
	vm := a.pageData(r, lang, a.bundle.T(lang, "notfound.title"))
	vm.SEO.Robots = "noindex"
	vm.Error = errorView{Code: http.StatusNotFound}
	a.renderPage(w, r, http.StatusNotFound, "notfound", vm)
}

func (a *app) errorPage(w http.ResponseWriter, r *http.Request, code int, msg string) {
	if mw.IsHTMX(r.Context()) {
		mw.WriteError(w, r, code, msg)
		return
	}
	lang := mw.Lang(r)
	vm := a.pageData(r, lang, a.bundle.T(lang, "error.title"))
	vm.SEO.Robots = "noindex"
	vm.Error = errorView{Code: code, Message: msg}
	a.renderPage(w, r, code, "error", vm)
}

// fetchFailure answers 502 for an upstream error: the error page for browsers, the
// JSON envelope with the upstream details for htmx.
func (a *app) fetchFailure(w http.ResponseWriter, r *http.Request, err error) {
	if mw.IsHTMX(r.Context()) {
		mw.WriteFetchError(w, r, http.StatusBadGateway, err, "upstream error")
		return
	}
	a.errorPage(w, r, http.StatusBadGateway, fetchErrorMessage(err))
}

// configView tells the operator which settings are missing.
type configView struct {
	Missing []string
}

// configPage blocks every route while the TMDB credential is missing.
func (a *app) configPage(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	vm := a.pageData(r, lang, a.bundle.T(lang, "config.title"))
	vm.SEO.Robots = "noindex"
	var cv configView
	var ve *config.ValidationError
	if errors.As(a.configErr, &ve) {
		cv.Missing = ve.Fields()
	}
	vm.Error = cv
	a.renderPage(w, r, http.StatusServiceUnavailable, "config", vm)
}

// healthz answers "ok" for load balancers. With ?verbose it returns the component
// summary as JSON.
func (a *app) healthz(w http.ResponseWriter, r *http.Request) {
	summary := a.checker.Evaluate(r.Context())
	code := http.StatusOK
	if !summary.Healthy() {
		code = http.StatusServiceUnavailable
	}
	if r.URL.Query().Has("verbose") {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(summary)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	if code == http.StatusOK {
		_, _ = w.Write([]byte("ok"))
		return
	}
	_, _ = w.Write([]byte(summary.State))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
