package main

import (
	"net/http"

	"go.uber.org/zap"

	"finitefield.org/cinema-web/internal/live"
	"finitefield.org/cinema-web/internal/logging"
	mw "finitefield.org/cinema-web/internal/middleware"
	"finitefield.org/cinema-web/internal/query"
	"finitefield.org/cinema-web/internal/seo"
)

// listPage renders the full movie list for the URL's state. A failed fetch keeps
// the page and shows the error in place of the grid. A full load starts a new view,
// so nothing can supersede it.
func (a *app) listPage(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	s := query.Parse(r.URL.Query())

	listing, err := a.fetcher.Browse(r.Context(), s, a.apiLang(lang))
	if err != nil {
		logging.FromContext(r.Context()).Warn("list fetch failed", zap.Error(err), zap.String("state", s.Encode()))
	}

	lv := a.buildListView(lang, s, listing, err)
	vm := a.pageData(r, lang, lv.Heading)
	vm.Bar = lv.Bar
	vm.List = lv
	vm.LiveURL = liveURL
	vm.SEO = a.listSEO(lang, s, lv)
	a.renderPage(w, r, http.StatusOK, "list", vm)
}

// moviesFragment serves the shell for htmx navigation within the list page.
func (a *app) moviesFragment(w http.ResponseWriter, r *http.Request) {
	a.serveFragment(w, r, query.Parse(r.URL.Query()), false)
}

// searchFragment serves the shell for the search box. Submitting a term resets
// genre, category and page.
func (a *app) searchFragment(w http.ResponseWriter, r *http.Request) {
	s := query.Default().SubmitSearch(r.URL.Query().Get(query.ParamQuery))
	a.serveFragment(w, r, s, true)
}

// serveFragment fetches s and answers with the shell plus out-of-band navigation
// swaps. A response superseded by a newer request from the same page view is
// dropped with 204 so htmx leaves the page alone.
func (a *app) serveFragment(w http.ResponseWriter, r *http.Request, s query.State, fromSearch bool) {
	lang := mw.Lang(r)
	logger := logging.FromContext(r.Context())

	ctx, ticket := a.tracker.Begin(r.Context(), mw.ViewKey(r))
	defer ticket.Release()
	listing, err := a.fetcher.Browse(ctx, s, a.apiLang(lang))
	if !ticket.Current() {
		logger.Debug("superseded list response dropped", zap.Uint64("generation", ticket.Generation()))
		w.WriteHeader(http.StatusNoContent)
		return
	}

	code := http.StatusOK
	if err != nil {
		logger.Warn("list fetch failed", zap.Error(err), zap.String("state", s.Encode()))
		code = http.StatusBadGateway
	}
	lv := a.buildListView(lang, s, listing, err)
	lv.Bar.OOB = true
	lv.OOBSearch = !fromSearch

	query.Rewrite(listPath, s, mw.HTMXFromContext(r.Context()).Navigation).Apply(w)
	a.renderFragment(w, r, code, "list_fragment", lv)
}

// renderLive renders what a live session pushes for one state.
func (a *app) renderLive(v live.View) (string, error) {
	return a.renderString("live_results", a.buildListView(v.Lang, v.State, v.Listing, v.Err))
}

func (a *app) listSEO(lang string, s query.State, lv listView) seo.Meta {
	brand := a.bundle.T(lang, "brand.name")
	base := a.cfg.Site.BaseURL
	href := s.Href(listPath)
	meta := seo.New(lv.Heading+" | "+brand, a.bundle.T(lang, "seo.description"), seo.Absolute(base, href), "", "website", lang)
	meta.Alternates = seo.Alternates(base, href, a.bundle.Supported())
	if s.HasSearch() {
		meta.Robots = "noindex,follow"
	}
	meta.AddJSONLD(seo.WebSite(brand, seo.Absolute(base, listPath), seo.Absolute(base, "/?"+query.ParamQuery+"=")))
	meta.AddJSONLD(seo.Organization(brand, seo.Absolute(base, listPath), ""))
	return meta
}
