package main

import (
	"context"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finitefield.org/cinema-web/internal/catalog"
	"finitefield.org/cinema-web/internal/cms"
	"finitefield.org/cinema-web/internal/config"
	"finitefield.org/cinema-web/internal/handlers"
	"finitefield.org/cinema-web/internal/i18n"
	"finitefield.org/cinema-web/internal/live"
	mw "finitefield.org/cinema-web/internal/middleware"
	"finitefield.org/cinema-web/internal/status"
	"finitefield.org/cinema-web/internal/tmdb"
)

const (
	listPath       = "/"
	liveURL        = "/live"
	requestTimeout = 30 * time.Second
)

// paths locates the on-disk resources the app serves.
type paths struct {
	Templates string
	Public    string
	Locales   string
	Content   string
}

// app holds the long-lived dependencies shared by every handler.
type app struct {
	cfg       config.Config
	configErr error
	logger    *zap.Logger
	paths     paths

	bundle    *i18n.Bundle
	client    *tmdb.Client
	fetcher   *catalog.Fetcher
	tracker   *catalog.Tracker
	pages     *cms.Store
	checker   *status.Checker
	analytics handlers.Analytics

	tmpl *templateCache
}

// newApp wires the dependencies. A missing TMDB credential is not an error here:
// the app starts and serves the configuration page instead of listings.
func newApp(cfg config.Config, p paths, logger *zap.Logger) (*app, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	supported := []string{"tr", "en"}
	bundle, err := i18n.Load(p.Locales, cfg.Site.DefaultLocale, supported)
	if err != nil {
		return nil, err
	}

	client := tmdb.NewClient(tmdb.Config{
		APIKey:       cfg.TMDB.APIKey,
		BaseURL:      cfg.TMDB.BaseURL,
		ImageBaseURL: cfg.TMDB.ImageBaseURL,
		Timeout:      cfg.TMDB.Timeout,
	})
	fetcher := catalog.NewFetcher(client,
		catalog.WithRules(catalog.Rules{
			RatingThreshold: cfg.Catalog.RatingThreshold,
			ReleaseFrom:     cfg.Catalog.ReleaseFrom,
			ReleaseTo:       cfg.Catalog.ReleaseTo,
		}),
		catalog.WithGenreTTL(cfg.Catalog.GenreCacheTTL),
	)

	contentTTL := time.Duration(-1)
	if cfg.Site.Dev {
		contentTTL = 0
	}

	a := &app{
		cfg:       cfg,
		configErr: cfg.Validate(),
		logger:    logger,
		paths:     p,
		bundle:    bundle,
		client:    client,
		fetcher:   fetcher,
		tracker:   catalog.NewTracker(),
		pages:     cms.NewStore(p.Content, bundle.Fallback(), contentTTL),
		checker:   status.NewChecker(),
		analytics: handlers.AnalyticsFromConfig(cfg.Site),
	}
	a.tmpl = newTemplateCache(p.Templates, a.funcMap(), cfg.Site.Dev)
	if !cfg.Site.Dev {
		// fail fast in production instead of on the first request
		if _, err := a.tmpl.get(); err != nil {
			return nil, err
		}
	}
	a.registerChecks()
	return a, nil
}

func (a *app) registerChecks() {
	a.checker.Register("config", func(context.Context) (string, string) {
		if a.configErr != nil {
			return status.StateDegraded, a.configErr.Error()
		}
		return status.StateOperational, ""
	})
	a.checker.Register("templates", func(context.Context) (string, string) {
		if _, err := a.tmpl.get(); err != nil {
			return status.StateDown, err.Error()
		}
		return status.StateOperational, ""
	})
	a.checker.Register("inflight", func(context.Context) (string, string) {
		return status.StateOperational, strconv.Itoa(a.tracker.Len()) + " list requests in flight"
	})
}

// routes builds the HTTP handler tree.
func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP. Ensure only trusted proxies
	// can set these headers in production environments.
	r.Use(chimw.RealIP)
	r.Use(mw.HTMX)
	r.Use(mw.Session)
	r.Use(mw.Locale(a.bundle))
	r.Use(mw.VaryLocale)
	r.Use(mw.Logger(a.logger))
	r.Use(chimw.Recoverer)
	r.Use(mw.RequireConfigured(a.configErr, a.configPage))

	r.Get("/healthz", a.healthz)
	r.Handle("/assets/*", http.StripPrefix("/assets", mw.AssetsWithCache(filepath.Join(a.paths.Public, "assets"), a.cfg.Site.Dev)))

	// the websocket outlives any per-request timeout and must not be compressed
	r.Handle(liveURL, a.liveHandler())

	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))
		r.Use(chimw.Timeout(requestTimeout))

		r.Get("/", a.listPage)
		r.With(mw.RequireHTMX).Get("/movies", a.moviesFragment)
		r.With(mw.RequireHTMX).Get("/movies/search", a.searchFragment)
		r.Get("/movie/imdb/{imdbID}", a.imdbRedirect)
		r.Get("/movie/{id}", a.moviePage)
		r.Get("/pages/{slug}", a.contentPage)
	})

	r.NotFound(a.notFound)
	return r
}

func (a *app) liveHandler() http.Handler {
	return live.NewHandler(live.Options{
		Browser:  a.fetcher,
		Tracker:  a.tracker,
		Render:   a.renderLive,
		Debounce: a.cfg.Catalog.SearchDebounce,
		Path:     listPath,
		Language: a.apiLang,
	})
}

// apiLang maps the UI locale to the language sent to TMDB. A configured
// language overrides the mapping.
func (a *app) apiLang(uiLang string) string {
	if a.cfg.TMDB.Language != "" {
		return a.cfg.TMDB.Language
	}
	return tmdb.Language(uiLang)
}
