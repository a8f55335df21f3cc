package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"finitefield.org/cinema-web/internal/query"
	"finitefield.org/cinema-web/internal/tmdb"
)

const (
	tracerName      = "finitefield.org/cinema-web/internal/catalog"
	defaultGenreTTL = 6 * time.Hour
	spanFetch       = "catalog.fetch"
	spanDetail      = "catalog.detail"
	spanGenres      = "catalog.genres"
	attrEndpoint    = "tmdb.endpoint"
	attrPage        = "query.page"
	attrLanguage    = "tmdb.language"
	attrMovieID     = "tmdb.movie_id"
	attrResultCount = "catalog.result_count"
)

// Source is the metadata backend. *tmdb.Client implements it.
type Source interface {
	Movies(ctx context.Context, req tmdb.ListRequest) (tmdb.Page, error)
	Genres(ctx context.Context, lang string) ([]tmdb.Genre, error)
	Detail(ctx context.Context, id int, lang string) (tmdb.MovieDetail, error)
	FindByIMDb(ctx context.Context, imdbID, lang string) (tmdb.MovieSummary, error)
}

// Kind classifies a successful fetch.
type Kind int

const (
	KindResults Kind = iota
	KindNoSearchResults
	KindEmpty
)

// String returns the marker used in rendered markup.
func (k Kind) String() string {
	switch k {
	case KindNoSearchResults:
		return "no-search-results"
	case KindEmpty:
		return "empty"
	default:
		return "results"
	}
}

// Outcome is the typed result of a list fetch.
type Outcome struct {
	State        query.State
	Items        []tmdb.MovieSummary
	TotalPages   int
	TotalResults int
	Kind         Kind
}

// Listing bundles a list outcome with the genre sidebar.
type Listing struct {
	Outcome  Outcome
	Genres   []tmdb.Genre
	GenreErr error
}

// DetailView bundles a movie with the genre sidebar.
type DetailView struct {
	Movie    tmdb.MovieDetail
	Genres   []tmdb.Genre
	GenreErr error
}

// Fetcher runs list, genre and detail lookups against a Source.
type Fetcher struct {
	source   Source
	rules    Rules
	genreTTL time.Duration
	tracer   trace.Tracer
	now      func() time.Time

	genreMu    sync.RWMutex
	genreCache map[string]genreEntry
	group      singleflight.Group
}

type genreEntry struct {
	genres  []tmdb.Genre
	expires time.Time
}

// Option customises a Fetcher.
type Option func(*Fetcher)

// WithRules overrides the category thresholds.
func WithRules(r Rules) Option {
	return func(f *Fetcher) { f.rules = r.withDefaults() }
}

// WithGenreTTL sets how long genre lists are reused.
func WithGenreTTL(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.genreTTL = d
		}
	}
}

// WithTracer replaces the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(f *Fetcher) {
		if t != nil {
			f.tracer = t
		}
	}
}

// WithClock replaces the wall clock (primarily for tests).
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		if now != nil {
			f.now = now
		}
	}
}

// NewFetcher builds a Fetcher over source.
func NewFetcher(source Source, opts ...Option) *Fetcher {
	f := &Fetcher{
		source:     source,
		rules:      DefaultRules(),
		genreTTL:   defaultGenreTTL,
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
		genreCache: map[string]genreEntry{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Rules returns the active category thresholds.
func (f *Fetcher) Rules() Rules { return f.rules }

// Fetch loads the page of movies the state describes. Every failure is a
// *tmdb.FetchError; there are no retries.
func (f *Fetcher) Fetch(ctx context.Context, s query.State, lang string) (Outcome, error) {
	s = s.Normalize()
	req := Plan(s, f.rules)
	req.Language = lang

	ctx, span := f.tracer.Start(ctx, spanFetch, trace.WithAttributes(
		attribute.String(attrEndpoint, req.Path),
		attribute.Int(attrPage, req.Page),
		attribute.String(attrLanguage, lang),
	))
	defer span.End()

	page, err := f.source.Movies(ctx, req)
	if err != nil {
		err = asFetchError(req.Path, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Outcome{State: s}, err
	}
	span.SetAttributes(attribute.Int(attrResultCount, len(page.Items)))

	out := Outcome{
		State:        s,
		Items:        page.Items,
		TotalPages:   clampTotal(page.TotalPages),
		TotalResults: page.TotalResults,
		Kind:         KindResults,
	}
	if len(page.Items) == 0 {
		out.Kind = KindEmpty
		if s.HasSearch() {
			out.Kind = KindNoSearchResults
		}
	}
	return out, nil
}

// Browse runs the list fetch and the genre lookup concurrently. A genre failure is
// reported on the listing and never fails the page.
func (f *Fetcher) Browse(ctx context.Context, s query.State, lang string) (Listing, error) {
	var listing Listing
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := f.Fetch(gctx, s, lang)
		listing.Outcome = out
		return err
	})
	g.Go(func() error {
		listing.Genres, listing.GenreErr = f.Genres(ctx, lang)
		return nil
	})
	err := g.Wait()
	return listing, err
}

// Genres returns the genre list for lang, shared across concurrent callers and
// cached for the configured TTL. Failures are not cached.
func (f *Fetcher) Genres(ctx context.Context, lang string) ([]tmdb.Genre, error) {
	if genres, ok := f.cachedGenres(lang); ok {
		return genres, nil
	}
	v, err, _ := f.group.Do("genres:"+lang, func() (any, error) {
		if genres, ok := f.cachedGenres(lang); ok {
			return genres, nil
		}
		ctx, span := f.tracer.Start(context.WithoutCancel(ctx), spanGenres, trace.WithAttributes(
			attribute.String(attrEndpoint, tmdb.PathGenres),
			attribute.String(attrLanguage, lang),
		))
		defer span.End()
		genres, err := f.source.Genres(ctx, lang)
		if err != nil {
			err = asFetchError(tmdb.PathGenres, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		f.storeGenres(lang, genres)
		return genres, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneGenres(v.([]tmdb.Genre)), nil
}

func (f *Fetcher) cachedGenres(lang string) ([]tmdb.Genre, bool) {
	f.genreMu.RLock()
	defer f.genreMu.RUnlock()
	entry, ok := f.genreCache[lang]
	if !ok || !f.now().Before(entry.expires) {
		return nil, false
	}
	return cloneGenres(entry.genres), true
}

func (f *Fetcher) storeGenres(lang string, genres []tmdb.Genre) {
	f.genreMu.Lock()
	defer f.genreMu.Unlock()
	f.genreCache[lang] = genreEntry{genres: cloneGenres(genres), expires: f.now().Add(f.genreTTL)}
}

// Detail loads one movie.
func (f *Fetcher) Detail(ctx context.Context, id int, lang string) (tmdb.MovieDetail, error) {
	ctx, span := f.tracer.Start(ctx, spanDetail, trace.WithAttributes(
		attribute.Int(attrMovieID, id),
		attribute.String(attrLanguage, lang),
	))
	defer span.End()
	movie, err := f.source.Detail(ctx, id, lang)
	if err != nil {
		if !errors.Is(err, tmdb.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return tmdb.MovieDetail{}, err
	}
	return movie, nil
}

// DetailPage loads a movie and the genre sidebar concurrently.
func (f *Fetcher) DetailPage(ctx context.Context, id int, lang string) (DetailView, error) {
	var view DetailView
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		movie, err := f.Detail(gctx, id, lang)
		view.Movie = movie
		return err
	})
	g.Go(func() error {
		view.Genres, view.GenreErr = f.Genres(ctx, lang)
		return nil
	})
	err := g.Wait()
	return view, err
}

// FindByIMDb resolves an IMDb id to a TMDB movie id.
func (f *Fetcher) FindByIMDb(ctx context.Context, imdbID, lang string) (int, error) {
	ctx, span := f.tracer.Start(ctx, spanDetail, trace.WithAttributes(
		attribute.String("imdb.id", imdbID),
		attribute.String(attrLanguage, lang),
	))
	defer span.End()
	movie, err := f.source.FindByIMDb(ctx, imdbID, lang)
	if err != nil {
		if !errors.Is(err, tmdb.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return 0, err
	}
	span.SetAttributes(attribute.Int(attrMovieID, movie.ID))
	return movie.ID, nil
}

// clampTotal caps the page count at the API's page ceiling.
func clampTotal(total int) int {
	if total < 0 {
		return 0
	}
	if total > query.MaxPage {
		return query.MaxPage
	}
	return total
}

func asFetchError(endpoint string, err error) error {
	var fe *tmdb.FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &tmdb.FetchError{Endpoint: endpoint, Message: fmt.Sprintf("request failed: %v", err), Err: err}
}

func cloneGenres(in []tmdb.Genre) []tmdb.Genre {
	if in == nil {
		return nil
	}
	out := make([]tmdb.Genre, len(in))
	copy(out, in)
	return out
}

// GenreName looks up a genre's display name.
func GenreName(genres []tmdb.Genre, id int) string {
	for _, g := range genres {
		if g.ID == id {
			return g.Name
		}
	}
	return strconv.Itoa(id)
}
