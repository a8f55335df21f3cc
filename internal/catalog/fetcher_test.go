package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finitefield.org/cinema-web/internal/query"
	"finitefield.org/cinema-web/internal/tmdb"
)

type fakeSource struct {
	mu         sync.Mutex
	requests   []tmdb.ListRequest
	movies     func(ctx context.Context, req tmdb.ListRequest) (tmdb.Page, error)
	genres     func(ctx context.Context, lang string) ([]tmdb.Genre, error)
	genreCalls atomic.Int32
	detail     func(ctx context.Context, id int, lang string) (tmdb.MovieDetail, error)
	findByIMDb func(ctx context.Context, imdbID, lang string) (tmdb.MovieSummary, error)
}

func (f *fakeSource) Movies(ctx context.Context, req tmdb.ListRequest) (tmdb.Page, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.movies == nil {
		return tmdb.Page{Items: []tmdb.MovieSummary{{ID: 1, Title: "One"}}, TotalPages: 1}, nil
	}
	return f.movies(ctx, req)
}

func (f *fakeSource) Genres(ctx context.Context, lang string) ([]tmdb.Genre, error) {
	f.genreCalls.Add(1)
	if f.genres == nil {
		return []tmdb.Genre{{ID: 28, Name: "Action"}, {ID: 35, Name: "Comedy"}}, nil
	}
	return f.genres(ctx, lang)
}

func (f *fakeSource) Detail(ctx context.Context, id int, lang string) (tmdb.MovieDetail, error) {
	if f.detail == nil {
		return tmdb.MovieDetail{MovieSummary: tmdb.MovieSummary{ID: id, Title: "Movie"}}, nil
	}
	return f.detail(ctx, id, lang)
}

func (f *fakeSource) FindByIMDb(ctx context.Context, imdbID, lang string) (tmdb.MovieSummary, error) {
	if f.findByIMDb == nil {
		return tmdb.MovieSummary{}, tmdb.ErrNotFound
	}
	return f.findByIMDb(ctx, imdbID, lang)
}

func intPtr(v int) *int { return &v }

func TestPlanPrecedence(t *testing.T) {
	rules := DefaultRules()
	cases := []struct {
		name   string
		state  query.State
		path   string
		params map[string]string
	}{
		{"popular", query.Default(), tmdb.PathPopular, nil},
		{"year", query.State{Filter: query.FilterYear, Page: 1}, tmdb.PathDiscover, map[string]string{
			"primary_release_date.gte": "2023-01-01",
			"primary_release_date.lte": "2025-12-31",
		}},
		{"imdb", query.State{Filter: query.FilterIMDb, Page: 2}, tmdb.PathDiscover, map[string]string{"vote_average.gte": "7"}},
		{"genre beats filter", query.State{Filter: query.FilterIMDb, Page: 1, GenreID: intPtr(28)}, tmdb.PathDiscover, map[string]string{"with_genres": "28"}},
		{"search beats genre", query.State{Filter: query.FilterYear, Page: 1, GenreID: intPtr(28), Search: " batman "}, tmdb.PathSearch, map[string]string{"query": "batman", "include_adult": "false"}},
		{"blank search ignored", query.State{Filter: query.FilterAll, Page: 1, Search: "   "}, tmdb.PathPopular, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := Plan(tc.state, rules)
			assert.Equal(t, tc.path, req.Path)
			assert.Equal(t, tc.params, req.Params)
			assert.Equal(t, tc.state.Page, req.Page)
		})
	}
}

func TestPlanUsesConfiguredRules(t *testing.T) {
	req := Plan(query.State{Filter: query.FilterIMDb, Page: 1}, Rules{RatingThreshold: 8.5})
	assert.Equal(t, "8.5", req.Params["vote_average.gte"])

	req = Plan(query.State{Filter: query.FilterYear, Page: 1}, Rules{ReleaseFrom: "2010-01-01", ReleaseTo: "2010-12-31"})
	assert.Equal(t, "2010-01-01", req.Params["primary_release_date.gte"])
	assert.Equal(t, "2010-12-31", req.Params["primary_release_date.lte"])
}

func TestFetchKinds(t *testing.T) {
	empty := &fakeSource{movies: func(context.Context, tmdb.ListRequest) (tmdb.Page, error) {
		return tmdb.Page{Items: []tmdb.MovieSummary{}, TotalPages: 0}, nil
	}}
	f := NewFetcher(empty)

	out, err := f.Fetch(context.Background(), query.Default().SubmitSearch("zzzz"), "en-US")
	require.NoError(t, err)
	assert.Equal(t, KindNoSearchResults, out.Kind)
	assert.Equal(t, "no-search-results", out.Kind.String())

	out, err = f.Fetch(context.Background(), query.Default().SelectGenre(intPtr(99)), "en-US")
	require.NoError(t, err)
	assert.Equal(t, KindEmpty, out.Kind)

	out, err = NewFetcher(&fakeSource{}).Fetch(context.Background(), query.Default(), "en-US")
	require.NoError(t, err)
	assert.Equal(t, KindResults, out.Kind)
	assert.Len(t, out.Items, 1)
}

func TestFetchCapsTotalPages(t *testing.T) {
	src := &fakeSource{movies: func(context.Context, tmdb.ListRequest) (tmdb.Page, error) {
		return tmdb.Page{Items: []tmdb.MovieSummary{{ID: 1}}, TotalPages: 46213}, nil
	}}
	out, err := NewFetcher(src).Fetch(context.Background(), query.Default(), "")
	require.NoError(t, err)
	assert.Equal(t, query.MaxPage, out.TotalPages)
}

func TestFetchPassesLanguage(t *testing.T) {
	src := &fakeSource{}
	_, err := NewFetcher(src).Fetch(context.Background(), query.State{Filter: query.FilterAll, Page: 3}, "tr-TR")
	require.NoError(t, err)
	require.Len(t, src.requests, 1)
	assert.Equal(t, "tr-TR", src.requests[0].Language)
	assert.Equal(t, 3, src.requests[0].Page)
}

func TestFetchFailureIsFetchError(t *testing.T) {
	src := &fakeSource{movies: func(context.Context, tmdb.ListRequest) (tmdb.Page, error) {
		return tmdb.Page{}, errors.New("dial tcp: connection refused")
	}}
	_, err := NewFetcher(src).Fetch(context.Background(), query.Default(), "")
	var fe *tmdb.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, tmdb.PathPopular, fe.Endpoint)
	assert.Contains(t, fe.Message, "connection refused")

	upstream := &tmdb.FetchError{Endpoint: tmdb.PathPopular, Status: 401, Message: "Invalid API key"}
	src.movies = func(context.Context, tmdb.ListRequest) (tmdb.Page, error) { return tmdb.Page{}, upstream }
	_, err = NewFetcher(src).Fetch(context.Background(), query.Default(), "")
	assert.Same(t, upstream, err)
}

func TestGenresCachedPerLanguage(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{}
	f := NewFetcher(src, WithGenreTTL(time.Minute), WithClock(func() time.Time { return now }))

	for i := 0; i < 3; i++ {
		genres, err := f.Genres(context.Background(), "tr-TR")
		require.NoError(t, err)
		require.Len(t, genres, 2)
	}
	assert.EqualValues(t, 1, src.genreCalls.Load())

	_, err := f.Genres(context.Background(), "en-US")
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.genreCalls.Load())

	now = now.Add(2 * time.Minute)
	_, err = f.Genres(context.Background(), "tr-TR")
	require.NoError(t, err)
	assert.EqualValues(t, 3, src.genreCalls.Load())
}

func TestGenresReturnsCopy(t *testing.T) {
	f := NewFetcher(&fakeSource{})
	genres, err := f.Genres(context.Background(), "en")
	require.NoError(t, err)
	genres[0].Name = "mutated"
	again, err := f.Genres(context.Background(), "en")
	require.NoError(t, err)
	assert.Equal(t, "Action", again[0].Name)
}

func TestGenresSingleflight(t *testing.T) {
	release := make(chan struct{})
	src := &fakeSource{genres: func(ctx context.Context, lang string) ([]tmdb.Genre, error) {
		<-release
		return []tmdb.Genre{{ID: 1, Name: "Drama"}}, nil
	}}
	f := NewFetcher(src)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			genres, err := f.Genres(context.Background(), "en")
			assert.NoError(t, err)
			assert.Len(t, genres, 1)
		}()
	}
	require.Eventually(t, func() bool { return src.genreCalls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.EqualValues(t, 1, src.genreCalls.Load())
}

func TestGenreFailureNotCached(t *testing.T) {
	fail := true
	src := &fakeSource{genres: func(context.Context, string) ([]tmdb.Genre, error) {
		if fail {
			return nil, &tmdb.FetchError{Endpoint: tmdb.PathGenres, Status: 500, Message: "boom"}
		}
		return []tmdb.Genre{{ID: 1, Name: "Drama"}}, nil
	}}
	f := NewFetcher(src)
	_, err := f.Genres(context.Background(), "en")
	require.Error(t, err)
	fail = false
	genres, err := f.Genres(context.Background(), "en")
	require.NoError(t, err)
	assert.Len(t, genres, 1)
}

func TestBrowseToleratesGenreFailure(t *testing.T) {
	src := &fakeSource{genres: func(context.Context, string) ([]tmdb.Genre, error) {
		return nil, errors.New("genres down")
	}}
	listing, err := NewFetcher(src).Browse(context.Background(), query.Default(), "en-US")
	require.NoError(t, err)
	assert.Equal(t, KindResults, listing.Outcome.Kind)
	assert.Error(t, listing.GenreErr)
	assert.Nil(t, listing.Genres)
}

func TestDetailPage(t *testing.T) {
	view, err := NewFetcher(&fakeSource{}).DetailPage(context.Background(), 603, "en-US")
	require.NoError(t, err)
	assert.Equal(t, 603, view.Movie.ID)
	assert.Len(t, view.Genres, 2)

	src := &fakeSource{detail: func(context.Context, int, string) (tmdb.MovieDetail, error) {
		return tmdb.MovieDetail{}, tmdb.ErrNotFound
	}}
	_, err = NewFetcher(src).DetailPage(context.Background(), 1, "en-US")
	assert.ErrorIs(t, err, tmdb.ErrNotFound)
}

func TestFindByIMDb(t *testing.T) {
	src := &fakeSource{findByIMDb: func(_ context.Context, imdbID, _ string) (tmdb.MovieSummary, error) {
		if imdbID == "tt0133093" {
			return tmdb.MovieSummary{ID: 603}, nil
		}
		return tmdb.MovieSummary{}, tmdb.ErrNotFound
	}}
	f := NewFetcher(src)
	id, err := f.FindByIMDb(context.Background(), "tt0133093", "en-US")
	require.NoError(t, err)
	assert.Equal(t, 603, id)
	_, err = f.FindByIMDb(context.Background(), "tt0000001", "en-US")
	assert.ErrorIs(t, err, tmdb.ErrNotFound)
}

func TestGenreName(t *testing.T) {
	genres := []tmdb.Genre{{ID: 28, Name: "Action"}}
	assert.Equal(t, "Action", GenreName(genres, 28))
	assert.Equal(t, "12", GenreName(genres, 12))
}
