package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, key string, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: key, BaseURL: srv.URL, Timeout: 2 * time.Second})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestMoviesPopular(t *testing.T) {
	client := newTestClient(t, "v3key", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathPopular, r.URL.Path)
		assert.Equal(t, "v3key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "tr-TR", r.URL.Query().Get("language"))
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `{"page":2,"results":[{"id":1,"title":"Dune","poster_path":"/d.jpg","vote_average":8.1,"release_date":"2021-09-15"}],"total_pages":42,"total_results":840}`)
	})

	page, err := client.Movies(context.Background(), ListRequest{Path: PathPopular, Page: 2, Language: "tr-TR"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Dune", page.Items[0].Title)
	assert.Equal(t, 42, page.TotalPages)
	assert.Equal(t, 840, page.TotalResults)
}

func TestMoviesDiscoverParams(t *testing.T) {
	client := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathDiscover, r.URL.Path)
		assert.Equal(t, "28", r.URL.Query().Get("with_genres"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		writeJSON(w, http.StatusOK, `{"page":1,"results":[],"total_pages":0}`)
	})
	page, err := client.Movies(context.Background(), ListRequest{Path: PathDiscover, Params: map[string]string{"with_genres": "28"}})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.TotalPages)
}

func TestBearerTokenCredential(t *testing.T) {
	token := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ4In0.c2ln"
	client := newTestClient(t, token, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		assert.Empty(t, r.URL.Query().Get("api_key"))
		writeJSON(w, http.StatusOK, `{"genres":[{"id":28,"name":"Action"}]}`)
	})
	genres, err := client.Genres(context.Background(), "en-US")
	require.NoError(t, err)
	assert.Equal(t, []Genre{{ID: 28, Name: "Action"}}, genres)
}

func TestMoviesMissingFieldsFail(t *testing.T) {
	for name, body := range map[string]string{
		"no results":     `{"page":1,"total_pages":3}`,
		"no total pages": `{"page":1,"results":[]}`,
		"not json":       `<html>oops</html>`,
	} {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, body)
			})
			_, err := client.Movies(context.Background(), ListRequest{Path: PathPopular})
			var fe *FetchError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, PathPopular, fe.Endpoint)
			assert.NotEmpty(t, fe.Message)
		})
	}
}

func TestStatusErrorCarriesMessage(t *testing.T) {
	calls := 0
	client := newTestClient(t, "bad", func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, http.StatusUnauthorized, `{"status_code":7,"status_message":"Invalid API key: You must be granted a valid key.","success":false}`)
	})
	_, err := client.Movies(context.Background(), ListRequest{Path: PathPopular})
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusUnauthorized, fe.Status)
	assert.Contains(t, fe.Message, "Invalid API key")
	assert.Contains(t, err.Error(), "status 401")
	assert.Equal(t, 1, calls, "requests must not be retried")
}

func TestServerErrorWithoutBody(t *testing.T) {
	client := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := client.Movies(context.Background(), ListRequest{Path: PathPopular})
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Bad Gateway", fe.Message)
}

func TestNotConfigured(t *testing.T) {
	client := NewClient(Config{})
	assert.False(t, client.Configured())
	_, err := client.Movies(context.Background(), ListRequest{Path: PathPopular})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCancelledRequest(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Movies(ctx, ListRequest{Path: PathPopular})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDetail(t *testing.T) {
	client := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/603", r.URL.Path)
		assert.Equal(t, "videos,credits", r.URL.Query().Get("append_to_response"))
		assert.Equal(t, "tr,en,null", r.URL.Query().Get("include_video_language"))
		writeJSON(w, http.StatusOK, `{
			"id":603,"title":"Matrix","overview":"Neo","runtime":136,"tagline":"Free your mind",
			"imdb_id":"tt0133093","genres":[{"id":28,"name":"Aksiyon"}],
			"videos":{"results":[
				{"key":"abc","site":"Vimeo","type":"Trailer"},
				{"key":"tease","site":"YouTube","type":"Teaser"},
				{"key":"real","site":"YouTube","type":"Trailer"}
			]},
			"credits":{
				"cast":[{"name":"B","order":1},{"name":"A","order":0},{"name":"C","order":2}],
				"crew":[{"name":"Writer","job":"Screenplay"},{"name":"Lana Wachowski","job":"Director"}]
			}
		}`)
	})

	d, err := client.Detail(context.Background(), 603, "tr-TR")
	require.NoError(t, err)
	assert.Equal(t, "Matrix", d.Title)
	assert.Equal(t, 136, d.Runtime)
	assert.Equal(t, "tt0133093", d.IMDbID)
	assert.Equal(t, "https://www.youtube.com/embed/real", d.TrailerEmbedURL())
	assert.Equal(t, "Lana Wachowski", d.Director)
	require.Len(t, d.Cast, 3)
	assert.Equal(t, "A", d.Cast[0].Name)
}

func TestDetailNotFound(t *testing.T) {
	client := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"status_code":34,"status_message":"The resource you requested could not be found."}`)
	})
	_, err := client.Detail(context.Background(), 999999, "en-US")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.Detail(context.Background(), 0, "en-US")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByIMDb(t *testing.T) {
	client := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "imdb_id", r.URL.Query().Get("external_source"))
		switch r.URL.Path {
		case "/find/tt0133093":
			writeJSON(w, http.StatusOK, `{"movie_results":[{"id":603,"title":"Matrix"}]}`)
		default:
			writeJSON(w, http.StatusOK, `{"movie_results":[]}`)
		}
	})
	m, err := client.FindByIMDb(context.Background(), "tt0133093", "en-US")
	require.NoError(t, err)
	assert.Equal(t, 603, m.ID)

	_, err = client.FindByIMDb(context.Background(), "tt9999999", "en-US")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.FindByIMDb(context.Background(), "nm0000206", "en-US")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPickTrailerFallsBackToAnyYouTubeVideo(t *testing.T) {
	v := pickTrailer([]Video{{Key: "x", Site: "Vimeo", Type: "Trailer"}, {Key: "clip", Site: "YouTube", Type: "Clip"}})
	require.NotNil(t, v)
	assert.Equal(t, "clip", v.Key)
	assert.Nil(t, pickTrailer(nil))
}

func TestTopCastIsBounded(t *testing.T) {
	cast := make([]CastMember, 15)
	for i := range cast {
		cast[i] = CastMember{Name: "n", Order: 14 - i}
	}
	top := topCast(cast)
	assert.Len(t, top, MaxCast)
	assert.Equal(t, 0, top[0].Order)
}

func TestImageURL(t *testing.T) {
	assert.Equal(t, PlaceholderImage, ImageURL("", SizePoster, ""))
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/a.jpg", ImageURL("", SizePoster, "/a.jpg"))
	assert.Equal(t, "http://cdn/w185/b.jpg", ImageURL("http://cdn/", SizeThumb, "b.jpg"))
	c := NewClient(Config{ImageBaseURL: "http://img"})
	assert.Equal(t, "http://img/w500/p.jpg", c.ImageURL(SizePoster, "/p.jpg"))
}

func TestLanguage(t *testing.T) {
	assert.Equal(t, "tr-TR", Language("tr"))
	assert.Equal(t, "en-US", Language("en"))
	assert.Equal(t, "en-GB", Language("en-GB"))
	assert.Equal(t, "pt-BR", Language("pt-BR"))
	assert.Equal(t, "tr-TR", Language(" TR "))
	assert.Equal(t, "", Language(""))
	assert.Equal(t, "", Language("!!"))
}
