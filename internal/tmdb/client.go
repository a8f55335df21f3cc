// Package tmdb is a small client for the TMDB v3 movie endpoints the site consumes.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Defaults for the public TMDB deployment.
const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p"
	defaultTimeout      = 8 * time.Second
)

// Endpoint paths.
const (
	PathPopular  = "/movie/popular"
	PathDiscover = "/discover/movie"
	PathSearch   = "/search/movie"
	PathGenres   = "/genre/movie/list"
	pathMovie    = "/movie/{id}"
	pathFind     = "/find/{external_id}"
)

var (
	// ErrNotFound is returned when a movie does not exist upstream.
	ErrNotFound = errors.New("tmdb: not found")
	// ErrNotConfigured is returned when no credential was supplied.
	ErrNotConfigured = errors.New("tmdb: api key not configured")
)

// FetchError describes a failed upstream call. Message is safe to show to users.
type FetchError struct {
	Endpoint string
	Status   int
	Message  string
	Err      error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("tmdb: %s status %d: %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("tmdb: %s: %s", e.Endpoint, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *FetchError) Unwrap() error { return e.Err }

// Config configures a Client.
type Config struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	Timeout      time.Duration
	// HTTPClient replaces the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client issues TMDB requests. Requests are never retried.
type Client struct {
	http      *resty.Client
	imageBase string
	apiKey    string
}

// NewClient builds a client. A key shaped like a JWT is sent as a v4 bearer token,
// anything else as the v3 api_key query parameter.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	imageBase := strings.TrimRight(strings.TrimSpace(cfg.ImageBaseURL), "/")
	if imageBase == "" {
		imageBase = DefaultImageBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var rc *resty.Client
	if cfg.HTTPClient != nil {
		rc = resty.NewWithClient(cfg.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(base).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	key := strings.TrimSpace(cfg.APIKey)
	if isBearerToken(key) {
		rc.SetAuthToken(key)
	} else if key != "" {
		rc.SetQueryParam("api_key", key)
	}

	return &Client{http: rc, imageBase: imageBase, apiKey: key}
}

// Configured reports whether a credential is present.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

func isBearerToken(key string) bool {
	return strings.HasPrefix(key, "eyJ") && strings.Count(key, ".") == 2
}

// ListRequest selects a list endpoint and its parameters.
type ListRequest struct {
	Path     string
	Params   map[string]string
	Page     int
	Language string
}

type listPayload struct {
	Page         int             `json:"page"`
	Results      *[]MovieSummary `json:"results"`
	TotalPages   *int            `json:"total_pages"`
	TotalResults int             `json:"total_results"`
}

type apiStatus struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// Movies fetches one page from a list endpoint. A response without results or
// total_pages counts as a failure.
func (c *Client) Movies(ctx context.Context, req ListRequest) (Page, error) {
	if !c.Configured() {
		return Page{}, &FetchError{Endpoint: req.Path, Message: "api key not configured", Err: ErrNotConfigured}
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	r := c.http.R().SetContext(ctx).
		SetQueryParams(req.Params).
		SetQueryParam("page", strconv.Itoa(page))
	if req.Language != "" {
		r.SetQueryParam("language", req.Language)
	}

	var payload listPayload
	if err := c.do(r, req.Path, &payload); err != nil {
		return Page{}, err
	}
	if payload.Results == nil {
		return Page{}, &FetchError{Endpoint: req.Path, Message: "response missing results"}
	}
	if payload.TotalPages == nil {
		return Page{}, &FetchError{Endpoint: req.Path, Message: "response missing total_pages"}
	}
	return Page{
		Items:        *payload.Results,
		Page:         payload.Page,
		TotalPages:   *payload.TotalPages,
		TotalResults: payload.TotalResults,
	}, nil
}

// Genres returns the movie genre list for a language.
func (c *Client) Genres(ctx context.Context, lang string) ([]Genre, error) {
	if !c.Configured() {
		return nil, &FetchError{Endpoint: PathGenres, Message: "api key not configured", Err: ErrNotConfigured}
	}
	r := c.http.R().SetContext(ctx)
	if lang != "" {
		r.SetQueryParam("language", lang)
	}
	var payload struct {
		Genres *[]Genre `json:"genres"`
	}
	if err := c.do(r, PathGenres, &payload); err != nil {
		return nil, err
	}
	if payload.Genres == nil {
		return nil, &FetchError{Endpoint: PathGenres, Message: "response missing genres"}
	}
	return *payload.Genres, nil
}

type detailPayload struct {
	MovieSummary
	OriginalTitle string  `json:"original_title"`
	Tagline       string  `json:"tagline"`
	Runtime       int     `json:"runtime"`
	Status        string  `json:"status"`
	Homepage      string  `json:"homepage"`
	IMDbID        string  `json:"imdb_id"`
	Genres        []Genre `json:"genres"`
	Videos        struct {
		Results []Video `json:"results"`
	} `json:"videos"`
	Credits struct {
		Cast []CastMember `json:"cast"`
		Crew []crewMember `json:"crew"`
	} `json:"credits"`
}

// Detail fetches a movie with its videos and credits. A missing movie yields an
// error matching ErrNotFound.
func (c *Client) Detail(ctx context.Context, id int, lang string) (MovieDetail, error) {
	if id <= 0 {
		return MovieDetail{}, ErrNotFound
	}
	if !c.Configured() {
		return MovieDetail{}, &FetchError{Endpoint: pathMovie, Message: "api key not configured", Err: ErrNotConfigured}
	}
	r := c.http.R().SetContext(ctx).
		SetPathParam("id", strconv.Itoa(id)).
		SetQueryParam("append_to_response", "videos,credits").
		SetQueryParam("include_video_language", videoLanguages(lang))
	if lang != "" {
		r.SetQueryParam("language", lang)
	}
	var payload detailPayload
	if err := c.do(r, pathMovie, &payload); err != nil {
		return MovieDetail{}, err
	}
	if payload.ID == 0 {
		return MovieDetail{}, &FetchError{Endpoint: pathMovie, Status: http.StatusNotFound, Message: "movie not found", Err: ErrNotFound}
	}
	return MovieDetail{
		MovieSummary:  payload.MovieSummary,
		OriginalTitle: payload.OriginalTitle,
		Tagline:       payload.Tagline,
		Runtime:       payload.Runtime,
		Status:        payload.Status,
		Homepage:      payload.Homepage,
		IMDbID:        payload.IMDbID,
		Genres:        payload.Genres,
		Trailer:       pickTrailer(payload.Videos.Results),
		Cast:          topCast(payload.Credits.Cast),
		Director:      director(payload.Credits.Crew),
	}, nil
}

var imdbIDPattern = regexp.MustCompile(`^tt\d{5,}$`)

// FindByIMDb resolves an IMDb id to the matching TMDB movie.
func (c *Client) FindByIMDb(ctx context.Context, imdbID, lang string) (MovieSummary, error) {
	imdbID = strings.TrimSpace(imdbID)
	if !imdbIDPattern.MatchString(imdbID) {
		return MovieSummary{}, ErrNotFound
	}
	if !c.Configured() {
		return MovieSummary{}, &FetchError{Endpoint: pathFind, Message: "api key not configured", Err: ErrNotConfigured}
	}
	r := c.http.R().SetContext(ctx).
		SetPathParam("external_id", imdbID).
		SetQueryParam("external_source", "imdb_id")
	if lang != "" {
		r.SetQueryParam("language", lang)
	}
	var payload struct {
		MovieResults []MovieSummary `json:"movie_results"`
	}
	if err := c.do(r, pathFind, &payload); err != nil {
		return MovieSummary{}, err
	}
	if len(payload.MovieResults) == 0 {
		return MovieSummary{}, &FetchError{Endpoint: pathFind, Status: http.StatusNotFound, Message: "movie not found", Err: ErrNotFound}
	}
	return payload.MovieResults[0], nil
}

// do executes a GET and decodes a successful body into out.
func (c *Client) do(r *resty.Request, endpoint string, out any) error {
	resp, err := r.Get(endpoint)
	if err != nil {
		return &FetchError{Endpoint: endpoint, Message: transportMessage(err), Err: err}
	}
	if resp.IsError() {
		fe := &FetchError{Endpoint: endpoint, Status: resp.StatusCode(), Message: statusMessage(resp)}
		if resp.StatusCode() == http.StatusNotFound {
			fe.Err = ErrNotFound
		}
		return fe
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &FetchError{Endpoint: endpoint, Status: resp.StatusCode(), Message: "invalid response body", Err: err}
	}
	return nil
}

func statusMessage(resp *resty.Response) string {
	var st apiStatus
	if err := json.Unmarshal(resp.Body(), &st); err == nil && strings.TrimSpace(st.StatusMessage) != "" {
		return strings.TrimSpace(st.StatusMessage)
	}
	if text := http.StatusText(resp.StatusCode()); text != "" {
		return text
	}
	return "unexpected status"
}

func transportMessage(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	default:
		return "service unreachable"
	}
}

func videoLanguages(lang string) string {
	base := strings.ToLower(strings.SplitN(lang, "-", 2)[0])
	if base == "" || base == "en" {
		return "en,null"
	}
	return base + ",en,null"
}
