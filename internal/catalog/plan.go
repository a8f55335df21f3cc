// Package catalog turns list state into metadata requests and typed outcomes.
package catalog

import (
	"strconv"
	"strings"

	"finitefield.org/cinema-web/internal/query"
	"finitefield.org/cinema-web/internal/tmdb"
)

// Rules holds the literal thresholds behind the category filters.
type Rules struct {
	RatingThreshold float64
	ReleaseFrom     string
	ReleaseTo       string
}

// DefaultRules returns the stock category thresholds.
func DefaultRules() Rules {
	return Rules{RatingThreshold: 7, ReleaseFrom: "2023-01-01", ReleaseTo: "2025-12-31"}
}

func (r Rules) withDefaults() Rules {
	d := DefaultRules()
	if r.RatingThreshold <= 0 {
		r.RatingThreshold = d.RatingThreshold
	}
	if strings.TrimSpace(r.ReleaseFrom) == "" {
		r.ReleaseFrom = d.ReleaseFrom
	}
	if strings.TrimSpace(r.ReleaseTo) == "" {
		r.ReleaseTo = d.ReleaseTo
	}
	return r
}

// Plan picks the endpoint for a state. A non-blank search wins, then a genre,
// then the category filter.
func Plan(s query.State, rules Rules) tmdb.ListRequest {
	s = s.Normalize()
	rules = rules.withDefaults()
	req := tmdb.ListRequest{Page: s.Page}

	if term := strings.TrimSpace(s.Search); term != "" {
		req.Path = tmdb.PathSearch
		req.Params = map[string]string{"query": term, "include_adult": "false"}
		return req
	}
	if s.GenreID != nil {
		req.Path = tmdb.PathDiscover
		req.Params = map[string]string{"with_genres": strconv.Itoa(*s.GenreID)}
		return req
	}
	switch s.Filter {
	case query.FilterYear:
		req.Path = tmdb.PathDiscover
		req.Params = map[string]string{
			"primary_release_date.gte": rules.ReleaseFrom,
			"primary_release_date.lte": rules.ReleaseTo,
		}
	case query.FilterIMDb:
		req.Path = tmdb.PathDiscover
		req.Params = map[string]string{
			"vote_average.gte": strconv.FormatFloat(rules.RatingThreshold, 'f', -1, 64),
		}
	default:
		req.Path = tmdb.PathPopular
	}
	return req
}
