package tmdb

import (
	"sort"
	"strings"
)

// Genre is a TMDB movie genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieSummary is a list entry as returned by popular, discover and search.
type MovieSummary struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	GenreIDs     []int   `json:"genre_ids"`
}

// Page is one page of list results.
type Page struct {
	Items        []MovieSummary
	Page         int
	TotalPages   int
	TotalResults int
}

// Video is an entry from the videos appendix of a movie.
type Video struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

// EmbedURL returns the YouTube embed URL, or "" for other hosts.
func (v Video) EmbedURL() string {
	if !strings.EqualFold(v.Site, "YouTube") || strings.TrimSpace(v.Key) == "" {
		return ""
	}
	return "https://www.youtube.com/embed/" + v.Key
}

// CastMember is a billed actor.
type CastMember struct {
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order"`
}

type crewMember struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

// MovieDetail is the full record shown on the detail page.
type MovieDetail struct {
	MovieSummary
	OriginalTitle string
	Tagline       string
	Runtime       int
	Status        string
	Homepage      string
	IMDbID        string
	Genres        []Genre
	Trailer       *Video
	Cast          []CastMember
	Director      string
}

// TrailerEmbedURL returns the embeddable trailer URL or "" when there is none.
func (d MovieDetail) TrailerEmbedURL() string {
	if d.Trailer == nil {
		return ""
	}
	return d.Trailer.EmbedURL()
}

// MaxCast bounds the cast list kept on a detail record.
const MaxCast = 10

// pickTrailer prefers the first YouTube trailer, then any YouTube video.
func pickTrailer(videos []Video) *Video {
	var fallback *Video
	for i := range videos {
		v := videos[i]
		if v.EmbedURL() == "" {
			continue
		}
		if strings.EqualFold(v.Type, "Trailer") {
			return &v
		}
		if fallback == nil {
			fallback = &v
		}
	}
	return fallback
}

func topCast(cast []CastMember) []CastMember {
	out := make([]CastMember, len(cast))
	copy(out, cast)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	if len(out) > MaxCast {
		out = out[:MaxCast]
	}
	return out
}

func director(crew []crewMember) string {
	for _, c := range crew {
		if c.Job == "Director" {
			return c.Name
		}
	}
	return ""
}
