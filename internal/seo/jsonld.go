package seo

import (
	"encoding/json"
	"fmt"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Organization returns a minimal Organization schema.
func Organization(name, url, logoURL string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Organization",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if logoURL != "" {
		m["logo"] = logoURL
	}
	return m
}

// WebSite returns a minimal WebSite schema with optional SearchAction.
func WebSite(name, url, searchActionURL string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if searchActionURL != "" {
		m["potentialAction"] = map[string]any{
			"@type":       "SearchAction",
			"target":      searchActionURL + "{search_term_string}",
			"query-input": "required name=search_term_string",
		}
	}
	return m
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		entry := map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
		}
		if it.Item != "" {
			entry["item"] = it.Item
		}
		el = append(el, entry)
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}

// MovieInfo is the subset of movie metadata the Movie schema carries.
type MovieInfo struct {
	Name          string
	Description   string
	URL           string
	Image         string
	DatePublished string
	Director      string
	Actors        []string
	Genres        []string
	Rating        float64
	RatingCount   int
	RuntimeMins   int
	IMDbID        string
}

// Movie returns a schema.org Movie payload. Empty fields are omitted.
func Movie(in MovieInfo) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Movie",
		"name":     in.Name,
	}
	if in.Description != "" {
		m["description"] = in.Description
	}
	if in.URL != "" {
		m["url"] = in.URL
	}
	if in.Image != "" {
		m["image"] = in.Image
	}
	if in.DatePublished != "" {
		m["datePublished"] = in.DatePublished
	}
	if in.Director != "" {
		m["director"] = map[string]any{"@type": "Person", "name": in.Director}
	}
	if len(in.Actors) > 0 {
		actors := make([]map[string]any, 0, len(in.Actors))
		for _, a := range in.Actors {
			actors = append(actors, map[string]any{"@type": "Person", "name": a})
		}
		m["actor"] = actors
	}
	if len(in.Genres) > 0 {
		m["genre"] = in.Genres
	}
	if in.RatingCount > 0 {
		m["aggregateRating"] = map[string]any{
			"@type":       "AggregateRating",
			"ratingValue": in.Rating,
			"bestRating":  10,
			"ratingCount": in.RatingCount,
		}
	}
	if d := ISODuration(in.RuntimeMins); d != "" {
		m["duration"] = d
	}
	if in.IMDbID != "" {
		m["sameAs"] = "https://www.imdb.com/title/" + in.IMDbID + "/"
	}
	return m
}

// ISODuration renders minutes as an ISO 8601 duration such as PT2H16M.
func ISODuration(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("PT%dM", m)
	case m == 0:
		return fmt.Sprintf("PT%dH", h)
	default:
		return fmt.Sprintf("PT%dH%dM", h, m)
	}
}
