package seo

import (
	"net/url"
	"strings"
)

type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
	Locale      string
}

type Twitter struct {
	Card  string
	Image string
}

// Alternate is an hreflang link to the same page in another language.
type Alternate struct {
	Lang string
	Href string
}

type Meta struct {
	Title       string
	Description string
	Canonical   string
	Robots      string
	OG          OpenGraph
	Twitter     Twitter
	Alternates  []Alternate
	// JSONLD holds pre-marshalled schema.org payloads, one script tag each.
	JSONLD []string
}

// Absolute joins a site base URL and a path. An empty base leaves the path as is.
func Absolute(base, path string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// Alternates builds hreflang links for path, one per language, using the hl parameter.
func Alternates(base, path string, langs []string) []Alternate {
	out := make([]Alternate, 0, len(langs))
	for _, l := range langs {
		u, err := url.Parse(path)
		if err != nil {
			continue
		}
		q := u.Query()
		q.Set("hl", l)
		u.RawQuery = q.Encode()
		out = append(out, Alternate{Lang: l, Href: Absolute(base, u.String())})
	}
	return out
}

// New fills the OpenGraph and Twitter blocks from the basic fields.
func New(title, description, canonical, image, ogType, locale string) Meta {
	card := "summary"
	if image != "" {
		card = "summary_large_image"
	}
	if ogType == "" {
		ogType = "website"
	}
	return Meta{
		Title:       title,
		Description: description,
		Canonical:   canonical,
		OG: OpenGraph{
			Title:       title,
			Description: description,
			Image:       image,
			Type:        ogType,
			URL:         canonical,
			Locale:      ogLocale(locale),
		},
		Twitter: Twitter{Card: card, Image: image},
	}
}

// AddJSONLD marshals v and appends it; values that fail to marshal are skipped.
func (m *Meta) AddJSONLD(v any) {
	if s := JSON(v); s != "" {
		m.JSONLD = append(m.JSONLD, s)
	}
}

func ogLocale(lang string) string {
	switch strings.ToLower(lang) {
	case "tr":
		return "tr_TR"
	case "en":
		return "en_US"
	default:
		return ""
	}
}
