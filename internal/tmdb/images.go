package tmdb

import (
	"strings"

	"golang.org/x/text/language"
)

// PlaceholderImage is served when a movie has no artwork.
const PlaceholderImage = "/assets/img/no-image.svg"

// Image sizes used by the templates.
const (
	SizePoster   = "w500"
	SizeThumb    = "w185"
	SizeBackdrop = "w1280"
)

// ImageURL joins an image path onto the CDN base, or returns the placeholder.
func ImageURL(base, size, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return PlaceholderImage
	}
	if base == "" {
		base = DefaultImageBaseURL
	}
	if size == "" {
		size = "original"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(base, "/") + "/" + size + path
}

// ImageURL resolves an image path against the client's CDN base.
func (c *Client) ImageURL(size, path string) string {
	base := DefaultImageBaseURL
	if c != nil {
		base = c.imageBase
	}
	return ImageURL(base, size, path)
}

// Language maps a UI locale to the region-qualified tag TMDB expects,
// e.g. "tr" to "tr-TR" and "en" to "en-US".
func Language(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return ""
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return ""
	}
	// Region infers the likely region for a bare language, e.g. TR for tr.
	base, _ := tag.Base()
	region, conf := tag.Region()
	if conf == language.No {
		return base.String()
	}
	return base.String() + "-" + region.String()
}
