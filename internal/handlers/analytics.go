package handlers

import (
	"strings"

	"finitefield.org/cinema-web/internal/config"
)

// Analytics holds client instrumentation configuration surfaced to templates.
type Analytics struct {
	GA4MeasurementID string // e.g. G-XXXXXXXXXX
	Debug            bool
}

// Enabled reports whether any tag should be rendered.
func (a Analytics) Enabled() bool { return a.GA4MeasurementID != "" }

// AnalyticsFromConfig builds Analytics from site settings. Dev servers run the tag in debug mode.
func AnalyticsFromConfig(site config.SiteConfig) Analytics {
	return Analytics{
		GA4MeasurementID: strings.TrimSpace(site.GAMeasurementID),
		Debug:            site.Dev,
	}
}
