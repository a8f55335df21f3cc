package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"finitefield.org/cinema-web/internal/config"
	"finitefield.org/cinema-web/internal/nav"
)

func TestAnalyticsFromConfig(t *testing.T) {
	a := AnalyticsFromConfig(config.SiteConfig{GAMeasurementID: " G-TEST ", Dev: true})
	assert.Equal(t, "G-TEST", a.GA4MeasurementID)
	assert.True(t, a.Enabled())
	assert.True(t, a.Debug)
	assert.False(t, AnalyticsFromConfig(config.SiteConfig{}).Enabled())
}

func TestHasCrumbs(t *testing.T) {
	assert.False(t, PageData{Breadcrumbs: nav.Breadcrumbs("")}.HasCrumbs())
	assert.True(t, PageData{Breadcrumbs: nav.Breadcrumbs("Heat")}.HasCrumbs())
}
