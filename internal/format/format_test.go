package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReleaseDate(t *testing.T) {
	assert.Equal(t, "31 Mart 1999", ReleaseDate("1999-03-31", "tr"))
	assert.Equal(t, "Mar 31, 1999", ReleaseDate("1999-03-31", "en"))
	assert.Equal(t, "", ReleaseDate("", "en"))
	assert.Equal(t, "soon", ReleaseDate("soon", "en"))
	assert.Equal(t, "1 Ocak 2024", FmtDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "TR"))
}

func TestYear(t *testing.T) {
	assert.Equal(t, "1999", Year("1999-03-31"))
	assert.Equal(t, "", Year(""))
	assert.Equal(t, "", Year("abcd-01-01"))
}

func TestRating(t *testing.T) {
	assert.Equal(t, "8.2", Rating(8.217, "en"))
	assert.Equal(t, "8,2", Rating(8.217, "tr"))
	assert.Equal(t, "0.0", Rating(0, "en"))
}

func TestRuntime(t *testing.T) {
	assert.Equal(t, "2h 16m", Runtime(136, "en"))
	assert.Equal(t, "2 sa 16 dk", Runtime(136, "tr"))
	assert.Equal(t, "45m", Runtime(45, "en"))
	assert.Equal(t, "2h", Runtime(120, "en"))
	assert.Equal(t, "", Runtime(0, "en"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "çok uzun…", Truncate("çok uzun bir metin", 8))
}

func TestThousands(t *testing.T) {
	assert.Equal(t, "1,234,567", Thousands(1234567, "en"))
	assert.Equal(t, "1.234.567", Thousands(1234567, "tr"))
	assert.Equal(t, "-1,000", Thousands(-1000, "en"))
	assert.Equal(t, "999", Thousands(999, "en"))
}
