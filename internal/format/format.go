package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const releaseLayout = "2006-01-02"

var trMonths = [...]string{"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran", "Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık"}

// FmtDate formats time in a locale-friendly long form.
func FmtDate(t time.Time, lang string) string {
	switch strings.ToLower(lang) {
	case "tr":
		return fmt.Sprintf("%d %s %d", t.Day(), trMonths[t.Month()-1], t.Year())
	default:
		return t.Format("Jan 2, 2006")
	}
}

// ReleaseDate formats a TMDB "YYYY-MM-DD" date. Unparseable input is returned as-is.
func ReleaseDate(raw, lang string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	t, err := time.Parse(releaseLayout, raw)
	if err != nil {
		return raw
	}
	return FmtDate(t, lang)
}

// Year extracts the year of a TMDB date.
func Year(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) < 4 {
		return ""
	}
	if _, err := strconv.Atoi(raw[:4]); err != nil {
		return ""
	}
	return raw[:4]
}

// Rating renders a vote average with one decimal, using a decimal comma for Turkish.
func Rating(avg float64, lang string) string {
	s := strconv.FormatFloat(avg, 'f', 1, 64)
	if strings.ToLower(lang) == "tr" {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}

// Runtime renders minutes as hours and minutes.
func Runtime(minutes int, lang string) string {
	if minutes <= 0 {
		return ""
	}
	h, m := minutes/60, minutes%60
	hu, mu := "h", "m"
	if strings.ToLower(lang) == "tr" {
		hu, mu = " sa", " dk"
	}
	switch {
	case h == 0:
		return fmt.Sprintf("%d%s", m, mu)
	case m == 0:
		return fmt.Sprintf("%d%s", h, hu)
	default:
		return fmt.Sprintf("%d%s %d%s", h, hu, m, mu)
	}
}

// Truncate shortens s to at most n runes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if n <= 0 || len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}

// Thousands groups digits with the locale's separator.
func Thousands(n int, lang string) string {
	sep := ","
	if strings.ToLower(lang) == "tr" {
		sep = "."
	}
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, c := range s {
		if i != 0 && (len(s)-i)%3 == 0 {
			b.WriteString(sep)
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
