package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Bundle holds flat key/value translations per locale.
type Bundle struct {
	dict      map[string]map[string]string
	fallback  string
	supported map[string]struct{}
	tags      []string
	matcher   language.Matcher
}

// Load reads <dir>/<lang>.json for every supported locale. The fallback locale must exist;
// other missing files are skipped.
func Load(dir string, fallback string, supported []string) (*Bundle, error) {
	fallback = strings.ToLower(strings.TrimSpace(fallback))
	b := &Bundle{
		dict:      map[string]map[string]string{},
		fallback:  fallback,
		supported: map[string]struct{}{},
	}
	if len(supported) == 0 {
		supported = []string{"tr", "en"}
	}
	// the matcher falls back to its first tag, so the fallback goes first
	ordered := []string{fallback}
	for _, l := range supported {
		l = strings.ToLower(strings.TrimSpace(l))
		if l != "" && l != fallback {
			ordered = append(ordered, l)
		}
	}
	var tags []language.Tag
	for _, l := range ordered {
		path := filepath.Join(dir, l+".json")
		raw, err := os.ReadFile(path)
		if err != nil {
			if l == fallback {
				return nil, fmt.Errorf("load locale %s: %w", l, err)
			}
			continue
		}
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", l, err)
		}
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", l, err)
		}
		b.dict[l] = m
		b.supported[l] = struct{}{}
		b.tags = append(b.tags, l)
		tags = append(tags, tag)
	}
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

// Supported lists the loaded locales in sorted order.
func (b *Bundle) Supported() []string {
	out := make([]string, 0, len(b.supported))
	for k := range b.supported {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// IsSupported reports whether lang has a loaded dictionary.
func (b *Bundle) IsSupported(lang string) bool {
	_, ok := b.supported[strings.ToLower(lang)]
	return ok
}

// Normalize returns lang when supported, else the fallback.
func (b *Bundle) Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if b.IsSupported(lang) {
		return lang
	}
	if base, _, ok := strings.Cut(lang, "-"); ok && b.IsSupported(base) {
		return base
	}
	return b.fallback
}

// T returns translation for key in lang, falling back to default and finally key.
func (b *Bundle) T(lang, key string) string {
	if lang != "" {
		if m, ok := b.dict[lang]; ok {
			if v, ok := m[key]; ok {
				return v
			}
		}
	}
	if m, ok := b.dict[b.fallback]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}

// Tf translates key and substitutes fmt verbs with args.
func (b *Bundle) Tf(lang, key string, args ...any) string {
	return fmt.Sprintf(b.T(lang, key), args...)
}

// Resolve chooses the best supported language from an Accept-Language header.
func (b *Bundle) Resolve(acceptLang string) string {
	if strings.TrimSpace(acceptLang) == "" || b.matcher == nil {
		return b.fallback
	}
	prefs, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(prefs) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(prefs...)
	if conf == language.No || idx < 0 || idx >= len(b.tags) {
		return b.fallback
	}
	return b.tags[idx]
}
