package cms

import (
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when no page exists for a slug in any candidate language.
var ErrNotFound = errors.New("cms: not found")

// Page is a localized static page sourced from local markdown.
type Page struct {
	Slug      string
	Lang      string
	Title     string
	Summary   string
	HTML      template.HTML
	UpdatedAt time.Time
	SourceURL string
	SEO       PageSEO
}

// PageSEO holds optional metadata overrides.
type PageSEO struct {
	Title       string
	Description string
	OGImage     string
}

type frontMatter struct {
	Title     string         `yaml:"title"`
	Summary   string         `yaml:"summary"`
	Lang      string         `yaml:"lang"`
	UpdatedAt string         `yaml:"updated_at"`
	SourceURL string         `yaml:"source_url"`
	SEO       frontMatterSEO `yaml:"seo"`
}

type frontMatterSEO struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	OGImage     string `yaml:"og_image"`
}

const (
	defaultContentDir = "content"
	defaultCacheTTL   = 5 * time.Minute
	pagesKind         = "pages"
)

type cacheEntry struct {
	page    Page
	expires time.Time
}

// Store reads markdown pages from <dir>/pages/<lang>/<slug>.md and keeps rendered
// results for a short while.
type Store struct {
	dir      string
	fallback string
	ttl      time.Duration
	now      func() time.Time

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewStore builds a Store over dir. fallback is tried when a page is missing in
// the requested language. A ttl of zero disables caching.
func NewStore(dir, fallback string, ttl time.Duration) *Store {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = defaultContentDir
	}
	if ttl < 0 {
		ttl = defaultCacheTTL
	}
	return &Store{
		dir:      dir,
		fallback: strings.ToLower(strings.TrimSpace(fallback)),
		ttl:      ttl,
		now:      time.Now,
		items:    map[string]cacheEntry{},
	}
}

// Page returns the page for slug in lang, falling back to the store's fallback language.
func (s *Store) Page(slug, lang string) (Page, error) {
	slug = sanitizeSlug(slug)
	if slug == "" {
		return Page{}, ErrNotFound
	}
	lang = strings.ToLower(strings.TrimSpace(lang))
	key := lang + "|" + slug
	if page, ok := s.cached(key); ok {
		return page, nil
	}

	priority := []string{lang}
	if s.fallback != "" && s.fallback != lang {
		priority = append(priority, s.fallback)
	}
	for _, candidate := range priority {
		if candidate == "" {
			continue
		}
		page, err := s.read(slug, candidate)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return Page{}, err
		}
		s.store(key, page)
		return page, nil
	}
	return Page{}, ErrNotFound
}

func (s *Store) read(slug, lang string) (Page, error) {
	file := filepath.Join(s.dir, pagesKind, lang, slug+".md")
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Page{}, ErrNotFound
		}
		return Page{}, err
	}
	fm, body := splitFrontMatter(string(data))
	front := frontMatter{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Page{}, fmt.Errorf("cms: parse front matter %s: %w", file, err)
		}
	}
	rendered, err := RenderMarkdown(body)
	if err != nil {
		return Page{}, fmt.Errorf("cms: render %s: %w", file, err)
	}
	page := Page{
		Slug:      slug,
		Lang:      firstNonEmpty(strings.TrimSpace(front.Lang), lang),
		Title:     strings.TrimSpace(front.Title),
		Summary:   strings.TrimSpace(front.Summary),
		HTML:      rendered,
		UpdatedAt: parseContentDate(front.UpdatedAt),
		SourceURL: strings.TrimSpace(front.SourceURL),
		SEO: PageSEO{
			Title:       strings.TrimSpace(front.SEO.Title),
			Description: strings.TrimSpace(front.SEO.Description),
			OGImage:     strings.TrimSpace(front.SEO.OGImage),
		},
	}
	if page.UpdatedAt.IsZero() {
		if info, err := os.Stat(file); err == nil {
			page.UpdatedAt = info.ModTime()
		}
	}
	if page.Title == "" {
		page.Title = prettifySlug(slug)
	}
	if page.Summary == "" {
		page.Summary = Summarize(string(rendered), 160)
	}
	return page, nil
}

func (s *Store) cached(key string) (Page, bool) {
	if s.ttl == 0 {
		return Page{}, false
	}
	s.mu.RLock()
	entry, ok := s.items[key]
	s.mu.RUnlock()
	if !ok || s.now().After(entry.expires) {
		return Page{}, false
	}
	return entry.page, true
}

func (s *Store) store(key string, page Page) {
	if s.ttl == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = cacheEntry{page: page, expires: s.now().Add(s.ttl)}
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if len(lines) == 0 {
		return "", ""
	}
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}

func parseContentDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006/01/02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func prettifySlug(slug string) string {
	parts := strings.Split(strings.TrimSpace(slug), "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		runes := []rune(part)
		if runes[0] >= 'a' && runes[0] <= 'z' {
			runes[0] -= 'a' - 'A'
		}
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}

func sanitizeSlug(slug string) string {
	slug = strings.Trim(strings.TrimSpace(strings.ToLower(slug)), "/")
	if slug == "" || strings.Contains(slug, "..") || strings.ContainsAny(slug, `/\`) {
		return ""
	}
	return slug
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
