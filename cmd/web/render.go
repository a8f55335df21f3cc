package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"finitefield.org/cinema-web/internal/logging"
	mw "finitefield.org/cinema-web/internal/middleware"
)

// pagesDir holds one template per page, each defining "content". Everything else
// (layouts and partials) is shared.
const pagesDir = "pages"

// templateSet is the parsed template tree. Shared templates live in root; each
// page gets its own clone so their "content" blocks do not collide.
type templateSet struct {
	root  *template.Template
	pages map[string]*template.Template
}

// templateCache parses once, or on every call in dev mode.
type templateCache struct {
	dir   string
	funcs template.FuncMap
	dev   bool

	once sync.Once
	set  *templateSet
	err  error
}

func newTemplateCache(dir string, funcs template.FuncMap, dev bool) *templateCache {
	return &templateCache{dir: dir, funcs: funcs, dev: dev}
}

func (c *templateCache) get() (*templateSet, error) {
	if c.dev {
		return parseTemplates(c.dir, c.funcs)
	}
	c.once.Do(func() {
		c.set, c.err = parseTemplates(c.dir, c.funcs)
	})
	return c.set, c.err
}

func parseTemplates(dir string, funcs template.FuncMap) (*templateSet, error) {
	// Recursively discover all .tmpl files. Note: ParseGlob doesn't support **.
	var shared, pages []string
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".tmpl") {
			return nil
		}
		if filepath.Base(filepath.Dir(path)) == pagesDir {
			pages = append(pages, path)
		} else {
			shared = append(shared, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(shared) == 0 || len(pages) == 0 {
		return nil, fmt.Errorf("no templates found under %s", dir)
	}
	root, err := template.New("_root").Funcs(funcs).ParseFiles(shared...)
	if err != nil {
		return nil, err
	}
	set := &templateSet{root: root, pages: make(map[string]*template.Template, len(pages))}
	for _, p := range pages {
		clone, err := root.Clone()
		if err != nil {
			return nil, err
		}
		t, err := clone.ParseFiles(p)
		if err != nil {
			return nil, err
		}
		set.pages[strings.TrimSuffix(filepath.Base(p), ".tmpl")] = t
	}
	return set, nil
}

func (a *app) funcMap() template.FuncMap {
	return template.FuncMap{
		"now":    time.Now,
		"t":      a.bundle.T,
		"tf":     a.bundle.Tf,
		"frag":   fragmentURL,
		"jsonld": func(s string) template.JS { return template.JS(s) },
	}
}

// fragmentURL turns a list page href into the htmx fragment endpoint for the same
// state, e.g. "/?genre=28" into "/movies?genre=28".
func fragmentURL(href string) string {
	if href == listPath {
		return "/movies"
	}
	if q, ok := strings.CutPrefix(href, listPath+"?"); ok {
		return "/movies?" + q
	}
	return href
}

// renderPage executes the base layout around the named page. Output is buffered so
// a failing template never leaves a half-written 200.
func (a *app) renderPage(w http.ResponseWriter, r *http.Request, code int, page string, data any) {
	set, err := a.tmpl.get()
	if err != nil {
		a.templateFailure(w, r, err)
		return
	}
	t, ok := set.pages[page]
	if !ok {
		a.templateFailure(w, r, fmt.Errorf("page template %q not found", page))
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		a.templateFailure(w, r, err)
		return
	}
	writeHTML(w, code, buf.Bytes())
}

// renderFragment executes one shared template without the layout.
func (a *app) renderFragment(w http.ResponseWriter, r *http.Request, code int, name string, data any) {
	out, err := a.renderString(name, data)
	if err != nil {
		a.templateFailure(w, r, err)
		return
	}
	writeHTML(w, code, []byte(out))
}

func (a *app) renderString(name string, data any) (string, error) {
	set, err := a.tmpl.get()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := set.root.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (a *app) templateFailure(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context()).Error("template render failed", zap.Error(err))
	msg := "template error"
	if a.cfg.Site.Dev {
		msg = fmt.Sprintf("template error: %v", err)
	}
	mw.WriteError(w, r, http.StatusInternalServerError, msg)
}

func writeHTML(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
