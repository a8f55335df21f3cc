package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// AssetsWithCache wraps a file server and applies Cache-Control, Vary, and ETag handling.
// In dev mode assets are revalidated on every request and ETags are not precomputed.
func AssetsWithCache(dir string, dev bool) http.Handler {
	etags := map[string]string{}
	if !dev {
		_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil || info == nil || info.IsDir() {
				return nil
			}
			et, err := fileETag(path)
			if err != nil {
				return nil
			}
			if rel, err := filepath.Rel(dir, path); err == nil {
				etags["/"+filepath.ToSlash(rel)] = et
			}
			return nil
		})
	}
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Accept-Encoding")
		if dev {
			w.Header().Set("Cache-Control", "no-cache")
			fs.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=604800, stale-while-revalidate=86400")
		if et := etags[strings.TrimPrefix(r.URL.Path, "/assets")]; et != "" {
			w.Header().Set("ETag", et)
			if etagMatches(r.Header.Get("If-None-Match"), et) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
		fs.ServeHTTP(w, r)
	})
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

func fileETag(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return `W/"` + hex.EncodeToString(h.Sum(nil)[:16]) + `"`, nil
}
