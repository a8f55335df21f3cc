// Package config loads runtime settings for the web front-end.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile         = ".env"
	defaultPort            = "8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultTMDBBaseURL     = "https://api.themoviedb.org/3"
	defaultTMDBImageURL    = "https://image.tmdb.org/t/p"
	defaultTMDBTimeout     = 8 * time.Second
	defaultSearchDebounce  = 500 * time.Millisecond
	defaultGenreCacheTTL   = 6 * time.Hour
	defaultRatingThreshold = 7.0
	defaultReleaseFrom     = "2023-01-01"
	defaultReleaseTo       = "2025-12-31"
	defaultLocale          = "tr"
	defaultEnvironment     = "local"
	defaultLogLevel        = "info"
	dateLayout             = "2006-01-02"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server  ServerConfig
	TMDB    TMDBConfig
	Catalog CatalogConfig
	Site    SiteConfig
	Log     LogConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// TMDBConfig holds the metadata API credential and endpoints.
type TMDBConfig struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	// Language overrides the per-request language derived from the UI locale.
	Language string
	Timeout  time.Duration
}

// CatalogConfig tunes the listing rules and caches.
type CatalogConfig struct {
	SearchDebounce  time.Duration
	GenreCacheTTL   time.Duration
	RatingThreshold float64
	ReleaseFrom     string
	ReleaseTo       string
}

// SiteConfig carries presentation and session settings.
type SiteConfig struct {
	DefaultLocale     string
	Environment       string
	Dev               bool
	SessionSigningKey string
	GAMeasurementID   string
	BaseURL           string
}

// LogConfig controls logger verbosity.
type LogConfig struct {
	Level string
}

// Production reports whether the service runs in the production environment.
func (c Config) Production() bool {
	return c.Site.Environment == "prod" || c.Site.Environment == "production"
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Has reports whether name is among the failing fields.
func (e *ValidationError) Has(name string) bool {
	for _, f := range e.fields {
		if f == name {
			return true
		}
	}
	return false
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults, .env overrides, environment variables
// and an optional explicit map, in increasing precedence. Malformed values yield a
// *ValidationError; a missing TMDB credential does not and is reported by Validate.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	p := parser{lookup: lookup}
	cfg := Config{
		Server: ServerConfig{
			Addr:         resolveAddr(lookup),
			ReadTimeout:  p.duration("CINEMA_READ_TIMEOUT", "Server.ReadTimeout", defaultReadTimeout),
			WriteTimeout: p.duration("CINEMA_WRITE_TIMEOUT", "Server.WriteTimeout", defaultWriteTimeout),
			IdleTimeout:  p.duration("CINEMA_IDLE_TIMEOUT", "Server.IdleTimeout", defaultIdleTimeout),
		},
		TMDB: TMDBConfig{
			APIKey:       firstNonEmpty(lookup, "CINEMA_TMDB_API_KEY", "TMDB_API_KEY", "NEXT_PUBLIC_TMDB_API_KEY"),
			BaseURL:      strings.TrimRight(stringWithDefault(lookup, "CINEMA_TMDB_BASE_URL", defaultTMDBBaseURL), "/"),
			ImageBaseURL: strings.TrimRight(stringWithDefault(lookup, "CINEMA_TMDB_IMAGE_BASE_URL", defaultTMDBImageURL), "/"),
			Language:     strings.TrimSpace(stringWithDefault(lookup, "CINEMA_TMDB_LANGUAGE", "")),
			Timeout:      p.duration("CINEMA_TMDB_TIMEOUT", "TMDB.Timeout", defaultTMDBTimeout),
		},
		Catalog: CatalogConfig{
			SearchDebounce:  p.duration("CINEMA_SEARCH_DEBOUNCE", "Catalog.SearchDebounce", defaultSearchDebounce),
			GenreCacheTTL:   p.duration("CINEMA_GENRE_CACHE_TTL", "Catalog.GenreCacheTTL", defaultGenreCacheTTL),
			RatingThreshold: p.float("CINEMA_RATING_THRESHOLD", "Catalog.RatingThreshold", defaultRatingThreshold),
			ReleaseFrom:     p.date("CINEMA_RELEASE_FROM", "Catalog.ReleaseFrom", defaultReleaseFrom),
			ReleaseTo:       p.date("CINEMA_RELEASE_TO", "Catalog.ReleaseTo", defaultReleaseTo),
		},
		Site: SiteConfig{
			DefaultLocale:     strings.ToLower(stringWithDefault(lookup, "CINEMA_DEFAULT_LOCALE", defaultLocale)),
			Environment:       strings.ToLower(stringWithDefault(lookup, "CINEMA_ENV", defaultEnvironment)),
			Dev:               boolWithDefault(lookup, "CINEMA_DEV", false) || boolWithDefault(lookup, "DEV", false),
			SessionSigningKey: stringWithDefault(lookup, "CINEMA_SESSION_SIGNING_KEY", ""),
			GAMeasurementID:   stringWithDefault(lookup, "CINEMA_GA_MEASUREMENT_ID", ""),
			BaseURL:           strings.TrimRight(stringWithDefault(lookup, "CINEMA_SITE_URL", ""), "/"),
		},
		Log: LogConfig{
			Level: strings.ToLower(stringWithDefault(lookup, "CINEMA_LOG_LEVEL", defaultLogLevel)),
		},
	}

	invalid := p.invalid
	if cfg.Server.Addr == "" {
		invalid = append(invalid, "Server.Addr")
	}
	if cfg.TMDB.Timeout <= 0 {
		invalid = appendOnce(invalid, "TMDB.Timeout")
	}
	if cfg.Catalog.SearchDebounce < 0 {
		invalid = appendOnce(invalid, "Catalog.SearchDebounce")
	}
	if cfg.Catalog.ReleaseFrom > cfg.Catalog.ReleaseTo {
		invalid = appendOnce(invalid, "Catalog.ReleaseFrom")
	}
	if len(invalid) > 0 {
		return cfg, &ValidationError{fields: invalid}
	}
	return cfg, nil
}

// Validate reports settings that prevent the catalog from working, currently the
// TMDB credential. The server keeps running and surfaces the problem on every page.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.TMDB.APIKey) == "" {
		missing = append(missing, "TMDB.APIKey")
	}
	if strings.TrimSpace(c.TMDB.BaseURL) == "" {
		missing = append(missing, "TMDB.BaseURL")
	}
	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

// IsValidationError reports whether err is (or wraps) a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// resolveAddr prefers CINEMA_ADDR, then CINEMA_PORT, then the platform PORT.
func resolveAddr(lookup func(string) (string, bool)) string {
	if addr := stringWithDefault(lookup, "CINEMA_ADDR", ""); addr != "" {
		return addr
	}
	port := firstNonEmpty(lookup, "CINEMA_PORT", "PORT")
	if port == "" {
		port = defaultPort
	}
	return ":" + strings.TrimPrefix(port, ":")
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

// parser records the config fields whose raw values failed to parse.
type parser struct {
	lookup  func(string) (string, bool)
	invalid []string
}

func (p *parser) duration(key, field string, fallback time.Duration) time.Duration {
	value, ok := p.lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		p.invalid = appendOnce(p.invalid, field)
		return fallback
	}
	return d
}

func (p *parser) float(key, field string, fallback float64) float64 {
	value, ok := p.lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || f < 0 || f > 10 {
		p.invalid = appendOnce(p.invalid, field)
		return fallback
	}
	return f
}

func (p *parser) date(key, field, fallback string) string {
	value, ok := p.lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	value = strings.TrimSpace(value)
	if _, err := time.Parse(dateLayout, value); err != nil {
		p.invalid = appendOnce(p.invalid, field)
		return fallback
	}
	return value
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func firstNonEmpty(lookup func(string) (string, bool), keys ...string) string {
	for _, key := range keys {
		if value := stringWithDefault(lookup, key, ""); value != "" {
			return value
		}
	}
	return ""
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func appendOnce(list []string, name string) []string {
	for _, existing := range list {
		if existing == name {
			return list
		}
	}
	return append(list, name)
}
