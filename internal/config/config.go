package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/matsen/reffix/internal/dblp"
	"github.com/matsen/reffix/internal/fixer"
	"github.com/matsen/reffix/internal/match"
)

// Settings are the resolved runtime settings: defaults, then the global
// config file, then the environment. Command-line flags are applied on top
// by the caller.
type Settings struct {
	DBLPURL        string
	UserAgent      string
	RateLimit      float64 // requests per second; <= 0 disables limiting
	MaxRetries     int
	MaxHits        int // 0 = server default
	Concurrency    int
	TitleThreshold float64
	LogLevel       string
	LogFormat      string
}

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REFFIX_"

// ValidLogLevels lists the accepted log_level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// ValidLogFormats lists the accepted log_format values.
var ValidLogFormats = []string{"text", "json"}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		DBLPURL:        dblp.BaseURL,
		UserAgent:      dblp.DefaultUserAgent,
		RateLimit:      dblp.RateLimit,
		MaxRetries:     dblp.DefaultMaxRetries,
		Concurrency:    fixer.DefaultConcurrency,
		TitleThreshold: match.DefaultTitleThreshold,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load resolves settings from the defaults, the global config file, the
// .env file in the working directory and REFFIX_* environment variables.
func Load() (Settings, error) {
	s := Defaults()

	cfg, err := LoadGlobalConfig()
	if err != nil {
		return s, err
	}
	s.ApplyFile(cfg)

	if err := LoadDotEnv(DotEnvFile); err != nil {
		return s, err
	}
	if err := s.ApplyEnv(os.LookupEnv); err != nil {
		return s, err
	}
	return s, s.Validate()
}

// ApplyFile overrides settings with the keys set in cfg.
func (s *Settings) ApplyFile(cfg *GlobalConfig) {
	if cfg == nil {
		return
	}
	if cfg.DBLPURL != "" {
		s.DBLPURL = cfg.DBLPURL
	}
	if cfg.UserAgent != "" {
		s.UserAgent = cfg.UserAgent
	}
	if cfg.RateLimit != nil {
		s.RateLimit = *cfg.RateLimit
	}
	if cfg.MaxRetries != nil {
		s.MaxRetries = *cfg.MaxRetries
	}
	if cfg.MaxHits != 0 {
		s.MaxHits = cfg.MaxHits
	}
	if cfg.Concurrency != 0 {
		s.Concurrency = cfg.Concurrency
	}
	if cfg.TitleThreshold != 0 {
		s.TitleThreshold = cfg.TitleThreshold
	}
	if cfg.LogLevel != "" {
		s.LogLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" {
		s.LogFormat = cfg.LogFormat
	}
}

// ApplyEnv overrides settings with REFFIX_* variables found by lookup.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("DBLP_URL"); ok {
		s.DBLPURL = v
	}
	if v, ok := get("USER_AGENT"); ok {
		s.UserAgent = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		s.LogLevel = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		s.LogFormat = v
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"RATE_LIMIT", &s.RateLimit},
		{"TITLE_THRESHOLD", &s.TitleThreshold},
	}
	for _, f := range floats {
		v, ok := get(f.name)
		if !ok {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %q", EnvPrefix, f.name, v)
		}
		*f.dst = n
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"MAX_RETRIES", &s.MaxRetries},
		{"MAX_HITS", &s.MaxHits},
		{"CONCURRENCY", &s.Concurrency},
	}
	for _, f := range ints {
		v, ok := get(f.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %q", EnvPrefix, f.name, v)
		}
		*f.dst = n
	}
	return nil
}

// Validate checks that every setting is usable.
func (s Settings) Validate() error {
	u, err := url.Parse(s.DBLPURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid dblp_url: %q", s.DBLPURL)
	}
	if s.MaxRetries < 0 {
		return fmt.Errorf("invalid max_retries: %d (must be >= 0)", s.MaxRetries)
	}
	if s.MaxHits < 0 {
		return fmt.Errorf("invalid max_hits: %d (must be >= 0)", s.MaxHits)
	}
	if s.Concurrency < 1 {
		return fmt.Errorf("invalid concurrency: %d (must be >= 1)", s.Concurrency)
	}
	if s.TitleThreshold <= 0 || s.TitleThreshold > 1 {
		return fmt.Errorf("invalid title_threshold: %g (must be in (0, 1])", s.TitleThreshold)
	}
	if !slices.Contains(ValidLogLevels, s.LogLevel) {
		return fmt.Errorf("invalid log_level: %s (valid: %v)", s.LogLevel, ValidLogLevels)
	}
	if !slices.Contains(ValidLogFormats, s.LogFormat) {
		return fmt.Errorf("invalid log_format: %s (valid: %v)", s.LogFormat, ValidLogFormats)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
