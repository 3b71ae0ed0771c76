// Package config loads the cardna service configuration: defaults, then an
// optional YAML file, then CARDNA_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment overrides. A double underscore separates
// nesting levels: CARDNA_HTTP__ADDR sets http.addr.
const EnvPrefix = "CARDNA_"

// MaxSearchDelay bounds the simulated analysis delay.
const MaxSearchDelay = 30 * time.Second

// Config is the top-level configuration, corresponding to cardna.yaml.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http" koanf:"http"`
	Log     LogConfig     `yaml:"log" koanf:"log"`
	Search  SearchConfig  `yaml:"search" koanf:"search"`
	NATS    NATSConfig    `yaml:"nats" koanf:"nats"`
	Catalog CatalogConfig `yaml:"catalog" koanf:"catalog"`
}

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Addr            string        `yaml:"addr" koanf:"addr"`
	CORSOrigin      string        `yaml:"cors_origin" koanf:"cors_origin"`
	ReadTimeout     time.Duration `yaml:"read_timeout" koanf:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" koanf:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" koanf:"shutdown_timeout"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}

// SearchConfig tunes profile searches.
type SearchConfig struct {
	// Delay is the simulated analysis time. Zero disables it.
	Delay time.Duration `yaml:"delay" koanf:"delay"`
	// Rate is searches per second across all visitors. Zero disables
	// limiting.
	Rate  float64 `yaml:"rate" koanf:"rate"`
	Burst int     `yaml:"burst" koanf:"burst"`
}

// NATSConfig enables domain event publishing. An empty URL disables it.
type NATSConfig struct {
	URL           string `yaml:"url" koanf:"url"`
	SubjectPrefix string `yaml:"subject_prefix" koanf:"subject_prefix"`
}

// CatalogConfig points at an alternative dataset. An empty path uses the
// embedded catalog.
type CatalogConfig struct {
	Path string `yaml:"path" koanf:"path"`
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			CORSOrigin:      "*",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Search: SearchConfig{
			Delay: 800 * time.Millisecond,
			Rate:  20,
			Burst: 40,
		},
		NATS: NATSConfig{SubjectPrefix: "cardna"},
	}
}

// Load reads configuration from the YAML file at path (skipped when path
// is empty), then overlays CARDNA_* environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshalling: %w", err)
	}
	return cfg, nil
}

// envKey maps CARDNA_SEARCH__DELAY to search.delay.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var validFormats = map[string]bool{"json": true, "text": true}

// Validate checks that the configuration contains usable values. All
// problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if _, _, err := net.SplitHostPort(c.HTTP.Addr); err != nil {
		errs = append(errs, fmt.Errorf("http.addr %q: %w", c.HTTP.Addr, err))
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http.shutdown_timeout must be positive"))
	}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Errorf("invalid log.level %q: must be one of debug, info, warn, error", c.Log.Level))
	}
	if !validFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, fmt.Errorf("invalid log.format %q: must be json or text", c.Log.Format))
	}
	if c.Search.Delay < 0 || c.Search.Delay > MaxSearchDelay {
		errs = append(errs, fmt.Errorf("search.delay %s must be between 0 and %s", c.Search.Delay, MaxSearchDelay))
	}
	if c.Search.Rate < 0 {
		errs = append(errs, fmt.Errorf("search.rate must be non-negative"))
	}
	if c.Search.Rate > 0 && c.Search.Burst < 1 {
		errs = append(errs, fmt.Errorf("search.burst must be at least 1 when search.rate is set"))
	}
	if c.NATS.URL != "" {
		if err := validSubjectPrefix(c.NATS.SubjectPrefix); err != nil {
			errs = append(errs, fmt.Errorf("nats.subject_prefix %q: %w", c.NATS.SubjectPrefix, err))
		}
	}
	return errors.Join(errs...)
}

func validSubjectPrefix(p string) error {
	if p == "" {
		return errors.New("must not be empty")
	}
	for _, tok := range strings.Split(p, ".") {
		if tok == "" {
			return errors.New("empty token")
		}
		if strings.ContainsAny(tok, "*> \t\r\n") {
			return errors.New("wildcards and whitespace are not allowed")
		}
	}
	return nil
}
