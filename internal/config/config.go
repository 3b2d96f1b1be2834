// Package config loads the client configuration from a YAML file,
// an optional .env file and TRANSITDESK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every recognised environment variable.
const EnvPrefix = "TRANSITDESK_"

// Config validation errors.
var (
	ErrInvalidBaseURL = errors.New("api.base_url must be an absolute http(s) URL")
	ErrInvalidTimeout = errors.New("api.timeout must be positive")
	ErrInvalidRetries = errors.New("api.max_retries must not be negative")
	ErrInvalidLevel   = errors.New("log.level is not a valid level")
	ErrInvalidFormat  = errors.New("log.format must be TEXT or JSON")
)

// Config holds client configuration.
type Config struct {
	API          APIConfig          `yaml:"api"`
	DataDir      string             `yaml:"data_dir"`
	Log          LogConfig          `yaml:"log"`
	Autocomplete AutocompleteConfig `yaml:"autocomplete"`
	Cache        CacheConfig        `yaml:"cache"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
}

// APIConfig configures the transport API client.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	// MaxRetries of 0 uses the client default.
	MaxRetries int           `yaml:"max_retries"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AutocompleteConfig configures location suggestions.
type AutocompleteConfig struct {
	NewestOnly bool `yaml:"newest_only"`
}

// CacheConfig configures the location lookup cache.
type CacheConfig struct {
	LocationTTL time.Duration `yaml:"location_ttl"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:    "https://transport.opendata.ch/v1",
			Timeout:    10 * time.Second,
			MaxRetries: 2,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "TEXT",
		},
		Cache: CacheConfig{
			LocationTTL: 10 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "localhost:4317",
		},
	}
}

// Load reads path over the defaults, then applies the environment.
// A missing file is not an error; an empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadDotEnv loads a .env file into the process environment without
// overriding variables that are already set. A missing file is ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from TRANSITDESK_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = d
		return nil
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
		return nil
	}

	str("API_BASE_URL", &c.API.BaseURL)
	str("DATA_DIR", &c.DataDir)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("OTLP_ENDPOINT", &c.Telemetry.OTLPEndpoint)

	if v, ok := lookup(EnvPrefix + "API_MAX_RETRIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sAPI_MAX_RETRIES: %w", EnvPrefix, err)
		}
		c.API.MaxRetries = n
	}

	return errors.Join(
		dur("API_TIMEOUT", &c.API.Timeout),
		dur("LOCATION_CACHE_TTL", &c.Cache.LocationTTL),
		boolean("AUTOCOMPLETE_NEWEST_ONLY", &c.Autocomplete.NewestOnly),
		boolean("TELEMETRY_ENABLED", &c.Telemetry.Enabled),
	)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ErrInvalidBaseURL)
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, ErrInvalidTimeout)
	}
	if c.API.MaxRetries < 0 {
		errs = append(errs, ErrInvalidRetries)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		errs = append(errs, ErrInvalidLevel)
	}
	switch strings.ToUpper(c.Log.Format) {
	case "TEXT", "JSON":
	default:
		errs = append(errs, ErrInvalidFormat)
	}
	return errors.Join(errs...)
}

// NewLogger builds the process logger described by the log settings.
func (c LogConfig) NewLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if strings.EqualFold(c.Format, "JSON") {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return logger.Level(level).With().Timestamp().Logger()
}
