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
)

const (
	EnvBackendURL      = "XINFERENCE_URL"
	EnvAPIKey          = "XINFERENCE_API_KEY"
	EnvInterval        = "RECONCILE_INTERVAL"
	EnvConfigPath      = "MODELKEEPER_CONFIG"
	EnvLogLevel        = "MODELKEEPER_LOG_LEVEL"
	EnvLogJSON         = "MODELKEEPER_LOG_JSON"
	EnvMetricsAddr     = "MODELKEEPER_METRICS_ADDR"
	EnvShutdownTimeout = "MODELKEEPER_SHUTDOWN_TIMEOUT"
	EnvListTimeout     = "MODELKEEPER_LIST_TIMEOUT"
	EnvLaunchTimeout   = "MODELKEEPER_LAUNCH_TIMEOUT"
)

const (
	DefaultConfigPath      = "config.yaml"
	DefaultEnvFile         = ".env"
	DefaultInterval        = 300 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
	DefaultListTimeout     = 30 * time.Second
	DefaultLaunchTimeout   = 30 * time.Minute
	DefaultLogLevel        = "info"
)

// Config holds daemon settings read from the environment
type Config struct {
	BackendURL      string
	APIKey          string
	Interval        time.Duration
	ConfigPath      string
	LogLevel        string
	LogJSON         bool
	MetricsAddr     string
	ShutdownTimeout time.Duration
	ListTimeout     time.Duration
	LaunchTimeout   time.Duration
}

// LookupFunc resolves an environment variable
type LookupFunc func(key string) (string, bool)

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment,
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &Error{Source: path, Err: err}
	}
	if err := godotenv.Overload(path); err != nil {
		return &Error{Source: path, Err: fmt.Errorf("parse env file: %w", err)}
	}
	return nil
}

// Load reads the configuration from the process environment
func Load() (*Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup reads the configuration through lookup and validates it
func FromLookup(lookup LookupFunc) (*Config, error) {
	cfg := &Config{
		Interval:        DefaultInterval,
		ConfigPath:      DefaultConfigPath,
		LogLevel:        DefaultLogLevel,
		ShutdownTimeout: DefaultShutdownTimeout,
		ListTimeout:     DefaultListTimeout,
		LaunchTimeout:   DefaultLaunchTimeout,
	}

	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvBackendURL); ok {
		cfg.BackendURL = v
	}
	if v, ok := get(EnvAPIKey); ok {
		cfg.APIKey = v
	}
	if v, ok := get(EnvConfigPath); ok {
		cfg.ConfigPath = v
	}
	if v, ok := get(EnvLogLevel); ok {
		cfg.LogLevel = v
	}
	if v, ok := get(EnvMetricsAddr); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := get(EnvLogJSON); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, Errorf("environment", EnvLogJSON, "not a boolean: %q", v)
		}
		cfg.LogJSON = b
	}

	durations := []struct {
		key       string
		dst       *time.Duration
		allowZero bool
	}{
		{EnvInterval, &cfg.Interval, false},
		{EnvShutdownTimeout, &cfg.ShutdownTimeout, true},
		{EnvListTimeout, &cfg.ListTimeout, false},
		{EnvLaunchTimeout, &cfg.LaunchTimeout, false},
	}
	for _, d := range durations {
		v, ok := get(d.key)
		if !ok {
			continue
		}
		parsed, err := parseDuration(v, d.allowZero)
		if err != nil {
			return nil, &Error{Source: "environment", Field: d.key, Err: err}
		}
		*d.dst = parsed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return Errorf("environment", EnvBackendURL, "environment variable is not set")
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return &Error{Source: "environment", Field: EnvBackendURL, Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Errorf("environment", EnvBackendURL, "expected an http(s) URL, got %q", c.BackendURL)
	}
	c.BackendURL = strings.TrimRight(c.BackendURL, "/")

	if c.Interval <= 0 {
		return Errorf("environment", EnvInterval, "must be positive")
	}
	if c.ShutdownTimeout < 0 {
		return Errorf("environment", EnvShutdownTimeout, "must not be negative")
	}
	return nil
}

// ParseInterval parses a polling interval given either as whole seconds
// ("300") or as a Go duration ("5m"). The result must be positive.
func ParseInterval(s string) (time.Duration, error) {
	return parseDuration(s, false)
}

func parseDuration(s string, allowZero bool) (time.Duration, error) {
	s = strings.TrimSpace(s)

	var d time.Duration
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		d = time.Duration(secs * float64(time.Second))
	} else {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("not a number of seconds or a duration: %q", s)
		}
		d = parsed
	}

	if d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("must be positive, got %q", s)
	}
	return d, nil
}
