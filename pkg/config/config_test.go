package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupMap(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookupDefaults(t *testing.T) {
	cfg, err := FromLookup(lookupMap(map[string]string{
		EnvBackendURL: "http://127.0.0.1:9997/",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:9997", cfg.BackendURL, "trailing slash is trimmed")
	assert.Equal(t, DefaultInterval, cfg.Interval)
	assert.Equal(t, 300*time.Second, cfg.Interval)
	assert.Equal(t, DefaultConfigPath, cfg.ConfigPath)
	assert.Equal(t, DefaultShutdownTimeout, cfg.ShutdownTimeout)
	assert.Equal(t, DefaultListTimeout, cfg.ListTimeout)
	assert.Equal(t, DefaultLaunchTimeout, cfg.LaunchTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogJSON)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Empty(t, cfg.APIKey)
}

func TestFromLookupOverrides(t *testing.T) {
	cfg, err := FromLookup(lookupMap(map[string]string{
		EnvBackendURL:      "https://xinference.internal",
		EnvAPIKey:          "sk-test",
		EnvInterval:        "60",
		EnvConfigPath:      "/etc/modelkeeper/models.toml",
		EnvLogLevel:        "debug",
		EnvLogJSON:         "true",
		EnvMetricsAddr:     ":9090",
		EnvShutdownTimeout: "0",
		EnvListTimeout:     "10s",
		EnvLaunchTimeout:   "1h",
	}))
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, time.Minute, cfg.Interval)
	assert.Equal(t, "/etc/modelkeeper/models.toml", cfg.ConfigPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, time.Duration(0), cfg.ShutdownTimeout)
	assert.Equal(t, 10*time.Second, cfg.ListTimeout)
	assert.Equal(t, time.Hour, cfg.LaunchTimeout)
}

func TestFromLookupErrors(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		field string
	}{
		{
			name:  "missing backend url",
			env:   map[string]string{},
			field: EnvBackendURL,
		},
		{
			name:  "blank backend url",
			env:   map[string]string{EnvBackendURL: "   "},
			field: EnvBackendURL,
		},
		{
			name:  "backend url without scheme",
			env:   map[string]string{EnvBackendURL: "localhost:9997"},
			field: EnvBackendURL,
		},
		{
			name:  "zero interval",
			env:   map[string]string{EnvBackendURL: "http://x", EnvInterval: "0"},
			field: EnvInterval,
		},
		{
			name:  "negative interval",
			env:   map[string]string{EnvBackendURL: "http://x", EnvInterval: "-5m"},
			field: EnvInterval,
		},
		{
			name:  "garbage interval",
			env:   map[string]string{EnvBackendURL: "http://x", EnvInterval: "often"},
			field: EnvInterval,
		},
		{
			name:  "bad bool",
			env:   map[string]string{EnvBackendURL: "http://x", EnvLogJSON: "sometimes"},
			field: EnvLogJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromLookup(lookupMap(tt.env))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)

			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"300", 300 * time.Second, false},
		{"1.5", 1500 * time.Millisecond, false},
		{"5m", 5 * time.Minute, false},
		{" 90s ", 90 * time.Second, false},
		{"0", 0, true},
		{"-1", 0, true},
		{"", 0, true},
		{"5 minutes", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseInterval(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLoadEnvFileOverrides(t *testing.T) {
	t.Setenv(EnvBackendURL, "http://from-process:9997")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("# backend\nXINFERENCE_URL=http://from-file:9997\nRECONCILE_INTERVAL=120\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv(EnvInterval) })

	require.NoError(t, LoadEnvFile(path))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://from-file:9997", cfg.BackendURL)
	assert.Equal(t, 2*time.Minute, cfg.Interval)
}

func TestLoadEnvFileMissing(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")))
}

func TestErrorMessage(t *testing.T) {
	err := Errorf("config.yaml", "models", "missing top-level key")
	assert.Equal(t, "configuration error: config.yaml: models: missing top-level key", err.Error())

	err = &Error{Source: "config.yaml", Err: os.ErrNotExist}
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorIs(t, err, ErrInvalid)
}
