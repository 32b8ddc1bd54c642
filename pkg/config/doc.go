// Package config reads modelkeeper settings from the environment and defines
// the configuration error type shared with the desired-state loader.
//
// A .env file in the working directory is loaded first and overrides the
// process environment. XINFERENCE_URL is the only required variable; the
// polling interval (RECONCILE_INTERVAL) accepts whole seconds or a Go duration
// and defaults to 300 seconds.
package config
