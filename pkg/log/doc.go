/*
Package log provides structured logging for modelkeeper using zerolog.

The package wraps a single global zerolog.Logger with component-specific
child loggers and helpers for the fields reconciliation logs carry most often
(workload name, uid, tick ID).

# Configuration

	log.Init(log.Config{
		Level:      log.ParseLevel(os.Getenv("MODELKEEPER_LOG_LEVEL")),
		JSONOutput: true,
		Output:     os.Stdout,
	})

Console output (the default) uses zerolog.ConsoleWriter with RFC3339
timestamps. JSON output writes one object per line:

	{"level":"warn","component":"scheduler","tick_id":"6c0e...","workload":"qwen","uid":"qwen-chat","time":"2026-10-18T10:30:00Z","message":"model launched"}

# Levels

  - Debug: skip decisions and backend request details
  - Info: startup, shutdown, and informational events
  - Warn: launches, launch failures, backend outages
  - Error: faults at the scheduler boundary

# Component Loggers

	logger := log.WithComponent("reconciler")
	logger.Info().Int("desired", 3).Msg("Reconciliation started")

	wl := log.WithWorkload(spec.Name, spec.UID)
	wl.Warn().Msg("model launched")

Loggers created before Init keep writing to the writer that was configured
when they were derived, so components take their logger at construction time,
after Init has run.
*/
package log
