package main

import (
	"github.com/cuemby/modelkeeper/pkg/api"
	"github.com/cuemby/modelkeeper/pkg/backend/xinference"
	"github.com/cuemby/modelkeeper/pkg/config"
	"github.com/cuemby/modelkeeper/pkg/desired"
	"github.com/cuemby/modelkeeper/pkg/lifecycle"
	"github.com/cuemby/modelkeeper/pkg/log"
	"github.com/cuemby/modelkeeper/pkg/metrics"
	"github.com/cuemby/modelkeeper/pkg/reconciler"
	"github.com/cuemby/modelkeeper/pkg/scheduler"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the reconciliation daemon",
		Long: `Run the reconciliation daemon.

The first reconciliation happens immediately, then once every
RECONCILE_INTERVAL until SIGINT or SIGTERM is received.

Examples:
  # Run against a local server
  XINFERENCE_URL=http://localhost:9997 modelkeeper run

  # Reconcile once and exit (status 1 if the server could not be listed)
  modelkeeper run --once --config models.toml`,
		Args: cobra.NoArgs,
		RunE: runDaemon,
	}

	cmd.Flags().Bool("once", false, "Run a single reconciliation and exit")
	return cmd
}

func runDaemon(cmd *cobra.Command, args []string) error {
	once, _ := cmd.Flags().GetBool("once")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log.Init(log.Config{
		Level:      log.ParseLevel(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
	})
	metrics.SetVersion(Version)

	store, err := desired.Load(cfg.ConfigPath)
	if err != nil {
		metrics.UpdateComponent(metrics.ComponentConfig, false, err.Error())
		return err
	}
	metrics.UpdateComponent(metrics.ComponentConfig, true, "")

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	log.Logger.Info().
		Str("version", Version).
		Str("backend", cfg.BackendURL).
		Str("config", store.Source()).
		Int("models", store.Len()).
		Dur("interval", cfg.Interval).
		Msg("Starting modelkeeper")

	sched, err := scheduler.New(reconciler.NewReconciler(store, client), cfg.Interval)
	if err != nil {
		return err
	}

	if once {
		report, err := sched.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		if report.ListFailed() {
			return &exitError{code: lifecycle.ExitFailure}
		}
		return nil
	}

	opts := []lifecycle.Option{lifecycle.WithShutdownTimeout(cfg.ShutdownTimeout)}
	if cfg.MetricsAddr != "" {
		opts = append(opts, lifecycle.WithService("status", api.NewServer(cfg.MetricsAddr, sched, Version)))
	}

	if code := lifecycle.New(sched, opts...).Run(cmd.Context()); code != lifecycle.ExitOK {
		return &exitError{code: code}
	}
	return nil
}

// loadConfig reads the env file and environment, applying the --config flag
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg.ConfigPath = path
	}
	return cfg, nil
}

func newClient(cfg *config.Config) (*xinference.Client, error) {
	return xinference.NewClient(xinference.Config{
		BaseURL:       cfg.BackendURL,
		APIKey:        cfg.APIKey,
		ListTimeout:   cfg.ListTimeout,
		LaunchTimeout: cfg.LaunchTimeout,
	})
}
