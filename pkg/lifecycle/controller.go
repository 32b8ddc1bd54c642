package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/modelkeeper/pkg/log"
	"github.com/rs/zerolog"
)

// Process exit statuses
const (
	ExitOK      = 0
	ExitFailure = 1
)

// Runner is the long-running loop the controller supervises
type Runner interface {
	Start(ctx context.Context) error
	Stop(timeout time.Duration) error
	Done() <-chan struct{}
	Err() error
}

// Service is an auxiliary background server. Serve blocks until the service
// fails or is shut down; a clean shutdown returns nil.
type Service interface {
	Serve() error
	Shutdown(ctx context.Context) error
}

type namedService struct {
	name string
	svc  Service
}

// Option configures a Controller
type Option func(*Controller)

// WithShutdownTimeout bounds how long shutdown waits for the runner's
// in-flight work and for services to drain
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.shutdownTimeout = d
	}
}

// WithSignals replaces OS signal delivery with ch
func WithSignals(ch <-chan os.Signal) Option {
	return func(c *Controller) {
		c.signals = ch
	}
}

// WithService runs svc alongside the runner for the life of the process
func WithService(name string, svc Service) Option {
	return func(c *Controller) {
		c.services = append(c.services, namedService{name: name, svc: svc})
	}
}

// Controller owns process-wide shutdown coordination
type Controller struct {
	runner          Runner
	shutdownTimeout time.Duration
	signals         <-chan os.Signal
	services        []namedService
	logger          zerolog.Logger
}

// New creates a controller supervising runner
func New(runner Runner, opts ...Option) *Controller {
	c := &Controller{
		runner: runner,
		logger: log.WithComponent("lifecycle"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run starts the runner and any services, then blocks until a termination
// signal arrives, the runner exits, a service fails, or ctx is cancelled.
// It returns the process exit status: ExitOK for a signal, a cancelled ctx,
// or a runner that finished cleanly; ExitFailure when the runner could not
// start, ended with a fault, or a service failed.
func (c *Controller) Run(ctx context.Context) int {
	sigCh := c.signals
	if sigCh == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(ch)
		sigCh = ch
	}

	errCh := make(chan error, len(c.services))
	for _, ns := range c.services {
		go func(ns namedService) {
			if err := ns.svc.Serve(); err != nil {
				errCh <- fmt.Errorf("%s: %w", ns.name, err)
			}
		}(ns)
	}
	defer c.shutdownServices()

	if err := c.runner.Start(ctx); err != nil {
		c.logger.Error().Err(err).Msg("Failed to start scheduler")
		return ExitFailure
	}

	select {
	case sig := <-sigCh:
		c.logger.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")
		c.stopRunner()
		return ExitOK

	case <-ctx.Done():
		c.logger.Info().Msg("Context cancelled, shutting down")
		c.stopRunner()
		return ExitOK

	case err := <-errCh:
		c.logger.Error().Err(err).Msg("Service failed, shutting down")
		c.stopRunner()
		return ExitFailure

	case <-c.runner.Done():
		if err := c.runner.Err(); err != nil {
			c.logger.Error().Err(err).Msg("Scheduler exited with a fault")
			return ExitFailure
		}
		c.logger.Info().Msg("Scheduler exited")
		return ExitOK
	}
}

// stopRunner asks the runner to stop and logs, but never propagates, failure
func (c *Controller) stopRunner() {
	if err := c.runner.Stop(c.shutdownTimeout); err != nil {
		c.logger.Warn().Err(err).Dur("timeout", c.shutdownTimeout).Msg("Scheduler did not stop cleanly")
		return
	}
	c.logger.Info().Msg("Scheduler stopped")
}

func (c *Controller) shutdownServices() {
	if len(c.services) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
	defer cancel()

	for _, ns := range c.services {
		if err := ns.svc.Shutdown(ctx); err != nil {
			c.logger.Warn().Err(err).Str("service", ns.name).Msg("Service shutdown failed")
		}
	}
}
