package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/modelkeeper/pkg/events"
	"github.com/cuemby/modelkeeper/pkg/log"
	"github.com/cuemby/modelkeeper/pkg/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrNotIdle is returned by Start when the scheduler was already started
	// or stopped.
	ErrNotIdle = errors.New("scheduler is not idle")

	// ErrTickAbandoned is returned by Stop when the in-flight tick did not
	// finish within the timeout.
	ErrTickAbandoned = errors.New("tick still running at stop deadline")

	// ErrUnexpectedFault wraps a fault that escaped the run loop itself.
	ErrUnexpectedFault = errors.New("unexpected scheduler fault")
)

// State is the scheduler lifecycle state
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateStopped State = "stopped"
)

// Reconciler performs one reconciliation cycle
type Reconciler interface {
	ReconcileOnce(ctx context.Context) []*events.Event
}

// TickReport summarizes a finished tick
type TickReport struct {
	ID       string          `json:"id"`
	Started  time.Time       `json:"started"`
	Duration time.Duration   `json:"duration"`
	Launched int             `json:"launched"`
	Failed   int             `json:"failed"`
	Panicked bool            `json:"panicked,omitempty"`
	Events   []*events.Event `json:"-"`
}

// ListFailed reports whether the tick could not list the backend
func (r TickReport) ListFailed() bool {
	return events.Count(r.Events, events.EventListFailed) > 0
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithObserver registers a function called after every tick
func WithObserver(fn func(TickReport)) Option {
	return func(s *Scheduler) {
		s.observers = append(s.observers, fn)
	}
}

// Scheduler runs a Reconciler immediately and then on a fixed interval.
// Ticks run on a single goroutine, so they never overlap; a tick that
// outlasts the interval delays the next one.
type Scheduler struct {
	reconciler Reconciler
	interval   time.Duration
	observers  []func(TickReport)
	logger     zerolog.Logger

	mu       sync.Mutex
	state    State
	inTick   bool
	tickDone chan struct{}
	last     *TickReport
	err      error

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a scheduler for r that ticks every interval
func New(r Reconciler, interval time.Duration, opts ...Option) (*Scheduler, error) {
	if r == nil {
		return nil, fmt.Errorf("reconciler is required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}

	s := &Scheduler{
		reconciler: r,
		interval:   interval,
		logger:     log.WithComponent("scheduler"),
		state:      StateIdle,
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start moves the scheduler from idle to running and launches the loop.
// The first tick begins immediately. Ticks run on a context that ignores
// ctx's cancellation; cancelling ctx stops the loop like Stop does.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrNotIdle
	}
	s.state = StateRunning
	s.mu.Unlock()

	metrics.UpdateComponent(metrics.ComponentScheduler, true, "running")
	s.logger.Info().Dur("interval", s.interval).Msg("Scheduler started")

	go s.run(ctx)
	return nil
}

// RunOnce runs a single tick on the calling goroutine and leaves the
// scheduler stopped. It is the single-pass alternative to Start.
func (s *Scheduler) RunOnce(ctx context.Context) (report TickReport, err error) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return TickReport{}, ErrNotIdle
	}
	s.state = StateRunning
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUnexpectedFault, r)
			s.fail(err)
		}
		s.mu.Lock()
		s.state = StateStopped
		s.mu.Unlock()
		s.closeStop()
		close(s.done)
	}()

	s.tick(ctx)
	report, _ = s.LastTick()
	return report, nil
}

// Stop moves the scheduler to stopped. No tick starts after Stop returns.
// If a tick is in flight Stop waits up to timeout for it to finish and
// returns ErrTickAbandoned if it does not. A timeout of zero or less never
// waits. Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop(timeout time.Duration) error {
	s.mu.Lock()
	switch s.state {
	case StateStopped:
		s.mu.Unlock()
		return nil
	case StateIdle:
		s.state = StateStopped
		s.mu.Unlock()
		s.closeStop()
		close(s.done)
		return nil
	}
	s.state = StateStopped
	inTick, tickDone := s.inTick, s.tickDone
	s.mu.Unlock()

	s.closeStop()
	metrics.UpdateComponent(metrics.ComponentScheduler, false, "stopped")
	s.logger.Info().Bool("tick_in_flight", inTick).Msg("Scheduler stopping")

	if !inTick {
		return nil
	}
	if timeout <= 0 {
		return ErrTickAbandoned
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-tickDone:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w after %s", ErrTickAbandoned, timeout)
	}
}

// Done is closed when the run loop has exited
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Err returns the fault that ended the run loop, if any
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// State returns the current lifecycle state
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastTick returns the report of the most recent finished tick
func (s *Scheduler) LastTick() (TickReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return TickReport{}, false
	}
	return *s.last, true
}

func (s *Scheduler) closeStop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)
	defer func() {
		if r := recover(); r != nil {
			s.fail(fmt.Errorf("%w: %v", ErrUnexpectedFault, r))
		}
	}()

	tickCtx := context.WithoutCancel(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(tickCtx)

	for {
		select {
		case <-ticker.C:
			s.tick(tickCtx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			s.mu.Lock()
			s.state = StateStopped
			s.mu.Unlock()
			metrics.UpdateComponent(metrics.ComponentScheduler, false, "stopped")
			s.logger.Info().Msg("Scheduler context cancelled")
			return
		}
	}
}

// tick runs one reconciliation cycle. A panic inside the cycle is logged and
// counted; the loop carries on with the next tick.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.beginTick() {
		return
	}

	report := TickReport{
		ID:      uuid.New().String(),
		Started: time.Now(),
	}
	logger := log.WithTickID(report.ID).With().Str("component", "scheduler").Logger()

	defer func() {
		if r := recover(); r != nil {
			report.Panicked = true
			metrics.TickFaultsTotal.Inc()
			logger.Error().Interface("panic", r).Msg("Reconciliation tick panicked")
		}
		report.Duration = time.Since(report.Started)
		s.endTick(report)

		logger.Debug().
			Dur("duration", report.Duration).
			Int("launched", report.Launched).
			Int("failed", report.Failed).
			Msg("Tick finished")

		for _, fn := range s.observers {
			fn(report)
		}
	}()

	logger.Debug().Msg("Tick started")
	evs := s.reconciler.ReconcileOnce(ctx)
	for _, ev := range evs {
		ev.TickID = report.ID
		logEvent(logger, ev)
		switch {
		case ev.Failed():
			report.Failed++
		case ev.Type == events.EventLaunched:
			report.Launched++
		}
	}
	report.Events = evs
}

func (s *Scheduler) beginTick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return false
	}
	s.inTick = true
	s.tickDone = make(chan struct{})
	return true
}

func (s *Scheduler) endTick(report TickReport) {
	s.mu.Lock()
	s.inTick = false
	s.last = &report
	close(s.tickDone)
	s.mu.Unlock()

	metrics.LastTickTimestamp.SetToCurrentTime()
}

func (s *Scheduler) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.state = StateStopped
	s.mu.Unlock()

	metrics.UpdateComponent(metrics.ComponentScheduler, false, err.Error())
	s.logger.Error().Err(err).Msg("Scheduler loop failed")
}

// logEvent writes ev at its severity
func logEvent(logger zerolog.Logger, ev *events.Event) {
	level := zerolog.InfoLevel
	if ev.Severity == events.SeverityWarning {
		level = zerolog.WarnLevel
	}
	e := logger.WithLevel(level).Str("event", string(ev.Type))
	if ev.Workload != "" {
		e = e.Str("workload", ev.Workload)
	}
	if ev.UID != "" {
		e = e.Str("uid", ev.UID)
	}
	if ev.Err != nil {
		e = e.Err(ev.Err)
	}
	e.Msg(ev.Message)
}
