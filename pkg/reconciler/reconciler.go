package reconciler

import (
	"context"

	"github.com/cuemby/modelkeeper/pkg/backend"
	"github.com/cuemby/modelkeeper/pkg/desired"
	"github.com/cuemby/modelkeeper/pkg/events"
	"github.com/cuemby/modelkeeper/pkg/log"
	"github.com/cuemby/modelkeeper/pkg/metrics"
	"github.com/cuemby/modelkeeper/pkg/types"
	"github.com/rs/zerolog"
)

// Reconciler ensures every declared workload is running on the backend
type Reconciler struct {
	store   *desired.Store
	gateway backend.Gateway
	logger  zerolog.Logger
}

// NewReconciler creates a new reconciler
func NewReconciler(store *desired.Store, gateway backend.Gateway) *Reconciler {
	return &Reconciler{
		store:   store,
		gateway: gateway,
		logger:  log.WithComponent("reconciler"),
	}
}

// ReconcileOnce performs one reconciliation cycle and returns the events it
// produced. It never returns an error: a failed listing ends the cycle with a
// single backend.list_failed event, and a failed launch is recorded and the
// remaining workloads are still processed.
func (r *Reconciler) ReconcileOnce(ctx context.Context) []*events.Event {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ReconciliationDuration)
		metrics.ReconciliationCyclesTotal.Inc()
	}()

	specs := r.store.Specs()
	metrics.WorkloadsDesired.Set(float64(len(specs)))

	active, err := r.gateway.ListActive(ctx)
	if err != nil {
		metrics.BackendUp.Set(0)
		metrics.UpdateComponent(metrics.ComponentBackend, false, err.Error())

		ev := events.New(events.EventListFailed, events.SeverityWarning, "failed to list running models")
		ev.Err = err
		return []*events.Event{ev}
	}

	metrics.BackendUp.Set(1)
	metrics.UpdateComponent(metrics.ComponentBackend, true, "")
	metrics.WorkloadsActive.Set(float64(active.Len()))

	for _, spec := range specs {
		if active.Has(spec.UID) {
			wl := log.WithWorkload(spec.Name, spec.UID)
			wl.Debug().Msg("Model already running")
		}
	}

	missing := Missing(specs, active)
	metrics.WorkloadsMissing.Set(float64(len(missing)))

	r.logger.Debug().
		Int("desired", len(specs)).
		Int("active", active.Len()).
		Int("missing", len(missing)).
		Msg("Computed missing workloads")

	evs := make([]*events.Event, 0, len(missing))
	for _, spec := range missing {
		evs = append(evs, r.launch(ctx, spec))
	}
	return evs
}

// Missing returns the specs that are not running, in declared order. A spec
// without a uid is always missing.
func Missing(specs []types.WorkloadSpec, active types.ActiveSet) []types.WorkloadSpec {
	var missing []types.WorkloadSpec
	for _, spec := range specs {
		if active.Has(spec.UID) {
			continue
		}
		missing = append(missing, spec)
	}
	return missing
}

// launch starts one missing workload and describes the outcome
func (r *Reconciler) launch(ctx context.Context, spec types.WorkloadSpec) *events.Event {
	wl := log.WithWorkload(spec.Name, spec.UID)
	wl.Debug().
		Str("type", spec.Type).
		Str("engine", spec.Engine).
		Msg("Launching model")

	uid, err := r.gateway.Launch(ctx, spec)
	if err != nil {
		result := metrics.ResultUnavailable
		if backend.IsRejected(err) {
			result = metrics.ResultRejected
		}
		metrics.LaunchesTotal.WithLabelValues(result).Inc()

		ev := events.New(events.EventLaunchFailed, events.SeverityWarning, "failed to launch model")
		ev.Workload = spec.Name
		ev.UID = spec.UID
		ev.Err = err
		return ev
	}

	metrics.LaunchesTotal.WithLabelValues(metrics.ResultLaunched).Inc()

	ev := events.New(events.EventLaunched, events.SeverityWarning, "model launched")
	ev.Workload = spec.Name
	ev.UID = uid
	return ev
}
