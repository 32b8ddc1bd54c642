/*
Package reconciler keeps the backend's running models in line with the
declared workloads.

Each cycle compares the desired specs against the set of identifiers the
backend reports as running and launches whatever is missing:

	┌──────────────────┐      ┌──────────────────┐
	│  desired.Store   │      │ backend.Gateway  │
	│  (declared specs)│      │  ListActive()    │
	└────────┬─────────┘      └────────┬─────────┘
	         │                         │
	         └───────────┬─────────────┘
	                     ▼
	              Missing(specs, active)
	                     │
	                     ▼
	          Launch each, in declared order
	                     │
	                     ▼
	              []*events.Event

A spec counts as running only when it carries a uid and that uid is in the
active set. Specs without a uid are therefore launched on every cycle; the
backend assigns an identifier and the reconciler records it on the event.

# Failure Handling

ReconcileOnce never returns an error. If the listing fails, nothing is
launched and the cycle yields one backend.list_failed event. A failed launch
yields a workload.launch_failed event and the remaining specs are still
attempted, so one bad model cannot starve the others.

# Metrics

Every cycle updates the reconciliation counters and duration histogram, the
desired/active/missing gauges, the backend_up gauge, and the launch counter
labelled by outcome. The backend component of the health checker follows the
result of the last listing.

# Usage

	store, err := desired.Load("models.yaml")
	if err != nil {
		return err
	}
	r := reconciler.NewReconciler(store, client)
	for _, ev := range r.ReconcileOnce(ctx) {
		fmt.Println(ev.Type, ev.Workload, ev.UID)
	}

The scheduler package drives ReconcileOnce on an interval.
*/
package reconciler
