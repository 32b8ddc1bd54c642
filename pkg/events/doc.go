/*
Package events defines the records a reconciliation tick produces.

Every tick returns a slice of events to its caller, which is responsible for
logging them. Events are observational only: nothing reads them back to make
decisions, and nothing persists them.

# Event Types

	backend.list_failed     warning  listing running models failed, tick aborted
	workload.launched       warning  a declared model was missing and was launched
	workload.launch_failed  warning  launching a missing model failed

A model that is already running produces no event at all. Launches are
reported at warning level because a declared model that is not running has
either never been started or stopped unexpectedly, and both deserve operator
attention.

# Usage

	ev := events.New(events.EventLaunched, events.SeverityWarning, "model launched")
	ev.Workload = spec.Name
	ev.UID = uid
*/
package events
