package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kind of reconciliation event
type EventType string

const (
	EventListFailed   EventType = "backend.list_failed"
	EventLaunched     EventType = "workload.launched"
	EventLaunchFailed EventType = "workload.launch_failed"
)

// Severity is the level an event is reported at
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Event records one action taken or decision made during a reconciliation tick
type Event struct {
	ID        string
	TickID    string
	Type      EventType
	Severity  Severity
	Timestamp time.Time
	Workload  string // Spec name, empty for tick-wide events
	UID       string // Identifier requested or assigned
	Message   string
	Err       error
}

// New creates an event with a fresh ID and the current timestamp
func New(typ EventType, severity Severity, message string) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      typ,
		Severity:  severity,
		Timestamp: time.Now(),
		Message:   message,
	}
}

// Failed reports whether the event records a failure
func (e *Event) Failed() bool {
	return e.Err != nil
}

// Error returns the error text, or an empty string
func (e *Event) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// Count returns how many events of the given type are in evs
func Count(evs []*Event, typ EventType) int {
	n := 0
	for _, ev := range evs {
		if ev.Type == typ {
			n++
		}
	}
	return n
}
