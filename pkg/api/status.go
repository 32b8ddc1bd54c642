package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cuemby/modelkeeper/pkg/scheduler"
)

// StatusResponse is the /status payload
type StatusResponse struct {
	State     scheduler.State `json:"state"`
	Version   string          `json:"version,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	LastTick  *TickStatus     `json:"last_tick,omitempty"`
}

// TickStatus describes the most recent finished tick
type TickStatus struct {
	ID         string        `json:"id"`
	Started    time.Time     `json:"started"`
	DurationMS int64         `json:"duration_ms"`
	Launched   int           `json:"launched"`
	Failed     int           `json:"failed"`
	ListFailed bool          `json:"list_failed"`
	Panicked   bool          `json:"panicked,omitempty"`
	Events     []EventStatus `json:"events"`
}

// EventStatus is one event of the last tick
type EventStatus struct {
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
	Workload  string    `json:"workload,omitempty"`
	UID       string    `json:"uid,omitempty"`
	Message   string    `json:"message"`
	Error     string    `json:"error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		State:     s.source.State(),
		Version:   s.version,
		Timestamp: time.Now(),
	}

	if report, ok := s.source.LastTick(); ok {
		resp.LastTick = newTickStatus(report)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func newTickStatus(report scheduler.TickReport) *TickStatus {
	ts := &TickStatus{
		ID:         report.ID,
		Started:    report.Started,
		DurationMS: report.Duration.Milliseconds(),
		Launched:   report.Launched,
		Failed:     report.Failed,
		ListFailed: report.ListFailed(),
		Panicked:   report.Panicked,
		Events:     make([]EventStatus, 0, len(report.Events)),
	}
	for _, ev := range report.Events {
		ts.Events = append(ts.Events, EventStatus{
			Type:      string(ev.Type),
			Severity:  string(ev.Severity),
			Timestamp: ev.Timestamp,
			Workload:  ev.Workload,
			UID:       ev.UID,
			Message:   ev.Message,
			Error:     ev.Error(),
		})
	}
	return ts
}
