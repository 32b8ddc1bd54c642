package types

import "sort"

// WorkloadSpec describes one model workload that should be running on the
// inference backend
type WorkloadSpec struct {
	// Name is the model name known to the backend
	Name string `yaml:"name" toml:"name" json:"name"`
	// Type is the model category (LLM, embedding, rerank, ...)
	Type string `yaml:"type" toml:"type" json:"type"`
	// Engine is an optional execution engine hint
	Engine string `yaml:"engine,omitempty" toml:"engine,omitempty" json:"engine,omitempty"`
	// UID is optional; the backend assigns one when it is empty
	UID string `yaml:"uid,omitempty" toml:"uid,omitempty" json:"uid,omitempty"`
}

// HasUID reports whether the spec pins its own identifier
func (w WorkloadSpec) HasUID() bool {
	return w.UID != ""
}

// String returns a short label for logs
func (w WorkloadSpec) String() string {
	if w.UID == "" {
		return w.Name
	}
	return w.Name + "/" + w.UID
}

// ActiveSet is the set of workload identifiers the backend reports as running
type ActiveSet map[string]struct{}

// NewActiveSet builds a set from the given identifiers
func NewActiveSet(uids ...string) ActiveSet {
	set := make(ActiveSet, len(uids))
	for _, uid := range uids {
		set.Add(uid)
	}
	return set
}

// Add inserts an identifier; empty identifiers are ignored
func (s ActiveSet) Add(uid string) {
	if uid == "" {
		return
	}
	s[uid] = struct{}{}
}

// Has reports whether uid is running
func (s ActiveSet) Has(uid string) bool {
	if uid == "" {
		return false
	}
	_, ok := s[uid]
	return ok
}

// Len returns the number of running workloads
func (s ActiveSet) Len() int {
	return len(s)
}

// Sorted returns the identifiers in lexical order
func (s ActiveSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for uid := range s {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out
}
