// Package backend defines the contract between the reconciler and the
// inference-serving backend, and the two error classes the reconciler reacts
// to: ErrUnavailable (tick-scoped when listing, spec-scoped when launching)
// and ErrLaunchRejected (spec-scoped). The Xinference implementation lives in
// the xinference subpackage.
package backend
