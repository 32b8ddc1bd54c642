package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/cuemby/modelkeeper/pkg/types"
)

var (
	// ErrUnavailable marks network and protocol failures talking to the backend
	ErrUnavailable = errors.New("backend unavailable")

	// ErrLaunchRejected marks a launch the backend refused because of the spec
	ErrLaunchRejected = errors.New("launch rejected")
)

// Gateway is the inference-serving backend as seen by the reconciler.
// Both calls are synchronous and may take a network round trip or longer.
type Gateway interface {
	// ListActive returns the identifiers of every running workload.
	// Failures wrap ErrUnavailable.
	ListActive(ctx context.Context) (types.ActiveSet, error)

	// Launch asks the backend to start a workload matching spec and returns
	// the identifier the backend assigned, which may differ from spec.UID
	// when that is empty. Failures wrap ErrUnavailable or ErrLaunchRejected.
	Launch(ctx context.Context, spec types.WorkloadSpec) (string, error)
}

// RejectedError carries the backend's explanation for a refused launch
type RejectedError struct {
	Status int
	Detail string
}

func (e *RejectedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("launch rejected (status %d)", e.Status)
	}
	return fmt.Sprintf("launch rejected (status %d): %s", e.Status, e.Detail)
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrLaunchRejected
}

// UnavailableError wraps the underlying transport or protocol failure
type UnavailableError struct {
	Op     string
	Status int // HTTP status when the backend answered, 0 otherwise
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: backend unavailable (status %d): %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: backend unavailable: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() []error {
	return []error{ErrUnavailable, e.Err}
}

// IsRejected reports whether err is a launch rejection
func IsRejected(err error) bool {
	return errors.Is(err, ErrLaunchRejected)
}

// IsUnavailable reports whether err is a backend availability failure
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
