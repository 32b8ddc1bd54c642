package reconciler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/cuemby/modelkeeper/pkg/backend"
	"github.com/cuemby/modelkeeper/pkg/desired"
	"github.com/cuemby/modelkeeper/pkg/events"
	"github.com/cuemby/modelkeeper/pkg/metrics"
	"github.com/cuemby/modelkeeper/pkg/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway is an in-memory backend. Launched workloads become active.
type fakeGateway struct {
	mu        sync.Mutex
	active    types.ActiveSet
	listErr   error
	launchErr map[string]error // keyed by spec name
	launched  []types.WorkloadSpec
	nextID    int
}

func newFakeGateway(active ...string) *fakeGateway {
	return &fakeGateway{
		active:    types.NewActiveSet(active...),
		launchErr: make(map[string]error),
	}
}

func (f *fakeGateway) ListActive(ctx context.Context) (types.ActiveSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}
	out := types.NewActiveSet(f.active.Sorted()...)
	return out, nil
}

func (f *fakeGateway) Launch(ctx context.Context, spec types.WorkloadSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.launched = append(f.launched, spec)
	if err := f.launchErr[spec.Name]; err != nil {
		return "", err
	}
	uid := spec.UID
	if uid == "" {
		f.nextID++
		uid = fmt.Sprintf("%s-%d", spec.Name, f.nextID)
	}
	f.active.Add(uid)
	return uid, nil
}

func (f *fakeGateway) launchedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.launched))
	for _, spec := range f.launched {
		names = append(names, spec.Name)
	}
	return names
}

func newStore(t *testing.T, specs ...types.WorkloadSpec) *desired.Store {
	t.Helper()
	store, err := desired.New("test", specs)
	require.NoError(t, err)
	return store
}

func spec(name, uid string) types.WorkloadSpec {
	return types.WorkloadSpec{Name: name, Type: "LLM", UID: uid}
}

func TestReconcileOnceLaunchesMissing(t *testing.T) {
	gw := newFakeGateway("u1")
	r := NewReconciler(newStore(t, spec("a", "u1"), spec("b", "u2")), gw)

	evs := r.ReconcileOnce(context.Background())

	assert.Equal(t, []string{"b"}, gw.launchedNames())
	require.Len(t, evs, 1, "already-active workloads produce no event")
	assert.Equal(t, events.EventLaunched, evs[0].Type)
	assert.Equal(t, events.SeverityWarning, evs[0].Severity)
	assert.Equal(t, "b", evs[0].Workload)
	assert.Equal(t, "u2", evs[0].UID)
	assert.False(t, evs[0].Failed())
}

func TestReconcileOnceRecordsAssignedUID(t *testing.T) {
	gw := newFakeGateway()
	r := NewReconciler(newStore(t, spec("a", "")), gw)

	evs := r.ReconcileOnce(context.Background())

	assert.Equal(t, []string{"a"}, gw.launchedNames())
	require.Len(t, evs, 1)
	assert.Equal(t, events.EventLaunched, evs[0].Type)
	assert.Equal(t, "a-1", evs[0].UID, "the identifier supplied by the gateway is recorded")
}

func TestReconcileOnceIdempotent(t *testing.T) {
	gw := newFakeGateway()
	r := NewReconciler(newStore(t, spec("a", "u1"), spec("b", "u2"), spec("c", "u3")), gw)

	first := r.ReconcileOnce(context.Background())
	assert.Len(t, first, 3)

	second := r.ReconcileOnce(context.Background())
	assert.Empty(t, second)
	assert.Len(t, gw.launchedNames(), 3, "no launch on the second tick")
}

func TestReconcileOnceWithoutUIDRelaunchesEveryTick(t *testing.T) {
	gw := newFakeGateway()
	r := NewReconciler(newStore(t, spec("a", "")), gw)

	r.ReconcileOnce(context.Background())
	r.ReconcileOnce(context.Background())

	assert.Equal(t, []string{"a", "a"}, gw.launchedNames())
}

func TestReconcileOnceListFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.listErr = &backend.UnavailableError{Op: "list models", Err: errors.New("connection refused")}
	r := NewReconciler(newStore(t, spec("a", "u1"), spec("b", "")), gw)

	evs := r.ReconcileOnce(context.Background())

	assert.Empty(t, gw.launchedNames(), "no launch is attempted when listing fails")
	require.Len(t, evs, 1)
	assert.Equal(t, events.EventListFailed, evs[0].Type)
	assert.True(t, backend.IsUnavailable(evs[0].Err))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.BackendUp))

	comp, ok := metrics.Component(metrics.ComponentBackend)
	require.True(t, ok)
	assert.False(t, comp.Healthy)
}

func TestReconcileOnceIsolatesLaunchFailures(t *testing.T) {
	gw := newFakeGateway()
	gw.launchErr["b"] = fmt.Errorf("launch b: %w", &backend.RejectedError{Status: 400, Detail: "unknown model"})
	gw.launchErr["c"] = &backend.UnavailableError{Op: "launch c", Status: 503, Err: errors.New("busy")}
	r := NewReconciler(newStore(t, spec("a", "u1"), spec("b", "u2"), spec("c", "u3"), spec("d", "u4")), gw)

	rejectedBefore := testutil.ToFloat64(metrics.LaunchesTotal.WithLabelValues(metrics.ResultRejected))
	unavailableBefore := testutil.ToFloat64(metrics.LaunchesTotal.WithLabelValues(metrics.ResultUnavailable))

	evs := r.ReconcileOnce(context.Background())

	assert.Equal(t, []string{"a", "b", "c", "d"}, gw.launchedNames(), "every spec after a failure is still attempted")
	require.Len(t, evs, 4)

	assert.Equal(t, events.EventLaunched, evs[0].Type)
	assert.Equal(t, events.EventLaunchFailed, evs[1].Type)
	assert.Equal(t, "b", evs[1].Workload)
	assert.True(t, backend.IsRejected(evs[1].Err))
	assert.Equal(t, events.EventLaunchFailed, evs[2].Type)
	assert.True(t, backend.IsUnavailable(evs[2].Err))
	assert.Equal(t, events.EventLaunched, evs[3].Type)

	assert.Equal(t, rejectedBefore+1, testutil.ToFloat64(metrics.LaunchesTotal.WithLabelValues(metrics.ResultRejected)))
	assert.Equal(t, unavailableBefore+1, testutil.ToFloat64(metrics.LaunchesTotal.WithLabelValues(metrics.ResultUnavailable)))
}

func TestReconcileOnceUpdatesGauges(t *testing.T) {
	gw := newFakeGateway("u1", "other")
	r := NewReconciler(newStore(t, spec("a", "u1"), spec("b", "u2"), spec("c", "")), gw)

	cycles := testutil.ToFloat64(metrics.ReconciliationCyclesTotal)
	r.ReconcileOnce(context.Background())

	assert.Equal(t, cycles+1, testutil.ToFloat64(metrics.ReconciliationCyclesTotal))
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.WorkloadsDesired))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.WorkloadsActive))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.WorkloadsMissing))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.BackendUp))
}

func TestMissing(t *testing.T) {
	specs := []types.WorkloadSpec{spec("a", "u1"), spec("b", ""), spec("c", "u3"), spec("d", "u4")}

	tests := []struct {
		name     string
		active   types.ActiveSet
		expected []string
	}{
		{"nothing running", types.NewActiveSet(), []string{"a", "b", "c", "d"}},
		{"some running", types.NewActiveSet("u3"), []string{"a", "b", "d"}},
		{"all pinned running", types.NewActiveSet("u1", "u3", "u4"), []string{"b"}},
		{"unrelated running", types.NewActiveSet("x", "y"), []string{"a", "b", "c", "d"}},
		{"nil active set", nil, []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var names []string
			for _, s := range Missing(specs, tt.active) {
				names = append(names, s.Name)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

// TestReconcileOnceProperties checks, over random desired/active sets, that
// exactly the missing specs are launched in declared order and that a second
// tick against the converged backend launches nothing.
func TestReconcileOnceProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(8)
		specs := make([]types.WorkloadSpec, 0, n)
		var uids []string
		for i := 0; i < n; i++ {
			uid := ""
			if rng.Intn(4) != 0 {
				uid = fmt.Sprintf("u%d", i)
				uids = append(uids, uid)
			}
			specs = append(specs, spec(fmt.Sprintf("m%d", i), uid))
		}

		var running []string
		for _, uid := range uids {
			if rng.Intn(2) == 0 {
				running = append(running, uid)
			}
		}
		active := types.NewActiveSet(running...)

		var expected []string
		for _, s := range specs {
			if s.UID == "" || !active.Has(s.UID) {
				expected = append(expected, s.Name)
			}
		}

		gw := newFakeGateway(running...)
		r := NewReconciler(newStore(t, specs...), gw)

		evs := r.ReconcileOnce(context.Background())
		launched := gw.launchedNames()
		if len(expected) == 0 {
			assert.Empty(t, launched, "iteration %d", iter)
		} else {
			assert.Equal(t, expected, launched, "iteration %d", iter)
		}
		assert.Len(t, evs, len(expected), "iteration %d", iter)

		// Only specs without a uid are launched again once converged
		before := len(gw.launchedNames())
		r.ReconcileOnce(context.Background())
		relaunched := len(gw.launchedNames()) - before
		assert.Equal(t, n-len(uids), relaunched, "iteration %d", iter)
	}
}
