package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Launch results used as the "result" label of LaunchesTotal
const (
	ResultLaunched    = "launched"
	ResultRejected    = "rejected"
	ResultUnavailable = "unavailable"
)

var (
	// Reconciler metrics
	ReconciliationCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "modelkeeper_reconcile_cycles_total",
			Help: "Total number of reconciliation cycles",
		},
	)

	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "modelkeeper_reconcile_duration_seconds",
			Help:    "Time taken by one reconciliation cycle in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		},
	)

	WorkloadsDesired = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelkeeper_workloads_desired",
			Help: "Number of workloads declared in the configuration",
		},
	)

	WorkloadsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelkeeper_workloads_active",
			Help: "Number of workloads the backend reported as running on the last cycle",
		},
	)

	WorkloadsMissing = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelkeeper_workloads_missing",
			Help: "Number of declared workloads found missing on the last cycle",
		},
	)

	LaunchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelkeeper_launches_total",
			Help: "Total number of launch attempts by result",
		},
		[]string{"result"},
	)

	BackendUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelkeeper_backend_up",
			Help: "Whether the last listing of running workloads succeeded (1 = up, 0 = down)",
		},
	)

	// Scheduler metrics
	TickFaultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "modelkeeper_tick_faults_total",
			Help: "Total number of faults recovered at the tick boundary",
		},
	)

	LastTickTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelkeeper_last_tick_timestamp_seconds",
			Help: "Unix time the last reconciliation tick finished",
		},
	)

	ComponentHealthy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "modelkeeper_component_healthy",
			Help: "Last reported health of each component (1 = healthy, 0 = unhealthy)",
		},
		[]string{"component"},
	)

	// Status server metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelkeeper_http_requests_total",
			Help: "Total number of status server requests by method, route and status",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modelkeeper_http_request_duration_seconds",
			Help:    "Status server request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(ReconciliationCyclesTotal)
	prometheus.MustRegister(ReconciliationDuration)
	prometheus.MustRegister(WorkloadsDesired)
	prometheus.MustRegister(WorkloadsActive)
	prometheus.MustRegister(WorkloadsMissing)
	prometheus.MustRegister(LaunchesTotal)
	prometheus.MustRegister(BackendUp)
	prometheus.MustRegister(TickFaultsTotal)
	prometheus.MustRegister(LastTickTimestamp)
	prometheus.MustRegister(ComponentHealthy)
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
