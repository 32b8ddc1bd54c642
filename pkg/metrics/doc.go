/*
Package metrics provides Prometheus metrics and component health tracking for
modelkeeper.

All collectors are package-level variables registered with the default
Prometheus registry at init time and exposed through Handler(). The health
checker is a small registry of named components (config, backend, scheduler)
that backs the /health and /ready endpoints of the status server.

# Metrics

	modelkeeper_reconcile_cycles_total          counter
	modelkeeper_reconcile_duration_seconds      histogram
	modelkeeper_workloads_desired               gauge
	modelkeeper_workloads_active                gauge
	modelkeeper_workloads_missing               gauge
	modelkeeper_launches_total{result}          counter (launched|rejected|unavailable)
	modelkeeper_backend_up                      gauge
	modelkeeper_tick_faults_total               counter
	modelkeeper_last_tick_timestamp_seconds     gauge
	modelkeeper_component_healthy{component}    gauge
	modelkeeper_http_requests_total             counter (method, path, status)
	modelkeeper_http_request_duration_seconds   histogram (method, path)

# Timing Operations

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ReconciliationDuration)

# Health

	metrics.UpdateComponent(metrics.ComponentBackend, false, err.Error())

	health := metrics.GetHealth()     // unhealthy if any component is unhealthy
	ready := metrics.GetReadiness()   // requires backend and scheduler

Useful alerts:

	# backend unreachable for 15 minutes
	max_over_time(modelkeeper_backend_up[15m]) == 0

	# launches keep failing
	increase(modelkeeper_launches_total{result!="launched"}[1h]) > 0
*/
package metrics
