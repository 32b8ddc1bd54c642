/*
Package api serves modelkeeper's status endpoints over HTTP.

The server is optional and only runs when a listen address is configured.
Routes are registered on a chi router:

	GET /health    component health, 503 when any component is unhealthy
	GET /ready     200 once the backend and scheduler are healthy
	GET /live      always 200 while the process runs
	GET /metrics   Prometheus exposition
	GET /status    scheduler state and a summary of the last tick

Every request passes through request-ID, panic-recovery, logging, metrics,
and CORS middleware. Request metrics are labelled with the matched route
pattern so unknown paths collapse into a single "unmatched" series.

Server implements lifecycle.Service, so the run command hands it to the
lifecycle controller, which serves it alongside the scheduler and shuts it
down with the same bounded timeout.
*/
package api
