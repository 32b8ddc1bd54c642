/*
Package xinference implements backend.Gateway on top of the Xinference
RESTful API.

	GET  /v1/models   running models
	POST /v1/models   launch a model, returns {"model_uid": "..."}

Listing is idempotent and is retried on transport errors and on 429, 502,
503 and 504 with exponential backoff and jitter. Launching is never retried:
a launch that timed out on the client may still complete on the server, and
the next reconciliation tick will observe the result.

Launch responses in the 4xx range (other than 408 and 429) are reported as
*backend.RejectedError with the server's "detail" message; every other
failure is a *backend.UnavailableError.
*/
package xinference
