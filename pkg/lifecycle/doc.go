// Package lifecycle coordinates process startup and shutdown. A Controller
// starts the scheduler, listens for SIGINT and SIGTERM, stops the scheduler
// with a bounded wait, and maps the outcome to a process exit status.
package lifecycle
