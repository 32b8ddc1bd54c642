/*
Package scheduler drives reconciliation on a fixed interval.

A Scheduler moves through three states:

	Idle ──Start──▶ Running ──Stop / ctx cancel / fault──▶ Stopped

Start runs the first tick immediately and then one tick per interval. All
ticks run on the scheduler's own goroutine, so two ticks never overlap; if a
tick takes longer than the interval the next one is deferred rather than run
concurrently.

# Stopping

Stop guarantees that no new tick begins after it returns. A tick already in
flight is not interrupted, since backend calls may block on I/O with no
cancellation hook. Stop waits up to its timeout for that tick and reports
ErrTickAbandoned when the deadline passes first; callers proceed with
shutdown either way.

	if err := s.Stop(5 * time.Second); err != nil {
		log.Logger.Warn().Err(err).Msg("Scheduler did not stop cleanly")
	}

Ticks run on a context detached from the one passed to Start. Cancelling the
Start context ends the loop but leaves the in-flight tick alone.

# Faults

A panic inside a tick is recovered, logged, and counted in
modelkeeper_tick_faults_total, and the next tick runs as usual. A fault that
escapes the loop itself ends it: Done is closed and Err returns an error
wrapping ErrUnexpectedFault. The lifecycle package turns that into a
non-zero exit status.

Each tick gets an ID that is stamped on the events it produced. Events are
logged at their own severity, and a TickReport summarizing the tick is kept
for LastTick and handed to every observer registered with WithObserver.
*/
package scheduler
