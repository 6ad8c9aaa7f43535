// Package cleanup schedules sweeps of expired sessions and throttle entries.
//
// A Scheduler is driven three ways, all through RunNow: the Start loop,
// MaybeRun on ordinary requests, and explicit admin calls.
//
//	sched, err := cleanup.New(registry,
//		cleanup.WithInterval(5*time.Minute),
//		cleanup.WithThrottle(throttle),
//	)
//	g.Go(func() error { return sched.Start(ctx) })
package cleanup
