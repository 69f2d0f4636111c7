// Package health tracks component health and aggregates it into one
// process-wide status.
//
// The package supports three states:
//   - Healthy: operating normally
//   - Degraded: running with reduced functionality, such as a binding that
//     stopped on an error while the others keep streaming
//   - Unhealthy: not functioning
//
// A Monitor holds statuses pushed by long-lived components (the NATS
// connection reports through it); point-in-time statuses such as binding
// states are built with the helpers and combined with Aggregate:
//
//	monitor := health.NewMonitor()
//	client.OnHealthChange(func(ok bool) {
//	    monitor.UpdateFromBool("nats", ok, "connection lost")
//	})
//
//	overall := health.Aggregate("liveweave", append(monitor.List(), bindingStatuses...))
//
// Aggregation: any unhealthy input makes the result unhealthy; otherwise any
// degraded input makes it degraded.
//
// Messages built from errors pass through Sanitize, which masks URLs, paths,
// addresses and credentials before they are served over HTTP.
package health
