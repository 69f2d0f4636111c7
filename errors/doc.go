// Package errors classifies failures for LiveWeave components.
//
// Three classes drive handling decisions:
//
//   - Transient: timeouts, dropped connections, 5xx responses. A new attempt may succeed.
//   - Invalid: malformed payloads, bad predicates, 4xx responses. Retrying will not help.
//   - Fatal: bad configuration. Stop and report.
//
// Wrapping follows the "component.method: action failed: %w" format:
//
//	return errors.Wrap(err, "PollSource", "Next", "fetch")
//	return errors.WrapInvalid(err, "Loader", "LoadFile", "decode config")
//
// The domain taxonomy surfaces to bindings as a terminal error:
//
//	HTTPError        non-2xx response from a polled endpoint
//	ParseError       payload is not JSON
//	ConnectionError  socket or event transport failed to open or dropped
//	ExpressionError  a predicate could not be evaluated
//
// Kind maps any error to a short label for metrics.
package errors
