// Package binding connects elements to live data.
//
// A StreamBinding consumes a stream.Stream and renders each record into its
// Element; a SignalBinding renders a signal.Bus value whenever it changes.
// Bindings move through Detached, Mounting, Streaming and Error:
//
//	Detached -> Mounting -> Streaming -> Detached
//	                |            |
//	                +-> Error <--+
//
// Transport and decode failures put the binding in Error and show the
// fallback text; bindings never retry on their own. Detach cancels the
// binding and closes its stream, and no render happens once the detach has
// been observed. A Runner owns a set of bindings for the life of a process.
package binding
