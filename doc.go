// Package liveweave binds live data streams to renderable elements.
//
// A binding names a source location, a transport and a few presentation
// rules. LiveWeave opens the source, decodes each payload as JSON, filters
// and projects it, and hands the result to an Element. Bindings can also
// follow named signals: process-wide values that any binding, HTTP client or
// peer process may set, merge or clear.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│          binding.Runner             │  Attach, Detach, Status
//	│   (StreamBinding, SignalBinding)    │  Lifecycle per element
//	└─────────────────────────────────────┘
//	           ↓ reads from
//	┌──────────────────┐  ┌───────────────┐
//	│  stream.Opener   │  │  signal.Bus   │  Records and signal values
//	│ (poll, ws, sse)  │  │ (set, merge,  │
//	│                  │  │  clear)       │
//	└──────────────────┘  └───────────────┘
//	           ↓                  ↓ shares over
//	   HTTP, WebSocket,     signal.Channel
//	   Server-Sent Events   (NATS, in-memory)
//
// A record flows through a binding in a fixed order:
//
//	payload → JSON decode → schema check → select path → when rules
//	        → throttle → Element.Render
//
// Failures stop the binding in the Error state and show fallback text on
// the element. Detaching always closes the underlying stream.
//
// # Packages
//
// Core:
//   - binding: lifecycle controller, runner and element contract
//   - stream: transport adapters and the unified Stream facade
//   - signal: signal bus and its cross-process channels
//   - validate: JSON Schema checks on records
//
// Supporting:
//   - config: layered JSON, YAML and TOML configuration
//   - errors: error classification (transient, invalid, fatal) and taxonomy
//   - health: component health aggregation for /healthz
//   - metric: Prometheus registry and the HTTP server
//   - natsclient: NATS connection with circuit breaker
//   - pkg/interval: "500ms", "2s", "1m" parsing
//   - pkg/queue: producer/consumer bridge for push transports
//   - pkg/retry: backoff for transient failures
//   - pkg/selector: dot paths and comparison rules
//   - pkg/tlsutil: client TLS settings
//
// # Usage
//
// Library use:
//
//	opener := stream.NewOpener(stream.WithBase(base))
//	bus := signal.NewBus()
//
//	b, _ := binding.New(element, binding.Options{
//	    ID:     "price",
//	    Source: "/api/price",
//	    Poll:   "2s",
//	    Select: "data.last",
//	}, opener, bus)
//	_ = b.Attach(ctx)
//	defer b.Detach()
//
// Command line:
//
//	liveweave --config configs/liveweave.example.yaml
//
// cmd/liveweave runs every configured binding with a console element that
// prints one JSON line per render, and serves /metrics, /healthz, /stats
// and /signals.
package liveweave
