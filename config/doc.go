// Package config loads the LiveWeave runner configuration.
//
// # Core Components
//
// Config: the runner settings. NATS connection, HTTP surface, stream
// defaults, signal channel and the list of bindings.
//
// SafeConfig: thread-safe wrapper that hands out deep copies so callers
// cannot mutate shared state.
//
// Loader: loads one or more layered files and merges them over the
// defaults. The format follows the file extension (.json, .yaml/.yml or
// .toml), so layers in different formats can be combined.
//
// # Basic Usage
//
//	loader := config.NewLoader()
//	loader.AddLayer("liveweave.yaml")
//	loader.AddLayer("production.json") // overrides the first layer
//	loader.EnableValidation(true)
//
//	cfg, err := loader.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Environment Overrides
//
// Applied after all layers:
//
//	LIVEWEAVE_NATS_URL   comma-separated NATS URLs
//	LIVEWEAVE_NATS_TOKEN NATS token
//	LIVEWEAVE_HTTP_ADDR  HTTP listen address
//	LIVEWEAVE_BASE_URL   base location relative sources resolve against
//
// # Security
//
// Files are size-limited, must be regular files with a known extension and
// may not escape the working directory through relative parent references.
// JSON nesting depth is bounded before decoding.
package config
