// Package retry repeats an operation with exponential backoff while its
// failures stay transient.
//
// Whether a failure is worth another attempt is decided by Config.Retryable,
// which defaults to errors.IsTransient from the LiveWeave error taxonomy: a
// lost NATS connection is retried, a bad request is not. Wrapping an error
// with NonRetryable stops the loop regardless of its class.
//
//	err := retry.Do(ctx, retry.Publish(), func() error {
//	    return channel.Publish(ctx, data)
//	})
//
// Waits are taken on Config.Clock so tests can drive them with a
// testclock.Clock.
package retry
