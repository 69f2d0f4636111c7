// Package natsclient wraps a nats.go connection with connection state
// tracking, a failure-counting circuit breaker, health monitoring and a
// drain-on-close lifecycle.
//
//	client, err := natsclient.NewClient("nats://localhost:4222",
//	    natsclient.WithLogger(logger),
//	    natsclient.WithMetrics(registry),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close(context.Background())
//
//	err = client.Subscribe(ctx, "liveweave.signals", func(ctx context.Context, data []byte) {
//	    ...
//	})
//
// After the configured number of consecutive connection failures the
// circuit opens and Connect returns ErrCircuitOpen until the backoff
// elapses. The backoff doubles per open round up to WithMaxBackoff.
//
// NewTestClient starts a throwaway NATS server with testcontainers for
// integration tests.
package natsclient
