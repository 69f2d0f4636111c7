// Package signal holds named application state and propagates changes to
// local subscribers and to other processes sharing a Channel.
//
//	bus := signal.NewBus(signal.WithChannel(signal.NewNATSChannel(client, "")))
//	if err := bus.Start(ctx); err != nil {
//	    return err
//	}
//	defer bus.Close()
//
//	unsubscribe := bus.Subscribe("user", func(name string, value any) {
//	    render(value)
//	})
//	defer unsubscribe()
//
//	_ = bus.Merge("user", map[string]any{"name": "ada"})
//
// Mutations are visible to Get as soon as Apply returns. Notifications are
// delivered in the order operations were applied, including operations a
// handler issues while being notified; those are queued behind the current
// notification. Changes received from the Channel are applied locally and
// never published again, and a bus drops its own messages when the channel
// echoes them back.
//
// Apply never waits on the Channel. Local operations go to an outbox that a
// single publisher goroutine, started by Start, sends in order.
package signal
