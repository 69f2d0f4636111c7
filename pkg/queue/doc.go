// Package queue bridges a push-based producer (a websocket reader, an SSE
// subscription) to a pull-based consumer.
//
// A Bridge holds an unbounded FIFO of pending items and at most one waiting
// consumer. Enqueue never blocks. Next returns the oldest pending item or
// waits until one arrives, the bridge is closed, or the context ends:
//
//	q := queue.New[[]byte]()
//	go func() {
//	    for msg := range incoming {
//	        _ = q.Enqueue(msg)
//	    }
//	    q.Close(nil)
//	}()
//	for {
//	    msg, err := q.Next(ctx)
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
//
// Only one consumer may wait at a time. A second concurrent Next returns
// ErrWaiterBusy instead of blocking.
package queue
