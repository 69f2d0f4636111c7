package queue

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makalin/LiveWeave/metric"
)

func TestBridge_FIFO(t *testing.T) {
	q := New[int]()
	for i := 1; i <= 5; i++ {
		require.NoError(t, q.Enqueue(i))
	}
	assert.Equal(t, 5, q.Len())

	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		got, err := q.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}
	assert.Equal(t, 0, q.Len())
}

func TestBridge_WakesWaiter(t *testing.T) {
	q := New[string]()

	result := make(chan string, 1)
	go func() {
		v, err := q.Next(context.Background())
		assert.NoError(t, err)
		result <- v
	}()

	require.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return q.waiter != nil
	}, time.Second, time.Millisecond)

	require.NoError(t, q.Enqueue("hello"))

	select {
	case v := <-result:
		assert.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken")
	}

	q.mu.Lock()
	assert.Nil(t, q.waiter, "waiter slot should be cleared after wake")
	q.mu.Unlock()
}

func TestBridge_SecondWaiterRejected(t *testing.T) {
	q := New[int]()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := q.Next(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return q.waiter != nil
	}, time.Second, time.Millisecond)

	_, err := q.Next(context.Background())
	assert.ErrorIs(t, err, ErrWaiterBusy)
	assert.Equal(t, int64(1), q.Stats().RejectedWaits())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	// The slot is free again after the waiter leaves.
	require.NoError(t, q.Enqueue(7))
	v, err := q.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestBridge_CloseDrainsThenEOF(t *testing.T) {
	q := New[int]()
	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	q.Close(nil)

	assert.ErrorIs(t, q.Enqueue(3), ErrClosed)

	ctx := context.Background()
	v, err := q.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	v, err = q.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = q.Next(ctx)
	assert.Equal(t, io.EOF, err)
	_, err = q.Next(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestBridge_CloseWithErrorWakesWaiter(t *testing.T) {
	q := New[int]()
	boom := errors.New("boom")

	done := make(chan error, 1)
	go func() {
		_, err := q.Next(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return q.waiter != nil
	}, time.Second, time.Millisecond)

	q.Close(boom)
	q.Close(errors.New("ignored"))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("close did not wake waiter")
	}
}

func TestBridge_ConcurrentProducers(t *testing.T) {
	q := New[int]()
	const producers, each = 4, 250

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				_ = q.Enqueue(i)
			}
		}()
	}
	go func() {
		wg.Wait()
		q.Close(nil)
	}()

	count := 0
	for {
		_, err := q.Next(context.Background())
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, producers*each, count)
	assert.Equal(t, int64(producers*each), q.Stats().Dequeued())
	assert.GreaterOrEqual(t, q.Stats().PeakDepth(), int64(1))
}

func TestBridge_WithMetrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	q := New[int](WithMetrics[int](registry, "socket"))
	require.NotNil(t, q.metrics)

	require.NoError(t, q.Enqueue(1))
	_, err := q.Next(context.Background())
	require.NoError(t, err)

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["liveweave_queue_enqueued_total"])
	assert.True(t, names["liveweave_queue_depth"])

	summary := q.Stats().Summary()
	assert.Equal(t, StatsSummary{Enqueued: 1, Dequeued: 1, PeakDepth: 1}, summary)
}
