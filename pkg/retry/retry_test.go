package retry

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makalin/LiveWeave/errors"
)

var errLost = errors.WrapTransient(errors.ErrConnectionLost, "test", "op", "publish")

func fast(attempts int) Config {
	return Config{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast(3), func() error {
		calls++
		if calls < 3 {
			return errLost
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_AllAttemptsFail(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast(4), func() error {
		calls++
		return errLost
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.ErrorIs(t, err, errors.ErrConnectionLost)
	assert.Contains(t, err.Error(), "after 4 attempts")
}

func TestDo_StopsOnPermanentErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"invalid", errors.WrapInvalid(errors.ErrInvalidData, "test", "op", "encode")},
		{"marked", NonRetryable(errLost)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Do(context.Background(), fast(5), func() error {
				calls++
				return tt.err
			})
			assert.Equal(t, 1, calls)
			assert.Same(t, tt.err, err)
		})
	}
}

func TestDo_CustomRetryable(t *testing.T) {
	plain := stderrors.New("boom")
	cfg := fast(3)
	cfg.Retryable = func(error) bool { return true }

	calls := 0
	err := Do(context.Background(), cfg, func() error {
		calls++
		return plain
	})
	assert.ErrorIs(t, err, plain)
	assert.Equal(t, 3, calls)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour}

	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, cfg, func() error { return errLost })
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestDo_BackoffOnClock(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	cfg := Config{MaxAttempts: 3, InitialDelay: time.Second, MaxDelay: 90 * time.Second, Multiplier: 100, Clock: clk}

	calls := make(chan struct{}, 3)
	done := make(chan error, 1)
	go func() {
		done <- Do(context.Background(), cfg, func() error {
			calls <- struct{}{}
			return errLost
		})
	}()

	<-calls
	require.NoError(t, clk.WaitAdvance(time.Second, time.Second, 1))
	<-calls
	// Capped at MaxDelay instead of 100s.
	require.NoError(t, clk.WaitAdvance(90*time.Second, time.Second, 1))
	<-calls

	assert.Error(t, <-done)
}

func TestDo_InvalidConfig(t *testing.T) {
	for _, cfg := range []Config{
		{InitialDelay: -1},
		{InitialDelay: time.Second, MaxDelay: time.Millisecond},
	} {
		err := Do(context.Background(), cfg, func() error { return nil })
		assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	}
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), Config{}, func() error {
		calls++
		return errLost
	})
	assert.Equal(t, 1, calls)
}

func TestPresets(t *testing.T) {
	for _, cfg := range []Config{DefaultConfig(), Publish()} {
		assert.Greater(t, cfg.MaxAttempts, 1)
		assert.LessOrEqual(t, cfg.InitialDelay, cfg.MaxDelay)
	}
}
