package db

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBootstrapBackOffSchedule(t *testing.T) {
	b := newBootstrapBackOff(10)
	b.randN = func(int64) int64 { return 0 }

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	for i, w := range want {
		assert.Equal(t, w, b.NextBackOff(), "wait after failure %d", i+1)
	}
	assert.Equal(t, backoff.Stop, b.NextBackOff(), "tenth failure exhausts the budget")

	b.Reset()
	assert.Equal(t, 1*time.Second, b.NextBackOff())
}

func TestBootstrapBackOffJitter(t *testing.T) {
	b := newBootstrapBackOff(10)
	for range 50 {
		b.Reset()
		d := b.NextBackOff()
		assert.GreaterOrEqual(t, d, 1*time.Second)
		assert.Less(t, d, 1*time.Second+300*time.Millisecond)
	}
}

func TestBootstrapBackOffDefaultAttempts(t *testing.T) {
	b := newBootstrapBackOff(0)
	assert.Equal(t, DefaultMaxAttempts, b.maxAttempts)
}

func fastBackOff(maxAttempts int) *bootstrapBackOff {
	b := newBootstrapBackOff(maxAttempts)
	b.base = time.Millisecond
	b.cap = 4 * time.Millisecond
	b.jitter = 0
	return b
}

func TestRetryConnect(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		attempts, err := retryConnect(context.Background(), fastBackOff(10), quietLogger(), func() error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("surfaces the last error after the budget", func(t *testing.T) {
		calls := 0
		attempts, err := retryConnect(context.Background(), fastBackOff(10), quietLogger(), func() error {
			calls++
			if calls == 10 {
				return errors.New("final failure")
			}
			return errors.New("connection refused")
		})
		require.Error(t, err)
		assert.Equal(t, 10, attempts)
		assert.Equal(t, "final failure", err.Error())
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		attempts, err := retryConnect(ctx, fastBackOff(10), quietLogger(), func() error {
			cancel()
			return errors.New("connection refused")
		})
		require.Error(t, err)
		assert.Equal(t, 1, attempts)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
