package db

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Bootstrap retry defaults.
const (
	DefaultMaxAttempts = 10
	bootstrapBase      = 1 * time.Second
	bootstrapCap       = 30 * time.Second
	bootstrapJitter    = 300 * time.Millisecond
)

// bootstrapBackOff is a backoff.BackOff for the initial connection: the wait
// after the n-th failure is min(base*2^(n-1), cap) plus uniform jitter in
// [0, jitter). It stops once maxAttempts attempts have failed.
type bootstrapBackOff struct {
	base        time.Duration
	cap         time.Duration
	jitter      time.Duration
	maxAttempts int
	failures    int
	randN       func(n int64) int64
}

func newBootstrapBackOff(maxAttempts int) *bootstrapBackOff {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &bootstrapBackOff{
		base:        bootstrapBase,
		cap:         bootstrapCap,
		jitter:      bootstrapJitter,
		maxAttempts: maxAttempts,
		randN:       rand.Int64N,
	}
}

// NextBackOff implements backoff.BackOff.
func (b *bootstrapBackOff) NextBackOff() time.Duration {
	b.failures++
	if b.failures >= b.maxAttempts {
		return backoff.Stop
	}
	return b.delay(b.failures) + b.jitterDelay()
}

// Reset implements backoff.BackOff.
func (b *bootstrapBackOff) Reset() {
	b.failures = 0
}

func (b *bootstrapBackOff) delay(failures int) time.Duration {
	d := b.base
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= b.cap {
			return b.cap
		}
	}
	return min(d, b.cap)
}

func (b *bootstrapBackOff) jitterDelay() time.Duration {
	if b.jitter <= 0 {
		return 0
	}
	return time.Duration(b.randN(int64(b.jitter)))
}

// retryConnect runs op until it succeeds, the policy gives up or ctx is done.
// Returns the number of attempts made and the last error.
func retryConnect(ctx context.Context, policy backoff.BackOff, log *slog.Logger, op func() error) (int, error) {
	attempts := 0
	err := backoff.RetryNotify(
		func() error {
			attempts++
			return op()
		},
		backoff.WithContext(policy, ctx),
		func(err error, wait time.Duration) {
			log.Warn("database not ready, retrying",
				"attempt", attempts,
				"wait_ms", wait.Milliseconds(),
				"error", err,
			)
		},
	)
	return attempts, err
}
