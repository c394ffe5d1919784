// Package ratelimit bounds outbound API requests with two independent token
// buckets per authentication state.
//
// Buckets refill in batches: Refill tokens are added at the end of every
// Interval, capped at Capacity. Nothing is granted partway through an
// interval.
package ratelimit

import (
	"context"
	"sync"
	"time"

	tokenbucket "github.com/juju/ratelimit"

	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
)

// refillSlack is added to a computed refill delay so a waiter wakes after the
// underlying bucket has crossed the interval boundary.
const refillSlack = 5 * time.Millisecond

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// clockAdapter satisfies tokenbucket.Clock for a Clock func.
type clockAdapter struct {
	now Clock
}

func (c clockAdapter) Now() time.Time        { return c.now() }
func (c clockAdapter) Sleep(d time.Duration) { time.Sleep(d) }

// BucketConfig describes one token bucket.
type BucketConfig struct {
	Name     string        // tier name used in diagnostics, e.g. "primary"
	Capacity int           // maximum tokens held
	Initial  int           // tokens available at construction
	Interval time.Duration // refill period
	Refill   int           // tokens added per Interval
}

// Bucket is a token bucket with discrete refill.
type Bucket struct {
	cfg   BucketConfig
	now   Clock
	start time.Time

	mu     sync.Mutex
	bucket *tokenbucket.Bucket
}

// NewBucket creates a bucket from cfg. Initial is clamped to [0, Capacity].
func NewBucket(cfg BucketConfig, now Clock) (*Bucket, error) {
	if cfg.Capacity <= 0 {
		return nil, gmerrors.Newf("bucket %q: capacity must be positive", cfg.Name)
	}
	if cfg.Interval <= 0 || cfg.Refill <= 0 {
		return nil, gmerrors.Newf("bucket %q: interval and refill must be positive", cfg.Name)
	}
	if now == nil {
		now = time.Now
	}

	start := now()
	tb := tokenbucket.NewBucketWithQuantumAndClock(
		cfg.Interval,
		int64(cfg.Capacity),
		int64(cfg.Refill),
		clockAdapter{now: now},
	)

	initial := min(max(cfg.Initial, 0), cfg.Capacity)
	if drain := cfg.Capacity - initial; drain > 0 {
		tb.TakeAvailable(int64(drain))
	}

	return &Bucket{cfg: cfg, now: now, start: start, bucket: tb}, nil
}

// Name returns the tier name.
func (b *Bucket) Name() string {
	return b.cfg.Name
}

// TryAcquire consumes n tokens if all n are available right now. It consumes
// nothing otherwise.
func (b *Bucket) TryAcquire(n int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.take(int64(n))
}

func (b *Bucket) take(n int64) bool {
	if b.bucket.Available() < n {
		return false
	}
	return b.bucket.TakeAvailable(n) == n
}

// Acquire blocks until one token is available or ctx is done. A cancelled
// wait consumes nothing.
func (b *Bucket) Acquire(ctx context.Context) error {
	for {
		if b.TryAcquire(1) {
			return nil
		}
		if err := b.waitRefill(ctx); err != nil {
			return err
		}
	}
}

// waitRefill sleeps until the next refill boundary without taking a token.
func (b *Bucket) waitRefill(ctx context.Context) error {
	timer := time.NewTimer(b.untilRefill() + refillSlack)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// untilRefill returns the time left before the next batch of tokens lands.
func (b *Bucket) untilRefill() time.Duration {
	elapsed := b.now().Sub(b.start)
	if elapsed < 0 {
		return b.cfg.Interval
	}
	return b.cfg.Interval - elapsed%b.cfg.Interval
}

// Tokens reports the tokens currently available.
func (b *Bucket) Tokens() float64 {
	return float64(b.bucket.Available())
}
