package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
)

// Quotas for the GitHub REST API.
// https://docs.github.com/en/rest/using-the-rest-api/rate-limits-for-the-rest-api
var (
	AnonymousQuotas = []BucketConfig{
		{Name: "primary", Capacity: 60, Initial: 60, Interval: time.Hour, Refill: 60},
		{Name: "secondary", Capacity: 900, Initial: 900, Interval: time.Minute, Refill: 900},
	}
	AuthenticatedQuotas = []BucketConfig{
		{Name: "primary", Capacity: 5000, Initial: 5000, Interval: time.Hour, Refill: 5000},
		{Name: "secondary", Capacity: 900, Initial: 900, Interval: time.Minute, Refill: 900},
	}
)

// Limiter admits a request only when every bucket for the caller's
// authentication state has a token. Buckets live for the process lifetime.
type Limiter struct {
	mu     sync.Mutex
	tiers  map[bool][]*Bucket // keyed by authenticated
	logger *slog.Logger
}

// Option configures a Limiter.
type Option func(*limiterOptions)

type limiterOptions struct {
	logger        *slog.Logger
	now           Clock
	anonymous     []BucketConfig
	authenticated []BucketConfig
}

// WithLogger sets the logger used for rate-limit diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *limiterOptions) {
		o.logger = logger
	}
}

// WithClock replaces time.Now.
func WithClock(now Clock) Option {
	return func(o *limiterOptions) {
		o.now = now
	}
}

// WithQuotas replaces the default GitHub quotas.
func WithQuotas(anonymous, authenticated []BucketConfig) Option {
	return func(o *limiterOptions) {
		o.anonymous = anonymous
		o.authenticated = authenticated
	}
}

// New creates a Limiter with GitHub's documented quotas unless overridden.
func New(opts ...Option) (*Limiter, error) {
	o := limiterOptions{
		logger:        slog.Default(),
		now:           time.Now,
		anonymous:     AnonymousQuotas,
		authenticated: AuthenticatedQuotas,
	}
	for _, opt := range opts {
		opt(&o)
	}

	l := &Limiter{
		tiers:  make(map[bool][]*Bucket, 2),
		logger: o.logger,
	}

	for authenticated, cfgs := range map[bool][]BucketConfig{false: o.anonymous, true: o.authenticated} {
		for _, cfg := range cfgs {
			b, err := NewBucket(cfg, o.now)
			if err != nil {
				return nil, gmerrors.Wrapf(err, "authenticated=%v", authenticated)
			}
			l.tiers[authenticated] = append(l.tiers[authenticated], b)
		}
	}

	return l, nil
}

// Acquire takes one token from each bucket for the given authentication
// state, blocking while any bucket is exhausted. Tokens are taken only once
// every bucket can grant one, so a cancelled wait consumes nothing.
func (l *Limiter) Acquire(ctx context.Context, authenticated bool) error {
	for {
		empty := l.takeAll(authenticated)
		if empty == nil {
			return nil
		}

		l.logger.Info("rate limited, waiting for quota",
			"tier", empty.Name(),
			"authenticated", authenticated,
		)
		if !authenticated {
			l.logger.Info("authenticate with GitHub for a higher rate limit")
		}

		if err := empty.waitRefill(ctx); err != nil {
			return gmerrors.Wrapf(err, "waiting for %s quota", empty.Name())
		}
	}
}

// TryAcquire takes one token from each bucket without blocking. It reports
// false, consuming nothing, when any bucket is empty.
func (l *Limiter) TryAcquire(authenticated bool) bool {
	return l.takeAll(authenticated) == nil
}

// takeAll takes one token from every bucket of a tier, or none. It returns
// the first exhausted bucket when it takes none.
func (l *Limiter) takeAll(authenticated bool) *Bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	buckets := l.tiers[authenticated]
	for _, b := range buckets {
		b.mu.Lock()
		defer b.mu.Unlock()
	}

	for _, b := range buckets {
		if b.bucket.Available() < 1 {
			return b
		}
	}
	for _, b := range buckets {
		b.take(1)
	}
	return nil
}

// Buckets returns the buckets for an authentication state, primary first.
func (l *Limiter) Buckets(authenticated bool) []*Bucket {
	return l.tiers[authenticated]
}
