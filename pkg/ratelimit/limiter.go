package ratelimit

import (
	"context"
	"time"
)

// Limiter is a fixed-window request limiter keyed by client id.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

func WithLimit(limit int) Option {
	return func(l *Limiter) { l.limit = limit }
}

func WithWindow(window time.Duration) Option {
	return func(l *Limiter) { l.window = window }
}

// WithClock overrides the time source. Tests use it to step past a window.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a Limiter allowing DefaultLimit requests per DefaultWindow unless overridden.
func New(store Store, opts ...Option) (*Limiter, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	l := &Limiter{
		store:  store,
		limit:  DefaultLimit,
		window: DefaultWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if l.window <= 0 {
		return nil, ErrInvalidWindow
	}
	return l, nil
}

// NewFromConfig builds a Limiter from environment configuration.
func NewFromConfig(store Store, cfg Config, opts ...Option) (*Limiter, error) {
	return New(store, append([]Option{WithLimit(cfg.Limit), WithWindow(cfg.Window)}, opts...)...)
}

// Check counts one request for clientID. A rejection is reported through
// Result.Allowed; the error is reserved for store failures.
func (l *Limiter) Check(ctx context.Context, clientID string) (Result, error) {
	if clientID == "" {
		return Result{}, ErrKeyRequired
	}

	entry, allowed, err := l.store.Hit(ctx, clientID, l.limit, l.window, l.now())
	if err != nil {
		return Result{}, err
	}

	return Result{
		Allowed:   allowed,
		Limit:     l.limit,
		Remaining: max(l.limit-entry.Count, 0),
		ResetAt:   entry.ResetAt,
	}, nil
}

// Reset clears the window for clientID.
func (l *Limiter) Reset(ctx context.Context, clientID string) error {
	if clientID == "" {
		return ErrKeyRequired
	}
	return l.store.Reset(ctx, clientID)
}

func (l *Limiter) Limit() int { return l.limit }

func (l *Limiter) Now() time.Time { return l.now() }
