package ratelimit

import (
	"context"
	"time"
)

const (
	DefaultLimit  = 100
	DefaultWindow = 15 * time.Minute
)

type Config struct {
	Limit     int           `env:"RATE_LIMIT_MAX" envDefault:"100"`
	Window    time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
	KeyPrefix string        `env:"RATE_LIMIT_KEY_PREFIX" envDefault:"ratelimit:"`
}

// Entry is the fixed-window state kept per client.
type Entry struct {
	Count   int
	ResetAt time.Time
}

// Result contains the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long to wait before the next request is allowed.
// Returns 0 if the current request was allowed.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed || !r.ResetAt.After(now) {
		return 0
	}
	return r.ResetAt.Sub(now)
}

// Store keeps fixed-window entries. Hit must apply the whole transition atomically:
//   - no entry, or now after ResetAt: start a new window with Count=1 and allow;
//   - Count >= limit: reject without changing the entry;
//   - otherwise: increment Count and allow.
type Store interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Entry, bool, error)
	Reset(ctx context.Context, key string) error
}
