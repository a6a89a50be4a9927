package streaming

import (
	"log/slog"
	"time"
)

// Option configures a Manager.
type Option func(*options)

type options struct {
	maxInFlight    int
	handlerTimeout time.Duration
	logger         *slog.Logger
}

// WithMaxInFlight caps the number of envelopes handled concurrently.
func WithMaxInFlight(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxInFlight = n
		}
	}
}

// WithHandlerTimeout bounds a single handler invocation. The timeout is
// independent of shutdown: cancelling Run never cancels a running handler.
func WithHandlerTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.handlerTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithConfig applies the concurrency settings from cfg.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		WithMaxInFlight(cfg.MaxInFlight)(o)
		WithHandlerTimeout(cfg.HandlerTimeout)(o)
	}
}
