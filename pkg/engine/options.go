package engine

import (
	"log/slog"

	"github.com/dmitrymomot/dispatch/pkg/identity"
	"github.com/dmitrymomot/dispatch/pkg/notification"
	"github.com/dmitrymomot/dispatch/pkg/ratelimit"
	"github.com/dmitrymomot/dispatch/pkg/streaming"
)

// Option overrides a component New would otherwise build from Config.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	driver     streaming.Driver
	store      notification.Store
	limitStore ratelimit.Store
	decoder    identity.Decoder
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDriver replaces the backbone driver selected by STREAM_DRIVER.
func WithDriver(d streaming.Driver) Option {
	return func(o *options) { o.driver = d }
}

// WithStore replaces the notification store, skipping Postgres.
func WithStore(s notification.Store) Option {
	return func(o *options) { o.store = s }
}

// WithRateLimitStore replaces the limiter store, skipping Redis.
func WithRateLimitStore(s ratelimit.Store) Option {
	return func(o *options) { o.limitStore = s }
}

// WithDecoder sets how access tokens are turned into identities.
func WithDecoder(d identity.Decoder) Option {
	return func(o *options) { o.decoder = d }
}
