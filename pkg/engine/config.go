package engine

import (
	"time"

	"github.com/dmitrymomot/dispatch/pkg/dispatch"
	"github.com/dmitrymomot/dispatch/pkg/fanout/ws"
	"github.com/dmitrymomot/dispatch/pkg/httpserver"
	"github.com/dmitrymomot/dispatch/pkg/pg"
	"github.com/dmitrymomot/dispatch/pkg/ratelimit"
	"github.com/dmitrymomot/dispatch/pkg/redis"
	"github.com/dmitrymomot/dispatch/pkg/streaming"
)

// Config is the root process configuration. Each section is owned by the
// package it configures and is parsed from the same environment.
//
// Backends are chosen by presence: a non-empty PG_CONN_URL stores
// notifications in Postgres, a non-empty REDIS_URL keeps rate limit
// windows in Redis. Otherwise both live in memory.
type Config struct {
	Env             string        `env:"APP_ENV" envDefault:"development"`
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"notification-service"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	TokenQueryParam string        `env:"REALTIME_TOKEN_PARAM" envDefault:"token"`

	Dispatch  dispatch.Config
	Streaming streaming.Config
	RateLimit ratelimit.Config
	HTTP      httpserver.Config
	WS        ws.Config
	Postgres  pg.Config
	Redis     redis.Config
}
