package engine

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/dispatch/pkg/api"
	"github.com/dmitrymomot/dispatch/pkg/dispatch"
	"github.com/dmitrymomot/dispatch/pkg/fanout"
	"github.com/dmitrymomot/dispatch/pkg/fanout/sse"
	"github.com/dmitrymomot/dispatch/pkg/fanout/ws"
	"github.com/dmitrymomot/dispatch/pkg/httpserver"
	"github.com/dmitrymomot/dispatch/pkg/identity"
	"github.com/dmitrymomot/dispatch/pkg/logger"
	"github.com/dmitrymomot/dispatch/pkg/notification"
	"github.com/dmitrymomot/dispatch/pkg/pg"
	"github.com/dmitrymomot/dispatch/pkg/ratelimit"
	"github.com/dmitrymomot/dispatch/pkg/redis"
	"github.com/dmitrymomot/dispatch/pkg/requestid"
	"github.com/dmitrymomot/dispatch/pkg/streaming"
)

// Engine is the assembled notification dispatcher.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	pool  *pgxpool.Pool
	redis *goredis.Client

	manager *streaming.Manager
	hub     *fanout.Hub
	service *notification.Service
	server  *httpserver.Server
	handler http.Handler
}

// New connects the durable backends and wires every component. The
// backbone is not contacted until Run.
func New(ctx context.Context, cfg Config, opts ...Option) (*Engine, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Discard()
	}
	if o.decoder == nil {
		o.decoder = identity.NewClaimsDecoder()
	}

	e := &Engine{cfg: cfg, logger: o.logger}

	store, err := e.notificationStore(ctx, o)
	if err != nil {
		return nil, err
	}
	limitStore, err := e.rateLimitStore(ctx, o)
	if err != nil {
		e.closeClients()
		return nil, err
	}
	limiter, err := ratelimit.NewFromConfig(limitStore, cfg.RateLimit)
	if err != nil {
		e.closeClients()
		return nil, err
	}

	driver := o.driver
	if driver == nil {
		if driver, err = streaming.NewDriver(cfg.Streaming); err != nil {
			e.closeClients()
			return nil, err
		}
	}

	e.hub = fanout.NewHub(fanout.WithLogger(o.logger))
	e.service = notification.NewService(store,
		notification.WithDeliverer(e.hub),
		notification.WithLogger(o.logger),
	)
	router := dispatch.NewRouter(e.service, e.hub,
		dispatch.WithPlatformName(cfg.Dispatch.PlatformName),
		dispatch.WithLogger(o.logger),
	)

	e.manager = streaming.NewManager(driver,
		streaming.WithConfig(cfg.Streaming),
		streaming.WithLogger(o.logger),
	)
	if err := e.manager.Subscribe(dispatch.Topics(), router); err != nil {
		e.closeClients()
		return nil, err
	}

	e.handler = e.routes(o.decoder, limiter)
	e.server = httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(o.logger))
	return e, nil
}

func (e *Engine) notificationStore(ctx context.Context, o options) (notification.Store, error) {
	if o.store != nil {
		return o.store, nil
	}
	if e.cfg.Postgres.ConnectionString == "" {
		return notification.NewMemoryStore(), nil
	}

	pool, err := pg.Connect(ctx, e.cfg.Postgres)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx, pool, notification.Migrations, notification.MigrationsDir, e.cfg.Postgres, e.logger); err != nil {
		pool.Close()
		return nil, err
	}
	e.pool = pool
	return notification.NewPostgresStore(pool), nil
}

func (e *Engine) rateLimitStore(ctx context.Context, o options) (ratelimit.Store, error) {
	if o.limitStore != nil {
		return o.limitStore, nil
	}
	if e.cfg.Redis.ConnectionURL == "" {
		return ratelimit.NewMemoryStore(), nil
	}

	client, err := redis.Connect(ctx, e.cfg.Redis)
	if err != nil {
		return nil, err
	}
	e.redis = client
	return ratelimit.NewRedisStore(client, e.cfg.RateLimit.KeyPrefix), nil
}

func (e *Engine) routes(decoder identity.Decoder, limiter *ratelimit.Limiter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestid.Middleware)

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(e.logger, e.readinessChecks()...))

	r.Mount("/api", api.New(e.service,
		api.WithDecoder(decoder),
		api.WithLimiter(limiter),
		api.WithLogger(e.logger),
	).Handle())

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(identity.MiddlewareConfig{
			Decoder:   decoder,
			Extractor: identity.FirstToken(identity.BearerToken, identity.QueryToken(e.cfg.TokenQueryParam)),
		}))
		r.Handle("/ws", ws.NewHandler(e.hub, ws.WithConfig(e.cfg.WS), ws.WithLogger(e.logger)))
		r.Handle("/events", sse.NewHandler(e.hub, sse.WithOutboxSize(e.cfg.WS.OutboxSize), sse.WithLogger(e.logger)))
	})

	return r
}

func (e *Engine) readinessChecks() []httpserver.Check {
	var checks []httpserver.Check
	if e.pool != nil {
		checks = append(checks, httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(e.pool)})
	}
	if e.redis != nil {
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(e.redis)})
	}
	return checks
}

// Handler returns the HTTP surface: health probes, /api, /ws and /events.
func (e *Engine) Handler() http.Handler { return e.handler }

// Hub returns the realtime session registry.
func (e *Engine) Hub() *fanout.Hub { return e.hub }

// Notifications returns the notification service backing the API.
func (e *Engine) Notifications() *notification.Service { return e.service }

// Connect opens the backbone links. Run calls it when needed; calling it
// first lets the caller fail fast before anything is served.
func (e *Engine) Connect(ctx context.Context) error {
	if err := e.manager.Connect(ctx); err != nil {
		e.logger.LogAttrs(ctx, slog.LevelError, "backbone connection failed",
			logger.Component("engine"),
			logger.Error(err),
		)
		return err
	}
	return nil
}

// Run connects the backbone, then ingests envelopes and serves HTTP until
// ctx is cancelled or a component fails. A failed connect is returned
// immediately and matches streaming.ErrConnection.
//
// Shutdown runs in order: intake stops, in-flight handlers drain, backbone
// links close, realtime sessions and the HTTP server stop, and finally the
// Postgres and Redis clients close. The whole sequence is bounded by
// ShutdownTimeout.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Connect(ctx); err != nil {
		e.closeClients()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.manager.Run(gctx)
	})
	g.Go(func() error {
		return e.server.Run(context.WithoutCancel(gctx), e.handler)
	})
	g.Go(func() error {
		<-gctx.Done()
		return e.shutdown()
	})

	e.logger.LogAttrs(ctx, slog.LevelInfo, "engine started", logger.Component("engine"))
	return g.Wait()
}

func (e *Engine) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.ShutdownTimeout)
	defer cancel()

	step := func(name string) {
		e.logger.LogAttrs(ctx, slog.LevelInfo, "shutdown step", logger.Component("engine"), logger.Event(name))
	}

	var errs []error

	step("drain_backbone")
	if err := e.manager.Disconnect(ctx); err != nil {
		errs = append(errs, err)
	}

	step("close_sessions")
	if err := e.hub.Close(); err != nil {
		errs = append(errs, err)
	}

	step("stop_http")
	if err := e.server.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	step("close_clients")
	e.closeClients()

	if err := errors.Join(errs...); err != nil {
		e.logger.LogAttrs(ctx, slog.LevelError, "shutdown incomplete", logger.Component("engine"), logger.Error(err))
		return err
	}
	e.logger.LogAttrs(ctx, slog.LevelInfo, "engine stopped", logger.Component("engine"))
	return nil
}

func (e *Engine) closeClients() {
	if e.pool != nil {
		e.pool.Close()
		e.pool = nil
	}
	if e.redis != nil {
		if err := e.redis.Close(); err != nil {
			e.logger.LogAttrs(context.Background(), slog.LevelWarn, "failed to close redis client",
				logger.Component("engine"), logger.Error(err))
		}
		e.redis = nil
	}
}
