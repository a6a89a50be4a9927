package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/dispatch/handler"
	"github.com/dmitrymomot/dispatch/pkg/binder"
	"github.com/dmitrymomot/dispatch/pkg/identity"
	"github.com/dmitrymomot/dispatch/pkg/logger"
	"github.com/dmitrymomot/dispatch/pkg/notification"
	"github.com/dmitrymomot/dispatch/pkg/ratelimit"
)

// NotificationService is the part of notification.Service the API calls.
type NotificationService interface {
	Create(ctx context.Context, in notification.CreateInput) (notification.Notification, error)
	List(ctx context.Context, userID string, limit int) ([]notification.Notification, error)
	MarkRead(ctx context.Context, id string) (notification.Notification, error)
}

// API serves the synchronous notification routes.
type API struct {
	svc     NotificationService
	decoder identity.Decoder
	limiter *ratelimit.Limiter
	keyFunc ratelimit.KeyFunc
	logger  *slog.Logger
	errors  handler.ErrorHandler
}

// Option configures an API.
type Option func(*API)

// WithLimiter enables per-client rate limiting.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(a *API) { a.limiter = l }
}

// WithKeyFunc overrides how the rate limit client id is derived.
func WithKeyFunc(fn ratelimit.KeyFunc) Option {
	return func(a *API) {
		if fn != nil {
			a.keyFunc = fn
		}
	}
}

func WithDecoder(d identity.Decoder) Option {
	return func(a *API) {
		if d != nil {
			a.decoder = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// New builds the API over svc. Without WithDecoder, tokens are read as
// unverified JWT claims.
func New(svc NotificationService, opts ...Option) *API {
	a := &API{
		svc:     svc,
		decoder: identity.NewClaimsDecoder(),
		keyFunc: ratelimit.FirstOf(ratelimit.ByIdentity(), ratelimit.ByIP()),
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.errors = handler.NewErrorHandler(a.logger, handler.WithErrorMappers(ErrorMapper))
	return a
}

// Handle returns the router for the notification routes.
func (a *API) Handle() http.Handler {
	r := chi.NewRouter()

	r.Use(identity.Middleware(identity.MiddlewareConfig{
		Decoder: a.decoder,
		OnError: a.fail,
	}))
	if a.limiter != nil {
		r.Use(ratelimit.Middleware(a.limiter, a.keyFunc,
			ratelimit.WithMiddlewareLogger(a.logger),
			ratelimit.WithOnLimitReached(func(w http.ResponseWriter, r *http.Request, _ ratelimit.Result) {
				a.fail(w, r, ratelimit.ErrRateLimitExceeded)
			}),
		))
	}

	r.Post("/notifications", handler.Wrap(a.create,
		handler.WithBinders(binder.JSON()),
		handler.WithErrorHandler(a.errors),
	))
	r.Get("/notifications/{userId}", handler.Wrap(a.list,
		handler.WithBinders(binder.Path(chi.URLParam), binder.Query()),
		handler.WithErrorHandler(a.errors),
	))
	r.Put("/notifications/{id}/read", handler.Wrap(a.markRead,
		handler.WithBinders(binder.Path(chi.URLParam)),
		handler.WithErrorHandler(a.errors),
	))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) { a.fail(w, r, handler.ErrNotFound) })
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) { a.fail(w, r, handler.ErrMethodNotAllowed) })

	return r
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	a.errors(handler.NewContext(w, r), err)
}
