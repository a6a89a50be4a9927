// Package httpserver wraps net/http with configurable timeouts, context
// driven graceful shutdown and health probe handlers.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	go func() { errCh <- srv.Run(ctx, router) }()
//	...
//	_ = srv.Shutdown(context.Background())
//
// Run returns once the server stops. Cancelling ctx triggers Shutdown,
// which is idempotent and bounded by the configured shutdown timeout.
// Start failures are wrapped with ErrStart and shutdown failures with
// ErrShutdown.
//
// Process signals are not handled here; the caller owns them so it can
// order HTTP shutdown relative to its other components.
package httpserver
