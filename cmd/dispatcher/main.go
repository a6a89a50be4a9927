// Command dispatcher consumes domain events from the backbone, stores the
// resulting notifications and pushes them to connected clients.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/dispatch/pkg/config"
	"github.com/dmitrymomot/dispatch/pkg/engine"
	"github.com/dmitrymomot/dispatch/pkg/logger"
	"github.com/dmitrymomot/dispatch/pkg/requestid"
	"github.com/dmitrymomot/dispatch/pkg/streaming"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	var cfg engine.Config
	if err := config.Load(&cfg); err != nil {
		slog.Error("failed to load configuration", logger.Error(err))
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.ServiceName),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := engine.New(ctx, cfg, engine.WithLogger(log))
	if err != nil {
		log.LogAttrs(ctx, slog.LevelError, "failed to initialise engine", logger.Error(err))
		return err
	}

	if err := e.Run(ctx); err != nil {
		if errors.Is(err, streaming.ErrConnection) {
			log.LogAttrs(ctx, slog.LevelError, "backbone unavailable, exiting", logger.Error(err))
		} else {
			log.LogAttrs(ctx, slog.LevelError, "engine stopped with error", logger.Error(err))
		}
		return err
	}
	return nil
}
