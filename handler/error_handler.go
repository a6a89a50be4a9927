package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/dispatch/pkg/logger"
)

// ErrorMapper translates an application error into one the JSON renderer
// understands (HTTPError or ValidationError). Returning err unchanged
// falls through to the next mapper.
type ErrorMapper func(err error) error

// ErrorHandlerOption configures NewErrorHandler.
type ErrorHandlerOption func(*errorHandlerConfig)

type errorHandlerConfig struct {
	mappers []ErrorMapper
}

// WithErrorMappers appends mappers consulted in order before rendering.
func WithErrorMappers(mappers ...ErrorMapper) ErrorHandlerOption {
	return func(c *errorHandlerConfig) {
		for _, m := range mappers {
			if m != nil {
				c.mappers = append(c.mappers, m)
			}
		}
	}
}

// determineLogLevel maps HTTP status codes to appropriate log levels
func determineLogLevel(statusCode int) slog.Level {
	if statusCode >= http.StatusBadRequest && statusCode < http.StatusInternalServerError {
		return slog.LevelWarn
	}
	return slog.LevelError
}

// mapError runs the mappers until one of them produces a renderable error.
func mapError(mappers []ErrorMapper, err error) error {
	for _, m := range mappers {
		mapped := m(err)
		if isRenderable(mapped) {
			return mapped
		}
	}
	return err
}

func isRenderable(err error) bool {
	var httpErr HTTPError
	var valErr ValidationError
	return errors.As(err, &httpErr) || errors.As(err, &valErr)
}

// NewErrorHandler creates the error handler shared by every API route.
// It logs the original error with request context and writes the JSON
// error envelope for the mapped one.
func NewErrorHandler(log *slog.Logger, opts ...ErrorHandlerOption) ErrorHandler {
	if log == nil {
		log = slog.Default()
	}
	cfg := &errorHandlerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		resp := &jsonResponse{}
		resp.body.Error, resp.status = errorToDetail(mapError(cfg.mappers, err))

		log.LogAttrs(r.Context(), determineLogLevel(resp.status), "request error",
			logger.RequestID(ctx.RequestID()),
			logger.UserID(ctx.UserID()),
			logger.Error(err),
			slog.Int("status_code", resp.status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		if renderErr := resp.Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.LogAttrs(r.Context(), slog.LevelError, "failed to render error response",
				logger.Error(renderErr),
				logger.Event("render_error"),
			)
		}
	}
}
