package api

import (
	"errors"

	"github.com/dmitrymomot/dispatch/handler"
	"github.com/dmitrymomot/dispatch/pkg/binder"
	"github.com/dmitrymomot/dispatch/pkg/identity"
	"github.com/dmitrymomot/dispatch/pkg/notification"
	"github.com/dmitrymomot/dispatch/pkg/ratelimit"
)

// ErrorMapper translates domain errors into their HTTP form.
// Unknown errors are returned unchanged and render as 500 internal_error.
func ErrorMapper(err error) error {
	var verr *notification.ValidationError
	switch {
	case errors.As(err, &verr):
		out := handler.NewValidationError()
		for field, msgs := range verr.Fields {
			for _, msg := range msgs {
				out.Add(field, msg)
			}
		}
		return out
	case errors.Is(err, notification.ErrNotFound):
		return handler.ErrNotFound.WithMessage(notification.ErrNotFound.Error())
	case errors.Is(err, ratelimit.ErrRateLimitExceeded):
		return handler.ErrTooManyRequests.WithMessage(ratelimit.ErrRateLimitExceeded.Error())
	case isIdentityError(err):
		return handler.ErrUnauthorized.WithMessage(err.Error())
	case binder.IsBindError(err):
		return handler.ErrBadRequest.WithMessage(err.Error())
	}
	return err
}

func isIdentityError(err error) bool {
	return errors.Is(err, identity.ErrMissingToken) ||
		errors.Is(err, identity.ErrInvalidToken) ||
		errors.Is(err, identity.ErrExpiredToken) ||
		errors.Is(err, identity.ErrMissingSubject)
}
