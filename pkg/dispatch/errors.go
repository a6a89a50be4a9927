package dispatch

import "errors"

var (
	ErrMissingRecipient = errors.New("dispatch: payload has no recipient")
	ErrMalformedPayload = errors.New("dispatch: malformed payload")
)
