package identity

import "errors"

var (
	ErrMissingToken   = errors.New("identity: missing access token")
	ErrInvalidToken   = errors.New("identity: malformed access token")
	ErrExpiredToken   = errors.New("identity: access token is expired")
	ErrMissingSubject = errors.New("identity: token carries no user id")
)
