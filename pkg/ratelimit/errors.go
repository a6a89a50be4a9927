package ratelimit

import "errors"

// ErrRateLimitExceeded is what callers map to a 429.
var ErrRateLimitExceeded = errors.New("too many requests, try again later")

// Construction and store errors.
var (
	ErrStoreRequired   = errors.New("ratelimit: store is nil")
	ErrInvalidLimit    = errors.New("ratelimit: limit must be positive")
	ErrInvalidWindow   = errors.New("ratelimit: window must be positive")
	ErrKeyRequired     = errors.New("ratelimit: empty client id")
	ErrUnexpectedReply = errors.New("ratelimit: unexpected store reply")
)
