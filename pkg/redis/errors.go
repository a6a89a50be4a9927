package redis

import "errors"

// Sentinel errors. Client errors are joined to them.
var (
	ErrEmptyConnectionURL           = errors.New("redis: connection URL is empty, set REDIS_URL")
	ErrFailedToParseRedisConnString = errors.New("redis: invalid connection URL")
	ErrRedisNotReady                = errors.New("redis: server not reachable before deadline")
	ErrHealthcheckFailed            = errors.New("redis: ping failed")
)
