package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript applies the fixed-window transition in one round trip.
// KEYS[1] entry hash; ARGV: now (ms), window (ms), limit.
// Returns {allowed, count, resetAt (ms)}.
var hitScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

local state = redis.call('HMGET', KEYS[1], 'count', 'reset')
local count = tonumber(state[1])
local reset = tonumber(state[2])

if count == nil or reset == nil or now > reset then
	reset = now + window
	redis.call('HSET', KEYS[1], 'count', 1, 'reset', reset)
	redis.call('PEXPIREAT', KEYS[1], reset + 1000)
	return {1, 1, reset}
end

if count >= limit then
	return {0, count, reset}
end

count = redis.call('HINCRBY', KEYS[1], 'count', 1)
return {1, count, reset}
`)

// RedisStore shares fixed-window entries across dispatcher replicas.
// Keys expire shortly after their window ends, which is equivalent to the
// next request starting a fresh window.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Hit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Entry, bool, error) {
	reply, err := hitScript.Run(ctx, s.client, []string{s.prefix + key},
		now.UnixMilli(), window.Milliseconds(), limit,
	).Int64Slice()
	if err != nil {
		return Entry{}, false, fmt.Errorf("rate limit hit: %w", err)
	}
	if len(reply) != 3 {
		return Entry{}, false, fmt.Errorf("%w: %v", ErrUnexpectedReply, reply)
	}

	return Entry{
		Count:   int(reply[1]),
		ResetAt: time.UnixMilli(reply[2]),
	}, reply[0] == 1, nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("rate limit reset: %w", err)
	}
	return nil
}
