package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Healthcheck adapts a client to a readiness probe. Anything other than
// PONG counts as a failure.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		pong, err := client.Ping(ctx).Result()
		switch {
		case err != nil:
			return errors.Join(ErrHealthcheckFailed, err)
		case pong != "PONG":
			return errors.Join(ErrHealthcheckFailed, errors.New("unexpected reply "+pong))
		}
		return nil
	}
}
