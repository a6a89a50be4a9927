package pg

import (
	"context"
	"errors"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthcheck adapts a pool to a readiness probe.
func Healthcheck(db Pinger) func(context.Context) error {
	return func(ctx context.Context) error {
		err := db.Ping(ctx)
		if err == nil {
			return nil
		}
		return errors.Join(ErrHealthcheckFailed, err)
	}
}
