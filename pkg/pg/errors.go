package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// Errors returned by Connect, Migrate and Healthcheck. Underlying driver
// errors are joined to them.
var (
	ErrEmptyConnectionString    = errors.New("pg: connection string is empty, set PG_CONN_URL")
	ErrFailedToParseDBConfig    = errors.New("pg: invalid connection string")
	ErrFailedToOpenDBConnection = errors.New("pg: database unreachable")
	ErrFailedToApplyMigrations  = errors.New("pg: migrations failed")
	ErrMigrationPathNotProvided = errors.New("pg: migrations directory not set")
	ErrHealthcheckFailed        = errors.New("pg: ping failed")
)

// IsNotFoundError reports whether a single-row query matched nothing.
func IsNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
