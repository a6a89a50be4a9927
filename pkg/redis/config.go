package redis

import "time"

type Config struct {
	ConnectionURL  string        `env:"REDIS_URL"`                              // Format "redis://:password@localhost:6379/0". Empty disables the Redis rate-limit store.
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`    // Number of connection attempts.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`   // Delay between attempts.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"` // Upper bound for the whole connect sequence.
}
