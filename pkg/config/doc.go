// Package config loads process configuration from environment variables.
//
// It wraps `github.com/joho/godotenv` and `github.com/caarlos0/env/v11`:
// optional .env files are read into the environment first, then the
// environment is parsed into any Go struct annotated with `env` tags.
// Nested structs take an `envPrefix` tag, which is how the dispatcher
// composes the per-package configs (streaming, pg, redis, httpserver,
// ratelimit) into one root struct.
//
// # Usage
//
//	var cfg engine.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatalf("parsing env: %v", err)
//	}
//
// # Error Handling
//
// Errors can be compared with `errors.Is`:
//
//   - `ErrParsingConfig`  – failed to parse env vars into struct.
//   - `ErrLoadingEnvFile` – an explicitly requested .env file is missing or malformed.
//   - `ErrNilPointer`     – nil pointer passed to `Load`/`MustLoad`.
package config
