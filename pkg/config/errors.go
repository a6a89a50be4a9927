package config

import "errors"

var (
	// ErrNilPointer is returned when Load receives a nil target.
	ErrNilPointer = errors.New("config: target must be a non-nil pointer")
	// ErrLoadingEnvFile wraps failures reading an explicitly requested env file.
	ErrLoadingEnvFile = errors.New("config: cannot read env file")
	// ErrParsingConfig wraps env parse and validation failures.
	ErrParsingConfig = errors.New("config: cannot parse environment")
)
