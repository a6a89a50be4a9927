package httpserver

import "errors"

// Run and Shutdown join the underlying net/http error to these.
var (
	ErrStart    = errors.New("httpserver: listen failed")
	ErrShutdown = errors.New("httpserver: graceful shutdown failed")
)
