package httpserver

import (
	"log/slog"
	"net"
	"time"
)

// Option configures the HTTP server.
type Option func(*config)

type config struct {
	addr            string
	listener        net.Listener
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	startHooks      []func(*slog.Logger)
	stopHooks       []func(*slog.Logger)
}

func defaultConfig() *config {
	return &config{
		addr:            ":8080",
		readTimeout:     30 * time.Second,
		idleTimeout:     2 * time.Minute,
		shutdownTimeout: 5 * time.Second,
	}
}

// Timeouts groups the server deadlines. Zero fields keep the current value.
type Timeouts struct {
	Read     time.Duration
	Write    time.Duration
	Idle     time.Duration
	Shutdown time.Duration
}

// WithAddr sets the address the server listens on.
func WithAddr(addr string) Option {
	if addr == "" {
		panic("httpserver: empty addr")
	}
	return func(c *config) { c.addr = addr }
}

// WithListener serves on an already bound listener instead of dialing addr.
func WithListener(ln net.Listener) Option {
	if ln == nil {
		panic("httpserver: nil listener")
	}
	return func(c *config) { c.listener = ln }
}

// WithTimeouts overrides the non-zero deadlines in t.
func WithTimeouts(t Timeouts) Option {
	if t.Read < 0 || t.Write < 0 || t.Idle < 0 || t.Shutdown < 0 {
		panic("httpserver: negative timeout")
	}
	return func(c *config) {
		if t.Read > 0 {
			c.readTimeout = t.Read
		}
		if t.Write > 0 {
			c.writeTimeout = t.Write
		}
		if t.Idle > 0 {
			c.idleTimeout = t.Idle
		}
		if t.Shutdown > 0 {
			c.shutdownTimeout = t.Shutdown
		}
	}
}

// WithLogger sets the server logger. Nil discards logs.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithStartHook registers a callback that runs once the server is listening.
func WithStartHook(h func(*slog.Logger)) Option {
	if h == nil {
		panic("httpserver: nil start hook")
	}
	return func(c *config) { c.startHooks = append(c.startHooks, h) }
}

// WithStopHook registers a callback that runs after the server shuts down.
func WithStopHook(h func(*slog.Logger)) Option {
	if h == nil {
		panic("httpserver: nil stop hook")
	}
	return func(c *config) { c.stopHooks = append(c.stopHooks, h) }
}
