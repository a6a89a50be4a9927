package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/dmitrymomot/dispatch/pkg/logger"
)

var errAlreadyRunning = errors.New("server already running")

// Server serves one handler until its context ends or Shutdown is called.
type Server struct {
	cfg *config
	log *slog.Logger

	mu      sync.Mutex
	srv     *http.Server
	stopped bool
	stop    sync.Once
}

func New(opts ...Option) *Server {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	log := cfg.logger
	if log == nil {
		log = logger.Discard()
	}
	return &Server{cfg: cfg, log: log.With(logger.Component("httpserver"))}
}

// Run blocks serving handler. Cancelling ctx triggers a graceful Shutdown.
// Run on a server that was already shut down returns nil without listening.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	srv, err := s.claim(handler)
	if err != nil || srv == nil {
		return err
	}

	ln, err := s.listen()
	if err != nil {
		return errors.Join(ErrStart, err)
	}
	s.log.LogAttrs(ctx, slog.LevelInfo, "http server listening", slog.String("addr", ln.Addr().String()))
	for _, hook := range s.cfg.startHooks {
		hook(s.log)
	}

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	select {
	case err = <-served:
	case <-ctx.Done():
		_ = s.Shutdown(context.WithoutCancel(ctx))
		err = <-served
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return errors.Join(ErrStart, err)
}

// claim builds the http.Server under the lock. A nil server with a nil
// error means Shutdown won the race.
func (s *Server) claim(handler http.Handler) (*http.Server, error) {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.stopped:
		return nil, nil
	case s.srv != nil:
		return nil, errors.Join(ErrStart, errAlreadyRunning)
	}
	s.srv = &http.Server{
		Addr:              s.cfg.addr,
		Handler:           handler,
		ReadTimeout:       s.cfg.readTimeout,
		ReadHeaderTimeout: s.cfg.readTimeout,
		WriteTimeout:      s.cfg.writeTimeout,
		IdleTimeout:       s.cfg.idleTimeout,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelError),
	}
	return s.srv, nil
}

func (s *Server) listen() (net.Listener, error) {
	if s.cfg.listener != nil {
		return s.cfg.listener, nil
	}
	return net.Listen("tcp", s.cfg.addr)
}

// Shutdown drains open connections within the shutdown timeout and then
// runs the stop hooks. Only the first call does anything.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.stop.Do(func() {
		s.mu.Lock()
		s.stopped = true
		srv := s.srv
		s.mu.Unlock()
		if srv == nil {
			return
		}

		ctx, cancel := context.WithTimeout(ctx, s.cfg.shutdownTimeout)
		defer cancel()
		if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
			err = errors.Join(ErrShutdown, shutdownErr)
		}
		for _, hook := range s.cfg.stopHooks {
			hook(s.log)
		}
	})
	return err
}
