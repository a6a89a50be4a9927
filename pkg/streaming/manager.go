package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/dispatch/pkg/logger"
	"github.com/dmitrymomot/dispatch/pkg/requestid"
)

const ackTimeout = 10 * time.Second

// Manager owns the backbone links and the ingestion loop.
type Manager struct {
	driver Driver
	opts   options
	sem    chan struct{}

	mu        sync.Mutex
	topics    []string
	handler   Handler
	connected bool
	listening bool
	running   bool
	closed    bool
	runCancel context.CancelFunc

	wg       sync.WaitGroup
	stopMu   sync.Mutex // guards wg.Add against Disconnect
	stopping atomic.Bool
}

// NewManager creates a Manager on top of driver.
func NewManager(driver Driver, opts ...Option) *Manager {
	o := options{
		maxInFlight:    64,
		handlerTimeout: 30 * time.Second,
		logger:         logger.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Manager{
		driver: driver,
		opts:   o,
		sem:    make(chan struct{}, o.maxInFlight),
	}
}

// Subscribe registers the handler for topics. Only one subscription is allowed.
func (m *Manager) Subscribe(topics []string, handler Handler) error {
	if handler == nil {
		return ErrNilHandler
	}
	if len(topics) == 0 {
		return ErrNoTopics
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handler != nil {
		return ErrAlreadySubscribed
	}
	m.topics = slices.Clone(topics)
	m.handler = handler
	return nil
}

// Connect opens the producer link and, when a subscription exists, the
// consumer link. Every failure matches ErrConnection.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("%w: %w", ErrConnection, ErrDriverClosed)
	}
	if m.connected {
		return nil
	}
	if err := m.driver.Connect(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	m.connected = true

	if m.handler != nil {
		if err := m.listenLocked(ctx); err != nil {
			return err
		}
	}

	m.opts.logger.LogAttrs(ctx, slog.LevelInfo, "backbone connected",
		logger.Component("streaming"),
		slog.Any("topics", m.topics),
	)
	return nil
}

func (m *Manager) listenLocked(ctx context.Context) error {
	if m.listening {
		return nil
	}
	if err := m.driver.Listen(ctx, m.topics); err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	m.listening = true
	return nil
}

// Run fetches envelopes until ctx is cancelled or Disconnect is called and
// hands each one to the subscribed handler on its own goroutine. It returns
// nil on shutdown and an ErrConnection error when the consumer link fails.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	switch {
	case m.handler == nil:
		m.mu.Unlock()
		return ErrNoSubscription
	case !m.connected || m.closed:
		m.mu.Unlock()
		return ErrNotConnected
	case m.running:
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	if err := m.listenLocked(ctx); err != nil {
		m.mu.Unlock()
		return err
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.running = true
	m.runCancel = cancel
	handler := m.handler
	m.mu.Unlock()

	defer func() {
		cancel()
		m.mu.Lock()
		m.running = false
		m.runCancel = nil
		m.mu.Unlock()
	}()

	m.opts.logger.LogAttrs(ctx, slog.LevelInfo, "ingestion started",
		logger.Component("streaming"),
		slog.Int("max_in_flight", cap(m.sem)),
	)

	for {
		select {
		case m.sem <- struct{}{}:
		case <-runCtx.Done():
			return nil
		}

		msg, err := m.driver.Fetch(runCtx)
		if err != nil {
			<-m.sem
			if runCtx.Err() != nil {
				return nil
			}
			m.opts.logger.LogAttrs(ctx, slog.LevelError, "consumer link lost",
				logger.Component("streaming"),
				logger.Error(err),
			)
			return fmt.Errorf("%w: %w", ErrConnection, err)
		}

		m.stopMu.Lock()
		if m.stopping.Load() {
			m.stopMu.Unlock()
			<-m.sem
			return nil
		}
		m.wg.Add(1)
		m.stopMu.Unlock()

		go func() {
			defer m.wg.Done()
			defer func() { <-m.sem }()
			m.process(handler, msg)
		}()
	}
}

func (m *Manager) process(handler Handler, msg Message) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(requestid.WithContext(context.Background(), requestid.New()), m.opts.handlerTimeout)
	defer cancel()

	attrs := []slog.Attr{
		logger.Component("streaming"),
		logger.Topic(msg.Topic),
		logger.MessageID(fmt.Sprintf("%d/%d", msg.Partition, msg.Offset)),
	}

	env, err := envelopeFromMessage(msg)
	if err != nil {
		m.opts.logger.LogAttrs(ctx, slog.LevelWarn, "dropping malformed envelope", append(attrs, logger.Error(err))...)
	} else {
		attrs = append(attrs, logger.EventType(env.EventType))
		if err := invoke(ctx, handler, env); err != nil {
			m.opts.logger.LogAttrs(ctx, slog.LevelError, "envelope handler failed",
				append(attrs, logger.Duration(time.Since(start)), logger.Error(err))...)
		} else {
			m.opts.logger.LogAttrs(ctx, slog.LevelDebug, "envelope handled",
				append(attrs, logger.Duration(time.Since(start)))...)
		}
	}

	ackCtx, ackCancel := context.WithTimeout(context.Background(), ackTimeout)
	defer ackCancel()
	if err := m.driver.Ack(ackCtx, msg); err != nil {
		m.opts.logger.LogAttrs(ctx, slog.LevelWarn, "failed to acknowledge message", append(attrs, logger.Error(err))...)
	}
}

func invoke(ctx context.Context, handler Handler, env Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in handler: %v", r)
		}
	}()
	return handler.Handle(ctx, env)
}

// Publish JSON-encodes event and writes it to topic.
func (m *Manager) Publish(ctx context.Context, topic, key string, event any) error {
	m.mu.Lock()
	ready := m.connected && !m.closed
	m.mu.Unlock()
	if !ready {
		return fmt.Errorf("%w: %w", ErrConnection, ErrNotConnected)
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := Message{Topic: topic, Value: value, Time: time.Now()}
	if key != "" {
		msg.Key = []byte(key)
	}
	if err := m.driver.Publish(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return nil
}

// Disconnect stops intake, waits for in-flight handlers (bounded by ctx)
// and closes the links. It is idempotent and safe after a failed Connect.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	cancel := m.runCancel
	m.mu.Unlock()

	m.stopMu.Lock()
	m.stopping.Store(true)
	m.stopMu.Unlock()

	if cancel != nil {
		cancel()
	}

	var waitErr error
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		waitErr = fmt.Errorf("waiting for in-flight handlers: %w", ctx.Err())
	}

	closeErr := m.driver.Close()

	m.mu.Lock()
	m.connected = false
	m.listening = false
	m.mu.Unlock()

	m.opts.logger.LogAttrs(ctx, slog.LevelInfo, "backbone disconnected", logger.Component("streaming"))
	return errors.Join(waitErr, closeErr)
}
