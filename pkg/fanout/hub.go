package fanout

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/dispatch/pkg/logger"
	"github.com/dmitrymomot/dispatch/pkg/notification"
)

type binding struct {
	session Session
	channel string
}

// Hub is the registry of live sessions and their channel bindings.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*binding
	channels map[string]map[string]Session
	closed   bool

	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Hub)

func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		if now != nil {
			h.now = now
		}
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		sessions: make(map[string]*binding),
		channels: make(map[string]map[string]Session),
		logger:   logger.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds s to the registry without binding it to a channel.
func (h *Hub) Register(s Session) error {
	if s == nil {
		return ErrNilSession
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	if _, ok := h.sessions[s.ID()]; !ok {
		h.sessions[s.ID()] = &binding{session: s}
	}
	return nil
}

// Join binds s to the channel of userID, replacing any earlier binding.
// An unregistered session is registered first.
func (h *Hub) Join(s Session, userID string) error {
	if s == nil {
		return ErrNilSession
	}
	if userID == "" {
		return ErrEmptyUserID
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}

	b, ok := h.sessions[s.ID()]
	if !ok {
		b = &binding{session: s}
		h.sessions[s.ID()] = b
	}
	h.unbindLocked(b)

	channel := ChannelName(userID)
	subs, ok := h.channels[channel]
	if !ok {
		subs = make(map[string]Session)
		h.channels[channel] = subs
	}
	subs[s.ID()] = s
	b.channel = channel

	h.logger.Debug("session joined",
		logger.Component("fanout"),
		logger.SessionID(s.ID()),
		logger.Channel(channel),
	)
	return nil
}

// Unbind removes the channel binding of s but keeps it registered, so it
// still receives broadcasts.
func (h *Hub) Unbind(s Session) {
	if s == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok := h.sessions[s.ID()]; ok {
		h.unbindLocked(b)
	}
}

// Leave unbinds and unregisters s. Calling it more than once is harmless.
func (h *Hub) Leave(s Session) {
	if s == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(s.ID())
}

func (h *Hub) removeLocked(id string) {
	b, ok := h.sessions[id]
	if !ok {
		return
	}
	h.unbindLocked(b)
	delete(h.sessions, id)
}

func (h *Hub) unbindLocked(b *binding) {
	if b.channel == "" {
		return
	}
	if subs, ok := h.channels[b.channel]; ok {
		delete(subs, b.session.ID())
		if len(subs) == 0 {
			delete(h.channels, b.channel)
		}
	}
	b.channel = ""
}

// Deliver pushes n to every session bound to the recipient's channel.
// It satisfies notification.Deliverer.
func (h *Hub) Deliver(ctx context.Context, n notification.Notification) error {
	channel := ChannelName(n.UserID)

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrHubClosed
	}
	targets := make([]Session, 0, len(h.channels[channel]))
	for _, s := range h.channels[channel] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	h.send(ctx, targets, Event{Name: EventNotification, Payload: n}, logger.Channel(channel), logger.NotificationID(n.ID))
	return nil
}

// Broadcast pushes alert to every registered session. A zero Timestamp is
// set to the current time.
func (h *Hub) Broadcast(ctx context.Context, alert Alert) error {
	if alert.Timestamp.IsZero() {
		alert.Timestamp = h.now()
	}

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrHubClosed
	}
	targets := make([]Session, 0, len(h.sessions))
	for _, b := range h.sessions {
		targets = append(targets, b.session)
	}
	h.mu.RUnlock()

	h.send(ctx, targets, Event{Name: EventSystemAlert, Payload: alert}, logger.Event(alert.Type))
	return nil
}

func (h *Hub) send(ctx context.Context, targets []Session, ev Event, attrs ...slog.Attr) {
	for _, s := range targets {
		err := s.Send(ev)
		if err == nil {
			continue
		}

		level := slog.LevelDebug
		if errors.Is(err, ErrSlowConsumer) {
			level = slog.LevelWarn
		}
		h.logger.LogAttrs(ctx, level, "dropping session",
			append(attrs,
				logger.Component("fanout"),
				logger.SessionID(s.ID()),
				logger.Error(err),
			)...,
		)
		h.Leave(s)
		_ = s.Close()
	}
}

// Sessions returns the number of registered sessions.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Subscribers returns the number of sessions bound to the channel of userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[ChannelName(userID)])
}

// Close closes every session and rejects further registrations.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	sessions := make([]Session, 0, len(h.sessions))
	for _, b := range h.sessions {
		sessions = append(sessions, b.session)
	}
	h.sessions = make(map[string]*binding)
	h.channels = make(map[string]map[string]Session)
	h.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
