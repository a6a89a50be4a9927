// Package ws serves fanout sessions over websocket connections.
//
// The caller's identity must already be in the request context (see
// identity.Middleware). Client frames:
//
//	{"event":"join","userId":"42"}   bind to user_42; only the caller's own id is accepted
//	{"event":"leave"}                unbind, keep receiving broadcasts
//	{"event":"ping"}                 answered with a pong event
//
// Server frames are {"event":"<name>","data":<payload>}.
package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"golang.org/x/time/rate"

	"github.com/dmitrymomot/dispatch/pkg/fanout"
	"github.com/dmitrymomot/dispatch/pkg/identity"
	"github.com/dmitrymomot/dispatch/pkg/logger"
)

const (
	frameJoin  = "join"
	frameLeave = "leave"
	framePing  = "ping"

	eventJoined = "joined"
	eventLeft   = "left"
	eventPong   = "pong"
	eventError  = "error"
)

type Config struct {
	OutboxSize     int           `env:"WS_OUTBOX_SIZE" envDefault:"64"`
	WriteTimeout   time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"10s"`
	PingInterval   time.Duration `env:"WS_PING_INTERVAL" envDefault:"30s"`
	ReadLimit      int64         `env:"WS_READ_LIMIT" envDefault:"4096"`
	InboundRate    float64       `env:"WS_INBOUND_RATE" envDefault:"5"`
	InboundBurst   int           `env:"WS_INBOUND_BURST" envDefault:"10"`
	OriginPatterns []string      `env:"WS_ORIGIN_PATTERNS" envSeparator:","`
}

func DefaultConfig() Config {
	return Config{
		OutboxSize:   fanout.DefaultOutboxSize,
		WriteTimeout: 10 * time.Second,
		PingInterval: 30 * time.Second,
		ReadLimit:    4096,
		InboundRate:  5,
		InboundBurst: 10,
	}
}

type clientFrame struct {
	Event  string `json:"event"`
	UserID string `json:"userId"`
}

// Handler upgrades requests to websocket sessions registered with a hub.
type Handler struct {
	hub    *fanout.Hub
	cfg    Config
	logger *slog.Logger
}

type Option func(*Handler)

func WithConfig(cfg Config) Option {
	return func(h *Handler) { h.cfg = cfg }
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewHandler(hub *fanout.Hub, opts ...Option) *Handler {
	h := &Handler{
		hub:    hub,
		cfg:    DefaultConfig(),
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok || id.UserID == "" {
		http.Error(w, identity.ErrMissingToken.Error(), http.StatusUnauthorized)
		return
	}

	clearDeadlines(w)
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.cfg.OriginPatterns})
	if err != nil {
		h.logger.LogAttrs(r.Context(), slog.LevelWarn, "websocket upgrade failed",
			logger.Component("ws"), logger.UserID(id.UserID), logger.Error(err))
		return
	}
	defer conn.CloseNow()
	if h.cfg.ReadLimit > 0 {
		conn.SetReadLimit(h.cfg.ReadLimit)
	}

	session := fanout.NewOutbox(h.cfg.OutboxSize)
	if err := h.hub.Register(session); err != nil {
		conn.Close(websocket.StatusTryAgainLater, "server shutting down")
		return
	}
	defer h.hub.Leave(session)
	defer session.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	attrs := []slog.Attr{logger.Component("ws"), logger.SessionID(session.ID()), logger.UserID(id.UserID)}
	h.logger.LogAttrs(ctx, slog.LevelDebug, "websocket connected", attrs...)

	go func() {
		defer cancel()
		if err := h.writeLoop(ctx, conn, session); err != nil && !isClosed(err) {
			h.logger.LogAttrs(ctx, slog.LevelDebug, "websocket writer stopped", append(attrs, logger.Error(err))...)
		}
	}()

	err = h.readLoop(ctx, conn, session, id.UserID)
	switch {
	case err == nil, isClosed(err), errors.Is(err, context.Canceled):
		conn.Close(websocket.StatusNormalClosure, "")
	default:
		h.logger.LogAttrs(ctx, slog.LevelDebug, "websocket reader stopped", append(attrs, logger.Error(err))...)
	}
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, session *fanout.Outbox, userID string) error {
	limiter := rate.NewLimiter(rate.Limit(h.cfg.InboundRate), max(h.cfg.InboundBurst, 1))

	for {
		var frame clientFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return err
		}
		if !limiter.Allow() {
			_ = session.Send(fanout.Event{Name: eventError, Payload: map[string]string{"message": "too many messages"}})
			continue
		}

		switch frame.Event {
		case frameJoin:
			target := frame.UserID
			if target == "" {
				target = userID
			}
			if target != userID {
				conn.Close(websocket.StatusPolicyViolation, "cannot join another user's channel")
				return nil
			}
			if err := h.hub.Join(session, userID); err != nil {
				return err
			}
			_ = session.Send(fanout.Event{Name: eventJoined, Payload: map[string]string{"channel": fanout.ChannelName(userID)}})
		case frameLeave:
			h.hub.Unbind(session)
			_ = session.Send(fanout.Event{Name: eventLeft, Payload: nil})
		case framePing:
			_ = session.Send(fanout.Event{Name: eventPong, Payload: nil})
		default:
			_ = session.Send(fanout.Event{Name: eventError, Payload: map[string]string{"message": "unknown event"}})
		}
	}
}

func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, session *fanout.Outbox) error {
	var ping <-chan time.Time
	if h.cfg.PingInterval > 0 {
		ticker := time.NewTicker(h.cfg.PingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-session.Done():
			return conn.Close(websocket.StatusTryAgainLater, "session closed")
		case ev := <-session.Events():
			if err := h.write(ctx, func(ctx context.Context) error { return wsjson.Write(ctx, conn, ev) }); err != nil {
				return err
			}
		case <-ping:
			if err := h.write(ctx, conn.Ping); err != nil {
				return err
			}
		}
	}
}

func (h *Handler) write(ctx context.Context, fn func(context.Context) error) error {
	if h.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.WriteTimeout)
		defer cancel()
	}
	return fn(ctx)
}

func isClosed(err error) bool {
	status := websocket.CloseStatus(err)
	return status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway
}

// clearDeadlines lifts the server's read and write timeouts for the
// lifetime of the connection.
func clearDeadlines(w http.ResponseWriter) {
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})
}
