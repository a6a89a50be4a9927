// Package sse streams fanout events to browsers as Datastar signal patches.
// Each event arrives as a patch of the form {"<event name>": <payload>}.
package sse

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/dmitrymomot/dispatch/pkg/fanout"
	"github.com/dmitrymomot/dispatch/pkg/identity"
	"github.com/dmitrymomot/dispatch/pkg/logger"
)

// Handler joins the authenticated user's channel for the lifetime of the request.
type Handler struct {
	hub        *fanout.Hub
	outboxSize int
	logger     *slog.Logger
}

type Option func(*Handler)

func WithOutboxSize(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.outboxSize = n
		}
	}
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
		hub:        hub,
		outboxSize: fanout.DefaultOutboxSize,
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, identity.ErrMissingToken.Error(), http.StatusUnauthorized)
		return
	}

	session := fanout.NewOutbox(h.outboxSize)
	if err := h.hub.Join(session, userID); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer h.hub.Leave(session)
	defer session.Close()

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	sse := datastar.NewSSE(w, r)
	ctx := r.Context()
	attrs := []slog.Attr{logger.Component("sse"), logger.SessionID(session.ID()), logger.UserID(userID)}

	for {
		select {
		case <-ctx.Done():
			return
		case <-session.Done():
			h.logger.LogAttrs(ctx, slog.LevelDebug, "sse session closed by hub", attrs...)
			return
		case ev := <-session.Events():
			patch, err := json.Marshal(map[string]any{ev.Name: ev.Payload})
			if err != nil {
				h.logger.LogAttrs(ctx, slog.LevelError, "failed to encode event", append(attrs, logger.Error(err))...)
				continue
			}
			if err := sse.PatchSignals(patch); err != nil {
				h.logger.LogAttrs(ctx, slog.LevelDebug, "sse write failed", append(attrs, logger.Error(err))...)
				return
			}
		}
	}
}
