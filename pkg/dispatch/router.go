package dispatch

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/dispatch/pkg/fanout"
	"github.com/dmitrymomot/dispatch/pkg/logger"
	"github.com/dmitrymomot/dispatch/pkg/notification"
	"github.com/dmitrymomot/dispatch/pkg/streaming"
)

const DefaultPlatformName = "XYZ Dev Foundation"

// Notifier persists and delivers notifications. *notification.Service implements it.
type Notifier interface {
	Create(ctx context.Context, in notification.CreateInput) (notification.Notification, error)
	CreateForUsers(ctx context.Context, userIDs []string, tmpl notification.CreateInput) ([]notification.Notification, error)
}

// Broadcaster pushes an alert to every live session. *fanout.Hub implements it.
type Broadcaster interface {
	Broadcast(ctx context.Context, alert fanout.Alert) error
}

type Config struct {
	PlatformName string `env:"PLATFORM_NAME" envDefault:"XYZ Dev Foundation"`
}

// Router is the streaming.Handler that classifies envelopes.
type Router struct {
	notifier    Notifier
	broadcaster Broadcaster
	platform    string
	now         func() time.Time
	logger      *slog.Logger
}

type Option func(*Router)

func WithPlatformName(name string) Option {
	return func(r *Router) {
		if name = strings.TrimSpace(name); name != "" {
			r.platform = name
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRouter(notifier Notifier, broadcaster Broadcaster, opts ...Option) *Router {
	r := &Router{
		notifier:    notifier,
		broadcaster: broadcaster,
		platform:    DefaultPlatformName,
		now:         time.Now,
		logger:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ streaming.Handler = (*Router)(nil)

// Handle routes one envelope. Envelopes the router does not know are
// dropped and reported as handled.
func (r *Router) Handle(ctx context.Context, env streaming.Envelope) error {
	attrs := []slog.Attr{
		logger.Component("dispatch"),
		logger.Topic(env.Topic),
		logger.EventType(env.EventType),
	}

	if env.Topic == TopicSystemAlerts {
		return r.handleAlert(ctx, env, attrs)
	}

	if !slices.Contains(Topics(), env.Topic) {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "unknown topic, dropping envelope", attrs...)
		return nil
	}

	tmpl, ok := templates[routeKey{env.Topic, env.EventType}]
	if !ok {
		r.logger.LogAttrs(ctx, slog.LevelDebug, "no route for event type, dropping envelope", attrs...)
		return nil
	}

	var p eventPayload
	if err := decode(env.Payload, &p); err != nil {
		return err
	}
	userID := p.recipient()
	if userID == "" {
		return ErrMissingRecipient
	}

	title, message, metadata := tmpl.render(p, r.platform)
	if metadata == nil {
		metadata = make(map[string]any, 1)
	}
	metadata["eventType"] = env.EventType

	n, err := r.notifier.Create(ctx, notification.CreateInput{
		UserID:   userID,
		Type:     tmpl.typ,
		Title:    title,
		Message:  message,
		Priority: tmpl.priority,
		Metadata: metadata,
	})
	if err != nil {
		return err
	}

	r.logger.LogAttrs(ctx, slog.LevelInfo, "notification dispatched",
		append(attrs, logger.UserID(userID), logger.NotificationID(n.ID))...)
	return nil
}

func (r *Router) handleAlert(ctx context.Context, env streaming.Envelope, attrs []slog.Attr) error {
	var p alertPayload
	if err := decode(env.Payload, &p); err != nil {
		return err
	}
	if p.AlertType == "" {
		p.AlertType = env.EventType
	}

	recipients := p.recipients()
	if len(recipients) == 0 {
		err := r.broadcaster.Broadcast(ctx, fanout.Alert{
			Type:      p.AlertType,
			Message:   p.Message,
			Severity:  p.Severity,
			Timestamp: r.now(),
		})
		if err != nil {
			return err
		}
		r.logger.LogAttrs(ctx, slog.LevelInfo, "system alert broadcast", attrs...)
		return nil
	}

	title := "System Alert"
	if p.AlertType != "" {
		title += ": " + p.AlertType
	}
	created, err := r.notifier.CreateForUsers(ctx, recipients, notification.CreateInput{
		Type:     notification.TypeSystemAlert,
		Title:    title,
		Message:  p.Message,
		Priority: priorityForSeverity(p.Severity),
		Metadata: compact(map[string]any{"alertType": p.AlertType, "severity": p.Severity}),
	})

	r.logger.LogAttrs(ctx, slog.LevelInfo, "system alert dispatched",
		append(attrs,
			slog.Int("recipients", len(recipients)),
			slog.Int("created", len(created)),
		)...)
	return err
}
