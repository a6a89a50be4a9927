package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/dispatch/pkg/logger"
)

// Deliverer pushes a stored notification to live connections.
type Deliverer interface {
	Deliver(ctx context.Context, n Notification) error
}

// NoOpDeliverer discards deliveries. Used when no realtime transport is wired.
type NoOpDeliverer struct{}

func (NoOpDeliverer) Deliver(context.Context, Notification) error { return nil }

// Service orchestrates persistence and realtime delivery.
// It stores first and delivers second, so a record survives a failed push
// and stays reachable through List.
type Service struct {
	store     Store
	deliverer Deliverer
	logger    *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithDeliverer(d Deliverer) ServiceOption {
	return func(s *Service) {
		if d != nil {
			s.deliverer = d
		}
	}
}

func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		deliverer: NoOpDeliverer{},
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create persists the notification and then delivers it best-effort.
func (s *Service) Create(ctx context.Context, in CreateInput) (Notification, error) {
	n, err := s.store.Create(ctx, in)
	if err != nil {
		return Notification{}, err
	}

	if err := s.deliverer.Deliver(ctx, n); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "notification stored but live delivery failed",
			logger.Component("notification"),
			logger.NotificationID(n.ID),
			logger.UserID(n.UserID),
			logger.Error(err),
		)
	}
	return n, nil
}

// CreateForUsers creates one notification per user from the same template.
// Recipients are processed independently: a failure for one does not stop the rest.
// It returns the records that were created together with the joined failures.
func (s *Service) CreateForUsers(ctx context.Context, userIDs []string, tmpl CreateInput) ([]Notification, error) {
	created := make([]Notification, 0, len(userIDs))
	var errs []error
	for _, userID := range userIDs {
		in := tmpl
		in.UserID = userID
		n, err := s.Create(ctx, in)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %q: %w", userID, err))
			continue
		}
		created = append(created, n)
	}
	return created, errors.Join(errs...)
}

func (s *Service) List(ctx context.Context, userID string, limit int) ([]Notification, error) {
	return s.store.ListByUser(ctx, userID, limit)
}

func (s *Service) Get(ctx context.Context, id string) (Notification, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) MarkRead(ctx context.Context, id string) (Notification, error) {
	return s.store.MarkRead(ctx, id)
}
