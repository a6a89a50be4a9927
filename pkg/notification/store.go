package notification

import "context"

// DefaultListLimit is used by ListByUser when the caller passes limit <= 0.
const DefaultListLimit = 50

// Store persists notifications. Every method is atomic with respect to the others,
// and a record returned by Create is immediately visible to Get, ListByUser and MarkRead.
type Store interface {
	// Create validates in, assigns an id and creation time, and stores an unread record.
	Create(ctx context.Context, in CreateInput) (Notification, error)
	// Get returns the record or ErrNotFound.
	Get(ctx context.Context, id string) (Notification, error)
	// ListByUser returns the user's records, newest first, at most limit of them.
	ListByUser(ctx context.Context, userID string, limit int) ([]Notification, error)
	// MarkRead sets read and refreshes readAt, or returns ErrNotFound without mutating anything.
	MarkRead(ctx context.Context, id string) (Notification, error)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
