package fanout

import "errors"

var (
	ErrSlowConsumer  = errors.New("fanout: session outbox is full")
	ErrSessionClosed = errors.New("fanout: session closed")
	ErrHubClosed     = errors.New("fanout: hub closed")
	ErrNilSession    = errors.New("fanout: session is nil")
	ErrEmptyUserID   = errors.New("fanout: user id is required")
)
