package fanout

import (
	"sync"

	"github.com/google/uuid"
)

// Session is one live client connection.
type Session interface {
	ID() string
	// Send queues ev without blocking. It returns ErrSlowConsumer when the
	// session cannot accept more events.
	Send(ev Event) error
	Close() error
}

// DefaultOutboxSize is the number of events an Outbox buffers.
const DefaultOutboxSize = 64

// Outbox is a buffered Session. A transport drains Events and stops when
// Done is closed.
type Outbox struct {
	id     string
	events chan Event
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewOutbox(size int) *Outbox {
	if size <= 0 {
		size = DefaultOutboxSize
	}
	return &Outbox{
		id:     uuid.NewString(),
		events: make(chan Event, size),
		done:   make(chan struct{}),
	}
}

func (o *Outbox) ID() string { return o.id }

func (o *Outbox) Send(ev Event) error {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.closed {
		return ErrSessionClosed
	}
	select {
	case o.events <- ev:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// Close is idempotent. Events already queued stay readable.
func (o *Outbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		o.closed = true
		close(o.done)
	}
	return nil
}

func (o *Outbox) Events() <-chan Event { return o.events }

func (o *Outbox) Done() <-chan struct{} { return o.done }
