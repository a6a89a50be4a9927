package streaming

import (
	"context"
	"time"
)

// Message is a raw backbone record.
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Partition int
	Offset    int64
	Time      time.Time

	// handle is the driver-specific value needed to acknowledge the message.
	handle any
}

// Driver is the transport a Manager runs on. Fetch must return messages in
// backbone order and must honour ctx cancellation.
type Driver interface {
	// Connect opens the producer link and verifies the backbone is reachable.
	Connect(ctx context.Context) error
	// Listen opens the consumer link for topics. It is called once.
	Listen(ctx context.Context, topics []string) error
	Fetch(ctx context.Context) (Message, error)
	Ack(ctx context.Context, msg Message) error
	Publish(ctx context.Context, msg Message) error
	// Close releases both links. It must be safe to call after a failed Connect.
	Close() error
}
