package streaming

import (
	"context"
	"slices"
	"sync"
	"time"
)

const memoryQueueSize = 1024

// MemoryBroker is an in-process backbone. Every listening driver receives
// every message published to one of its topics.
type MemoryBroker struct {
	mu      sync.Mutex
	offsets map[string]int64
	drivers map[*MemoryDriver]struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		offsets: make(map[string]int64),
		drivers: make(map[*MemoryDriver]struct{}),
	}
}

// Driver returns a new driver attached to the broker.
func (b *MemoryBroker) Driver() *MemoryDriver {
	return &MemoryDriver{
		broker: b,
		queue:  make(chan Message, memoryQueueSize),
		done:   make(chan struct{}),
	}
}

// Publish injects a raw message, bypassing any producer link.
func (b *MemoryBroker) Publish(ctx context.Context, topic string, key, value []byte) error {
	b.mu.Lock()
	offset := b.offsets[topic]
	b.offsets[topic] = offset + 1
	targets := make([]*MemoryDriver, 0, len(b.drivers))
	for d := range b.drivers {
		if d.subscribed(topic) {
			targets = append(targets, d)
		}
	}
	b.mu.Unlock()

	msg := Message{
		Topic:  topic,
		Key:    slices.Clone(key),
		Value:  slices.Clone(value),
		Offset: offset,
		Time:   time.Now(),
	}
	for _, d := range targets {
		if err := d.enqueue(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (b *MemoryBroker) attach(d *MemoryDriver) {
	b.mu.Lock()
	b.drivers[d] = struct{}{}
	b.mu.Unlock()
}

func (b *MemoryBroker) detach(d *MemoryDriver) {
	b.mu.Lock()
	delete(b.drivers, d)
	b.mu.Unlock()
}

// MemoryDriver is the Driver side of a MemoryBroker.
type MemoryDriver struct {
	broker *MemoryBroker
	queue  chan Message
	done   chan struct{}

	mu        sync.RWMutex
	topics    []string
	connected bool
	acked     []Message
	closeOnce sync.Once
}

func (d *MemoryDriver) Connect(context.Context) error {
	select {
	case <-d.done:
		return ErrDriverClosed
	default:
	}
	d.mu.Lock()
	d.connected = true
	d.mu.Unlock()
	return nil
}

func (d *MemoryDriver) Listen(_ context.Context, topics []string) error {
	d.mu.Lock()
	d.topics = slices.Clone(topics)
	d.mu.Unlock()
	d.broker.attach(d)
	return nil
}

func (d *MemoryDriver) Fetch(ctx context.Context) (Message, error) {
	select {
	case msg := <-d.queue:
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case <-d.done:
		return Message{}, ErrDriverClosed
	}
}

func (d *MemoryDriver) Ack(_ context.Context, msg Message) error {
	d.mu.Lock()
	d.acked = append(d.acked, msg)
	d.mu.Unlock()
	return nil
}

func (d *MemoryDriver) Publish(ctx context.Context, msg Message) error {
	d.mu.RLock()
	connected := d.connected
	d.mu.RUnlock()
	if !connected {
		return ErrNotConnected
	}
	return d.broker.Publish(ctx, msg.Topic, msg.Key, msg.Value)
}

func (d *MemoryDriver) Close() error {
	d.closeOnce.Do(func() {
		d.broker.detach(d)
		close(d.done)
		d.mu.Lock()
		d.connected = false
		d.mu.Unlock()
	})
	return nil
}

// Acked returns the messages acknowledged so far.
func (d *MemoryDriver) Acked() []Message {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.acked)
}

func (d *MemoryDriver) subscribed(topic string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Contains(d.topics, topic)
}

func (d *MemoryDriver) enqueue(ctx context.Context, msg Message) error {
	select {
	case d.queue <- msg:
		return nil
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
