package streaming

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is an inbound event ready for routing.
type Envelope struct {
	Topic      string
	EventType  string
	Payload    json.RawMessage
	Key        string
	Partition  int
	Offset     int64
	ReceivedAt time.Time
}

// Handler processes one envelope. Returned errors are logged and the
// message is still acknowledged.
type Handler interface {
	Handle(ctx context.Context, env Envelope) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, env Envelope) error

func (f HandlerFunc) Handle(ctx context.Context, env Envelope) error { return f(ctx, env) }

type eventTypeProbe struct {
	EventType      string `json:"eventType"`
	EventTypeSnake string `json:"event_type"`
	AlertType      string `json:"alertType"`
}

// DecodeEnvelope parses value as a JSON object and resolves its event type
// from eventType, event_type or alertType, in that order.
func DecodeEnvelope(topic string, value []byte) (Envelope, error) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Envelope{}, fmt.Errorf("%w: payload is not a JSON object", ErrMalformedEnvelope)
	}

	var probe eventTypeProbe
	if err := json.Unmarshal(value, &probe); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}

	env := Envelope{
		Topic:   topic,
		Payload: json.RawMessage(value),
	}
	for _, candidate := range []string{probe.EventType, probe.EventTypeSnake, probe.AlertType} {
		if candidate != "" {
			env.EventType = candidate
			break
		}
	}
	return env, nil
}

func envelopeFromMessage(msg Message) (Envelope, error) {
	env, err := DecodeEnvelope(msg.Topic, msg.Value)
	if err != nil {
		return Envelope{}, err
	}
	env.Key = string(msg.Key)
	env.Partition = msg.Partition
	env.Offset = msg.Offset
	env.ReceivedAt = msg.Time
	return env, nil
}
