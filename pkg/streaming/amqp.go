package streaming

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

const keyHeader = "x-message-key"

// AMQPDriver maps topics onto routing keys of a durable topic exchange.
// The consumer reads one durable queue bound once per topic.
type AMQPDriver struct {
	cfg Config

	mu         sync.Mutex
	pubMu      sync.Mutex
	conn       *amqp.Connection
	pubCh      *amqp.Channel
	subCh      *amqp.Channel
	deliveries <-chan amqp.Delivery
	closeCh    chan *amqp.Error
}

func NewAMQPDriver(cfg Config) *AMQPDriver {
	return &AMQPDriver{cfg: cfg}
}

func (d *AMQPDriver) Connect(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		return nil
	}

	conn, err := amqp.DialConfig(d.cfg.AMQPURL, amqp.Config{
		Properties: amqp.Table{"connection_name": d.cfg.ClientID},
	})
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open publish channel: %w", err)
	}
	if err := ch.ExchangeDeclare(d.cfg.AMQPExchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return fmt.Errorf("declare exchange %q: %w", d.cfg.AMQPExchange, err)
	}

	d.conn = conn
	d.pubCh = ch
	d.closeCh = conn.NotifyClose(make(chan *amqp.Error, 1))
	return nil
}

func (d *AMQPDriver) Listen(_ context.Context, topics []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return ErrNotConnected
	}
	if d.deliveries != nil {
		return nil
	}

	ch, err := d.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consume channel: %w", err)
	}
	if d.cfg.AMQPPrefetch > 0 {
		if err := ch.Qos(d.cfg.AMQPPrefetch, 0, false); err != nil {
			_ = ch.Close()
			return fmt.Errorf("set qos: %w", err)
		}
	}

	q, err := ch.QueueDeclare(d.cfg.AMQPQueue, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("declare queue %q: %w", d.cfg.AMQPQueue, err)
	}
	for _, topic := range topics {
		if err := ch.QueueBind(q.Name, topic, d.cfg.AMQPExchange, false, nil); err != nil {
			_ = ch.Close()
			return fmt.Errorf("bind %q: %w", topic, err)
		}
	}

	deliveries, err := ch.Consume(q.Name, d.cfg.ClientID, false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume %q: %w", q.Name, err)
	}

	d.subCh = ch
	d.deliveries = deliveries
	return nil
}

func (d *AMQPDriver) Fetch(ctx context.Context) (Message, error) {
	d.mu.Lock()
	deliveries, closeCh := d.deliveries, d.closeCh
	d.mu.Unlock()
	if deliveries == nil {
		return Message{}, ErrNotConnected
	}

	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case amqpErr, ok := <-closeCh:
		if ok && amqpErr != nil {
			return Message{}, fmt.Errorf("amqp connection closed: %w", amqpErr)
		}
		return Message{}, amqp.ErrClosed
	case dv, ok := <-deliveries:
		if !ok {
			return Message{}, amqp.ErrClosed
		}
		msg := Message{
			Topic:  dv.RoutingKey,
			Value:  dv.Body,
			Offset: int64(dv.DeliveryTag),
			Time:   dv.Timestamp,
			handle: dv,
		}
		if key, ok := dv.Headers[keyHeader].(string); ok {
			msg.Key = []byte(key)
		}
		return msg, nil
	}
}

func (d *AMQPDriver) Ack(_ context.Context, msg Message) error {
	dv, ok := msg.handle.(amqp.Delivery)
	if !ok {
		return errors.New("amqp ack: message was not fetched by this driver")
	}
	return dv.Ack(false)
}

func (d *AMQPDriver) Publish(ctx context.Context, msg Message) error {
	d.mu.Lock()
	ch := d.pubCh
	d.mu.Unlock()
	if ch == nil {
		return ErrNotConnected
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    msg.Time,
		Body:         msg.Value,
	}
	if len(msg.Key) > 0 {
		pub.Headers = amqp.Table{keyHeader: string(msg.Key)}
	}

	d.pubMu.Lock()
	defer d.pubMu.Unlock()
	return ch.PublishWithContext(ctx, d.cfg.AMQPExchange, msg.Topic, false, false, pub)
}

func (d *AMQPDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for _, ch := range []*amqp.Channel{d.subCh, d.pubCh} {
		if ch != nil {
			if err := ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
				errs = append(errs, err)
			}
		}
	}
	if d.conn != nil {
		if err := d.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	d.conn, d.pubCh, d.subCh, d.deliveries = nil, nil, nil, nil
	return errors.Join(errs...)
}
