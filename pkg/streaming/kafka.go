package streaming

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaDriver consumes through a consumer group and produces with a
// key-hashed writer, so events for one user stay on one partition.
type KafkaDriver struct {
	cfg    Config
	dialer *kafka.Dialer

	mu     sync.Mutex
	reader *kafka.Reader
	writer *kafka.Writer
}

func NewKafkaDriver(cfg Config) (*KafkaDriver, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	return &KafkaDriver{
		cfg: cfg,
		dialer: &kafka.Dialer{
			ClientID:  cfg.ClientID,
			Timeout:   cfg.DialTimeout,
			DualStack: true,
		},
	}, nil
}

// Connect dials the brokers until one answers and prepares the writer.
func (d *KafkaDriver) Connect(ctx context.Context) error {
	var errs []error
	reachable := false
	for _, broker := range d.cfg.Brokers {
		conn, err := d.dialer.DialContext(ctx, "tcp", broker)
		if err != nil {
			errs = append(errs, fmt.Errorf("dial %s: %w", broker, err))
			continue
		}
		_, err = conn.Brokers()
		_ = conn.Close()
		if err != nil {
			errs = append(errs, fmt.Errorf("metadata %s: %w", broker, err))
			continue
		}
		reachable = true
		break
	}
	if !reachable {
		return errors.Join(errs...)
	}

	d.mu.Lock()
	d.writer = &kafka.Writer{
		Addr:                   kafka.TCP(d.cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		Transport:              &kafka.Transport{ClientID: d.cfg.ClientID, DialTimeout: d.cfg.DialTimeout},
	}
	d.mu.Unlock()
	return nil
}

func (d *KafkaDriver) Listen(_ context.Context, topics []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.reader != nil {
		return nil
	}
	d.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:     d.cfg.Brokers,
		GroupID:     d.cfg.GroupID,
		GroupTopics: topics,
		Dialer:      d.dialer,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	return nil
}

func (d *KafkaDriver) Fetch(ctx context.Context) (Message, error) {
	d.mu.Lock()
	r := d.reader
	d.mu.Unlock()
	if r == nil {
		return Message{}, ErrNotConnected
	}

	m, err := r.FetchMessage(ctx)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Topic:     m.Topic,
		Key:       m.Key,
		Value:     m.Value,
		Partition: m.Partition,
		Offset:    m.Offset,
		Time:      m.Time,
		handle:    m,
	}, nil
}

func (d *KafkaDriver) Ack(ctx context.Context, msg Message) error {
	m, ok := msg.handle.(kafka.Message)
	if !ok {
		return errors.New("kafka ack: message was not fetched by this driver")
	}
	d.mu.Lock()
	r := d.reader
	d.mu.Unlock()
	if r == nil {
		return ErrNotConnected
	}
	return r.CommitMessages(ctx, m)
}

func (d *KafkaDriver) Publish(ctx context.Context, msg Message) error {
	d.mu.Lock()
	w := d.writer
	d.mu.Unlock()
	if w == nil {
		return ErrNotConnected
	}
	return w.WriteMessages(ctx, kafka.Message{
		Topic: msg.Topic,
		Key:   msg.Key,
		Value: msg.Value,
		Time:  msg.Time,
	})
}

func (d *KafkaDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	if d.reader != nil {
		errs = append(errs, d.reader.Close())
		d.reader = nil
	}
	if d.writer != nil {
		errs = append(errs, d.writer.Close())
		d.writer = nil
	}
	return errors.Join(errs...)
}
