// Package kafka publishes notifications to Kafka topics using
// github.com/segmentio/kafka-go.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/menu-planning/go-menuplan"
)

// Writer is the part of *kafkago.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher publishes notifications to Kafka topics.
// Destination format: "kafka:topic-name"
type Publisher struct {
	brokers      []string
	balancer     kafkago.Balancer
	batchTimeout time.Duration
	newWriter    func(topic string) Writer
	mu           sync.RWMutex
	writers      map[string]Writer
}

var _ menuplan.Publisher = (*Publisher)(nil)

// Option configures a Kafka Publisher.
type Option func(*Publisher)

// WithBrokers sets the Kafka broker addresses.
func WithBrokers(brokers ...string) Option {
	return func(p *Publisher) {
		p.brokers = brokers
	}
}

// WithBalancer sets the message balancer (partitioner).
func WithBalancer(balancer kafkago.Balancer) Option {
	return func(p *Publisher) {
		p.balancer = balancer
	}
}

// WithBatchTimeout sets the batch timeout for the writer.
func WithBatchTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		p.batchTimeout = d
	}
}

// WithWriterFactory replaces the per-topic writer constructor.
func WithWriterFactory(fn func(topic string) Writer) Option {
	return func(p *Publisher) {
		p.newWriter = fn
	}
}

// New creates a new Kafka Publisher.
func New(opts ...Option) *Publisher {
	p := &Publisher{
		brokers:      []string{"localhost:9092"},
		balancer:     &kafkago.LeastBytes{},
		batchTimeout: 10 * time.Millisecond,
		writers:      make(map[string]Writer),
	}

	for _, opt := range opts {
		opt(p)
	}
	if p.newWriter == nil {
		p.newWriter = p.kafkaWriter
	}

	return p
}

// Destination returns the destination prefix this publisher handles.
func (p *Publisher) Destination() string {
	return "kafka"
}

// Publish writes notifications to the topic named in each destination,
// keyed by aggregate ID so one aggregate's notifications share a partition.
// Every topic is attempted; errors are joined.
func (p *Publisher) Publish(ctx context.Context, notifications []*menuplan.Notification) error {
	grouped := make(map[string][]kafkago.Message)
	var topics []string
	var errs []error
	for _, n := range notifications {
		topic := extractTopic(n.Destination)
		if topic == "" {
			errs = append(errs, fmt.Errorf("kafka: invalid destination %q: missing topic", n.Destination))
			continue
		}

		msg := kafkago.Message{
			Key:   []byte(n.AggregateID),
			Value: n.Payload,
			Time:  n.CreatedAt,
			Headers: []kafkago.Header{
				{Key: "notification-id", Value: []byte(n.ID)},
			},
		}
		for k, v := range n.Headers {
			msg.Headers = append(msg.Headers, kafkago.Header{Key: k, Value: []byte(v)})
		}

		if _, ok := grouped[topic]; !ok {
			topics = append(topics, topic)
		}
		grouped[topic] = append(grouped[topic], msg)
	}

	for _, topic := range topics {
		if err := p.writer(topic).WriteMessages(ctx, grouped[topic]...); err != nil {
			errs = append(errs, fmt.Errorf("kafka: failed to write to topic %s: %w", topic, err))
		}
	}

	return errors.Join(errs...)
}

// Close closes all Kafka writers.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(p.writers, topic)
	}
	return errors.Join(errs...)
}

func (p *Publisher) writer(topic string) Writer {
	p.mu.RLock()
	if w, ok := p.writers[topic]; ok {
		p.mu.RUnlock()
		return w
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := p.newWriter(topic)
	p.writers[topic] = w
	return w
}

func (p *Publisher) kafkaWriter(topic string) Writer {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(p.brokers...),
		Topic:                  topic,
		Balancer:               p.balancer,
		BatchTimeout:           p.batchTimeout,
		AllowAutoTopicCreation: true,
	}
}

// extractTopic removes the "kafka:" prefix from a destination.
func extractTopic(destination string) string {
	const prefix = "kafka:"
	if strings.HasPrefix(destination, prefix) {
		return destination[len(prefix):]
	}
	return ""
}
