// Package kafka publishes compliance audit events to a Kafka topic so an
// external pipeline can apply long-term retention independent of this service.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "collabgate/pkg/platform/audit"
)

// Publisher produces audit events to a single topic, keyed by actor so one
// user's events stay ordered within a partition.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// New connects to the given brokers. Returns an error when the client cannot
// be constructed; broker reachability is checked lazily on first produce.
func New(brokers []string, topic string) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Publisher{client: client, topic: topic}, nil
}

// Emit produces one event synchronously. Decision-path callers should treat
// failures as log-and-continue; the store of record is elsewhere.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Actor),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (p *Publisher) Close() {
	p.client.Close()
}
