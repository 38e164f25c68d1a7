// Package kafka backs the ledger abstraction with a Kafka topic. Produces are
// synchronous: an Append that returns nil has been acknowledged by the broker,
// which is the commit guarantee the core requires.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"pharmatrace/internal/ledger"
)

// Publisher implements ledger.Ledger on top of a single-partition Kafka topic.
// One partition is what preserves the global write order; scaling out ordering
// is a deployment concern, not a code one.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// New connects to the brokers (comma-separated) and returns a publisher for
// the given topic.
func New(brokers, topic string) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(brokers, ",")...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(0),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := client.Ping(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}
	return &Publisher{client: client, topic: topic}, nil
}

type payload struct {
	Type  string            `json:"type"`
	Key   string            `json:"key"`
	Actor string            `json:"actor"`
	At    string            `json:"at"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// Append produces the event and blocks until the broker acknowledges it.
// The returned offset is the event's position in the topic.
func (p *Publisher) Append(ctx context.Context, ev ledger.Event) (uint64, error) {
	body, err := json.Marshal(payload{
		Type:  ev.Type,
		Key:   ev.Key,
		Actor: string(ev.Actor),
		At:    ev.At.Format(time.RFC3339Nano),
		Attrs: ev.Attrs,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal ledger event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(ev.Key),
		Value: body,
	}
	results := p.client.ProduceSync(ctx, record)
	if err := results.FirstErr(); err != nil {
		return 0, fmt.Errorf("produce ledger event: %w", err)
	}
	produced, _ := results.First()
	return uint64(produced.Offset), nil
}

// Close flushes and releases the underlying client.
func (p *Publisher) Close() {
	p.client.Close()
}
