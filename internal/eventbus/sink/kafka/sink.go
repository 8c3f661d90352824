// Package kafka mirrors console log entries onto a Kafka topic so external
// consumers can tail the console without holding an SSE connection open.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/twmb/franz-go/pkg/kgo"

	"opsconsole/internal/eventbus"
)

// Sink produces one record per ring entry, keyed by sequence number so a
// compacted topic keeps the latest occurrence of each seq.
type Sink struct {
	client *kgo.Client
	topic  string
}

// New connects to the given brokers. The sink worker serializes writes, so a
// plain synchronous produce is enough here.
func New(brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

func (s *Sink) Write(ctx context.Context, e eventbus.Entry) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(strconv.FormatUint(e.Seq, 10)),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce entry %d: %w", e.Seq, err)
	}
	return nil
}

func (s *Sink) Close() error {
	s.client.Close()
	return nil
}
