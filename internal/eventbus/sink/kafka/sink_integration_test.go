//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"opsconsole/internal/eventbus"
	kafkasink "opsconsole/internal/eventbus/sink/kafka"
	"opsconsole/pkg/testutil/containers"
)

const testTopic = "console.events.test"

type KafkaSinkSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
	sink     *kafkasink.Sink
	consumer *kgo.Client
}

func TestKafkaSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSinkSuite))
}

func (s *KafkaSinkSuite) SetupSuite() {
	s.redpanda = containers.NewRedpandaContainer(s.T())

	var err error
	s.sink, err = kafkasink.New([]string{s.redpanda.Broker}, testTopic)
	s.Require().NoError(err)

	s.consumer, err = kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Broker),
		kgo.ConsumeTopics(testTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
}

func (s *KafkaSinkSuite) TearDownSuite() {
	s.consumer.Close()
	s.Require().NoError(s.sink.Close())
}

func (s *KafkaSinkSuite) consume(n int) []*kgo.Record {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var records []*kgo.Record
	for len(records) < n {
		fetches := s.consumer.PollFetches(ctx)
		s.Require().NoError(fetches.Err())
		records = append(records, fetches.Records()...)
	}
	return records
}

func (s *KafkaSinkSuite) TestWriteProducesKeyedRecord() {
	entry := eventbus.Entry{
		Seq:     42,
		Time:    time.Now().UTC(),
		Level:   eventbus.LevelInfo,
		Message: "task: etl completed",
	}
	s.Require().NoError(s.sink.Write(context.Background(), entry))

	records := s.consume(1)
	s.Equal([]byte("42"), records[0].Key)

	var got eventbus.Entry
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal(entry.Seq, got.Seq)
	s.Equal(entry.Level, got.Level)
	s.Equal(entry.Message, got.Message)
}

func (s *KafkaSinkSuite) TestBusMirrorsEntriesToTopic() {
	// The bus owns its sink and closes it on Close, so it gets a client of
	// its own rather than the suite's.
	busSink, err := kafkasink.New([]string{s.redpanda.Broker}, testTopic)
	s.Require().NoError(err)

	bus := eventbus.New(64,
		eventbus.WithHeartbeatInterval(time.Hour),
		eventbus.WithSinks(busSink),
	)

	bus.Info("mirrored one")
	bus.Warn("mirrored two")
	s.Require().NoError(bus.Close())

	records := s.consume(2)
	s.GreaterOrEqual(len(records), 2)
}
