// Package kafka publishes flattened records as events keyed by Username.
package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"userflat/internal/sink"
	"userflat/internal/userrecord/models"
)

// ContentType is attached to every produced record.
const ContentType = "application/json"

// Producer is the subset of *kgo.Client the sink needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Sink produces one record per flattened user.
type Sink struct {
	producer Producer
	topic    string
}

func New(producer Producer, topic string) *Sink {
	return &Sink{producer: producer, topic: topic}
}

// NewClient builds a franz-go client for the given brokers.
func NewClient(brokers []string, clientID string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

func (s *Sink) Name() string { return "kafka" }

func (s *Sink) Publish(ctx context.Context, record *models.Record) error {
	username, err := sink.Key(record)
	if err != nil {
		return err
	}
	payload, err := record.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	msg := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(username),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "content-type", Value: []byte(ContentType)},
		},
	}
	if err := s.producer.ProduceSync(ctx, msg).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", s.topic, err)
	}
	return nil
}
