package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/quickcart/quickcart/internal/messaging"
)

type kafkaPublisher struct {
	brokers []string
}

// NewPublisher creates a Kafka publisher from a comma-separated broker list.
// An empty list yields a NopPublisher so callers never have to special-case a
// missing broker.
func NewPublisher(brokersCSV string) messaging.Publisher {
	var brokers []string
	for _, b := range strings.Split(brokersCSV, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return messaging.NopPublisher{}
	}
	return &kafkaPublisher{brokers: brokers}
}

func (k *kafkaPublisher) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	w := &kafkaGo.Writer{
		Addr:     kafkaGo.TCP(k.brokers...),
		Topic:    topic,
		Balancer: &kafkaGo.LeastBytes{},
	}
	defer w.Close()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return w.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(key),
		Value: payload,
	})
}
