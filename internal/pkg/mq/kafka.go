// Package mq holds the Kafka plumbing shared by producers and consumers.
package mq

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// NewWriter builds a writer for a single topic. Balancing by key keeps all
// facts for one order on one partition.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 5 * time.Second,
		// The topic may not exist yet on a fresh broker.
		AllowAutoTopicCreation: true,
	}
}

// NewReader builds a consumer-group reader. Multiple service instances with
// the same group id split partitions between them.
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // explicit commits only
	})
}

// ProduceMessage writes one message, injecting the current trace context into
// the Kafka headers so consumers can continue the trace.
func ProduceMessage(ctx context.Context, writer *kafka.Writer, key, value []byte) error {
	msg := kafka.Message{Key: key, Value: value}

	carrier := KafkaHeaderCarrier(msg.Headers)
	otel.GetTextMapPropagator().Inject(ctx, &carrier)
	msg.Headers = carrier

	return writer.WriteMessages(ctx, msg)
}

// KafkaHeaderCarrier adapts kafka message headers to the OTel TextMapCarrier.
type KafkaHeaderCarrier []kafka.Header

var _ propagation.TextMapCarrier = (*KafkaHeaderCarrier)(nil)

func (c *KafkaHeaderCarrier) Get(key string) string {
	for _, h := range *c {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *KafkaHeaderCarrier) Set(key, value string) {
	for i, h := range *c {
		if h.Key == key {
			(*c)[i].Value = []byte(value)
			return
		}
	}
	*c = append(*c, kafka.Header{Key: key, Value: []byte(value)})
}

func (c *KafkaHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(*c))
	for _, h := range *c {
		keys = append(keys, h.Key)
	}
	return keys
}
