package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/mq"
	"storefront/internal/service/shipping/domain"
)

// reconnectDelay bounds the retry loop so a broker outage degrades to delayed
// shipment creation instead of a busy loop or a crash.
const reconnectDelay = 3 * time.Second

var poisonMessages = promauto.NewCounter(prometheus.CounterOpts{
	Name: "shipping_poison_messages_total",
	Help: "Channel messages skipped because they could not be decoded.",
})

var tracer = otel.Tracer("shipping-service")

// ShipmentConsumer is the long-lived subscriber on the order.created topic.
// It runs as a supervised background task: connection failures are retried
// forever, and a malformed message never stops the subscription.
type ShipmentConsumer struct {
	brokers []string
	topic   string
	groupID string
	service *ShippingService
}

func NewShipmentConsumer(brokers []string, topic, groupID string, service *ShippingService) *ShipmentConsumer {
	return &ShipmentConsumer{brokers: brokers, topic: topic, groupID: groupID, service: service}
}

func (c *ShipmentConsumer) Name() string {
	return "shipment-consumer"
}

// Run blocks until ctx is cancelled. Each pass builds a fresh reader, so a
// broker that was down at startup is picked up on a later pass.
func (c *ShipmentConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		reader := mq.NewReader(c.brokers, c.topic, c.groupID)
		c.consume(ctx, reader)
		if err := reader.Close(); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("error closing channel reader")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *ShipmentConsumer) consume(ctx context.Context, reader *kafka.Reader) {
	logger.Ctx(ctx).Info().Str("topic", c.topic).Str("group", c.groupID).Msg("consumer subscribed")
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Ctx(ctx).Warn().Err(err).Msg("fetch failed, reconnecting")
			return
		}

		if err := c.processMessage(ctx, msg); err != nil {
			// Leave the offset uncommitted and reconnect so the fact is
			// redelivered; idempotent creation absorbs any duplicate.
			logger.Ctx(ctx).Error().Err(err).Msg("processing failed, will retry after redelivery")
			return
		}

		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			logger.Ctx(ctx).Error().Err(err).Msg("failed to commit offset")
		}
	}
}

// processMessage returns an error only for retryable handler failures.
// Undecodable or foreign-type messages are skipped for good: redelivering a
// poison message would just fail again.
func (c *ShipmentConsumer) processMessage(parentCtx context.Context, msg kafka.Message) error {
	carrier := mq.KafkaHeaderCarrier(msg.Headers)
	ctx := otel.GetTextMapPropagator().Extract(parentCtx, &carrier)
	ctx, span := tracer.Start(ctx, "shipping.OnOrderCreated", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	var fact domain.OrderCreatedFact
	if err := json.Unmarshal(msg.Value, &fact); err != nil {
		poisonMessages.Inc()
		logger.Ctx(ctx).Error().Err(err).Msg("undecodable message skipped")
		return nil
	}
	if fact.Type != domain.FactTypeOrderCreated {
		// Unknown fact types are someone else's business.
		return nil
	}

	if err := c.service.CreateFromFact(ctx, &fact); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
