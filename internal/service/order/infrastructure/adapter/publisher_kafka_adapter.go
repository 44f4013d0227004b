package adapter

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"

	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/mq"
	"storefront/internal/service/order/domain"
)

const (
	publishAttempts   = 3
	publishTimeout    = 5 * time.Second
	publishBackoffMin = 250 * time.Millisecond
	publishBackoffMax = 2 * time.Second
)

var publishFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "order_publish_failures_total",
	Help: "order.created facts dropped after exhausting publish retries.",
})

// KafkaEventPublisher emits order.created facts. Publish never reports
// failure to the caller: the order is already committed when it runs, and
// coupling order acceptance to channel availability is exactly what this
// design rejects. A dropped fact widens the order-without-shipment window; it
// is logged and counted, not hidden.
type KafkaEventPublisher struct {
	writer *kafka.Writer
}

func NewKafkaEventPublisher(writer *kafka.Writer) *KafkaEventPublisher {
	return &KafkaEventPublisher{writer: writer}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, event *domain.OrderCreatedEvent) {
	raw, err := json.Marshal(event)
	if err != nil {
		publishFailures.Inc()
		logger.Ctx(ctx).Error().Err(err).Uint64("order_id", event.Order.ID).
			Msg("failed to marshal order.created fact")
		return
	}
	key := []byte(strconv.FormatUint(event.Order.ID, 10))

	backoff := publishBackoffMin
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		writeCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		err = mq.ProduceMessage(writeCtx, p.writer, key, raw)
		cancel()
		if err == nil {
			logger.Ctx(ctx).Info().Uint64("order_id", event.Order.ID).
				Str("event_id", event.EventID).Msg("order.created fact published")
			return
		}
		logger.Ctx(ctx).Warn().Err(err).Int("attempt", attempt).
			Uint64("order_id", event.Order.ID).Msg("publish failed")
		if attempt < publishAttempts {
			time.Sleep(backoff)
			backoff *= 2
			if backoff > publishBackoffMax {
				backoff = publishBackoffMax
			}
		}
	}

	publishFailures.Inc()
	logger.Ctx(ctx).Error().Err(err).Uint64("order_id", event.Order.ID).
		Msg("giving up publishing order.created fact; shipment creation will lag until reconciled")
}

func (p *KafkaEventPublisher) Close() error {
	return p.writer.Close()
}
