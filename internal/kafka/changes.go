package kafka

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/endless-aisle/order-routing/internal/orders"
	"github.com/endless-aisle/order-routing/internal/queue"
)

// ChangePublisher bridges the store's change subscription onto the change
// topic. The write has already committed when this runs, so a publish
// failure is logged and dropped, never surfaced to the writer.
func ChangePublisher(p *Producer, service string, logger *zap.Logger) orders.ChangeHandler {
	return func(ev orders.ChangeEvent) {
		env := orders.Envelope{
			EventID:       uuid.NewString(),
			EventType:     orders.EventOrderChanged,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      service,
			CorrelationID: ev.NewImage.OrderID,
			Payload:       MustMarshal(ev),
		}
		m := queue.Message{
			Key:  orders.PartitionKey(ev.NewImage.OrderID),
			Body: MustMarshal(env),
		}
		if err := p.Publish(context.Background(), m); err != nil {
			logger.Error("change event publish failed",
				zap.String("order_id", ev.NewImage.OrderID), zap.Error(err))
		}
	}
}
