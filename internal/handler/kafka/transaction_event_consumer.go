package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"panel/internal/domain"
	"panel/internal/domain/event"
	kafka_infra "panel/internal/infrastructure/kafka"
)

type TransactionEventApplier interface {
	HandleTransactionEvent(ctx context.Context, evt event.TransactionEvent, raw []byte) error
}

// TransactionEventMessageHandler applies transaction events. Messages that
// can never be applied are logged and acknowledged; store failures are
// returned so the offset is not committed.
func TransactionEventMessageHandler(applier TransactionEventApplier, logger *zap.Logger) kafka_infra.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		logger.Debug("Received transaction event",
			zap.String("topic", msg.Topic),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.String("key", string(msg.Key)),
		)

		var evt event.TransactionEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.Error("Failed to unmarshal Kafka message value to TransactionEvent",
				zap.Error(err),
				zap.ByteString("value", msg.Value),
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
			return nil
		}

		err := applier.HandleTransactionEvent(ctx, evt, msg.Value)
		if err == nil {
			return nil
		}
		if domain.KindOf(err) == domain.KindValidation {
			logger.Warn("Skipping transaction event that cannot be applied",
				zap.String("event_id", evt.EventID),
				zap.String("type", evt.Type),
				zap.Error(err),
			)
			return nil
		}

		logger.Error("Failed to apply transaction event",
			zap.String("event_id", evt.EventID),
			zap.String("transaction_id", evt.TransactionID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to apply transaction event %s: %w", evt.EventID, err)
	}
}
