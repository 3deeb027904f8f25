package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	"panel/internal/domain"
	"panel/internal/infrastructure/database"
	kafkaInfra "panel/internal/infrastructure/kafka"
)

type OutboxRepository interface {
	GetPendingMessages(ctx context.Context, querier domain.Querier, limit int) ([]domain.OutboxMessage, error)
	UpdateMessageStatusTx(ctx context.Context, querier domain.Querier, id string, status domain.OutboxMessageStatus) error
}

// Processor relays pending outbox messages to Kafka. Delivery is at least
// once: a message is marked SENT in the same transaction that locked it, so a
// crash between produce and commit sends it again.
type Processor struct {
	transactor    database.Transactor
	outboxRepo    OutboxRepository
	kafkaProducer kafkaInfra.Producer
	batchSize     int
	pollInterval  time.Duration
	pollTimeout   time.Duration
	logger        *zap.Logger
}

func NewProcessor(
	transactor database.Transactor,
	outboxRepo OutboxRepository,
	kafkaProducer kafkaInfra.Producer,
	batchSize int,
	pollInterval time.Duration,
	pollTimeout time.Duration,
	logger *zap.Logger,
) *Processor {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Processor{
		transactor:    transactor,
		outboxRepo:    outboxRepo,
		kafkaProducer: kafkaProducer,
		batchSize:     batchSize,
		pollInterval:  pollInterval,
		pollTimeout:   pollTimeout,
		logger:        logger,
	}
}

// Start polls until ctx is cancelled.
func (p *Processor) Start(ctx context.Context) {
	p.logger.Info("Starting outbox processor", zap.Duration("poll_interval", p.pollInterval), zap.Int("batch_size", p.batchSize))
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox processor stopped")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error("Failed to process outbox batch", zap.Error(err))
			}
		}
	}
}

// ProcessBatch sends one batch of pending messages and reports how many were
// marked SENT. Messages that could not be produced stay PENDING; messages
// without a topic are marked FAILED.
func (p *Processor) ProcessBatch(ctx context.Context) (int, error) {
	sent := 0
	err := p.transactor.WithinTx(ctx, func(q domain.Querier) error {
		sent = 0
		queryCtx, cancel := context.WithTimeout(ctx, p.pollTimeout)
		messages, err := p.outboxRepo.GetPendingMessages(queryCtx, q, p.batchSize)
		cancel()
		if err != nil {
			return err
		}
		if len(messages) == 0 {
			p.logger.Debug("No pending outbox messages found")
			return nil
		}
		p.logger.Info("Found pending outbox messages", zap.Int("count", len(messages)))

		for _, msg := range messages {
			if msg.Topic == "" {
				p.logger.Error("Outbox message has no topic, marking as failed", zap.String("message_id", msg.ID))
				if err := p.outboxRepo.UpdateMessageStatusTx(ctx, q, msg.ID, domain.OutboxStatusFailed); err != nil {
					return err
				}
				continue
			}

			if err := p.kafkaProducer.Produce(ctx, msg.Key, msg.Topic, msg.Payload); err != nil {
				p.logger.Warn("Failed to send outbox message, will retry",
					zap.String("message_id", msg.ID),
					zap.String("topic", msg.Topic),
					zap.Error(err))
				continue
			}

			if err := p.outboxRepo.UpdateMessageStatusTx(ctx, q, msg.ID, domain.OutboxStatusSent); err != nil {
				return err
			}
			sent++
			p.logger.Info("Outbox message sent",
				zap.String("message_id", msg.ID),
				zap.String("message_type", msg.MessageType),
				zap.String("topic", msg.Topic))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sent, nil
}
