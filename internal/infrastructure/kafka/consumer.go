package kafka_infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type MessageHandler func(ctx context.Context, message kafka.Message) error

// MessageReader is the part of *kafka.Reader the consumer depends on.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader         MessageReader
	topic          string
	groupID        string
	logger         *zap.Logger
	handler        MessageHandler
	fetchTimeout   time.Duration
	handlerTimeout time.Duration
	retryDelay     time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, handler MessageHandler, l *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		Logger:         kafka.LoggerFunc(l.Sugar().Debugf),
		ErrorLogger:    kafka.LoggerFunc(l.Sugar().Errorf),
	})
	return newConsumer(reader, topic, groupID, handler, l)
}

func newConsumer(reader MessageReader, topic, groupID string, handler MessageHandler, l *zap.Logger) *Consumer {
	return &Consumer{
		reader:         reader,
		topic:          topic,
		groupID:        groupID,
		logger:         l,
		handler:        handler,
		fetchTimeout:   5 * time.Second,
		handlerTimeout: 25 * time.Second,
		retryDelay:     time.Second,
	}
}

// Consume fetches messages until ctx is cancelled. A message the handler
// rejects is retried in place and nothing after it is fetched, so an offset
// is never committed past an unhandled message.
func (c *Consumer) Consume(ctx context.Context) error {
	c.logger.Info("Kafka consumer starting message consumption",
		zap.String("topic", c.topic),
		zap.String("group_id", c.groupID),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Context cancelled, stopping consumer", zap.String("topic", c.topic))
			return ctx.Err()
		default:
		}

		fetchCtx, cancelFetch := context.WithTimeout(ctx, c.fetchTimeout)
		m, err := c.reader.FetchMessage(fetchCtx)
		cancelFetch()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, kafka.ErrGroupClosed) || ctx.Err() != nil {
				c.logger.Info("Consumer stopping", zap.Error(err), zap.String("topic", c.topic))
				return nil
			}
			c.logger.Error("Error fetching message from Kafka", zap.Error(err), zap.String("topic", c.topic))
			select {
			case <-ctx.Done():
			case <-time.After(c.retryDelay):
			}
			continue
		}

		if !c.handleUntilDone(ctx, m) {
			c.logger.Info("Consumer stopping before message was handled",
				zap.String("topic", m.Topic),
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset))
			return nil
		}

		commitCtx, cancelCommit := context.WithTimeout(context.Background(), 5*time.Second)
		if err := c.reader.CommitMessages(commitCtx, m); err != nil {
			c.logger.Error("Failed to commit offset for message",
				zap.String("topic", m.Topic),
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
				zap.Error(err))
		}
		cancelCommit()
	}
}

func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("Failed to close Kafka consumer reader", zap.Error(err), zap.String("topic", c.topic))
		return fmt.Errorf("failed to close Kafka consumer reader: %w", err)
	}
	c.logger.Info("Kafka consumer reader closed", zap.String("topic", c.topic))
	return nil
}

// handleUntilDone retries m until the handler accepts it. It reports false
// when ctx ends first.
func (c *Consumer) handleUntilDone(ctx context.Context, m kafka.Message) bool {
	for attempt := 1; ; attempt++ {
		handleCtx, cancelHandler := context.WithTimeout(context.Background(), c.handlerTimeout)
		err := c.handler(handleCtx, m)
		cancelHandler()
		if err == nil {
			return true
		}

		c.logger.Error("Error handling Kafka message, retrying",
			zap.String("topic", m.Topic),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
			zap.Int("attempt", attempt),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.retryDelay):
		}
	}
}
