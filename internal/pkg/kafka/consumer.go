package kafka

import (
	"context"
	"errors"
	"io"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	maxHandlerAttempts = 3

	fetchBackoffMin = 200 * time.Millisecond
	fetchBackoffMax = 10 * time.Second
)

// MessageHandler processes one message. A returned error triggers a retry;
// after the last attempt the message is logged and committed.
type MessageHandler func(ctx context.Context, msg kafkago.Message) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Consumer reads a single topic as part of a consumer group.
type Consumer struct {
	reader     messageReader
	logger     *zap.Logger
	backoffMin time.Duration
	backoffMax time.Duration
}

// NewConsumer creates a new Consumer.
func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		StartOffset:    kafkago.FirstOffset,
		CommitInterval: 0,
	})
	return &Consumer{
		reader:     reader,
		logger:     logger.With(zap.String("topic", topic), zap.String("group", groupID)),
		backoffMin: fetchBackoffMin,
		backoffMax: fetchBackoffMax,
	}
}

// Consume blocks until ctx is cancelled or the reader is closed. Fetch
// errors are retried with exponential backoff.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	backoff := c.backoffMin
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				c.logger.Info("reader closed, stopping consumer")
				return nil
			}
			c.logger.Error("failed to fetch message", zap.Error(err), zap.Duration("retry_in", backoff))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, c.backoffMax)
			continue
		}
		backoff = c.backoffMin

		c.handleWithRetry(ctx, handler, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("failed to commit message",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, handler MessageHandler, msg kafkago.Message) {
	backoff := 200 * time.Millisecond
	for attempt := 1; attempt <= maxHandlerAttempts; attempt++ {
		err := handler(ctx, msg)
		if err == nil {
			return
		}
		c.logger.Warn("message handler failed",
			zap.Int("attempt", attempt),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		if attempt == maxHandlerAttempts {
			c.logger.Error("giving up on message", zap.Int64("offset", msg.Offset), zap.ByteString("key", msg.Key))
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

// Close closes the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
