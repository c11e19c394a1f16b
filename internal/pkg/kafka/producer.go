package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Producer publishes CloudEvents through a circuit breaker.
type Producer struct {
	writer  *kafkago.Writer
	breaker *gobreaker.CircuitBreaker[any]
	logger  *zap.Logger
}

// NewProducer creates a new Producer.
func NewProducer(brokers []string, logger *zap.Logger) *Producer {
	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "kafka-producer",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Producer{writer: writer, breaker: breaker, logger: logger}
}

// PublishEvent writes the event to topic, keyed by its subject.
func (p *Producer) PublishEvent(ctx context.Context, topic string, event CloudEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal cloud event: %w", err)
	}

	msg := kafkago.Message{
		Topic: topic,
		Key:   []byte(event.Subject),
		Value: value,
	}

	_, err = p.breaker.Execute(func() (any, error) {
		return nil, p.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.Type, topic, err)
	}

	p.logger.Debug("event published",
		zap.String("topic", topic),
		zap.String("type", event.Type),
		zap.String("id", event.ID),
	)
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
