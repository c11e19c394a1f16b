package events

import (
	"context"
	"errors"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/toolshed-rental/service-booking/internal/application"
	bookingDomain "github.com/toolshed-rental/service-booking/internal/domain/booking"
	"github.com/toolshed-rental/service-booking/internal/pkg/domain"
	"github.com/toolshed-rental/service-booking/internal/pkg/kafka"
)

// Payment topic and the event types this service reacts to.
const (
	TopicPaymentEvents = "payment.events"

	PaymentCaptured = "payment.captured"
	PaymentRefunded = "payment.refunded"
)

// PaymentEvent is the payload of payment.captured and payment.refunded.
type PaymentEvent struct {
	PaymentID uuid.UUID `json:"paymentId"`
	BookingID uuid.UUID `json:"bookingId"`
	Amount    int64     `json:"amount"`
}

// PaymentRecorder applies payment outcomes to bookings.
type PaymentRecorder interface {
	RecordPayment(ctx context.Context, bookingID uuid.UUID, target bookingDomain.PaymentStatus) (*application.BookingDTO, error)
}

// PaymentEventConsumer listens to payment events and updates booking payment status.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	service  PaymentRecorder
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	service PaymentRecorder,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // malformed messages are not retried
	}
	return c.handleEvent(ctx, cloudEvent)
}

func (c *PaymentEventConsumer) handleEvent(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var target bookingDomain.PaymentStatus
	switch cloudEvent.Type {
	case PaymentCaptured:
		target = bookingDomain.PaymentPaid
	case PaymentRefunded:
		target = bookingDomain.PaymentRefunded
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}

	var evt PaymentEvent
	if err := cloudEvent.ParseData(&evt); err != nil || evt.BookingID == uuid.Nil {
		c.logger.Error("invalid payment event data",
			zap.String("type", cloudEvent.Type),
			zap.String("event_id", cloudEvent.ID),
			zap.Error(err),
		)
		return nil
	}

	_, err := c.service.RecordPayment(ctx, evt.BookingID, target)
	switch {
	case err == nil:
		c.logger.Info("booking payment status updated from payment event",
			zap.String("booking_id", evt.BookingID.String()),
			zap.String("payment_status", string(target)),
		)
		return nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidTransition):
		// Retrying cannot change the outcome.
		c.logger.Warn("payment event not applicable",
			zap.String("booking_id", evt.BookingID.String()),
			zap.String("type", cloudEvent.Type),
			zap.Error(err),
		)
		return nil
	default:
		c.logger.Error("failed to apply payment event",
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
		return err
	}
}
