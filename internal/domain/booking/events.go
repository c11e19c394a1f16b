package booking

import (
	"time"

	"github.com/google/uuid"
)

// Topic and event types published by the booking service.
const (
	TopicBookingEvents = "booking.events"

	EventBookingCreated              = "booking.created"
	EventBookingStatusChanged        = "booking.status_changed"
	EventBookingPaymentStatusChanged = "booking.payment_status_changed"
	EventBookingDeleted              = "booking.deleted"
)

// BookingCreatedEvent is published after a booking is reserved.
type BookingCreatedEvent struct {
	BookingID  uuid.UUID `json:"bookingId"`
	ToolID     uuid.UUID `json:"toolId"`
	RenterID   uuid.UUID `json:"renterId"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	TotalPrice int64     `json:"totalPrice"`
	Deposit    int64     `json:"deposit"`
	OccurredAt time.Time `json:"occurredAt"`
}

// BookingStatusChangedEvent is published after a status or payment status transition.
type BookingStatusChangedEvent struct {
	BookingID  uuid.UUID  `json:"bookingId"`
	ToolID     uuid.UUID  `json:"toolId"`
	From       string     `json:"from"`
	To         string     `json:"to"`
	ActorID    *uuid.UUID `json:"actorId,omitempty"`
	OccurredAt time.Time  `json:"occurredAt"`
}

// BookingDeletedEvent is published after an administrative delete.
type BookingDeletedEvent struct {
	BookingID  uuid.UUID `json:"bookingId"`
	ActorID    uuid.UUID `json:"actorId"`
	OccurredAt time.Time `json:"occurredAt"`
}
