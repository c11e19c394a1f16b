package booking

import (
	"fmt"

	"github.com/toolshed-rental/service-booking/internal/pkg/domain"
)

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCompleted BookingStatus = "COMPLETED"
	StatusCancelled BookingStatus = "CANCELLED"
)

// validTransitions defines the state machine for booking status transitions.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// AllStatuses lists every booking status in lifecycle order.
func AllStatuses() []BookingStatus {
	return []BookingStatus{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}
}

// ActiveStatuses are the statuses that hold a tool's calendar slot.
func ActiveStatuses() []BookingStatus {
	return []BookingStatus{StatusPending, StatusConfirmed}
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// IsActive reports whether a booking in this status blocks overlapping bookings.
func (s BookingStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", domain.NewValidationError(fmt.Sprintf("invalid booking status: %q", s))
	}
	return status, nil
}

// PaymentStatus is the payment axis of a booking, independent of BookingStatus.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

var validPaymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:  {PaymentPaid},
	PaymentPaid:     {PaymentRefunded},
	PaymentRefunded: {},
}

// AllPaymentStatuses lists every payment status.
func AllPaymentStatuses() []PaymentStatus {
	return []PaymentStatus{PaymentPending, PaymentPaid, PaymentRefunded}
}

// IsValid returns true if the status is a recognized payment status.
func (s PaymentStatus) IsValid() bool {
	_, exists := validPaymentTransitions[s]
	return exists
}

// CanTransitionTo returns true if the payment transition is allowed.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, t := range validPaymentTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s PaymentStatus) String() string {
	return string(s)
}

// ParsePaymentStatus converts a string to a PaymentStatus.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(s)
	if !status.IsValid() {
		return "", domain.NewValidationError(fmt.Sprintf("invalid payment status: %q", s))
	}
	return status, nil
}
