package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/toolshed-rental/service-booking/internal/pkg/domain"
)

// Booking is the aggregate root for the booking domain. Tool, renter, period
// and amounts are fixed at creation; only the two status axes change.
type Booking struct {
	id            uuid.UUID
	toolID        uuid.UUID
	renterID      uuid.UUID
	period        DateRange
	status        BookingStatus
	paymentStatus PaymentStatus
	totalPrice    int64
	deposit       int64

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking in PENDING/PENDING state.
func NewBooking(toolID, renterID uuid.UUID, period DateRange, quote Quote) (*Booking, error) {
	if toolID == uuid.Nil {
		return nil, domain.NewValidationError("toolId is required")
	}
	if renterID == uuid.Nil {
		return nil, domain.NewValidationError("renter ID is required")
	}
	if !period.Start.Before(period.End) {
		return nil, domain.NewValidationError("endDate must be after startDate")
	}
	if quote.TotalPrice < 0 || quote.Deposit < 0 {
		return nil, domain.NewValidationError("price and deposit cannot be negative")
	}

	now := time.Now().UTC()
	return &Booking{
		id:            uuid.New(),
		toolID:        toolID,
		renterID:      renterID,
		period:        period,
		status:        StatusPending,
		paymentStatus: PaymentPending,
		totalPrice:    quote.TotalPrice,
		deposit:       quote.Deposit,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	toolID uuid.UUID,
	renterID uuid.UUID,
	period DateRange,
	status BookingStatus,
	paymentStatus PaymentStatus,
	totalPrice int64,
	deposit int64,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:            id,
		toolID:        toolID,
		renterID:      renterID,
		period:        period,
		status:        status,
		paymentStatus: paymentStatus,
		totalPrice:    totalPrice,
		deposit:       deposit,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// ToolID returns the booked tool's ID.
func (b *Booking) ToolID() uuid.UUID { return b.toolID }

// RenterID returns the renting user's ID.
func (b *Booking) RenterID() uuid.UUID { return b.renterID }

// Period returns the booked range.
func (b *Booking) Period() DateRange { return b.period }

// StartDate returns the inclusive start of the booking.
func (b *Booking) StartDate() time.Time { return b.period.Start }

// EndDate returns the exclusive end of the booking.
func (b *Booking) EndDate() time.Time { return b.period.End }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// PaymentStatus returns the current payment status.
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }

// TotalPrice returns the rental price in the smallest currency unit.
func (b *Booking) TotalPrice() int64 { return b.totalPrice }

// Deposit returns the deposit in the smallest currency unit.
func (b *Booking) Deposit() int64 { return b.deposit }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// IsRenter reports whether userID placed this booking.
func (b *Booking) IsRenter(userID uuid.UUID) bool { return b.renterID == userID }

// --- Behavior ---

// TransitionTo moves the booking to target if the status machine allows it.
func (b *Booking) TransitionTo(target BookingStatus) error {
	if !target.IsValid() {
		return domain.NewValidationError("invalid booking status: " + string(target))
	}
	if !b.status.CanTransitionTo(target) {
		return domain.NewInvalidTransitionError(string(b.status), string(target))
	}
	b.status = target
	b.updatedAt = time.Now().UTC()
	return nil
}

// Confirm transitions PENDING to CONFIRMED.
func (b *Booking) Confirm() error { return b.TransitionTo(StatusConfirmed) }

// Complete transitions CONFIRMED to COMPLETED.
func (b *Booking) Complete() error { return b.TransitionTo(StatusCompleted) }

// Cancel transitions PENDING or CONFIRMED to CANCELLED.
func (b *Booking) Cancel() error { return b.TransitionTo(StatusCancelled) }

// TransitionPaymentTo moves the payment axis to target.
func (b *Booking) TransitionPaymentTo(target PaymentStatus) error {
	if !target.IsValid() {
		return domain.NewValidationError("invalid payment status: " + string(target))
	}
	if !b.paymentStatus.CanTransitionTo(target) {
		return domain.NewInvalidTransitionError(string(b.paymentStatus), string(target))
	}
	b.paymentStatus = target
	b.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
