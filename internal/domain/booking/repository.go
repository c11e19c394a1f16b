package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindActiveByToolID returns the tool's PENDING and CONFIRMED bookings.
	FindActiveByToolID(ctx context.Context, toolID uuid.UUID) ([]*Booking, error)

	// List returns one page of bookings matching filter, plus the total match count.
	List(ctx context.Context, filter ListFilter, opts ListOptions) ([]*Booking, int64, error)

	// ListAll returns every booking matching filter.
	ListAll(ctx context.Context, filter ListFilter) ([]*Booking, error)

	// FindElapsedConfirmed returns up to limit CONFIRMED bookings whose end date is at or before before.
	FindElapsedConfirmed(ctx context.Context, before time.Time, limit int) ([]*Booking, error)

	// SaveIfAvailable inserts booking only if no active booking of the same
	// tool overlaps it. The check and the insert are atomic per tool.
	SaveIfAvailable(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error

	// Delete hard-deletes a booking.
	Delete(ctx context.Context, id uuid.UUID) error
}
