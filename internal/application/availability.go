package application

import (
	"context"
	"sync"

	"github.com/google/uuid"

	bookingDomain "github.com/toolshed-rental/service-booking/internal/domain/booking"
)

// AvailabilityGuard decides whether a tool is free for a range and performs
// the serialized check-and-insert for new bookings.
type AvailabilityGuard struct {
	repo  bookingDomain.BookingRepository
	locks *keyedMutex
}

// NewAvailabilityGuard creates a new AvailabilityGuard.
func NewAvailabilityGuard(repo bookingDomain.BookingRepository) *AvailabilityGuard {
	return &AvailabilityGuard{repo: repo, locks: newKeyedMutex()}
}

// IsAvailable is an advisory read. It takes no lock, so the answer can be
// stale by the time a booking is attempted.
func (g *AvailabilityGuard) IsAvailable(ctx context.Context, toolID uuid.UUID, period bookingDomain.DateRange) (bool, *bookingDomain.Booking, error) {
	active, err := g.repo.FindActiveByToolID(ctx, toolID)
	if err != nil {
		return false, nil, err
	}
	conflict, found := bookingDomain.AnyOverlap(period, active)
	return !found, conflict, nil
}

// Reserve persists bk only if its range is free. Calls for the same tool are
// serialized in-process; the repository re-checks under a row lock inside
// the insert transaction, which covers other replicas.
func (g *AvailabilityGuard) Reserve(ctx context.Context, bk *bookingDomain.Booking) error {
	unlock := g.locks.Lock(bk.ToolID())
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return g.repo.SaveIfAvailable(ctx, bk)
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uuid.UUID]*refMutex)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *keyedMutex) Lock(key uuid.UUID) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
