// Package user holds the read-only view of marketplace users that bookings
// display. Accounts are managed elsewhere.
package user

import (
	"context"

	"github.com/google/uuid"
)

// User is the summary attached to booking reads.
type User struct {
	ID    uuid.UUID
	Name  string
	Email string
	Role  string
}

// UserRepository looks up user summaries.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*User, error)
}
