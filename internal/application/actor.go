package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/toolshed-rental/service-booking/internal/pkg/auth"
	"github.com/toolshed-rental/service-booking/internal/pkg/kafka"
)

// Actor is the authenticated caller of a use case.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool { return a.Role == auth.RoleAdmin }

// EventPublisher publishes integration events. *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}
