package tool

import (
	"context"

	"github.com/google/uuid"
)

// ToolRepository defines persistence operations for tool listings.
type ToolRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tool, error)
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*Tool, error)
	Save(ctx context.Context, tool *Tool) error
	Update(ctx context.Context, tool *Tool) error
	Delete(ctx context.Context, id uuid.UUID) error
}
