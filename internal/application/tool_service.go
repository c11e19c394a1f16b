package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	toolDomain "github.com/toolshed-rental/service-booking/internal/domain/tool"
	"github.com/toolshed-rental/service-booking/internal/pkg/domain"
)

// CreateToolRequest is the request DTO for listing a tool.
type CreateToolRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	PricePerDay int64    `json:"pricePerDay" binding:"min=0"`
	Deposit     int64    `json:"deposit" binding:"min=0"`
	Images      []string `json:"images"`
}

// UpdateToolRequest is a partial update; omitted fields are unchanged.
type UpdateToolRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	PricePerDay *int64   `json:"pricePerDay"`
	Deposit     *int64   `json:"deposit"`
	Images      []string `json:"images"`
	Status      *string  `json:"status"`
}

// ToolDTO is the API response representation of a tool.
type ToolDTO struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	PricePerDay int64     `json:"pricePerDay"`
	Deposit     int64     `json:"deposit"`
	Images      []string  `json:"images"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ToolService implements use cases for tool listings.
type ToolService struct {
	repo   toolDomain.ToolRepository
	logger *zap.Logger
}

// NewToolService creates a new ToolService.
func NewToolService(repo toolDomain.ToolRepository, logger *zap.Logger) *ToolService {
	return &ToolService{repo: repo, logger: logger}
}

// CreateTool lists a new tool for the given owner.
func (s *ToolService) CreateTool(ctx context.Context, ownerID uuid.UUID, req CreateToolRequest) (*ToolDTO, error) {
	tool, err := toolDomain.NewTool(
		ownerID,
		req.Name, req.Description, req.Category,
		req.PricePerDay, req.Deposit,
		req.Images,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, tool); err != nil {
		s.logger.Error("failed to create tool", zap.Error(err))
		return nil, err
	}

	s.logger.Info("tool listed",
		zap.String("tool_id", tool.ID().String()),
		zap.String("owner_id", ownerID.String()),
	)
	result := toToolDTO(tool)
	return &result, nil
}

// GetMyTools returns every tool the owner listed.
func (s *ToolService) GetMyTools(ctx context.Context, ownerID uuid.UUID) ([]ToolDTO, error) {
	tools, err := s.repo.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	dtos := make([]ToolDTO, len(tools))
	for i, t := range tools {
		dtos[i] = toToolDTO(t)
	}
	return dtos, nil
}

// GetTool returns a single tool. Listings are public to authenticated users.
func (s *ToolService) GetTool(ctx context.Context, toolID uuid.UUID) (*ToolDTO, error) {
	tool, err := s.repo.FindByID(ctx, toolID)
	if err != nil {
		return nil, err
	}
	result := toToolDTO(tool)
	return &result, nil
}

// UpdateTool applies a partial update, verifying ownership.
func (s *ToolService) UpdateTool(ctx context.Context, ownerID, toolID uuid.UUID, req UpdateToolRequest) (*ToolDTO, error) {
	tool, err := s.repo.FindByID(ctx, toolID)
	if err != nil {
		return nil, err
	}
	if !tool.IsOwnedBy(ownerID) {
		return nil, domain.NewForbiddenError("you do not own this tool")
	}

	changes := toolDomain.Changes{
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		PricePerDay:   req.PricePerDay,
		DepositAmount: req.Deposit,
		Images:        req.Images,
	}
	if req.Status != nil {
		status, err := toolDomain.ParseToolStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		changes.Status = &status
	}
	if err := tool.Update(changes); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, tool); err != nil {
		s.logger.Error("failed to update tool", zap.Error(err))
		return nil, err
	}

	s.logger.Info("tool updated", zap.String("tool_id", toolID.String()))
	result := toToolDTO(tool)
	return &result, nil
}

// DeleteTool removes a tool, verifying ownership. Tools with active bookings
// cannot be deleted.
func (s *ToolService) DeleteTool(ctx context.Context, ownerID, toolID uuid.UUID) error {
	tool, err := s.repo.FindByID(ctx, toolID)
	if err != nil {
		return err
	}
	if !tool.IsOwnedBy(ownerID) {
		return domain.NewForbiddenError("you do not own this tool")
	}

	if err := s.repo.Delete(ctx, toolID); err != nil {
		return err
	}

	s.logger.Info("tool deleted", zap.String("tool_id", toolID.String()))
	return nil
}

func toToolDTO(t *toolDomain.Tool) ToolDTO {
	return ToolDTO{
		ID:          t.ID(),
		OwnerID:     t.OwnerID(),
		Name:        t.Name(),
		Description: t.Description(),
		Category:    t.Category(),
		PricePerDay: t.PricePerDay(),
		Deposit:     t.DepositAmount(),
		Images:      t.Images(),
		Status:      string(t.Status()),
		CreatedAt:   t.CreatedAt(),
		UpdatedAt:   t.UpdatedAt(),
	}
}
