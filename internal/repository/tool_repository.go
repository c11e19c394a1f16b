package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	toolDomain "github.com/toolshed-rental/service-booking/internal/domain/tool"
	"github.com/toolshed-rental/service-booking/internal/pkg/domain"
)

// ToolModel is the GORM model for the tools table.
type ToolModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Name          string    `gorm:"size:200;not null"`
	Description   string    `gorm:"type:text"`
	Category      string    `gorm:"size:100;index"`
	PricePerDay   int64     `gorm:"not null"`
	DepositAmount int64     `gorm:"not null;default:0"`
	Images        []string  `gorm:"type:text;serializer:json"`
	Status        string    `gorm:"size:20;not null;default:'AVAILABLE'"`
	Version       int64     `gorm:"not null;default:1"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (ToolModel) TableName() string { return "tools" }

// GormToolRepository implements ToolRepository using GORM.
type GormToolRepository struct {
	db *gorm.DB
}

func NewGormToolRepository(db *gorm.DB) *GormToolRepository {
	return &GormToolRepository{db: db}
}

func (r *GormToolRepository) FindByID(ctx context.Context, id uuid.UUID) (*toolDomain.Tool, error) {
	var model ToolModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Tool", id.String())
		}
		return nil, fmt.Errorf("failed to find tool: %w", err)
	}
	return toToolDomain(&model), nil
}

func (r *GormToolRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*toolDomain.Tool, error) {
	var models []ToolModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	tools := make([]*toolDomain.Tool, len(models))
	for i := range models {
		tools[i] = toToolDomain(&models[i])
	}
	return tools, nil
}

func (r *GormToolRepository) Save(ctx context.Context, t *toolDomain.Tool) error {
	if err := r.db.WithContext(ctx).Create(toToolModel(t)).Error; err != nil {
		return fmt.Errorf("failed to save tool: %w", err)
	}
	return nil
}

func (r *GormToolRepository) Update(ctx context.Context, t *toolDomain.Tool) error {
	model := toToolModel(t)
	previousVersion := t.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&ToolModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Select("name", "description", "category", "price_per_day", "deposit_amount", "images", "status", "version", "updated_at").
		Updates(model)

	if result.Error != nil {
		return fmt.Errorf("failed to update tool: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("tool was modified by another transaction")
	}
	return nil
}

// Delete removes a tool. Tools with PENDING or CONFIRMED bookings are kept
// and a conflict is returned; finished bookings are removed with the tool.
func (r *GormToolRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Same row lock as SaveIfAvailable, so a booking cannot commit
		// between the count below and the delete.
		var locked ToolModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", id).
			First(&locked).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFoundError("Tool", id.String())
			}
			return fmt.Errorf("failed to lock tool: %w", err)
		}

		var active int64
		if err := tx.Model(&BookingModel{}).
			Where("tool_id = ? AND status IN ?", id, activeStatusStrings()).
			Count(&active).Error; err != nil {
			return fmt.Errorf("failed to count active bookings: %w", err)
		}
		if active > 0 {
			return domain.NewConflictError("tool has active bookings")
		}

		if err := tx.Where("tool_id = ?", id).Delete(&BookingModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete tool bookings: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&ToolModel{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete tool: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.NewNotFoundError("Tool", id.String())
		}
		return nil
	})
}

// --- Conversions ---

func toToolModel(t *toolDomain.Tool) *ToolModel {
	return &ToolModel{
		ID:            t.ID(),
		OwnerID:       t.OwnerID(),
		Name:          t.Name(),
		Description:   t.Description(),
		Category:      t.Category(),
		PricePerDay:   t.PricePerDay(),
		DepositAmount: t.DepositAmount(),
		Images:        t.Images(),
		Status:        string(t.Status()),
		Version:       t.Version(),
		CreatedAt:     t.CreatedAt(),
		UpdatedAt:     t.UpdatedAt(),
	}
}

func toToolDomain(m *ToolModel) *toolDomain.Tool {
	images := m.Images
	if images == nil {
		images = []string{}
	}
	return toolDomain.Reconstruct(
		m.ID, m.OwnerID,
		m.Name, m.Description, m.Category,
		m.PricePerDay, m.DepositAmount,
		images,
		toolDomain.ToolStatus(m.Status),
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}
