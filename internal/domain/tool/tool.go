package tool

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/toolshed-rental/service-booking/internal/pkg/domain"
)

// ToolStatus is the listing state a tool owner sets. It is informational and
// does not gate bookings.
type ToolStatus string

const (
	StatusAvailable   ToolStatus = "AVAILABLE"
	StatusRented      ToolStatus = "RENTED"
	StatusMaintenance ToolStatus = "MAINTENANCE"
)

// IsValid returns true if the status is a recognized tool status.
func (s ToolStatus) IsValid() bool {
	switch s {
	case StatusAvailable, StatusRented, StatusMaintenance:
		return true
	}
	return false
}

// ParseToolStatus converts a string to a ToolStatus.
func ParseToolStatus(s string) (ToolStatus, error) {
	status := ToolStatus(strings.ToUpper(s))
	if !status.IsValid() {
		return "", domain.NewValidationError(fmt.Sprintf("invalid tool status: %q", s))
	}
	return status, nil
}

// Tool is a rentable listing. Bookings read its rate, deposit and owner.
type Tool struct {
	id            uuid.UUID
	ownerID       uuid.UUID
	name          string
	description   string
	category      string
	pricePerDay   int64
	depositAmount int64
	images        []string
	status        ToolStatus
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// NewTool creates a new AVAILABLE tool listing with validated fields.
func NewTool(
	ownerID uuid.UUID,
	name, description, category string,
	pricePerDay, depositAmount int64,
	images []string,
) (*Tool, error) {
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner ID is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewValidationError("tool name is required")
	}
	if pricePerDay < 0 {
		return nil, domain.NewValidationError("pricePerDay cannot be negative")
	}
	if depositAmount < 0 {
		return nil, domain.NewValidationError("deposit cannot be negative")
	}

	now := time.Now().UTC()
	return &Tool{
		id:            uuid.New(),
		ownerID:       ownerID,
		name:          strings.TrimSpace(name),
		description:   description,
		category:      category,
		pricePerDay:   pricePerDay,
		depositAmount: depositAmount,
		images:        append([]string(nil), images...),
		status:        StatusAvailable,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// Reconstruct rebuilds a Tool from persistence data (no validation).
func Reconstruct(
	id, ownerID uuid.UUID,
	name, description, category string,
	pricePerDay, depositAmount int64,
	images []string,
	status ToolStatus,
	version int64,
	createdAt, updatedAt time.Time,
) *Tool {
	return &Tool{
		id:            id,
		ownerID:       ownerID,
		name:          name,
		description:   description,
		category:      category,
		pricePerDay:   pricePerDay,
		depositAmount: depositAmount,
		images:        images,
		status:        status,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// --- Getters ---

func (t *Tool) ID() uuid.UUID        { return t.id }
func (t *Tool) OwnerID() uuid.UUID   { return t.ownerID }
func (t *Tool) Name() string         { return t.name }
func (t *Tool) Description() string  { return t.description }
func (t *Tool) Category() string     { return t.category }
func (t *Tool) PricePerDay() int64   { return t.pricePerDay }
func (t *Tool) DepositAmount() int64 { return t.depositAmount }
func (t *Tool) Status() ToolStatus   { return t.status }
func (t *Tool) Version() int64       { return t.version }
func (t *Tool) CreatedAt() time.Time { return t.createdAt }
func (t *Tool) UpdatedAt() time.Time { return t.updatedAt }

// Images returns a copy of the image URLs, never nil.
func (t *Tool) Images() []string {
	out := make([]string, len(t.images))
	copy(out, t.images)
	return out
}

// --- Behavior ---

// IsOwnedBy checks if the tool belongs to the given user.
func (t *Tool) IsOwnedBy(userID uuid.UUID) bool {
	return t.ownerID == userID
}

// Changes is a partial update; nil fields are left untouched.
type Changes struct {
	Name          *string
	Description   *string
	Category      *string
	PricePerDay   *int64
	DepositAmount *int64
	Images        []string
	Status        *ToolStatus
}

// Update applies partial changes and bumps the version. Rate changes do not
// affect existing bookings, whose amounts are fixed at creation. Nothing is
// applied if any field is invalid.
func (t *Tool) Update(c Changes) error {
	if c.Name != nil && strings.TrimSpace(*c.Name) == "" {
		return domain.NewValidationError("tool name cannot be empty")
	}
	if c.PricePerDay != nil && *c.PricePerDay < 0 {
		return domain.NewValidationError("pricePerDay cannot be negative")
	}
	if c.DepositAmount != nil && *c.DepositAmount < 0 {
		return domain.NewValidationError("deposit cannot be negative")
	}
	if c.Status != nil && !c.Status.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid tool status: %q", *c.Status))
	}

	if c.Name != nil {
		t.name = strings.TrimSpace(*c.Name)
	}
	if c.PricePerDay != nil {
		t.pricePerDay = *c.PricePerDay
	}
	if c.DepositAmount != nil {
		t.depositAmount = *c.DepositAmount
	}
	if c.Status != nil {
		t.status = *c.Status
	}
	if c.Description != nil {
		t.description = *c.Description
	}
	if c.Category != nil {
		t.category = *c.Category
	}
	if c.Images != nil {
		t.images = append([]string(nil), c.Images...)
	}
	t.version++
	t.updatedAt = time.Now().UTC()
	return nil
}
