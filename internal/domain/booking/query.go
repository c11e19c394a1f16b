package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/toolshed-rental/service-booking/internal/pkg/domain"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ListFilter narrows a booking query. Nil or empty fields do not filter.
// StartFrom and StartTo bound the booking's start date, both inclusive.
type ListFilter struct {
	RenterID      *uuid.UUID
	ToolID        *uuid.UUID
	ToolOwnerID   *uuid.UUID
	Status        BookingStatus
	PaymentStatus PaymentStatus
	StartFrom     *time.Time
	StartTo       *time.Time
}

// SortField is a whitelisted sort key.
type SortField string

const (
	SortCreatedAt  SortField = "createdAt"
	SortUpdatedAt  SortField = "updatedAt"
	SortStartDate  SortField = "startDate"
	SortEndDate    SortField = "endDate"
	SortTotalPrice SortField = "totalPrice"
	SortStatus     SortField = "status"
)

var sortColumns = map[SortField]string{
	SortCreatedAt:  "created_at",
	SortUpdatedAt:  "updated_at",
	SortStartDate:  "start_date",
	SortEndDate:    "end_date",
	SortTotalPrice: "total_price",
	SortStatus:     "status",
}

// Column returns the storage column for the field.
func (f SortField) Column() string {
	return sortColumns[f]
}

// ParseSortField validates a client-supplied sort key. Empty means createdAt.
func ParseSortField(s string) (SortField, error) {
	if s == "" {
		return SortCreatedAt, nil
	}
	f := SortField(s)
	if _, ok := sortColumns[f]; !ok {
		return "", domain.NewValidationError(fmt.Sprintf("unsupported sortBy: %q", s))
	}
	return f, nil
}

// ListOptions controls pagination and ordering.
type ListOptions struct {
	Page     int
	Limit    int
	SortBy   SortField
	SortDesc bool
}

// DefaultListOptions returns page 1, limit 10, createdAt descending.
func DefaultListOptions() ListOptions {
	return ListOptions{Page: 1, Limit: DefaultPageLimit, SortBy: SortCreatedAt, SortDesc: true}
}

// Normalize clamps page and limit and fills in the default sort.
func (o ListOptions) Normalize() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = DefaultPageLimit
	}
	if o.Limit > MaxPageLimit {
		o.Limit = MaxPageLimit
	}
	if o.SortBy == "" {
		o.SortBy = SortCreatedAt
		o.SortDesc = true
	}
	return o
}

// Offset returns the number of rows to skip.
func (o ListOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}
