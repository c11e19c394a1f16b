package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	bookingDomain "github.com/toolshed-rental/service-booking/internal/domain/booking"
	"github.com/toolshed-rental/service-booking/internal/pkg/domain"
)

// pgExclusionViolation is the SQLSTATE raised by the bookings_no_overlap constraint.
const pgExclusionViolation = "23P01"

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ToolID        uuid.UUID `gorm:"type:uuid;index;not null"`
	RenterID      uuid.UUID `gorm:"type:uuid;index;not null"`
	StartDate     time.Time `gorm:"not null"`
	EndDate       time.Time `gorm:"not null"`
	Status        string    `gorm:"not null;size:20;index"`
	PaymentStatus string    `gorm:"not null;size:20"`
	TotalPrice    int64     `gorm:"not null"`
	Deposit       int64     `gorm:"not null"`
	Version       int64     `gorm:"not null;default:1"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model), nil
}

// FindActiveByToolID returns the tool's PENDING and CONFIRMED bookings.
func (r *GormBookingRepository) FindActiveByToolID(ctx context.Context, toolID uuid.UUID) ([]*bookingDomain.Booking, error) {
	models, err := findActiveByTool(r.db.WithContext(ctx), toolID)
	if err != nil {
		return nil, err
	}
	return toDomainBookings(models), nil
}

func findActiveByTool(db *gorm.DB, toolID uuid.UUID) ([]BookingModel, error) {
	var models []BookingModel
	if err := db.
		Where("tool_id = ? AND status IN ?", toolID, activeStatusStrings()).
		Order("start_date ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load active bookings for tool: %w", err)
	}
	return models, nil
}

// List returns one page of bookings matching filter.
func (r *GormBookingRepository) List(
	ctx context.Context,
	filter bookingDomain.ListFilter,
	opts bookingDomain.ListOptions,
) ([]*bookingDomain.Booking, int64, error) {
	opts = opts.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Scopes(filterScope(filter)).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	direction := "ASC"
	if opts.SortDesc {
		direction = "DESC"
	}

	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Scopes(filterScope(filter)).
		Order(fmt.Sprintf("bookings.%s %s", opts.SortBy.Column(), direction)).
		Order(fmt.Sprintf("bookings.id %s", direction)).
		Offset(opts.Offset()).
		Limit(opts.Limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	return toDomainBookings(models), total, nil
}

// ListAll returns every booking matching filter.
func (r *GormBookingRepository) ListAll(ctx context.Context, filter bookingDomain.ListFilter) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Scopes(filterScope(filter)).
		Order("bookings.created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toDomainBookings(models), nil
}

// FindElapsedConfirmed returns CONFIRMED bookings that ended at or before before.
func (r *GormBookingRepository) FindElapsedConfirmed(ctx context.Context, before time.Time, limit int) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND end_date <= ?", string(bookingDomain.StatusConfirmed), before.UTC()).
		Order("end_date ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find elapsed bookings: %w", err)
	}
	return toDomainBookings(models), nil
}

// SaveIfAvailable locks the tool row, re-checks the tool's active bookings
// for overlap and inserts bk, all in one transaction. On postgres the
// bookings_no_overlap exclusion constraint rejects anything that slips past.
func (r *GormBookingRepository) SaveIfAvailable(ctx context.Context, bk *bookingDomain.Booking) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tool ToolModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", bk.ToolID()).
			First(&tool).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFoundError("Tool", bk.ToolID().String())
			}
			return fmt.Errorf("failed to lock tool: %w", err)
		}

		models, err := findActiveByTool(tx, bk.ToolID())
		if err != nil {
			return err
		}
		if conflict, found := bookingDomain.AnyOverlap(bk.Period(), toDomainBookings(models)); found {
			return domain.NewToolUnavailableError(conflictDetails(conflict))
		}

		if err := tx.Create(toBookingModel(bk)).Error; err != nil {
			return err
		}
		return nil
	})
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
		return domain.NewToolUnavailableError(nil)
	}
	if domain.KindOf(err) != "" {
		return err
	}
	return fmt.Errorf("failed to save booking: %w", err)
}

// Update persists status changes with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	// IncrementVersion has already been called on bk.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", bk.ID(), expectedVersion).
		Updates(map[string]interface{}{
			"status":         string(bk.Status()),
			"payment_status": string(bk.PaymentStatus()),
			"version":        bk.Version(),
			"updated_at":     bk.UpdatedAt(),
		})

	if result.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(result.Error, &pgErr) && pgErr.Code == pgExclusionViolation {
			return domain.NewToolUnavailableError(nil)
		}
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// Delete hard-deletes a booking.
func (r *GormBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&BookingModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Booking", id.String())
	}
	return nil
}

// filterScope applies a ListFilter. Columns are qualified because the
// ToolOwnerID filter joins tools.
func filterScope(f bookingDomain.ListFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.ToolOwnerID != nil {
			db = db.Joins("JOIN tools ON tools.id = bookings.tool_id").
				Where("tools.owner_id = ?", *f.ToolOwnerID)
		}
		if f.RenterID != nil {
			db = db.Where("bookings.renter_id = ?", *f.RenterID)
		}
		if f.ToolID != nil {
			db = db.Where("bookings.tool_id = ?", *f.ToolID)
		}
		if f.Status != "" {
			db = db.Where("bookings.status = ?", string(f.Status))
		}
		if f.PaymentStatus != "" {
			db = db.Where("bookings.payment_status = ?", string(f.PaymentStatus))
		}
		if f.StartFrom != nil {
			db = db.Where("bookings.start_date >= ?", f.StartFrom.UTC())
		}
		if f.StartTo != nil {
			db = db.Where("bookings.start_date <= ?", f.StartTo.UTC())
		}
		return db
	}
}

func activeStatusStrings() []string {
	active := bookingDomain.ActiveStatuses()
	out := make([]string, len(active))
	for i, s := range active {
		out[i] = string(s)
	}
	return out
}

func conflictDetails(b *bookingDomain.Booking) map[string]any {
	return map[string]any{
		"bookingId": b.ID(),
		"startDate": b.StartDate(),
		"endDate":   b.EndDate(),
	}
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:            bk.ID(),
		ToolID:        bk.ToolID(),
		RenterID:      bk.RenterID(),
		StartDate:     bk.StartDate(),
		EndDate:       bk.EndDate(),
		Status:        string(bk.Status()),
		PaymentStatus: string(bk.PaymentStatus()),
		TotalPrice:    bk.TotalPrice(),
		Deposit:       bk.Deposit(),
		Version:       bk.Version(),
		CreatedAt:     bk.CreatedAt(),
		UpdatedAt:     bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(
		m.ID,
		m.ToolID,
		m.RenterID,
		bookingDomain.DateRange{Start: m.StartDate.UTC(), End: m.EndDate.UTC()},
		bookingDomain.BookingStatus(m.Status),
		bookingDomain.PaymentStatus(m.PaymentStatus),
		m.TotalPrice,
		m.Deposit,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

func toDomainBookings(models []BookingModel) []*bookingDomain.Booking {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bookings[i] = toDomainBooking(&models[i])
	}
	return bookings
}
