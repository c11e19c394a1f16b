package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/toolshed-rental/service-booking/internal/domain/booking"
	toolDomain "github.com/toolshed-rental/service-booking/internal/domain/tool"
	userDomain "github.com/toolshed-rental/service-booking/internal/domain/user"
	"github.com/toolshed-rental/service-booking/internal/pkg/domain"
	"github.com/toolshed-rental/service-booking/internal/pkg/kafka"
)

const (
	eventSource         = "service-booking"
	completionBatchSize = 100
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ToolID    string `json:"toolId" binding:"required"`
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
}

// UpdateStatusRequest is the body of PATCH /bookings/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdatePaymentStatusRequest is the body of PATCH /bookings/:id/payment-status.
type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus" binding:"required"`
}

// PriceRequest is the body of POST /tools/:id/price.
type PriceRequest struct {
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID            uuid.UUID `json:"id"`
	ToolID        uuid.UUID `json:"toolId"`
	RenterID      uuid.UUID `json:"renterId"`
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus"`
	TotalPrice    int64     `json:"totalPrice"`
	Deposit       int64     `json:"deposit"`
	Version       int64     `json:"version"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ToolSummaryDTO is the tool view attached to a booking read.
type ToolSummaryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Images      []string  `json:"images"`
	PricePerDay int64     `json:"pricePerDay"`
	Deposit     int64     `json:"deposit"`
}

// RenterSummaryDTO is the renter view attached to a booking read.
type RenterSummaryDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// BookingDetailDTO is a booking with display-only tool and renter summaries.
type BookingDetailDTO struct {
	BookingDTO
	Tool   *ToolSummaryDTO   `json:"tool,omitempty"`
	Renter *RenterSummaryDTO `json:"renter,omitempty"`
}

// PriceQuoteDTO is the result of a price calculation.
type PriceQuoteDTO struct {
	ToolID        uuid.UUID `json:"toolId"`
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	Days          int64     `json:"days"`
	PricePerDay   int64     `json:"pricePerDay"`
	TotalPrice    int64     `json:"totalPrice"`
	Deposit       int64     `json:"deposit"`
	DepositPolicy string    `json:"depositPolicy,omitempty"`
}

// AvailabilityDTO is the result of an advisory availability check.
type AvailabilityDTO struct {
	ToolID    uuid.UUID                `json:"toolId"`
	StartDate time.Time                `json:"startDate"`
	EndDate   time.Time                `json:"endDate"`
	Available bool                     `json:"available"`
	Conflict  *bookingDomain.DateRange `json:"conflict,omitempty"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo      bookingDomain.BookingRepository
	tools     toolDomain.ToolRepository
	users     userDomain.UserRepository
	guard     *AvailabilityGuard
	pricing   bookingDomain.PricingStrategy
	publisher EventPublisher
	logger    *zap.Logger
}

// NewBookingService creates a new BookingService. publisher may be nil, in
// which case no events are emitted.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	tools toolDomain.ToolRepository,
	users userDomain.UserRepository,
	guard *AvailabilityGuard,
	pricing bookingDomain.PricingStrategy,
	publisher EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:      repo,
		tools:     tools,
		users:     users,
		guard:     guard,
		pricing:   pricing,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateBooking prices and reserves a new PENDING booking for the renter.
func (s *BookingService) CreateBooking(ctx context.Context, renterID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	toolID, err := uuid.Parse(req.ToolID)
	if err != nil {
		return nil, domain.NewValidationError("toolId must be a UUID")
	}
	period, err := ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	tool, err := s.tools.FindByID(ctx, toolID)
	if err != nil {
		return nil, err
	}

	quote, err := s.pricing.Calculate(bookingDomain.PricingParams{
		PricePerDay:   tool.PricePerDay(),
		DepositAmount: tool.DepositAmount(),
		Range:         period,
	})
	if err != nil {
		return nil, err
	}

	bk, err := bookingDomain.NewBooking(toolID, renterID, period, quote)
	if err != nil {
		return nil, err
	}

	if err := s.guard.Reserve(ctx, bk); err != nil {
		if errors.Is(err, domain.ErrToolUnavailable) {
			s.logger.Info("booking rejected, tool unavailable",
				zap.String("tool_id", toolID.String()),
				zap.Time("start_date", period.Start),
				zap.Time("end_date", period.End),
			)
		}
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("tool_id", toolID.String()),
		zap.String("renter_id", renterID.String()),
		zap.Int64("total_price", bk.TotalPrice()),
	)

	s.publishEvent(ctx, bookingDomain.EventBookingCreated, bk.ID(), bookingDomain.BookingCreatedEvent{
		BookingID:  bk.ID(),
		ToolID:     bk.ToolID(),
		RenterID:   bk.RenterID(),
		StartDate:  bk.StartDate(),
		EndDate:    bk.EndDate(),
		TotalPrice: bk.TotalPrice(),
		Deposit:    bk.Deposit(),
		OccurredAt: time.Now().UTC(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// UpdateStatus moves a booking along the status machine on behalf of its
// renter or tool owner. Only the tool owner may confirm.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID uuid.UUID, newStatus string, actor Actor) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	isOwner, err := s.authorizeParty(ctx, bk, actor)
	if err != nil {
		return nil, err
	}

	target, err := bookingDomain.ParseBookingStatus(newStatus)
	if err != nil {
		return nil, err
	}
	if target == bookingDomain.StatusConfirmed && !isOwner {
		return nil, domain.NewForbiddenError("only the tool owner can confirm a booking")
	}

	from := bk.Status()
	if err := bk.TransitionTo(target); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("booking status updated",
		zap.String("booking_id", bk.ID().String()),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("actor_id", actor.UserID.String()),
	)
	s.publishStatusChanged(ctx, bookingDomain.EventBookingStatusChanged, bk, string(from), string(target), &actor.UserID)

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels a PENDING or CONFIRMED booking.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, actor Actor) (*BookingDTO, error) {
	return s.UpdateStatus(ctx, bookingID, string(bookingDomain.StatusCancelled), actor)
}

// UpdatePaymentStatus moves a booking along the payment machine on behalf of
// its renter or tool owner.
func (s *BookingService) UpdatePaymentStatus(ctx context.Context, bookingID uuid.UUID, newStatus string, actor Actor) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if _, err := s.authorizeParty(ctx, bk, actor); err != nil {
		return nil, err
	}

	target, err := bookingDomain.ParsePaymentStatus(newStatus)
	if err != nil {
		return nil, err
	}

	return s.applyPayment(ctx, bk, target, &actor.UserID)
}

// RecordPayment applies a payment status reported by the payment system.
// Reapplying the current status is a no-op, so redelivered events are safe.
func (s *BookingService) RecordPayment(ctx context.Context, bookingID uuid.UUID, target bookingDomain.PaymentStatus) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.PaymentStatus() == target {
		result := toBookingDTO(bk)
		return &result, nil
	}
	return s.applyPayment(ctx, bk, target, nil)
}

func (s *BookingService) applyPayment(ctx context.Context, bk *bookingDomain.Booking, target bookingDomain.PaymentStatus, actorID *uuid.UUID) (*BookingDTO, error) {
	from := bk.PaymentStatus()
	if err := bk.TransitionPaymentTo(target); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("booking payment status updated",
		zap.String("booking_id", bk.ID().String()),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
	)
	s.publishStatusChanged(ctx, bookingDomain.EventBookingPaymentStatusChanged, bk, string(from), string(target), actorID)

	result := toBookingDTO(bk)
	return &result, nil
}

// CompleteElapsedBookings completes CONFIRMED bookings whose end date is at
// or before now and returns how many were completed. Bookings changed
// concurrently are skipped and picked up on the next run.
func (s *BookingService) CompleteElapsedBookings(ctx context.Context, now time.Time) (int, error) {
	completed := 0
	for {
		batch, err := s.repo.FindElapsedConfirmed(ctx, now, completionBatchSize)
		if err != nil {
			return completed, err
		}

		progressed := 0
		for _, bk := range batch {
			if err := bk.Complete(); err != nil {
				continue
			}
			bk.IncrementVersion()
			if err := s.repo.Update(ctx, bk); err != nil {
				if errors.Is(err, domain.ErrConflict) {
					s.logger.Debug("skipping booking modified during completion", zap.String("booking_id", bk.ID().String()))
					continue
				}
				return completed, err
			}
			completed++
			progressed++
			s.publishStatusChanged(ctx, bookingDomain.EventBookingStatusChanged, bk,
				string(bookingDomain.StatusConfirmed), string(bookingDomain.StatusCompleted), nil)
		}

		if len(batch) < completionBatchSize || progressed == 0 {
			return completed, nil
		}
	}
}

// GetBooking returns a booking with tool and renter summaries. Only the
// renter, the tool owner and admins may read it.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID, actor Actor) (*BookingDetailDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	tool, err := s.findToolIfExists(ctx, bk.ToolID())
	if err != nil {
		return nil, err
	}

	allowed := actor.IsAdmin() || bk.IsRenter(actor.UserID) || (tool != nil && tool.IsOwnedBy(actor.UserID))
	if !allowed {
		return nil, domain.NewForbiddenError("not authorized to view this booking")
	}

	detail := &BookingDetailDTO{BookingDTO: toBookingDTO(bk)}
	if tool != nil {
		detail.Tool = &ToolSummaryDTO{
			ID:          tool.ID(),
			Name:        tool.Name(),
			Images:      tool.Images(),
			PricePerDay: tool.PricePerDay(),
			Deposit:     tool.DepositAmount(),
		}
	}

	renter, err := s.users.FindByID(ctx, bk.RenterID())
	switch {
	case err == nil:
		detail.Renter = &RenterSummaryDTO{ID: renter.ID, Name: renter.Name, Email: renter.Email}
	case errors.Is(err, domain.ErrNotFound):
	default:
		return nil, err
	}

	return detail, nil
}

// ListBookings returns one page of bookings matching filter.
func (s *BookingService) ListBookings(
	ctx context.Context,
	filter bookingDomain.ListFilter,
	opts bookingDomain.ListOptions,
) (*domain.PaginatedResult[BookingDTO], error) {
	opts = opts.Normalize()
	bookings, total, err := s.repo.List(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	result := domain.NewPaginatedResult(dtos, total, opts.Page, opts.Limit)
	return &result, nil
}

// GetBookingStats reduces every booking matching filter.
func (s *BookingService) GetBookingStats(ctx context.Context, filter bookingDomain.ListFilter) (*bookingDomain.Stats, error) {
	bookings, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	stats := bookingDomain.ComputeStats(bookings)
	return &stats, nil
}

// CalculatePrice quotes a rental of the tool with the deployment's deposit policy.
func (s *BookingService) CalculatePrice(ctx context.Context, toolID uuid.UUID, req PriceRequest) (*PriceQuoteDTO, error) {
	period, err := ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	tool, err := s.tools.FindByID(ctx, toolID)
	if err != nil {
		return nil, err
	}

	quote, err := s.pricing.Calculate(bookingDomain.PricingParams{
		PricePerDay:   tool.PricePerDay(),
		DepositAmount: tool.DepositAmount(),
		Range:         period,
	})
	if err != nil {
		return nil, err
	}

	result := &PriceQuoteDTO{
		ToolID:      toolID,
		StartDate:   period.Start,
		EndDate:     period.End,
		Days:        quote.Days,
		PricePerDay: tool.PricePerDay(),
		TotalPrice:  quote.TotalPrice,
		Deposit:     quote.Deposit,
	}
	if sp, ok := s.pricing.(*bookingDomain.StandardPricingStrategy); ok {
		result.DepositPolicy = sp.DepositPolicy().Name()
	}
	return result, nil
}

// CheckAvailability is the advisory availability probe.
func (s *BookingService) CheckAvailability(ctx context.Context, toolID uuid.UUID, startDate, endDate string) (*AvailabilityDTO, error) {
	period, err := ParseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	if _, err := s.tools.FindByID(ctx, toolID); err != nil {
		return nil, err
	}

	available, conflict, err := s.guard.IsAvailable(ctx, toolID, period)
	if err != nil {
		return nil, err
	}

	result := &AvailabilityDTO{
		ToolID:    toolID,
		StartDate: period.Start,
		EndDate:   period.End,
		Available: available,
	}
	if conflict != nil {
		p := conflict.Period()
		result.Conflict = &p
	}
	return result, nil
}

// DeleteBooking hard-deletes a booking. It bypasses the status machine and
// is reserved for admins.
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID uuid.UUID, actor Actor) error {
	if !actor.IsAdmin() {
		return domain.NewForbiddenError("admin role required")
	}
	if err := s.repo.Delete(ctx, bookingID); err != nil {
		return err
	}

	s.logger.Warn("booking deleted by admin",
		zap.String("booking_id", bookingID.String()),
		zap.String("admin_id", actor.UserID.String()),
	)
	s.publishEvent(ctx, bookingDomain.EventBookingDeleted, bookingID, bookingDomain.BookingDeletedEvent{
		BookingID:  bookingID,
		ActorID:    actor.UserID,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

// authorizeParty returns whether actor owns the booked tool, or Forbidden if
// actor is neither the renter nor the tool owner. A booking whose tool no
// longer exists can only be changed by its renter.
func (s *BookingService) authorizeParty(ctx context.Context, bk *bookingDomain.Booking, actor Actor) (bool, error) {
	tool, err := s.findToolIfExists(ctx, bk.ToolID())
	if err != nil {
		return false, err
	}
	isOwner := tool != nil && tool.IsOwnedBy(actor.UserID)
	if !isOwner && !bk.IsRenter(actor.UserID) {
		return false, domain.NewForbiddenError("not authorized to modify this booking")
	}
	return isOwner, nil
}

func (s *BookingService) findToolIfExists(ctx context.Context, toolID uuid.UUID) (*toolDomain.Tool, error) {
	tool, err := s.tools.FindByID(ctx, toolID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return tool, nil
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
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

func (s *BookingService) publishStatusChanged(ctx context.Context, eventType string, bk *bookingDomain.Booking, from, to string, actorID *uuid.UUID) {
	s.publishEvent(ctx, eventType, bk.ID(), bookingDomain.BookingStatusChangedEvent{
		BookingID:  bk.ID(),
		ToolID:     bk.ToolID(),
		From:       from,
		To:         to,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	})
}

func (s *BookingService) publishEvent(ctx context.Context, eventType string, bookingID uuid.UUID, data interface{}) {
	if s.publisher == nil {
		return
	}

	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.publisher.PublishEvent(ctx, bookingDomain.TopicBookingEvents, cloudEvent.WithSubject(bookingID.String())); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", bookingDomain.TopicBookingEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
