package application

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	bookingDomain "github.com/toolshed-rental/service-booking/internal/domain/booking"
	userDomain "github.com/toolshed-rental/service-booking/internal/domain/user"
	"github.com/toolshed-rental/service-booking/internal/pkg/auth"
	"github.com/toolshed-rental/service-booking/internal/pkg/database"
	"github.com/toolshed-rental/service-booking/internal/pkg/kafka"
	"github.com/toolshed-rental/service-booking/internal/repository"
)

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type testEnv struct {
	db        *gorm.DB
	bookings  *BookingService
	tools     *ToolService
	users     *repository.GormUserRepository
	publisher *recordingPublisher
}

func setupEnv(t *testing.T, deposit bookingDomain.DepositPolicy) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.ConnectSQLite(dsn, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	bookingRepo := repository.NewGormBookingRepository(db)
	toolRepo := repository.NewGormToolRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	publisher := &recordingPublisher{}
	logger := zap.NewNop()

	return &testEnv{
		db: db,
		bookings: NewBookingService(
			bookingRepo, toolRepo, userRepo,
			NewAvailabilityGuard(bookingRepo),
			bookingDomain.NewStandardPricingStrategy(deposit),
			publisher, logger,
		),
		tools:     NewToolService(toolRepo, logger),
		users:     userRepo,
		publisher: publisher,
	}
}

func (e *testEnv) seedUser(t *testing.T, name, role string) Actor {
	t.Helper()
	id := uuid.New()
	require.NoError(t, e.users.Save(context.Background(), &userDomain.User{
		ID: id, Name: name, Email: fmt.Sprintf("%s-%s@example.com", name, id.String()[:8]), Role: role,
	}))
	return Actor{UserID: id, Role: role}
}

func (e *testEnv) seedTool(t *testing.T, owner Actor, pricePerDay, deposit int64) *ToolDTO {
	t.Helper()
	tool, err := e.tools.CreateTool(context.Background(), owner.UserID, CreateToolRequest{
		Name:        "Cordless Drill",
		Category:    "power-tools",
		PricePerDay: pricePerDay,
		Deposit:     deposit,
		Images:      []string{"https://cdn.example.com/drill.jpg"},
	})
	require.NoError(t, err)
	return tool
}

func (e *testEnv) book(t *testing.T, renter Actor, toolID uuid.UUID, start, end string) *BookingDTO {
	t.Helper()
	bk, err := e.bookings.CreateBooking(context.Background(), renter.UserID, CreateBookingRequest{
		ToolID: toolID.String(), StartDate: start, EndDate: end,
	})
	require.NoError(t, err)
	return bk
}

func adminActor() Actor {
	return Actor{UserID: uuid.New(), Role: auth.RoleAdmin}
}

// mockBookingRepository is a testify mock of BookingRepository.
type mockBookingRepository struct {
	mock.Mock
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	args := m.Called(ctx, id)
	bk, _ := args.Get(0).(*bookingDomain.Booking)
	return bk, args.Error(1)
}

func (m *mockBookingRepository) FindActiveByToolID(ctx context.Context, toolID uuid.UUID) ([]*bookingDomain.Booking, error) {
	args := m.Called(ctx, toolID)
	bks, _ := args.Get(0).([]*bookingDomain.Booking)
	return bks, args.Error(1)
}

func (m *mockBookingRepository) List(ctx context.Context, filter bookingDomain.ListFilter, opts bookingDomain.ListOptions) ([]*bookingDomain.Booking, int64, error) {
	args := m.Called(ctx, filter, opts)
	bks, _ := args.Get(0).([]*bookingDomain.Booking)
	return bks, args.Get(1).(int64), args.Error(2)
}

func (m *mockBookingRepository) ListAll(ctx context.Context, filter bookingDomain.ListFilter) ([]*bookingDomain.Booking, error) {
	args := m.Called(ctx, filter)
	bks, _ := args.Get(0).([]*bookingDomain.Booking)
	return bks, args.Error(1)
}

func (m *mockBookingRepository) FindElapsedConfirmed(ctx context.Context, before time.Time, limit int) ([]*bookingDomain.Booking, error) {
	args := m.Called(ctx, before, limit)
	bks, _ := args.Get(0).([]*bookingDomain.Booking)
	return bks, args.Error(1)
}

func (m *mockBookingRepository) SaveIfAvailable(ctx context.Context, bk *bookingDomain.Booking) error {
	return m.Called(ctx, bk).Error(0)
}

func (m *mockBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	return m.Called(ctx, bk).Error(0)
}

func (m *mockBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
