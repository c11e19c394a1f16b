package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/toolshed-rental/service-booking/internal/application"
	bookingDomain "github.com/toolshed-rental/service-booking/internal/domain/booking"
	userDomain "github.com/toolshed-rental/service-booking/internal/domain/user"
	"github.com/toolshed-rental/service-booking/internal/pkg/auth"
	"github.com/toolshed-rental/service-booking/internal/pkg/database"
	"github.com/toolshed-rental/service-booking/internal/pkg/middleware"
	"github.com/toolshed-rental/service-booking/internal/repository"
)

type testServer struct {
	router *gin.Engine
	jwt    *auth.JWTManager
	users  *repository.GormUserRepository
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.ConnectSQLite(dsn, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	logger := zap.NewNop()
	bookingRepo := repository.NewGormBookingRepository(db)
	toolRepo := repository.NewGormToolRepository(db)
	userRepo := repository.NewGormUserRepository(db)

	bookingSvc := application.NewBookingService(
		bookingRepo, toolRepo, userRepo,
		application.NewAvailabilityGuard(bookingRepo),
		bookingDomain.NewStandardPricingStrategy(nil),
		nil, logger,
	)
	toolSvc := application.NewToolService(toolRepo, logger)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware(), middleware.RecoveryMiddleware(logger))
	root := &r.RouterGroup
	NewBookingHandler(bookingSvc).RegisterRoutes(root, jwtManager)
	NewAdminBookingHandler(bookingSvc).RegisterRoutes(root, jwtManager)
	NewToolHandler(toolSvc).RegisterRoutes(root, jwtManager)

	return &testServer{router: r, jwt: jwtManager, users: userRepo}
}

func (s *testServer) user(t *testing.T, role string) string {
	t.Helper()
	id := uuid.New()
	require.NoError(t, s.users.Save(context.Background(), &userDomain.User{
		ID: id, Name: "user-" + id.String()[:8], Email: id.String() + "@example.com", Role: role,
	}))
	token, err := s.jwt.GenerateAccessToken(id, role)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	var env envelope
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	}
	return rr, env
}

func (s *testServer) createTool(t *testing.T, ownerToken string) application.ToolDTO {
	t.Helper()
	rr, env := s.do(t, http.MethodPost, "/api/v1/tools", ownerToken, map[string]any{
		"name": "Cordless Drill", "pricePerDay": 10000, "deposit": 5000, "images": []string{"drill.jpg"},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var tool application.ToolDTO
	require.NoError(t, json.Unmarshal(env.Data, &tool))
	return tool
}

func (s *testServer) createBooking(t *testing.T, token string, toolID uuid.UUID, start, end string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	return s.do(t, http.MethodPost, "/api/v1/bookings", token, map[string]any{
		"toolId": toolID, "startDate": start, "endDate": end,
	})
}

func TestRoutes_RequireBearerToken(t *testing.T) {
	s := setupServer(t)

	cases := []struct{ method, path string }{
		{http.MethodPost, "/api/v1/bookings"},
		{http.MethodGet, "/api/v1/bookings"},
		{http.MethodGet, "/api/v1/bookings/received"},
		{http.MethodGet, "/api/v1/tools"},
		{http.MethodGet, "/api/v1/admin/bookings"},
	}
	for _, tc := range cases {
		rr, env := s.do(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, tc.path)
		require.NotNil(t, env.Error)
		assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
	}

	rr, _ := s.do(t, http.MethodGet, "/api/v1/bookings", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestBookingFlow(t *testing.T) {
	s := setupServer(t)
	owner := s.user(t, auth.RoleUser)
	renter := s.user(t, auth.RoleUser)
	tool := s.createTool(t, owner)

	rr, env := s.createBooking(t, renter, tool.ID, "2025-03-01", "2025-03-04")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var bk application.BookingDTO
	require.NoError(t, json.Unmarshal(env.Data, &bk))
	assert.Equal(t, int64(30000), bk.TotalPrice)
	assert.Equal(t, int64(5000), bk.Deposit)
	assert.Equal(t, "PENDING", bk.Status)

	rr, env = s.createBooking(t, s.user(t, auth.RoleUser), tool.ID, "2025-03-03", "2025-03-05")
	assert.Equal(t, http.StatusConflict, rr.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "TOOL_UNAVAILABLE", env.Error.Code)
	assert.Equal(t, bk.ID.String(), env.Error.Details["bookingId"])

	path := "/api/v1/bookings/" + bk.ID.String()

	rr, _ = s.do(t, http.MethodPatch, path+"/status", renter, map[string]string{"status": "CONFIRMED"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, env = s.do(t, http.MethodPatch, path+"/status", owner, map[string]string{"status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr, env = s.do(t, http.MethodPatch, path+"/status", owner, map[string]string{"status": "PENDING"})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)

	rr, _ = s.do(t, http.MethodPatch, path+"/payment-status", renter, map[string]string{"paymentStatus": "PAID"})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr, env = s.do(t, http.MethodGet, path, renter, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var detail application.BookingDetailDTO
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "CONFIRMED", detail.Status)
	assert.Equal(t, "PAID", detail.PaymentStatus)
	require.NotNil(t, detail.Tool)
	assert.Equal(t, "Cordless Drill", detail.Tool.Name)

	rr, _ = s.do(t, http.MethodGet, path, s.user(t, auth.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, env = s.do(t, http.MethodPost, path+"/cancel", renter, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(env.Data, &bk))
	assert.Equal(t, "CANCELLED", bk.Status)

	rr, _ = s.do(t, http.MethodGet, "/api/v1/bookings/not-a-uuid", renter, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = s.do(t, http.MethodGet, "/api/v1/bookings/"+uuid.NewString(), renter, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateBooking_BadInput(t *testing.T) {
	s := setupServer(t)
	renter := s.user(t, auth.RoleUser)

	rr, _ := s.do(t, http.MethodPost, "/api/v1/bookings", renter, map[string]any{"toolId": uuid.New()})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, env := s.createBooking(t, renter, uuid.New(), "2025-03-04", "2025-03-01")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	rr, _ = s.createBooking(t, renter, uuid.New(), "2025-03-01", "2025-03-04")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListBookings_PaginationAndScope(t *testing.T) {
	s := setupServer(t)
	owner := s.user(t, auth.RoleUser)
	renter := s.user(t, auth.RoleUser)
	tool := s.createTool(t, owner)

	for i := 0; i < 3; i++ {
		start := time.Date(2025, 3, 1+3*i, 0, 0, 0, 0, time.UTC)
		rr, _ := s.createBooking(t, renter, tool.ID, start.Format("2006-01-02"), start.AddDate(0, 0, 2).Format("2006-01-02"))
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr, env := s.do(t, http.MethodGet, "/api/v1/bookings?page=2&limit=2&sortBy=startDate&sortOrder=asc", renter, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var page struct {
		Items      []application.BookingDTO `json:"items"`
		Total      int64                    `json:"total"`
		Page       int                      `json:"page"`
		Limit      int                      `json:"limit"`
		TotalPages int                      `json:"totalPages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC), page.Items[0].StartDate.UTC())

	// the owner placed no bookings but received all three
	rr, env = s.do(t, http.MethodGet, "/api/v1/bookings", owner, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Zero(t, page.Total)

	rr, env = s.do(t, http.MethodGet, "/api/v1/bookings/received?status=pending", owner, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(3), page.Total)

	rr, _ = s.do(t, http.MethodGet, "/api/v1/bookings?sortBy=password", renter, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = s.do(t, http.MethodGet, "/api/v1/bookings?sortOrder=sideways", renter, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, env = s.do(t, http.MethodGet, "/api/v1/bookings/stats", renter, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats bookingDomain.Stats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, int64(3), stats.Pending)
}

func TestPriceAndAvailability(t *testing.T) {
	s := setupServer(t)
	owner := s.user(t, auth.RoleUser)
	renter := s.user(t, auth.RoleUser)
	tool := s.createTool(t, owner)
	toolPath := "/api/v1/tools/" + tool.ID.String()

	rr, env := s.do(t, http.MethodPost, toolPath+"/price", renter, map[string]string{
		"startDate": "2025-03-01", "endDate": "2025-03-04",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var quote application.PriceQuoteDTO
	require.NoError(t, json.Unmarshal(env.Data, &quote))
	assert.Equal(t, int64(30000), quote.TotalPrice)
	assert.Equal(t, int64(3), quote.Days)

	rr, _ = s.createBooking(t, renter, tool.ID, "2025-03-10", "2025-03-12")
	require.Equal(t, http.StatusCreated, rr.Code)

	rr, env = s.do(t, http.MethodGet, toolPath+"/availability?startDate=2025-03-11&endDate=2025-03-13", renter, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var avail application.AvailabilityDTO
	require.NoError(t, json.Unmarshal(env.Data, &avail))
	assert.False(t, avail.Available)

	rr, _ = s.do(t, http.MethodGet, toolPath+"/availability?startDate=2025-03-11", renter, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := setupServer(t)
	owner := s.user(t, auth.RoleUser)
	renter := s.user(t, auth.RoleUser)
	admin := s.user(t, auth.RoleAdmin)
	tool := s.createTool(t, owner)

	rr, env := s.createBooking(t, renter, tool.ID, "2025-03-01", "2025-03-04")
	require.Equal(t, http.StatusCreated, rr.Code)
	var bk application.BookingDTO
	require.NoError(t, json.Unmarshal(env.Data, &bk))

	rr, _ = s.do(t, http.MethodGet, "/api/v1/admin/bookings", renter, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, env = s.do(t, http.MethodGet, "/api/v1/admin/bookings?userId="+bk.RenterID.String(), admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var page struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(1), page.Total)

	rr, _ = s.do(t, http.MethodGet, "/api/v1/admin/bookings?ownerId=nope", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, env = s.do(t, http.MethodGet, "/api/v1/admin/stats/bookings", admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats bookingDomain.Stats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, int64(30000), stats.PendingPayments)

	rr, _ = s.do(t, http.MethodDelete, "/api/v1/admin/bookings/"+bk.ID.String(), admin, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr, _ = s.do(t, http.MethodDelete, "/api/v1/admin/bookings/"+bk.ID.String(), admin, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestToolRoutes(t *testing.T) {
	s := setupServer(t)
	owner := s.user(t, auth.RoleUser)
	other := s.user(t, auth.RoleUser)
	tool := s.createTool(t, owner)
	path := "/api/v1/tools/" + tool.ID.String()

	rr, _ := s.do(t, http.MethodPut, path, other, map[string]any{"pricePerDay": 1})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, env := s.do(t, http.MethodPut, path, owner, map[string]any{"pricePerDay": 15000, "status": "MAINTENANCE"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated application.ToolDTO
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, int64(15000), updated.PricePerDay)
	assert.Equal(t, "MAINTENANCE", updated.Status)

	rr, env = s.do(t, http.MethodGet, "/api/v1/tools", owner, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var mine []application.ToolDTO
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	assert.Len(t, mine, 1)

	rr, _ = s.do(t, http.MethodPost, "/api/v1/tools", owner, map[string]any{"pricePerDay": 100})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = s.do(t, http.MethodDelete, path, owner, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr, _ = s.do(t, http.MethodGet, path, owner, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
