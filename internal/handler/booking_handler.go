package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/toolshed-rental/service-booking/internal/application"
	bookingDomain "github.com/toolshed-rental/service-booking/internal/domain/booking"
	"github.com/toolshed-rental/service-booking/internal/pkg/auth"
	"github.com/toolshed-rental/service-booking/internal/pkg/middleware"
	"github.com/toolshed-rental/service-booking/internal/pkg/response"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListMyBookings)
		bookings.GET("/received", h.ListReceivedBookings)
		bookings.GET("/stats", h.MyBookingStats)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id/status", h.UpdateStatus)
		bookings.PATCH("/:id/payment-status", h.UpdatePaymentStatus)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}

	tools := r.Group("/api/v1/tools")
	tools.Use(authMW)
	{
		tools.POST("/:id/price", h.CalculatePrice)
		tools.GET("/:id/availability", h.CheckAvailability)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListMyBookings handles GET /api/v1/bookings. Always scoped to the caller as renter.
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	filter, opts, err := parseListQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter.RenterID = &userID

	h.list(c, filter, opts)
}

// ListReceivedBookings handles GET /api/v1/bookings/received: bookings on
// tools the caller owns.
func (h *BookingHandler) ListReceivedBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	filter, opts, err := parseListQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter.ToolOwnerID = &userID

	h.list(c, filter, opts)
}

func (h *BookingHandler) list(c *gin.Context, filter bookingDomain.ListFilter, opts bookingDomain.ListOptions) {
	result, err := h.service.ListBookings(c.Request.Context(), filter, opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, *result)
}

// MyBookingStats handles GET /api/v1/bookings/stats.
func (h *BookingHandler) MyBookingStats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	stats, err := h.service.GetBookingStats(c.Request.Context(), bookingDomain.ListFilter{RenterID: &userID})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateStatus handles PATCH /api/v1/bookings/:id/status.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateStatus(c.Request.Context(), bookingID, req.Status, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdatePaymentStatus handles PATCH /api/v1/bookings/:id/payment-status.
func (h *BookingHandler) UpdatePaymentStatus(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdatePaymentStatus(c.Request.Context(), bookingID, req.PaymentStatus, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.CancelBooking(c.Request.Context(), bookingID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CalculatePrice handles POST /api/v1/tools/:id/price.
func (h *BookingHandler) CalculatePrice(c *gin.Context) {
	toolID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid tool ID")
		return
	}

	var req application.PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CalculatePrice(c.Request.Context(), toolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CheckAvailability handles GET /api/v1/tools/:id/availability?startDate&endDate.
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	toolID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid tool ID")
		return
	}

	result, err := h.service.CheckAvailability(c.Request.Context(), toolID, c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
