package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/toolshed-rental/service-booking/internal/application"
	"github.com/toolshed-rental/service-booking/internal/pkg/auth"
	"github.com/toolshed-rental/service-booking/internal/pkg/middleware"
	"github.com/toolshed-rental/service-booking/internal/pkg/response"
)

// AdminBookingHandler handles admin HTTP requests for booking management.
type AdminBookingHandler struct {
	service *application.BookingService
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(service *application.BookingService) *AdminBookingHandler {
	return &AdminBookingHandler{service: service}
}

// RegisterRoutes registers admin booking routes.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/bookings", h.ListBookings)
		admin.DELETE("/bookings/:id", h.DeleteBooking)
		admin.GET("/stats/bookings", h.BookingStats)
	}
}

// ListBookings handles GET /api/v1/admin/bookings. Accepts userId and
// ownerId in addition to the common filters.
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	filter, opts, err := parseListQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if filter.RenterID, err = parseUUIDQuery(c, "userId"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.ToolOwnerID, err = parseUUIDQuery(c, "ownerId"); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.ListBookings(c.Request.Context(), filter, opts)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, *result)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	filter, _, err := parseListQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	stats, err := h.service.GetBookingStats(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// DeleteBooking handles DELETE /api/v1/admin/bookings/:id.
func (h *AdminBookingHandler) DeleteBooking(c *gin.Context) {
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

	if err := h.service.DeleteBooking(c.Request.Context(), bookingID, actor); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "booking deleted"})
}
