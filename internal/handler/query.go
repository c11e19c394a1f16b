package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/toolshed-rental/service-booking/internal/application"
	bookingDomain "github.com/toolshed-rental/service-booking/internal/domain/booking"
	"github.com/toolshed-rental/service-booking/internal/pkg/domain"
	"github.com/toolshed-rental/service-booking/internal/pkg/middleware"
)

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(bookingDomain.DefaultPageLimit)))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = bookingDomain.DefaultPageLimit
	}
	if limit > bookingDomain.MaxPageLimit {
		limit = bookingDomain.MaxPageLimit
	}

	return page, limit
}

// parseListQuery reads the filter, sort and pagination query parameters
// shared by every booking listing.
func parseListQuery(c *gin.Context) (bookingDomain.ListFilter, bookingDomain.ListOptions, error) {
	var filter bookingDomain.ListFilter

	if v := c.Query("status"); v != "" {
		status, err := bookingDomain.ParseBookingStatus(strings.ToUpper(v))
		if err != nil {
			return filter, bookingDomain.ListOptions{}, err
		}
		filter.Status = status
	}
	if v := c.Query("paymentStatus"); v != "" {
		status, err := bookingDomain.ParsePaymentStatus(strings.ToUpper(v))
		if err != nil {
			return filter, bookingDomain.ListOptions{}, err
		}
		filter.PaymentStatus = status
	}
	if v := c.Query("toolId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, bookingDomain.ListOptions{}, domain.NewValidationError("toolId must be a UUID")
		}
		filter.ToolID = &id
	}
	if v := c.Query("startDate"); v != "" {
		t, err := application.ParseDate("startDate", v)
		if err != nil {
			return filter, bookingDomain.ListOptions{}, err
		}
		filter.StartFrom = &t
	}
	if v := c.Query("endDate"); v != "" {
		t, err := application.ParseDate("endDate", v)
		if err != nil {
			return filter, bookingDomain.ListOptions{}, err
		}
		filter.StartTo = &t
	}

	sortBy, err := bookingDomain.ParseSortField(c.Query("sortBy"))
	if err != nil {
		return filter, bookingDomain.ListOptions{}, err
	}
	sortDesc := true
	switch strings.ToLower(c.DefaultQuery("sortOrder", "desc")) {
	case "desc":
	case "asc":
		sortDesc = false
	default:
		return filter, bookingDomain.ListOptions{}, domain.NewValidationError("sortOrder must be asc or desc")
	}

	page, limit := parsePagination(c)
	return filter, bookingDomain.ListOptions{Page: page, Limit: limit, SortBy: sortBy, SortDesc: sortDesc}, nil
}

// parseUUIDQuery parses an optional UUID query parameter.
func parseUUIDQuery(c *gin.Context, name string) (*uuid.UUID, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, domain.NewValidationError(name + " must be a UUID")
	}
	return &id, nil
}

// actorFrom builds the acting user from the auth middleware's context values.
func actorFrom(c *gin.Context) (application.Actor, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return application.Actor{}, false
	}
	role, _ := middleware.GetUserRole(c)
	return application.Actor{UserID: userID, Role: role}, true
}
