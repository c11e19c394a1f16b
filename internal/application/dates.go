package application

import (
	"fmt"
	"strings"
	"time"

	bookingDomain "github.com/toolshed-rental/service-booking/internal/domain/booking"
	"github.com/toolshed-rental/service-booking/internal/pkg/domain"
)

const dateOnly = "2006-01-02"

// ParseDate accepts an RFC 3339 timestamp or a YYYY-MM-DD date (midnight UTC).
func ParseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, domain.NewValidationError(field + " is required")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation(dateOnly, value, time.UTC); err == nil {
		return t, nil
	}
	return time.Time{}, domain.NewValidationError(fmt.Sprintf("%s must be RFC 3339 or YYYY-MM-DD, got %q", field, value))
}

// ParseDateRange parses both ends and validates start < end.
func ParseDateRange(start, end string) (bookingDomain.DateRange, error) {
	s, err := ParseDate("startDate", start)
	if err != nil {
		return bookingDomain.DateRange{}, err
	}
	e, err := ParseDate("endDate", end)
	if err != nil {
		return bookingDomain.DateRange{}, err
	}
	return bookingDomain.NewDateRange(s, e)
}
