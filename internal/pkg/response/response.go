package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/toolshed-rental/service-booking/internal/pkg/domain"
)

// Success writes a 200 envelope.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// Created writes a 201 envelope.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

// NoContent writes an empty 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paginated writes a page envelope {items,total,page,limit,totalPages}.
func Paginated[T any](c *gin.Context, result domain.PaginatedResult[T]) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// BadRequest writes a 400 validation error.
func BadRequest(c *gin.Context, message string) {
	writeError(c, http.StatusBadRequest, string(domain.KindValidation), message, nil)
}

// Unauthorized writes a 401 and aborts the chain.
func Unauthorized(c *gin.Context, message string) {
	writeError(c, http.StatusUnauthorized, string(domain.KindUnauthorized), message, nil)
	c.Abort()
}

// Forbidden writes a 403 and aborts the chain.
func Forbidden(c *gin.Context, message string) {
	writeError(c, http.StatusForbidden, string(domain.KindForbidden), message, nil)
	c.Abort()
}

// Error maps err to a status code. Errors that are not AppErrors are
// storage or internal failures and are reported as 500 without detail.
func Error(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	if kind == "" {
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
		return
	}

	var appErr *domain.AppError
	errors.As(err, &appErr)
	writeError(c, StatusFor(kind), string(kind), appErr.Message, appErr.Details)
}

// StatusFor returns the HTTP status for an error kind.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict, domain.KindInvalidTransition, domain.KindToolUnavailable:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, status int, code, message string, details any) {
	body := gin.H{"code": code, "message": message}
	if details != nil {
		body["details"] = details
	}
	c.JSON(status, gin.H{"success": false, "error": body})
}
