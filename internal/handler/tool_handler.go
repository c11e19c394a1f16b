package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/toolshed-rental/service-booking/internal/application"
	"github.com/toolshed-rental/service-booking/internal/pkg/auth"
	"github.com/toolshed-rental/service-booking/internal/pkg/middleware"
	"github.com/toolshed-rental/service-booking/internal/pkg/response"
)

// ToolHandler handles HTTP requests for tool listings.
type ToolHandler struct {
	service *application.ToolService
}

// NewToolHandler creates a new ToolHandler.
func NewToolHandler(service *application.ToolService) *ToolHandler {
	return &ToolHandler{service: service}
}

// RegisterRoutes registers all tool routes.
func (h *ToolHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	tools := r.Group("/api/v1/tools")
	tools.Use(middleware.AuthMiddleware(jwtManager))
	{
		tools.POST("", h.CreateTool)
		tools.GET("", h.GetMyTools)
		tools.GET("/:id", h.GetTool)
		tools.PUT("/:id", h.UpdateTool)
		tools.DELETE("/:id", h.DeleteTool)
	}
}

// CreateTool lists a new tool.
func (h *ToolHandler) CreateTool(c *gin.Context) {
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreateToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateTool(c.Request.Context(), ownerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetMyTools returns the caller's tools.
func (h *ToolHandler) GetMyTools(c *gin.Context) {
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.GetMyTools(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetTool returns a single tool by ID.
func (h *ToolHandler) GetTool(c *gin.Context) {
	toolID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid tool ID")
		return
	}

	result, err := h.service.GetTool(c.Request.Context(), toolID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateTool updates a tool the caller owns.
func (h *ToolHandler) UpdateTool(c *gin.Context) {
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	toolID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid tool ID")
		return
	}

	var req application.UpdateToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateTool(c.Request.Context(), ownerID, toolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteTool deletes a tool the caller owns.
func (h *ToolHandler) DeleteTool(c *gin.Context) {
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	toolID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid tool ID")
		return
	}

	if err := h.service.DeleteTool(c.Request.Context(), ownerID, toolID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "tool deleted"})
}
