package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/toolshed-rental/service-booking/internal/pkg/auth"
	"github.com/toolshed-rental/service-booking/internal/pkg/response"
)

const (
	contextKeyUserID = "user_id"
	contextKeyRole   = "user_role"
)

// AuthMiddleware verifies the bearer token and stores the caller in the gin context.
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			response.Unauthorized(c, "missing bearer token")
			return
		}

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			response.Unauthorized(c, "invalid token subject")
			return
		}
		c.Set(contextKeyUserID, userID)
		c.Set(contextKeyRole, claims.Role)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the caller has one of the given roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			response.Unauthorized(c, "unauthorized")
			return
		}
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "insufficient role")
	}
}

// GetUserID returns the authenticated caller's ID.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(contextKeyUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// GetUserRole returns the authenticated caller's role.
func GetUserRole(c *gin.Context) (string, bool) {
	v, ok := c.Get(contextKeyRole)
	if !ok {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}
