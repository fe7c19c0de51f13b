package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/constants"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/models"
)

// PrincipalResolver turns a bearer token into the local principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// RequireAuth resolves the bearer token and stores the principal in context
func RequireAuth(resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(constants.HeaderAuthorization)
		if !strings.HasPrefix(header, constants.BearerPrefix) {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, constants.BearerPrefix))
		if token == "" {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		principal, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			slog.InfoContext(c.Request.Context(), "authentication failed", "request_id", c.GetString(constants.ContextKeyRequestID), "error", err)
			apierrors.Respond(c, err)
			c.Abort()
			return
		}

		// Store principal in context for easy access in handlers
		c.Set(constants.ContextKeyPrincipal, principal)
		c.Set(constants.ContextKeyUserID, principal.ID)
		c.Next()
	}
}

// GetPrincipal retrieves the authenticated principal from context
func GetPrincipal(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(constants.ContextKeyPrincipal)
	if !exists {
		return nil, false
	}
	principal, ok := value.(*models.User)
	if !ok || principal == nil {
		return nil, false
	}
	return principal, true
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	id, ok := userID.(uint64)
	return id, ok
}
