package auth

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/roadwatch/internal/middleware"
	"github.com/xyz-asif/roadwatch/internal/pkg/response"
)

const currentUserKey = "currentUser"

// NewAuthMiddleware creates a Gin middleware for session authentication
func NewAuthMiddleware(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := middleware.BearerToken(c)
		if !ok {
			response.Unauthorized(c, "Authorization header required", "AUTH_REQUIRED")
			c.Abort()
			return
		}

		user, _, err := svc.Resolve(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, ErrSessionRevoked):
				response.Unauthorized(c, "Session has been revoked", "SESSION_REVOKED")
			case errors.Is(err, ErrProfileNotFound):
				response.Unauthorized(c, "User not found", "USER_NOT_FOUND")
			case errors.Is(err, ErrInvalidCredentials):
				response.Unauthorized(c, "Invalid or expired token", "INVALID_TOKEN")
			default:
				response.InternalServerError(c, "Failed to resolve session", "SESSION_LOOKUP_FAILED")
			}
			c.Abort()
			return
		}

		SetCurrentUser(c, user)
		c.Next()
	}
}

// SetCurrentUser places user in the gin context under the shared keys
func SetCurrentUser(c *gin.Context, user CurrentUser) {
	c.Set(middleware.UserIDKey, user.ID)
	c.Set(middleware.EmailKey, user.Email)
	c.Set(middleware.IsAdminKey, user.Admin)
	c.Set(currentUserKey, user)
}

// CurrentUserFrom returns the user set by the session middleware
func CurrentUserFrom(c *gin.Context) (CurrentUser, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return CurrentUser{}, false
	}
	user, ok := v.(CurrentUser)
	return user, ok && user.ID != ""
}
