package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xyz-asif/roadwatch/internal/pkg/response"
)

// Context keys set by the session middleware
const (
	UserIDKey  = "userID"
	EmailKey   = "email"
	IsAdminKey = "isAdmin"
)

// BearerToken extracts the token from an Authorization header.
// Both "Bearer <token>" (case-insensitive) and a raw token are accepted.
func BearerToken(c *gin.Context) (string, bool) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return "", false
	}

	fields := strings.Fields(authHeader)
	if len(fields) == 2 && strings.EqualFold(fields[0], "Bearer") {
		return fields[1], true
	}
	if len(fields) == 1 {
		return fields[0], true
	}
	return "", false
}

// RequireAdmin must run after the session middleware
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(UserIDKey) == "" {
			response.Unauthorized(c, "Authorization header required", "AUTH_REQUIRED")
			c.Abort()
			return
		}
		if !c.GetBool(IsAdminKey) {
			response.Forbidden(c, "Admin access required", "ADMIN_REQUIRED")
			c.Abort()
			return
		}
		c.Next()
	}
}
