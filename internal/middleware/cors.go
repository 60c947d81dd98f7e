package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const corsAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"

// CORS allows the comma separated origins in allowedOrigins, for example the
// citizen app and the staff dashboard. "*" echoes any request origin, since
// credentialed requests cannot use a literal wildcard.
func CORS(allowedOrigins string) gin.HandlerFunc {
	allowAll := false
	allowed := map[string]struct{}{}
	for _, o := range strings.Split(allowedOrigins, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			allowAll = true
		default:
			allowed[o] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		c.Header("Vary", "Origin, Access-Control-Request-Method, Access-Control-Request-Headers")

		if origin != "" {
			if _, ok := allowed[origin]; ok || allowAll {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Access-Control-Allow-Credentials", "true")
				c.Header("Access-Control-Expose-Headers", "X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, Retry-After")
			}
		}

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}

		reqHeaders := c.Request.Header.Get("Access-Control-Request-Headers")
		if strings.TrimSpace(reqHeaders) == "" {
			// multipart image uploads send their own content type
			reqHeaders = "Content-Type, Authorization"
		}
		c.Header("Access-Control-Allow-Methods", corsAllowMethods)
		c.Header("Access-Control-Allow-Headers", reqHeaders)
		c.Header("Access-Control-Max-Age", "600")
		c.AbortWithStatus(http.StatusNoContent)
	}
}
