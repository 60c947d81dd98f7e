package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"", "", false},
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"abc", "abc", true},
		{"Basic a b", "", false},
	}

	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			c.Request.Header.Set("Authorization", tt.header)
		}
		got, ok := BearerToken(c)
		require.Equal(t, tt.ok, ok, tt.header)
		require.Equal(t, tt.want, got, tt.header)
	}
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	run := func(userID string, admin bool) (int, map[string]any) {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			if userID != "" {
				c.Set(UserIDKey, userID)
				c.Set(IsAdminKey, admin)
			}
			c.Next()
		})
		r.GET("/admin", RequireAdmin(), func(c *gin.Context) {
			c.JSON(200, gin.H{"ok": true})
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/admin", nil))
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return w.Code, body
	}

	code, body := run("", false)
	require.Equal(t, 401, code)
	require.Equal(t, false, body["success"])
	require.Equal(t, "Authorization header required", body["message"])

	code, body = run("u1", false)
	require.Equal(t, 403, code)
	require.Equal(t, "ADMIN_REQUIRED", body["code"])

	code, _ = run("u1", true)
	require.Equal(t, 200, code)
}
