package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(200) })
	r.GET("/metrics", Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	require.Equal(t, 200, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, w.Code)
	require.True(t, strings.Contains(w.Body.String(), `roadwatch_http_request_duration_seconds_count{method="GET",route="/ping",status="200"}`))
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(Submissions.WithLabelValues("succeeded"))
	Submissions.WithLabelValues("succeeded").Inc()
	require.Equal(t, before+1, testutil.ToFloat64(Submissions.WithLabelValues("succeeded")))
}
