package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "roadwatch_submissions_total",
	Help: "Report submissions by outcome",
}, []string{"outcome"})

var ClassifierVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "roadwatch_classifier_verdicts_total",
	Help: "Classifier verdicts on attached images",
}, []string{"verdict"})

var StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "roadwatch_status_transitions_total",
	Help: "Moderation status changes by target and result",
}, []string{"target", "result"})

var GeolocationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "roadwatch_geolocation_failures_total",
	Help: "Failed location captures by kind",
}, []string{"kind"})

var DraftsOpen = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "roadwatch_drafts_open",
	Help: "Draft submissions currently cached",
})

var RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "roadwatch_rate_limited_total",
	Help: "Requests rejected by a rate limiter",
}, []string{"limiter"})

var httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "roadwatch_http_request_duration_seconds",
	Help:    "HTTP request latency",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route", "status"})

// Middleware records request latency against the matched route template
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
