package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	gateRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snarkgate_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	gateRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snarkgate_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	gateDispatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snarkgate_dispatches_total",
		Help: "Total kernel dispatches by result.",
	}, []string{"result"})

	gateDispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "snarkgate_dispatch_duration_seconds",
		Help:    "Kernel dispatch duration in seconds, lock wait excluded.",
		Buckets: prometheus.DefBuckets,
	})

	gateSubmissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snarkgate_submissions_total",
		Help: "Total proof submissions accepted by the kernel.",
	})

	gateRateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snarkgate_rate_limited_total",
		Help: "Total requests rejected by the per-client rate limiter.",
	})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		gateRequestsTotal.WithLabelValues(method, path, status).Inc()
		gateRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordDispatch records one kernel dispatch result. Wired into the bridge
// as its metrics callback.
func RecordDispatch(result string, d time.Duration) {
	gateDispatchesTotal.WithLabelValues(result).Inc()
	gateDispatchDuration.Observe(d.Seconds())
}

// RecordSubmission records a proof submission accepted by the kernel.
func RecordSubmission() {
	gateSubmissionsTotal.Inc()
}

// RecordRateLimited records one request rejected by the rate limiter.
func RecordRateLimited() {
	gateRateLimitedTotal.Inc()
}
