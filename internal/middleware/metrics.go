package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chamados_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chamados_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	authorizationDenials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chamados_authorization_denials_total",
		Help: "Requests rejected for missing permissions.",
	})

	writeConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chamados_write_conflicts_total",
		Help: "Status or approval writes lost to a concurrent writer.",
	})
)

// Metrics records request counts and latencies per route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route,
			strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).
			Observe(time.Since(start).Seconds())
	}
}

// CountDenial increments the authorization-denial counter.
func CountDenial() { authorizationDenials.Inc() }

// CountConflict increments the write-conflict counter.
func CountConflict() { writeConflicts.Inc() }
