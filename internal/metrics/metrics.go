package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	workflowTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_workflow_total",
			Help: "Finished create/edit submissions by outcome",
		},
		[]string{"workflow", "outcome"},
	)

	compensatingDeleteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_compensating_delete_failures_total",
			Help: "Rollbacks whose product delete failed after every retry",
		},
	)

	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_uploads_total",
			Help: "Image uploads by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(workflowTotal)
	prometheus.MustRegister(compensatingDeleteFailures)
	prometheus.MustRegister(uploadsTotal)
}

// Middleware records request count and latency per route pattern.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		httpRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

func RecordWorkflow(workflow, outcome string) {
	workflowTotal.WithLabelValues(workflow, outcome).Inc()
}

func RecordCompensatingDeleteFailure() {
	compensatingDeleteFailures.Inc()
}

func RecordUpload(outcome string) {
	uploadsTotal.WithLabelValues(outcome).Inc()
}
