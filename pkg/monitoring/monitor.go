package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	GradingCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_task_gradings_total",
			Help: "Task gradings recorded, by exercise type and resulting progress",
		},
		[]string{"exercise_type", "progress"},
	)

	GraderCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_grader_call_duration_seconds",
			Help:    "Duration of outbound grader service calls",
			Buckets: []float64{0.1, 0.5, 1, 5, 30, 120},
		},
		[]string{"exercise_type"},
	)

	PeerReviewCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_peer_reviews_given_total",
			Help: "Peer review submissions accepted",
		},
	)

	CompletionCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_module_completions_total",
			Help: "Course module completions granted automatically",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(GradingCounter)
	prometheus.MustRegister(GraderCallDuration)
	prometheus.MustRegister(PeerReviewCounter)
	prometheus.MustRegister(CompletionCounter)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
