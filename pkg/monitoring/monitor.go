package monitoring

import (
	"strconv"
	"sync"
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

	SchemaVersion = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "eportfolio_schema_version",
			Help: "Highest applied upgrade step of the ePortfolio schema",
		},
	)

	UpgradeStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eportfolio_upgrade_steps_total",
			Help: "Upgrade steps by result",
		},
		[]string{"result"},
	)

	GradesSavedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eportfolio_grades_saved_total",
			Help: "Grading records saved, by outcome (inserted, updated, failed)",
		},
		[]string{"outcome"},
	)

	WithdrawalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eportfolio_withdrawals_total",
			Help: "Submission withdrawals, by stage (requested, confirmed, mismatched, failed)",
		},
		[]string{"stage"},
	)

	MessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eportfolio_messages_total",
			Help: "Notifications handed to a messaging provider",
		},
		[]string{"provider", "result"},
	)

	GradebookPushTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eportfolio_gradebook_push_total",
			Help: "Gradebook pushes by provider and result",
		},
		[]string{"provider", "result"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(SchemaVersion)
		prometheus.MustRegister(UpgradeStepsTotal)
		prometheus.MustRegister(GradesSavedTotal)
		prometheus.MustRegister(WithdrawalsTotal)
		prometheus.MustRegister(MessagesTotal)
		prometheus.MustRegister(GradebookPushTotal)
	})
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
