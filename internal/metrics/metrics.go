package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskapi",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of API requests broken down by route and status.",
	}, []string{"route", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "taskapi",
		Subsystem: "http",
		Name:      "latency_seconds",
		Help:      "Latency distribution for API requests.",
		Buckets: []float64{
			0.005, 0.01, 0.02, 0.05,
			0.1, 0.2, 0.5,
			1, 2, 5,
		},
	}, []string{"route"})

	softFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskapi",
		Subsystem: "write",
		Name:      "soft_failures_total",
		Help:      "Best-effort write steps that failed and were swallowed, by step kind.",
	}, []string{"step"})
)

// RecordSoftFailure counts one swallowed best-effort failure.
func RecordSoftFailure(step string) {
	if step == "" {
		step = "other"
	}
	softFailures.WithLabelValues(step).Inc()
}

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		httpLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry for scraping.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
