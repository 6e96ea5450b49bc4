package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "expenses",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"method", "route", "status"},
	)

	requestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "expenses",
		Subsystem: "http",
		Name:      "requests_in_flight",
	})
)

// MetricsMiddleware records per-route latency for GET /metrics.
type MetricsMiddleware struct{}

func NewMetricsMiddleware() *MetricsMiddleware {
	return &MetricsMiddleware{}
}

func (m *MetricsMiddleware) Observe() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestsInFlight.Inc()
			defer requestsInFlight.Dec()

			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			requestDuration.
				WithLabelValues(c.Request().Method, route, strconv.Itoa(statusFromError(c, err))).
				Observe(time.Since(start).Seconds())

			return err
		}
	}
}
