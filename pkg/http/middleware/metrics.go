package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	applogger "NewsTrader/pkg/logger"
)

type httpMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
	size     *prometheus.HistogramVec
}

var (
	httpm     *httpMetrics
	httpmOnce sync.Once
)

func registerHTTPMetrics() *httpMetrics {
	httpmOnce.Do(func() {
		labels := []string{"route", "method", "status"}
		httpm = &httpMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "newstrader", Subsystem: "http",
				Name: "requests_total", Help: "HTTP requests by route and status",
			}, labels),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "newstrader", Subsystem: "http",
				Name: "request_seconds", Help: "HTTP request latency",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			}, labels),
			inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "newstrader", Subsystem: "http",
				Name: "in_flight", Help: "Requests being served, websocket sessions included",
			}, []string{"route"}),
			size: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "newstrader", Subsystem: "http",
				Name: "response_bytes", Help: "Response body size",
				Buckets: prometheus.ExponentialBuckets(256, 4, 8),
			}, labels),
		}
		prometheus.MustRegister(httpm.requests, httpm.latency, httpm.inFlight, httpm.size)
	})
	return httpm
}

// Metrics records per-route request metrics, using the route template as
// the label. Upgraded websocket sessions are counted but not timed. Requests
// slower than slowThreshold are logged.
func Metrics(l *applogger.Logger, slowThreshold time.Duration) echo.MiddlewareFunc {
	m := registerHTTPMetrics()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			gauge := m.inFlight.WithLabelValues(route)
			gauge.Inc()
			start := time.Now()

			// render errors here so the recorded status is the final one
			if err := next(c); err != nil {
				c.Error(err)
			}
			gauge.Dec()

			res := c.Response()
			status := strconv.Itoa(res.Status)
			m.requests.WithLabelValues(route, method, status).Inc()
			if res.Status == 101 {
				return nil
			}
			took := time.Since(start)
			m.latency.WithLabelValues(route, method, status).Observe(took.Seconds())
			m.size.WithLabelValues(route, method, status).Observe(float64(res.Size))

			switch {
			case l == nil:
			case res.Status >= 500:
				l.Error("http request failed", applogger.String("route", route), applogger.Int("status", res.Status), applogger.Duration("took", took))
			case slowThreshold > 0 && took >= slowThreshold:
				l.Warn("http request slow", applogger.String("route", route), applogger.Int("status", res.Status), applogger.Duration("took", took))
			}
			return nil
		}
	}
}
