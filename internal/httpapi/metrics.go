package httpapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sentrywatch/sentrywatch/internal/model"
)

// serverMetrics wires the Prometheus counters/histograms grounded on
// tareqmamari-cloud-logs-mcp's internal/metrics: per-route/status request
// counts, a request latency histogram, and an alerts-emitted counter keyed
// by alert kind, fed directly from the detector's output.
type serverMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	alertsEmitted   *prometheus.CounterVec
}

var (
	sharedMetricsOnce sync.Once
	sharedMetrics     *serverMetrics
)

// newServerMetrics registers the collectors with the default Prometheus
// registry on first use and returns the same set to every later Server, since
// registering the same metric names twice panics.
func newServerMetrics() *serverMetrics {
	sharedMetricsOnce.Do(func() {
		sharedMetrics = buildServerMetrics()
	})
	return sharedMetrics
}

func buildServerMetrics() *serverMetrics {
	return &serverMetrics{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sentrywatch_http_requests_total",
			Help: "Total HTTP requests handled by the sentrywatch API, labeled by route and status.",
		}, []string{"route", "status"}),
		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sentrywatch_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		alertsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sentrywatch_alerts_emitted_total",
			Help: "Total alerts emitted by the detector, labeled by alert kind.",
		}, []string{"kind"}),
	}
}

// observeAlerts records one counter increment per alert in alerts.
func (m *serverMetrics) observeAlerts(alerts []model.Alert) {
	for _, a := range alerts {
		m.alertsEmitted.WithLabelValues(string(a.AlertKind)).Inc()
	}
}

// instrument wraps a handler, recording its status and latency under route.
func (m *serverMetrics) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
