package dashboard

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	sensor_simulator "github.com/LeonardoBeccarini/smartfarm/internal/sensor-simulator"
)

// Metrics is nil-safe: every method is a no-op on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	refreshRequests   *prometheus.CounterVec
	refreshLatency    *prometheus.HistogramVec
	latestValue       *prometheus.GaugeVec
	alertActive       *prometheus.GaugeVec
	cbState           *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		refreshRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farm_refresh_requests_total",
			Help: "Refresh requests by page and result (accepted, rejected).",
		}, []string{"page", "result"}),
		refreshLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "farm_refresh_latency_seconds",
			Help:    "Time between a refresh request and the new series being swapped in.",
			Buckets: []float64{.25, .5, 1, 1.5, 2, 5},
		}, []string{"page"}),
		latestValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "farm_latest_reading",
			Help: "Latest generated reading per page and channel.",
		}, []string{"page", "channel"}),
		alertActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "farm_alert_active",
			Help: "1 when the latest reading is flagged under the page policy.",
		}, []string{"page", "channel"}),
		cbState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cb_state",
			Help: "Circuit breaker state gauge (0 closed, 1 half, 2 open).",
		}, []string{"target"}),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.refreshRequests,
		m.refreshLatency,
		m.latestValue,
		m.alertActive,
		m.cbState,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Middleware records request count and latency labelled by the mux route template.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RefreshRequested(page string, accepted bool) {
	if m == nil {
		return
	}
	result := "accepted"
	if !accepted {
		result = "rejected"
	}
	m.refreshRequests.WithLabelValues(page, result).Inc()
}

// ObserveSnapshot exports the latest readings and alert flags of a page.
func (m *Metrics) ObserveSnapshot(snap Snapshot) {
	if m == nil {
		return
	}
	for _, v := range snap.Channels {
		m.latestValue.WithLabelValues(snap.Page, string(v.Channel)).Set(v.Value)
		alert := 0.0
		if v.Status.Alert {
			alert = 1
		}
		m.alertActive.WithLabelValues(snap.Page, string(v.Channel)).Set(alert)
	}
}

func (m *Metrics) ObserveRefresh(res sensor_simulator.RefreshResult) {
	if m == nil {
		return
	}
	m.refreshLatency.WithLabelValues(res.Name).Observe(res.CompletedAt.Sub(res.RequestedAt).Seconds())
}

func (m *Metrics) SetCircuitBreakerState(target string, state float64) {
	if m == nil {
		return
	}
	m.cbState.WithLabelValues(target).Set(state)
}
