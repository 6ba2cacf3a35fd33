package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth outcomes reported by the authentication pipeline and login.
const (
	OutcomeAuthenticated  = "authenticated"
	OutcomeMissingToken   = "missing_token"
	OutcomeInvalidToken   = "invalid_token"
	OutcomeExpiredToken   = "expired_token"
	OutcomeUnknownSubject = "unknown_subject"
	OutcomeUpstreamError  = "upstream_unavailable"
	OutcomeLoginSucceeded = "login_succeeded"
	OutcomeLoginFailed    = "login_failed"
	OutcomeRenewed        = "renewed"
	OutcomeForbidden      = "forbidden"
)

type Metrics struct {
	AuthOutcomes    *prometheus.CounterVec
	IdentityLookups *prometheus.CounterVec

	HTTPInFlight        prometheus.Gauge
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		AuthOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_outcomes_total",
			Help: "Authentication and authorization outcomes.",
		}, []string{"outcome"}),
		IdentityLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_lookups_total",
			Help: "Identity resolutions by satisfying source.",
		}, []string{"source"}),
		HTTPInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		gatherer: reg,
	}
	reg.MustRegister(m.AuthOutcomes, m.IdentityLookups, m.HTTPInFlight, m.HTTPRequestsTotal, m.HTTPRequestDuration)
	return m
}

func (m *Metrics) ObserveAuth(outcome string) {
	if m == nil {
		return
	}
	m.AuthOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveLookup(source string) {
	if m == nil {
		return
	}
	m.IdentityLookups.WithLabelValues(source).Inc()
}

// Middleware records request count and latency keyed by the matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.HTTPInFlight.Inc()
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		m.HTTPInFlight.Dec()
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
