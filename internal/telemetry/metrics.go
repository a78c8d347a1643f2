package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics of the gateway.
type Metrics struct {
	RequestTotal       *prometheus.CounterVec
	UpstreamTotal      *prometheus.CounterVec
	UpstreamDurationMs *prometheus.HistogramVec
	ValidationFailures *prometheus.CounterVec
	SignedTotal        *prometheus.CounterVec
	CacheTotal         *prometheus.CounterVec
	RateLimitHits      *prometheus.CounterVec
	PolicyDenials      *prometheus.CounterVec
	CircuitState       *prometheus.GaugeVec
}

// NewMetrics creates the metrics and registers them with reg. A nil reg uses
// the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		RequestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "googleapi_request_total",
			Help: "Gateway requests by route and HTTP status.",
		}, []string{"route", "status"}),

		UpstreamTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "googleapi_upstream_request_total",
			Help: "Calls to Google web services by API and outcome.",
		}, []string{"api", "outcome"}),

		UpstreamDurationMs: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "googleapi_upstream_duration_ms",
			Help:    "Latency of Google web-service calls in milliseconds.",
			Buckets: []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"api"}),

		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "googleapi_validation_failures_total",
			Help: "Requests rejected before sending, by API and failing field.",
		}, []string{"api", "field"}),

		SignedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "googleapi_signed_request_total",
			Help: "Requests signed with a premium client id, by API and redaction policy.",
		}, []string{"api", "policy"}),

		CacheTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "googleapi_cache_total",
			Help: "Response cache lookups by API and result.",
		}, []string{"api", "result"}),

		RateLimitHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "googleapi_rate_limit_hits_total",
			Help: "Requests rejected by quota.",
		}, []string{"scope", "api"}),

		PolicyDenials: f.NewCounterVec(prometheus.CounterOpts{
			Name: "googleapi_policy_denials_total",
			Help: "Requests denied by access policy.",
		}, []string{"api"}),

		CircuitState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "googleapi_circuit_state",
			Help: "Circuit breaker state per API (0 closed, 1 open, 2 half-open).",
		}, []string{"api"}),
	}
}

// RecordUpstream records one Google call. outcome is "ok" or a failure kind.
func (m *Metrics) RecordUpstream(api, outcome string, durationMs float64) {
	if m == nil {
		return
	}
	m.UpstreamTotal.WithLabelValues(api, outcome).Inc()
	if durationMs > 0 {
		m.UpstreamDurationMs.WithLabelValues(api).Observe(durationMs)
	}
}

func (m *Metrics) RecordRequest(route string, status int) {
	if m == nil {
		return
	}
	m.RequestTotal.WithLabelValues(route, statusClass(status)).Inc()
}

func (m *Metrics) RecordValidationFailure(api, field string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(api, field).Inc()
}

func (m *Metrics) RecordSigned(api, policy string) {
	if m == nil {
		return
	}
	m.SignedTotal.WithLabelValues(api, policy).Inc()
}

func (m *Metrics) RecordCache(api string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheTotal.WithLabelValues(api, result).Inc()
}

func (m *Metrics) RecordRateLimitHit(scope, api string) {
	if m == nil {
		return
	}
	m.RateLimitHits.WithLabelValues(scope, api).Inc()
}

func (m *Metrics) RecordPolicyDenial(api string) {
	if m == nil {
		return
	}
	m.PolicyDenials.WithLabelValues(api).Inc()
}

func (m *Metrics) SetCircuitState(api string, state int) {
	if m == nil {
		return
	}
	m.CircuitState.WithLabelValues(api).Set(float64(state))
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
