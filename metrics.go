package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess      = "success"
	OutcomeFailure      = "failure"
	OutcomeGranted      = "granted"
	OutcomeDenied       = "denied"
	OutcomeInvalidToken = "invalid_token"
	OutcomeRejected     = "rejected"
	OutcomeError        = "error"
)

// Metrics records service outcomes
type Metrics interface {
	ObserveLogin(outcome string)
	ObserveAuthorize(outcome string, elapsed time.Duration)
	ObserveRegister(outcome string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveLogin(string)                    {}
func (noopMetrics) ObserveAuthorize(string, time.Duration) {}
func (noopMetrics) ObserveRegister(string)                 {}

func normalizeMetrics(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}

// PrometheusMetrics implements Metrics with client_golang collectors
type PrometheusMetrics struct {
	loginTotal        *prometheus.CounterVec
	authorizeTotal    *prometheus.CounterVec
	authorizeDuration *prometheus.HistogramVec
	registerTotal     *prometheus.CounterVec
}

// NewPrometheusMetrics creates the collectors and registers them on reg.
// A nil reg uses the default registerer.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &PrometheusMetrics{
		loginTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authz_login_total",
				Help: "Login attempts by outcome.",
			},
			[]string{"outcome"},
		),
		authorizeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authz_authorize_total",
				Help: "Authorization decisions by outcome.",
			},
			[]string{"outcome"},
		),
		authorizeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "authz_authorize_duration_seconds",
				Help:    "Authorization latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		registerTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authz_register_total",
				Help: "Registration attempts by outcome.",
			},
			[]string{"outcome"},
		),
	}

	for _, c := range []prometheus.Collector{m.loginTotal, m.authorizeTotal, m.authorizeDuration, m.registerTotal} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *PrometheusMetrics) ObserveLogin(outcome string) {
	m.loginTotal.WithLabelValues(outcome).Inc()
}

func (m *PrometheusMetrics) ObserveAuthorize(outcome string, elapsed time.Duration) {
	m.authorizeTotal.WithLabelValues(outcome).Inc()
	m.authorizeDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *PrometheusMetrics) ObserveRegister(outcome string) {
	m.registerTotal.WithLabelValues(outcome).Inc()
}
