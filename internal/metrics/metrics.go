// Package metrics exposes Prometheus metrics for the client: outbound API
// traffic, dashboard polling and wizard progress.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector on a private registry.
type Metrics struct {
	// API client
	APIRequestsTotal          *prometheus.CounterVec
	APIRequestDurationSeconds *prometheus.HistogramVec
	APIRequestsInFlight       prometheus.Gauge

	// Dashboard poller
	PollsTotal          *prometheus.CounterVec
	PollFailuresInARow  prometheus.Gauge
	LastPollSuccessUnix prometheus.Gauge

	// Compose wizard
	WizardStepsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a Metrics instance with all collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "addressable_api_requests_total",
				Help: "Total number of requests sent to the Addressable API",
			},
			[]string{"code", "method"},
		),
		APIRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "addressable_api_request_duration_seconds",
				Help:    "Addressable API request latency in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		),
		APIRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "addressable_api_requests_in_flight",
				Help: "Requests to the Addressable API currently in flight",
			},
		),
		PollsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "addressable_dashboard_polls_total",
				Help: "Dashboard refreshes by result",
			},
			[]string{"result"},
		),
		PollFailuresInARow: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "addressable_dashboard_consecutive_failures",
				Help: "Consecutive failed dashboard refreshes",
			},
		),
		LastPollSuccessUnix: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "addressable_dashboard_last_success_timestamp_seconds",
				Help: "Unix time of the last successful dashboard refresh",
			},
		),
		WizardStepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "addressable_compose_steps_total",
				Help: "Compose wizard step persists by step and result",
			},
			[]string{"step", "result"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.APIRequestsTotal,
		m.APIRequestDurationSeconds,
		m.APIRequestsInFlight,
		m.PollsTotal,
		m.PollFailuresInARow,
		m.LastPollSuccessUnix,
		m.WizardStepsTotal,
	)

	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// InstrumentTransport wraps next so every API round trip is counted and
// timed. A nil next means http.DefaultTransport.
func (m *Metrics) InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if m == nil {
		return next
	}
	return promhttp.InstrumentRoundTripperInFlight(m.APIRequestsInFlight,
		promhttp.InstrumentRoundTripperCounter(m.APIRequestsTotal,
			promhttp.InstrumentRoundTripperDuration(m.APIRequestDurationSeconds, next),
		),
	)
}

// ObservePoll records a dashboard refresh outcome.
func (m *Metrics) ObservePoll(ok bool, failuresInARow int, unix float64) {
	if m == nil {
		return
	}
	m.PollFailuresInARow.Set(float64(failuresInARow))
	if ok {
		m.PollsTotal.WithLabelValues("success").Inc()
		m.LastPollSuccessUnix.Set(unix)
		return
	}
	m.PollsTotal.WithLabelValues("failure").Inc()
}

// ObserveStep records a wizard persist for step.
func (m *Metrics) ObserveStep(step string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.WizardStepsTotal.WithLabelValues(step, result).Inc()
}
