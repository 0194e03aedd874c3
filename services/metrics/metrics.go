// Package metricsvc exports wizard and HTTP metrics to prometheus.
package metricsvc

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/kaushal/core/wizard"
)

const namespace = "kaushal"

// Metrics is a wizard.Observer backed by prometheus collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	Transitions         *prometheus.CounterVec
	Submissions         *prometheus.CounterVec
	SubmissionDuration  *prometheus.HistogramVec
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var _ wizard.Observer = (*Metrics)(nil)

// New registers the collectors on a fresh registry, along with the go & process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWithRegistry(reg, reg)
}

func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		gatherer: gatherer,
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "wizard",
				Name:      "transitions_total",
				Help:      "Total number of wizard transitions by flow, action and outcome",
			},
			[]string{"flow", "action", "outcome"},
		),
		Submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "wizard",
				Name:      "submissions_total",
				Help:      "Total number of submissions by flow and status",
			},
			[]string{"flow", "status"},
		),
		SubmissionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "wizard",
				Name:      "submission_duration_seconds",
				Help:      "Duration of submissions in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"flow"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}
	reg.MustRegister(m.Transitions, m.Submissions, m.SubmissionDuration, m.HTTPRequests, m.HTTPRequestDuration)
	return m
}

func (m *Metrics) ObserveTransition(flow, action, outcome string) {
	m.Transitions.WithLabelValues(flow, action, outcome).Inc()
}

func (m *Metrics) ObserveSubmission(flow, status string, elapsed time.Duration) {
	m.Submissions.WithLabelValues(flow, status).Inc()
	m.SubmissionDuration.WithLabelValues(flow).Observe(elapsed.Seconds())
}

// Handler serves the metrics in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
