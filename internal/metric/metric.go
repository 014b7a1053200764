// Package metric exposes Prometheus metrics for dispatch and gateway health.
package metric

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oggyb/polysms/internal/domain/message"
	"github.com/oggyb/polysms/internal/sms"
)

const namespace = "polysms"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics owns a dedicated registry and the dispatch collectors.
type Metrics struct {
	registry *prometheus.Registry

	SmsSent             *prometheus.CounterVec
	ActionErrors        *prometheus.CounterVec
	GatewayUp           *prometheus.GaugeVec
	HealthCheckDuration *prometheus.HistogramVec
	BulkBatchSize       prometheus.Histogram
}

// New creates the collectors and registers them with Go runtime metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SmsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sms_sent_total",
			Help:      "Messages dispatched, by gateway and outcome.",
		}, []string{"gateway", "outcome"}),
		ActionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "after_send_action_errors_total",
			Help:      "After-send actions that failed or panicked, by gateway.",
		}, []string{"gateway"}),
		GatewayUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gateway_up",
			Help:      "1 when the last health check of the gateway passed.",
		}, []string{"gateway"}),
		HealthCheckDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_health_check_duration_seconds",
			Help:      "Duration of gateway health checks.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"gateway"}),
		BulkBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bulk_batch_size",
			Help:      "Number of messages per bulk request.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 6),
		}),
	}

	m.registry.MustRegister(
		m.SmsSent,
		m.ActionErrors,
		m.GatewayUp,
		m.HealthCheckDuration,
		m.BulkBatchSize,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// AfterSend counts a dispatched message. It has the manager.ActionFunc shape.
func (m *Metrics) AfterSend(_ context.Context, res *sms.Result, _ message.Envelope) error {
	outcome := OutcomeFailure
	if res.Success {
		outcome = OutcomeSuccess
	}
	m.SmsSent.WithLabelValues(res.Gateway, outcome).Inc()
	return nil
}

// ActionError counts an after-send failure. It has the
// manager.ActionErrorHandler shape.
func (m *Metrics) ActionError(_ context.Context, gateway string, _ error) {
	m.ActionErrors.WithLabelValues(gateway).Inc()
}

// ObserveHealth records a health check result.
func (m *Metrics) ObserveHealth(gateway string, took time.Duration, err error) {
	m.HealthCheckDuration.WithLabelValues(gateway).Observe(took.Seconds())
	up := 1.0
	if err != nil {
		up = 0
	}
	m.GatewayUp.WithLabelValues(gateway).Set(up)
}

// ObserveBulk records the size of a bulk request.
func (m *Metrics) ObserveBulk(size int) {
	m.BulkBatchSize.Observe(float64(size))
}
