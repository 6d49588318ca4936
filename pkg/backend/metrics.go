package backend

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/papercomputeco/chatdeck/pkg/utils"
)

const metricsNamespace = "chatdeck"

// metrics instruments backend calls per endpoint.
type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Backend requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Backend request latency until response headers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}

	if reg == nil {
		return m
	}

	m.requests = utils.RegisterCollector(reg, m.requests)
	m.duration = utils.RegisterCollector(reg, m.duration)

	return m
}

func (m *metrics) observe(endpoint Endpoint, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.requests.WithLabelValues(string(endpoint), outcome).Inc()
	m.duration.WithLabelValues(string(endpoint)).Observe(time.Since(start).Seconds())
}
