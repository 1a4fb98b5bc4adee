package gateway

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes recorded by Metrics.
const (
	OutcomeSuccess    = "success"
	OutcomeNetwork    = "network"
	OutcomeServer     = "server"
	OutcomeValidation = "validation"
)

// Metrics counts gateway requests and observes their latency. One Metrics
// is shared by the gateways of every kind.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the gateway collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sndeals",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Gateway requests by entity kind, operation, and outcome.",
		}, []string{"kind", "op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sndeals",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Round-trip time of gateway requests that reached the transport.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "op"}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) count(kind, op, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(kind, op, outcome).Inc()
}

func (m *Metrics) observe(kind, op string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(kind, op).Observe(d.Seconds())
}
