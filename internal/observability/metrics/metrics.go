package metrics

import "github.com/prometheus/client_golang/prometheus"

// ClientMetrics exposes counters/histograms for booking API calls and
// realtime-driven refetches.
type ClientMetrics struct {
	requestsTotal  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	realtimeEvents *prometheus.CounterVec
	refetchesTotal *prometheus.CounterVec
}

func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	m := &ClientMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agenda",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total booking API requests by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agenda",
			Subsystem: "api",
			Name:      "request_latency_seconds",
			Help:      "Latency of booking API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		realtimeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agenda",
			Subsystem: "realtime",
			Name:      "events_total",
			Help:      "Change notifications received",
		}, []string{"table", "type"}),
		refetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agenda",
			Subsystem: "realtime",
			Name:      "refetches_total",
			Help:      "Refetches triggered by change notifications",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestLatency, m.realtimeEvents, m.refetchesTotal)
	return m
}

func (m *ClientMetrics) ObserveRequest(endpoint, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(endpoint, outcome).Inc()
	m.requestLatency.WithLabelValues(endpoint).Observe(seconds)
}

func (m *ClientMetrics) ObserveEvent(table, eventType string) {
	if m == nil {
		return
	}
	m.realtimeEvents.WithLabelValues(table, eventType).Inc()
}

func (m *ClientMetrics) ObserveRefetch(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.refetchesTotal.WithLabelValues(outcome).Inc()
}
