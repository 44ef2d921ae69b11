package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestClientMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewClientMetrics(reg)
	m.ObserveRequest("list_appointments", "ok", 0.2)
	m.ObserveRequest("list_appointments", "unauthorized", 0.1)
	m.ObserveEvent("agendamentos", "INSERT")
	m.ObserveRefetch(nil)
	m.ObserveRefetch(errors.New("boom"))

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("list_appointments", "ok")); got != 1 {
		t.Fatalf("requests ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.refetchesTotal.WithLabelValues("error")); got != 1 {
		t.Fatalf("refetch errors = %v, want 1", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var latency *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "agenda_api_request_latency_seconds" {
			latency = f
		}
	}
	if latency == nil {
		t.Fatal("latency histogram not registered")
	}
	if count := latency.GetMetric()[0].GetHistogram().GetSampleCount(); count != 2 {
		t.Fatalf("latency samples = %d, want 2", count)
	}
}

func TestClientMetricsNilSafe(t *testing.T) {
	var m *ClientMetrics
	m.ObserveRequest("endpoint", "ok", 0.1)
	m.ObserveEvent("table", "UPDATE")
	m.ObserveRefetch(nil)
}
