package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	close(ch)

	var total float64
	for m := range ch {
		var pb dto.Metric
		if err := m.Write(&pb); err != nil {
			t.Fatal(err)
		}
		if pb.Counter != nil {
			total += pb.Counter.GetValue()
		}
		if pb.Gauge != nil {
			total += pb.Gauge.GetValue()
		}
	}
	return total
}

func TestNewMetrics_RegistersAll(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordRequest("/v1/sign", 200)
	m.RecordUpstream("geocode", "ok", 12)
	m.RecordValidationFailure("distancematrix", "Origins")
	m.RecordSigned("geocode", "sensor_only")
	m.RecordCache("geocode", true)
	m.RecordRateLimitHit("api", "geocode")
	m.RecordPolicyDenial("search")
	m.SetCircuitState("geocode", 1)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	if len(families) != 9 {
		t.Errorf("len(families) = %d, want 9", len(families))
	}
}

func TestRecordUpstream(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordUpstream("geocode", "ok", 40)
	m.RecordUpstream("geocode", "ok", 60)
	m.RecordUpstream("geocode", "timed_out", 0)

	if got := counterValue(t, m.UpstreamTotal.WithLabelValues("geocode", "ok")); got != 2 {
		t.Errorf("ok count = %v, want 2", got)
	}
	if got := counterValue(t, m.UpstreamTotal.WithLabelValues("geocode", "timed_out")); got != 1 {
		t.Errorf("timed_out count = %v, want 1", got)
	}

	var pb dto.Metric
	if err := m.UpstreamDurationMs.WithLabelValues("geocode").(prometheus.Metric).Write(&pb); err != nil {
		t.Fatal(err)
	}
	if got := pb.Histogram.GetSampleCount(); got != 2 {
		t.Errorf("histogram samples = %d, want 2 (zero durations are skipped)", got)
	}
}

func TestRecordCache(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordCache("search", true)
	m.RecordCache("search", false)
	m.RecordCache("search", false)

	if got := counterValue(t, m.CacheTotal.WithLabelValues("search", "miss")); got != 2 {
		t.Errorf("miss count = %v, want 2", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/health", 200)
	m.RecordUpstream("geocode", "ok", 1)
	m.RecordCache("geocode", true)
	m.SetCircuitState("geocode", 0)
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "2xx"}, {302, "3xx"}, {404, "4xx"}, {499, "4xx"}, {503, "5xx"},
	}
	for _, tt := range tests {
		if got := statusClass(tt.code); got != tt.want {
			t.Errorf("statusClass(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
