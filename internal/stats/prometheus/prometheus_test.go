package prometheus

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/discochess/connect4/internal/stats"
)

func find(t *testing.T, reg *prometheus.Registry, name string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, f := range families {
		if f.GetName() == name && len(f.GetMetric()) > 0 {
			return f.GetMetric()[0]
		}
	}
	t.Fatalf("metric %s not found in registry", name)
	return nil
}

func TestNew_DefaultRegistry(t *testing.T) {
	c := New(nil)
	if c.registry == nil {
		t.Error("registry should not be nil")
	}
}

func TestCollector_IncCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncCounter(stats.MetricNodes, 5)
	c.IncCounter(stats.MetricNodes, 3)

	if got := find(t, reg, stats.MetricNodes).GetCounter().GetValue(); got != 8 {
		t.Errorf("counter value = %v, want 8", got)
	}
}

func TestCollector_SetGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.SetGauge(stats.MetricTableSize, 10)
	c.SetGauge(stats.MetricTableSize, 4)

	if got := find(t, reg, stats.MetricTableSize).GetGauge().GetValue(); got != 4 {
		t.Errorf("gauge value = %v, want 4", got)
	}
}

func TestCollector_ObserveHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveHistogram(stats.MetricSearchSeconds, 0.01)
	c.ObserveHistogram(stats.MetricSearchSeconds, 0.02)

	h := find(t, reg, stats.MetricSearchSeconds).GetHistogram()
	if h.GetSampleCount() != 2 {
		t.Errorf("sample count = %d, want 2", h.GetSampleCount())
	}
	if len(h.GetBucket()) != len(searchBuckets) {
		t.Errorf("bucket count = %d, want %d", len(h.GetBucket()), len(searchBuckets))
	}
}

func TestCollector_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, b := New(reg), New(reg)

	a.IncCounter(stats.MetricHits, 1)
	b.IncCounter(stats.MetricHits, 2)

	if got := find(t, reg, stats.MetricHits).GetCounter().GetValue(); got != 3 {
		t.Errorf("counter value = %v, want 3", got)
	}
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg).IncCounter(stats.MetricSearches, 1)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), stats.MetricSearches+" 1") {
		t.Errorf("metrics output missing %s:\n%s", stats.MetricSearches, body)
	}
}
