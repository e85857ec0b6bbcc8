package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/discochess/connect4/internal/stats"
)

func TestCollector_Totals(t *testing.T) {
	c := New(nil)
	c.IncCounter(stats.MetricNodes, 10)
	c.IncCounter(stats.MetricNodes, 5)
	c.SetGauge(stats.MetricTableSize, 3)
	c.SetGauge(stats.MetricTableSize, 7)
	c.ObserveHistogram(stats.MetricSearchSeconds, 0.5)

	totals := c.Totals()
	if got := totals[stats.MetricNodes]; got != 15 {
		t.Errorf("totals[nodes] = %d, want 15", got)
	}
	if got := totals[stats.MetricTableSize]; got != 7 {
		t.Errorf("totals[size] = %d, want 7", got)
	}
	if _, ok := totals[stats.MetricSearchSeconds]; ok {
		t.Error("histograms should not be accumulated")
	}
}

func TestCollector_Flush(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := New(zap.New(core))

	c.IncCounter(stats.MetricHits, 2)
	c.Flush()

	if got := logs.FilterMessage("counter").Len(); got != 1 {
		t.Errorf("debug counter entries = %d, want 1", got)
	}
	summary := logs.FilterMessage("metrics").All()
	if len(summary) != 1 {
		t.Fatalf("summary entries = %d, want 1", len(summary))
	}
	if got := summary[0].ContextMap()[stats.MetricHits]; got != int64(2) {
		t.Errorf("summary %s = %v, want 2", stats.MetricHits, got)
	}
}
