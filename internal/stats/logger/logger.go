// Package logger provides a zap-based stats collector that logs metrics.
//
// Individual updates are logged at debug level; counters and gauges are also
// accumulated so Flush can log a one-line summary at the end of a run.
package logger

import (
	"maps"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/discochess/connect4/internal/stats"
)

// Collector implements stats.Collector by logging metrics via zap.
type Collector struct {
	logger *zap.Logger

	mu     sync.Mutex
	totals map[string]int64
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// New creates a new logger-based collector.
// If logger is nil, a no-op logger is used.
func New(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		logger: logger,
		totals: make(map[string]int64),
	}
}

// IncCounter logs a counter increment.
func (c *Collector) IncCounter(name string, delta int64) {
	c.mu.Lock()
	c.totals[name] += delta
	c.mu.Unlock()

	c.logger.Debug("counter",
		zap.String("metric", name),
		zap.Int64("delta", delta),
	)
}

// SetGauge logs a gauge value.
func (c *Collector) SetGauge(name string, value int64) {
	c.mu.Lock()
	c.totals[name] = value
	c.mu.Unlock()

	c.logger.Debug("gauge",
		zap.String("metric", name),
		zap.Int64("value", value),
	)
}

// ObserveHistogram logs a histogram observation.
func (c *Collector) ObserveHistogram(name string, value float64) {
	c.logger.Debug("histogram",
		zap.String("metric", name),
		zap.Float64("value", value),
	)
}

// Totals returns a copy of the accumulated counter and gauge values.
func (c *Collector) Totals() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.totals)
}

// Flush logs every accumulated value at info level.
func (c *Collector) Flush() {
	totals := c.Totals()
	fields := make([]zap.Field, 0, len(totals))
	for _, name := range slices.Sorted(maps.Keys(totals)) {
		fields = append(fields, zap.Int64(name, totals[name]))
	}
	c.logger.Info("metrics", fields...)
}
