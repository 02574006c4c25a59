// Package monitoring records per-stage timings for training runs.
package monitoring

import (
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// StageMetrics holds the measurements taken for one pipeline stage.
type StageMetrics struct {
	Stage         string        `json:"stage"`
	Duration      time.Duration `json:"duration"`
	RowsProcessed int64         `json:"rows_processed"`
	MemoryUsed    int64         `json:"memory_used"`
	Failed        bool          `json:"failed"`
}

// MetricsCollector collects stage metrics in the order stages complete.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics []StageMetrics
	enabled bool
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(enabled bool) *MetricsCollector {
	return &MetricsCollector{
		metrics: make([]StageMetrics, 0),
		enabled: enabled,
	}
}

// IsEnabled returns whether metrics collection is enabled.
func (mc *MetricsCollector) IsEnabled() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.enabled
}

// RecordOperation runs fn as a stage that does not report a row count.
func (mc *MetricsCollector) RecordOperation(stage string, fn func() error) error {
	return mc.RecordStage(stage, func() (int, error) {
		return 0, fn()
	})
}

// RecordStage executes fn and records its duration, the rows it reports
// and the heap growth observed around it. Failed stages are recorded too.
func (mc *MetricsCollector) RecordStage(stage string, fn func() (int, error)) error {
	if !mc.IsEnabled() {
		_, err := fn()
		return err
	}

	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)
	start := time.Now()

	rows, err := fn()

	duration := time.Since(start)
	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)

	// Alloc can shrink when a collection runs mid-stage.
	memoryUsed := int64(memAfter.Alloc) - int64(memBefore.Alloc) //nolint:gosec // heap sizes fit in int64

	mc.mu.Lock()
	mc.metrics = append(mc.metrics, StageMetrics{
		Stage:         stage,
		Duration:      duration,
		RowsProcessed: int64(rows),
		MemoryUsed:    memoryUsed,
		Failed:        err != nil,
	})
	mc.mu.Unlock()

	return err
}

// GetMetrics returns a copy of all collected metrics.
func (mc *MetricsCollector) GetMetrics() []StageMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make([]StageMetrics, len(mc.metrics))
	copy(result, mc.metrics)
	return result
}

// Clear removes all collected metrics.
func (mc *MetricsCollector) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics = mc.metrics[:0]
}

// SetEnabled enables or disables metrics collection.
func (mc *MetricsCollector) SetEnabled(enabled bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.enabled = enabled
}

// GetSummary returns a summary of collected metrics.
func (mc *MetricsCollector) GetSummary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if len(mc.metrics) == 0 {
		return MetricsSummary{}
	}

	var summary MetricsSummary
	summary.StageCounts = make(map[string]int)
	for _, metric := range mc.metrics {
		summary.TotalDuration += metric.Duration
		summary.TotalMemory += metric.MemoryUsed
		summary.TotalRows += metric.RowsProcessed
		summary.StageCounts[metric.Stage]++
		if metric.Failed {
			summary.FailedStages++
		}
	}
	summary.TotalStages = len(mc.metrics)
	summary.AverageDuration = summary.TotalDuration / time.Duration(len(mc.metrics))
	return summary
}

// LogSummary writes one debug record per stage followed by an info record
// with the totals. It is a no-op when nothing was recorded.
func (mc *MetricsCollector) LogSummary(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, m := range mc.GetMetrics() {
		logger.Debug("stage finished",
			"stage", m.Stage,
			"duration", m.Duration,
			"rows", m.RowsProcessed,
			"memory_bytes", m.MemoryUsed,
			"failed", m.Failed,
		)
	}
	summary := mc.GetSummary()
	if summary.TotalStages == 0 {
		return
	}
	logger.Info("pipeline timings",
		"stages", summary.TotalStages,
		"failed", summary.FailedStages,
		"total", summary.TotalDuration,
		"average", summary.AverageDuration,
	)
}

// MetricsSummary provides aggregate statistics for collected metrics.
type MetricsSummary struct {
	TotalStages     int            `json:"total_stages"`
	FailedStages    int            `json:"failed_stages"`
	TotalDuration   time.Duration  `json:"total_duration"`
	TotalMemory     int64          `json:"total_memory"`
	TotalRows       int64          `json:"total_rows"`
	StageCounts     map[string]int `json:"stage_counts"`
	AverageDuration time.Duration  `json:"average_duration"`
}
