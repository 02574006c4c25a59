//nolint:testpackage // requires internal access to unexported types and functions
package monitoring

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollector(t *testing.T) {
	t.Run("disabled collector runs the stage without recording", func(t *testing.T) {
		collector := NewMetricsCollector(false)
		assert.False(t, collector.IsEnabled())

		calls := 0
		err := collector.RecordStage("load", func() (int, error) {
			calls++
			return 10, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Empty(t, collector.GetMetrics())
	})

	t.Run("records stage rows and duration", func(t *testing.T) {
		collector := NewMetricsCollector(true)

		err := collector.RecordStage("clean", func() (int, error) {
			time.Sleep(5 * time.Millisecond)
			return 120, nil
		})
		require.NoError(t, err)

		metrics := collector.GetMetrics()
		require.Len(t, metrics, 1)
		assert.Equal(t, "clean", metrics[0].Stage)
		assert.Equal(t, int64(120), metrics[0].RowsProcessed)
		assert.GreaterOrEqual(t, metrics[0].Duration, 5*time.Millisecond)
		assert.False(t, metrics[0].Failed)
	})

	t.Run("failed stage is recorded and the error returned", func(t *testing.T) {
		collector := NewMetricsCollector(true)
		boom := errors.New("boom")

		err := collector.RecordOperation("encode", func() error { return boom })

		require.ErrorIs(t, err, boom)
		metrics := collector.GetMetrics()
		require.Len(t, metrics, 1)
		assert.True(t, metrics[0].Failed)
		assert.Equal(t, int64(0), metrics[0].RowsProcessed)
	})

	t.Run("get metrics returns a copy", func(t *testing.T) {
		collector := NewMetricsCollector(true)
		require.NoError(t, collector.RecordOperation("load", func() error { return nil }))

		metrics := collector.GetMetrics()
		metrics[0].Stage = "changed"
		assert.Equal(t, "load", collector.GetMetrics()[0].Stage)
	})

	t.Run("clear and toggle", func(t *testing.T) {
		collector := NewMetricsCollector(true)
		require.NoError(t, collector.RecordOperation("load", func() error { return nil }))
		collector.Clear()
		assert.Empty(t, collector.GetMetrics())

		collector.SetEnabled(false)
		require.NoError(t, collector.RecordOperation("load", func() error { return nil }))
		assert.Empty(t, collector.GetMetrics())
	})

	t.Run("concurrent stages", func(t *testing.T) {
		collector := NewMetricsCollector(true)
		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = collector.RecordStage("fold", func() (int, error) { return 1, nil })
			}()
		}
		wg.Wait()
		assert.Len(t, collector.GetMetrics(), 20)
	})
}

func TestMetricsSummary(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		summary := NewMetricsCollector(true).GetSummary()
		assert.Equal(t, 0, summary.TotalStages)
		assert.Nil(t, summary.StageCounts)
	})

	t.Run("aggregates stages", func(t *testing.T) {
		collector := NewMetricsCollector(true)
		require.NoError(t, collector.RecordStage("load", func() (int, error) { return 100, nil }))
		require.NoError(t, collector.RecordStage("clean", func() (int, error) { return 100, nil }))
		_ = collector.RecordStage("search", func() (int, error) { return 80, errors.New("x") })

		summary := collector.GetSummary()
		assert.Equal(t, 3, summary.TotalStages)
		assert.Equal(t, 1, summary.FailedStages)
		assert.Equal(t, int64(280), summary.TotalRows)
		assert.Equal(t, map[string]int{"load": 1, "clean": 1, "search": 1}, summary.StageCounts)
		assert.Equal(t, summary.TotalDuration/3, summary.AverageDuration)
	})
}

func TestLogSummary(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	collector := NewMetricsCollector(true)
	collector.LogSummary(logger)
	assert.Empty(t, buf.String())

	require.NoError(t, collector.RecordStage("load", func() (int, error) { return 7, nil }))
	collector.LogSummary(logger)

	out := buf.String()
	assert.Contains(t, out, "stage=load")
	assert.Contains(t, out, "rows=7")
	assert.Contains(t, out, "pipeline timings")
	assert.Contains(t, out, "stages=1")
}
