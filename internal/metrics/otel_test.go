package metrics

import (
	"context"
	"testing"
	"time"

	"bankcore/internal/services/transfer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var _ transfer.MetricsCollector = (*OtelCollector)(nil)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestOtelCollector(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	c, err := NewOtelCollector(provider)
	require.NoError(t, err)

	c.RecordOperationDuration(transfer.OperationExecute, 15*time.Millisecond)
	c.RecordOperationResult(transfer.OperationExecute, transfer.ResultSuccess)
	c.RecordOperationResult(transfer.OperationExecute, transfer.ResultFailure)
	c.RecordError(transfer.OperationExecute, "INSUFFICIENT_FUNDS")
	c.RecordTransaction("TRANSFER", 300)
	c.RecordTransaction("TRANSFER", 700)

	got := collect(t, reader)

	assert.Equal(t, int64(2), sumOf(t, got["transfer.operation.results"]))
	assert.Equal(t, int64(1), sumOf(t, got["transfer.errors"]))
	assert.Equal(t, int64(2), sumOf(t, got["transfer.transactions"]))
	assert.Equal(t, int64(1000), sumOf(t, got["transfer.volume"]))

	hist, ok := got["transfer.operation.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestOtelCollector_DefaultProvider(t *testing.T) {
	c, err := NewOtelCollector(nil)
	require.NoError(t, err)
	c.RecordTransaction("TRANSFER", 1)
}
