package telemetry

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestSetup(t *testing.T) {
	ctx := context.Background()

	t.Run("none installs no-op provider", func(t *testing.T) {
		p, err := setup(ctx, ExporterNone, &bytes.Buffer{})
		require.NoError(t, err)
		require.NotNil(t, p.MeterProvider)
		require.NoError(t, p.Shutdown(ctx))
	})

	t.Run("empty means none", func(t *testing.T) {
		p, err := setup(ctx, "", &bytes.Buffer{})
		require.NoError(t, err)
		require.Empty(t, p.shutdowns)
	})

	t.Run("stdout exporter", func(t *testing.T) {
		p, err := setup(ctx, ExporterStdout, &bytes.Buffer{})
		require.NoError(t, err)
		require.Len(t, p.shutdowns, 2)
		require.NoError(t, p.Shutdown(ctx))
	})

	t.Run("rejects unknown exporter", func(t *testing.T) {
		_, err := setup(ctx, "zipkin", &bytes.Buffer{})
		require.Error(t, err)
	})
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetrics(provider)
	require.NoError(t, err)

	m.RecordSnapshot(ctx, 3, 20*time.Millisecond)
	m.RecordSnapshot(ctx, 4, 10*time.Millisecond)
	m.RecordSnapshotError(ctx)
	m.RecordExpenseCreated(ctx)
	m.RecordCommand(ctx, "list")

	data := collect(t, reader)

	delivered, ok := data["expense_snapshots_delivered_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, delivered.DataPoints, 1)
	require.Equal(t, int64(2), delivered.DataPoints[0].Value)

	failed, ok := data["expense_snapshot_errors_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Equal(t, int64(1), failed.DataPoints[0].Value)

	records, ok := data["expense_snapshot_records"].(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Equal(t, uint64(2), records.DataPoints[0].Count)
	require.Equal(t, int64(7), records.DataPoints[0].Sum)

	require.Contains(t, data, "expenses_created_total")
	require.Contains(t, data, "bot_commands_total")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	require.NotPanics(t, func() {
		m.RecordSnapshot(ctx, 1, time.Second)
		m.RecordSnapshotError(ctx)
		m.RecordExpenseCreated(ctx)
		m.RecordCommand(ctx, "add")
	})
}
