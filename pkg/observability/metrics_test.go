package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/slotgrid/pkg/observability"
)

func newTestMeterProvider(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	return mp, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumValue(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestREDMetrics_RecordRequest(t *testing.T) {
	t.Parallel()

	mp, reader := newTestMeterProvider(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	red.RecordRequest(ctx, "GET /grid", observability.StatusOK, 2*time.Millisecond)
	red.RecordRequest(ctx, "POST /slots", observability.StatusError, time.Millisecond)

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(2), sumValue(t, findMetric(rm, "slotgrid.requests.total")))
	assert.Equal(t, int64(1), sumValue(t, findMetric(rm, "slotgrid.errors.total")))

	hist := findMetric(rm, "slotgrid.request.duration.seconds")
	require.NotNil(t, hist)

	data, ok := hist.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, data.DataPoints, 2)
}

func TestREDMetrics_TrackInflight(t *testing.T) {
	t.Parallel()

	mp, reader := newTestMeterProvider(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	done := red.TrackInflight(context.Background(), "GET")
	assert.Equal(t, int64(1), sumValue(t, findMetric(collectMetrics(t, reader), "slotgrid.inflight.requests")))

	done()
	assert.Equal(t, int64(0), sumValue(t, findMetric(collectMetrics(t, reader), "slotgrid.inflight.requests")))
}

func TestREDMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var red *observability.REDMetrics

	assert.NotPanics(t, func() {
		red.RecordRequest(context.Background(), "op", observability.StatusOK, time.Second)
		red.TrackInflight(context.Background(), "op")()
	})
}

func TestTableMetrics(t *testing.T) {
	t.Parallel()

	mp, reader := newTestMeterProvider(t)
	size := 7

	tm, err := observability.NewTableMetrics(mp.Meter("test"), func() int { return size })
	require.NoError(t, err)

	ctx := context.Background()
	tm.RecordMutation(ctx, observability.MutationAdd)
	tm.RecordMutation(ctx, observability.MutationAdd)
	tm.RecordMutation(ctx, observability.MutationRemove)
	tm.RecordNotFound(ctx, observability.MutationRemove)
	tm.RecordGrid(ctx, 3, 12)

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(3), sumValue(t, findMetric(rm, "slotgrid.table.mutations.total")))
	assert.Equal(t, int64(1), sumValue(t, findMetric(rm, "slotgrid.table.not_found.total")))

	live := findMetric(rm, "slotgrid.table.slots")
	require.NotNil(t, live)

	gauge, ok := live.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(7), gauge.DataPoints[0].Value)

	rows := findMetric(rm, "slotgrid.grid.rows")
	require.NotNil(t, rows)

	hist, ok := rows.Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, int64(3), hist.DataPoints[0].Sum)

	require.NoError(t, tm.Close())
}

func TestTableMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var tm *observability.TableMetrics

	assert.NotPanics(t, func() {
		tm.RecordMutation(context.Background(), observability.MutationClear)
		tm.RecordNotFound(context.Background(), observability.MutationUpdate)
		tm.RecordGrid(context.Background(), 1, 1)
	})
	assert.NoError(t, tm.Close())
}
