package schedule

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/slotgrid/pkg/observability"
	"github.com/Sumatoshi-tech/slotgrid/pkg/timeslot"
)

func keysOf(rows [][]Placement) [][]string {
	out := make([][]string, len(rows))
	for d, row := range rows {
		for _, p := range row {
			out[d] = append(out[d], p.Entry.Key)
		}
	}

	return out
}

func entryKeys(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}

	return out
}

func TestBoard_PutOutcomes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := NewBoard()

	id, outcome, err := b.Put(ctx, Entry{Key: "a", Label: "A", Start: 0, End: 10})
	require.NoError(t, err)
	assert.Equal(t, Added, outcome)

	again, outcome, err := b.Put(ctx, Entry{Key: "a", Label: "A", Start: 0, End: 10})
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)
	assert.Equal(t, id, again)

	again, outcome, err = b.Put(ctx, Entry{Key: "a", Label: "A2", Start: 0, End: 10})
	require.NoError(t, err)
	assert.Equal(t, Updated, outcome)
	assert.Equal(t, id, again, "payload edits keep the slot")

	moved, outcome, err := b.Put(ctx, Entry{Key: "a", Label: "A2", Start: 5, End: 10})
	require.NoError(t, err)
	assert.Equal(t, Retimed, outcome)
	assert.NotEqual(t, id, moved, "re-timing replaces the slot")

	e, gotID, ok := b.Get("a")
	require.True(t, ok)
	assert.Equal(t, moved, gotID)
	assert.Equal(t, Position(5), e.Start)
	assert.Equal(t, 1, b.Len())
}

func TestBoard_PutRejectsInvalidEntries(t *testing.T) {
	t.Parallel()

	b := NewBoard()

	_, _, err := b.Put(context.Background(), Entry{Key: "r", Start: 10, End: 0})
	require.ErrorIs(t, err, ErrReversedEntry)

	_, _, err = b.Put(context.Background(), Entry{Start: 0, End: 1})
	require.ErrorIs(t, err, ErrEmptyKey)

	assert.Equal(t, 0, b.Len())
}

func TestBoard_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := NewBoard()

	_, _, err := b.Put(ctx, Entry{Key: "a", Start: 0, End: 10})
	require.NoError(t, err)

	e, err := b.Delete(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", e.Key)
	assert.Equal(t, 0, b.Len())

	_, err = b.Delete(ctx, "a")
	require.ErrorIs(t, err, ErrUnknownKey)
}

func TestBoard_DeleteRange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := NewBoard()

	for _, e := range []Entry{
		{Key: "old", Start: 0, End: 10},
		{Key: "other", Start: 0, End: 20},
		{Key: "new", Start: 0, End: 10},
		{Key: "point", Start: 5, End: 5},
	} {
		_, _, err := b.Put(ctx, e)
		require.NoError(t, err)
	}

	e, err := b.DeleteRange(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, "old", e.Key, "earliest exact match goes first")

	_, _, ok := b.Get("old")
	assert.False(t, ok)

	e, err = b.DeleteRange(ctx, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, "point", e.Key)

	_, err = b.DeleteRange(ctx, 0, 15)
	require.ErrorIs(t, err, timeslot.ErrNotFound)

	assert.Equal(t, []string{"new", "other"}, entryKeys(b.Entries()))
}

func TestBoard_Reconcile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := NewBoard()

	stats, err := b.Reconcile(ctx, []Entry{
		{Key: "a", Start: 0, End: 10},
		{Key: "b", Start: 5, End: 15},
		{Key: "c", Start: 20, End: 30},
	})
	require.NoError(t, err)
	assert.Equal(t, ReconcileStats{Added: 3}, stats)

	stats, err = b.Reconcile(ctx, []Entry{
		{Key: "a", Start: 0, End: 10},
		{Key: "b", Label: "renamed", Start: 5, End: 15},
		{Key: "c", Start: 25, End: 30},
		{Key: "d", Start: 40, End: 50},
	})
	require.NoError(t, err)
	assert.Equal(t, ReconcileStats{Added: 1, Updated: 1, Retimed: 1, Unchanged: 1}, stats)

	stats, err = b.Reconcile(ctx, []Entry{{Key: "d", Start: 40, End: 50}})
	require.NoError(t, err)
	assert.Equal(t, ReconcileStats{Removed: 3, Unchanged: 1}, stats)
	assert.Equal(t, []string{"d"}, entryKeys(b.Entries()))
}

func TestBoard_ReconcileRejectsBadInput(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := NewBoard()

	_, _, err := b.Put(ctx, Entry{Key: "keep", Start: 0, End: 1})
	require.NoError(t, err)

	_, err = b.Reconcile(ctx, []Entry{
		{Key: "x", Start: 0, End: 1},
		{Key: "x", Start: 2, End: 3},
	})
	require.ErrorIs(t, err, ErrDuplicateKey)
	assert.Equal(t, []string{"keep"}, entryKeys(b.Entries()), "board untouched")
}

func TestBoard_Grid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := NewBoard()

	_, err := b.Reconcile(ctx, []Entry{
		{Key: "a", Start: 0, End: 10},
		{Key: "b", Start: 5, End: 15},
		{Key: "c", Start: 10, End: 20},
		{Key: "d", Start: 30, End: 40},
	})
	require.NoError(t, err)

	rows, err := b.Grid(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "c", "d"}, {"b"}}, keysOf(rows))

	for d, row := range rows {
		for _, p := range row {
			assert.Equal(t, d, p.Depth)

			_, id, ok := b.Get(p.Entry.Key)
			require.True(t, ok)
			assert.Equal(t, id, p.ID)
		}
	}

	rows, err = b.Grid(ctx, &Window{Start: 12, End: 35})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"b", "d"}, {"c"}}, keysOf(rows))

	rows, err = b.Grid(ctx, &Window{Start: 50, End: 60})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestBoard_Lookups(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := NewBoard()

	_, err := b.Reconcile(ctx, []Entry{
		{Key: "late", Label: "sync", Start: 20, End: 30},
		{Key: "early", Label: "sync", Start: 0, End: 10},
		{Key: "mid", Label: "lunch", Start: 5, End: 25},
	})
	require.NoError(t, err)

	e, ok := b.FindLabel("sync")
	require.True(t, ok)
	assert.Equal(t, "early", e.Key)

	_, ok = b.FindLabel("nope")
	assert.False(t, ok)

	mid, midID, ok := b.Get("mid")
	require.True(t, ok)

	id, ok := b.IDOf(mid)
	require.True(t, ok)
	assert.Equal(t, midID, id)

	assert.Equal(t, []string{"early", "mid"}, entryKeys(b.At(7)))
	assert.Equal(t, []string{"mid", "late"}, entryKeys(b.At(20)))
	assert.Empty(t, b.At(30))
}

func TestBoard_Clear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := NewBoard()

	_, _, err := b.Put(ctx, Entry{Key: "a", Start: 0, End: 1})
	require.NoError(t, err)

	b.Clear(ctx)
	assert.Equal(t, 0, b.Len())

	_, _, ok := b.Get("a")
	assert.False(t, ok)

	_, outcome, err := b.Put(ctx, Entry{Key: "a", Start: 0, End: 1})
	require.NoError(t, err)
	assert.Equal(t, Added, outcome)
}

func TestBoard_Metrics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	b := NewBoard()

	tm, err := observability.NewTableMetrics(mp.Meter("test"), b.Len)
	require.NoError(t, err)

	b.Instrument(tm)

	_, _, err = b.Put(ctx, Entry{Key: "a", Start: 0, End: 10})
	require.NoError(t, err)
	_, _, err = b.Put(ctx, Entry{Key: "b", Start: 5, End: 15})
	require.NoError(t, err)
	_, err = b.Delete(ctx, "missing")
	require.ErrorIs(t, err, ErrUnknownKey)
	_, err = b.Grid(ctx, nil)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	values := map[string]int64{}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					values[m.Name] += dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					values[m.Name] = dp.Value
				}
			case metricdata.Histogram[int64]:
				for _, dp := range data.DataPoints {
					values[m.Name] += dp.Sum
				}
			}
		}
	}

	assert.Equal(t, int64(2), values["slotgrid.table.mutations.total"])
	assert.Equal(t, int64(1), values["slotgrid.table.not_found.total"])
	assert.Equal(t, int64(2), values["slotgrid.table.slots"])
	assert.Equal(t, int64(2), values["slotgrid.grid.rows"])
	assert.Equal(t, int64(2), values["slotgrid.grid.slots"])
}

func TestBoard_WithMetricsOption(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	tm, err := observability.NewTableMetrics(mp.Meter("test"), func() int { return 0 })
	require.NoError(t, err)

	b := NewBoard(WithMetrics(tm))
	b.Clear(context.Background())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := false

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found = found || m.Name == "slotgrid.table.mutations.total"
		}
	}

	assert.True(t, found)
}

func TestBoard_ConcurrentUse(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := NewBoard()

	var wg sync.WaitGroup

	for w := range 4 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range 50 {
				key := fmt.Sprintf("w%d-%d", w, i)

				_, _, err := b.Put(ctx, Entry{Key: key, Start: Position(i), End: Position(i + 5)})
				assert.NoError(t, err)

				_, err = b.Grid(ctx, nil)
				assert.NoError(t, err)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 200, b.Len())

	rows, err := b.Grid(ctx, nil)
	require.NoError(t, err)

	total := 0
	for _, row := range rows {
		total += len(row)
	}

	assert.Equal(t, 200, total)
}
