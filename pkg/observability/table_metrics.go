package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricLiveSlots     = "slotgrid.table.slots"
	metricMutations     = "slotgrid.table.mutations.total"
	metricGridRows      = "slotgrid.grid.rows"
	metricGridSlots     = "slotgrid.grid.slots"
	metricNotFoundTotal = "slotgrid.table.not_found.total"

	attrMutation = "mutation"
)

// Mutation kinds reported by TableMetrics.RecordMutation.
const (
	MutationAdd    = "add"
	MutationUpdate = "update"
	MutationRemove = "remove"
	MutationClear  = "clear"
)

// rowBucketBoundaries covers the depth of a calendar day view up to dense
// resource schedules.
var rowBucketBoundaries = []float64{1, 2, 3, 4, 6, 8, 12, 16, 32, 64}

// TableMetrics instruments a slot table: its live size, the mutations
// applied to it, and the shape of the grids it lays out.
type TableMetrics struct {
	mutations metric.Int64Counter
	notFound  metric.Int64Counter
	gridRows  metric.Int64Histogram
	gridSlots metric.Int64Histogram
	reg       metric.Registration
}

// NewTableMetrics creates table instruments. size is polled on every
// collection to report the number of live slots; it must be safe to call
// from the collector goroutine.
func NewTableMetrics(mt metric.Meter, size func() int) (*TableMetrics, error) {
	b := newMetricBuilder(mt)

	live := b.gauge(metricLiveSlots, "Number of live slots", "{slot}")

	tm := &TableMetrics{
		mutations: b.counter(metricMutations, "Table mutations by kind", "{mutation}"),
		notFound:  b.counter(metricNotFoundTotal, "Operations naming a slot the table does not hold", "{error}"),
		gridRows:  b.intHistogram(metricGridRows, "Rows per laid out grid", "{row}", rowBucketBoundaries...),
		gridSlots: b.intHistogram(metricGridSlots, "Slots per laid out grid", "{slot}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	reg, err := mt.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(live, int64(size()))

		return nil
	}, live)
	if err != nil {
		return nil, fmt.Errorf("register %s callback: %w", metricLiveSlots, err)
	}

	tm.reg = reg

	return tm, nil
}

// RecordMutation counts one mutation of the given kind. Safe on a nil receiver.
func (tm *TableMetrics) RecordMutation(ctx context.Context, kind string) {
	if tm == nil {
		return
	}

	tm.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String(attrMutation, kind)))
}

// RecordNotFound counts a failed lookup. Safe on a nil receiver.
func (tm *TableMetrics) RecordNotFound(ctx context.Context, kind string) {
	if tm == nil {
		return
	}

	tm.notFound.Add(ctx, 1, metric.WithAttributes(attribute.String(attrMutation, kind)))
}

// RecordGrid records the shape of a laid out grid. Safe on a nil receiver.
func (tm *TableMetrics) RecordGrid(ctx context.Context, rows, slots int) {
	if tm == nil {
		return
	}

	tm.gridRows.Record(ctx, int64(rows))
	tm.gridSlots.Record(ctx, int64(slots))
}

// Close unregisters the live slot callback.
func (tm *TableMetrics) Close() error {
	if tm == nil || tm.reg == nil {
		return nil
	}

	err := tm.reg.Unregister()
	if err != nil {
		return fmt.Errorf("unregister table metrics: %w", err)
	}

	return nil
}
