package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/slotgrid/pkg/observability"
	"github.com/Sumatoshi-tech/slotgrid/pkg/timeslot"
)

// ErrUnknownKey is returned when a key names no entry on the board.
var ErrUnknownKey = errors.New("unknown entry key")

const tracerName = "slotgrid.schedule"

// Outcome says what Put did with an entry.
type Outcome int

// Put outcomes.
const (
	Unchanged Outcome = iota
	Added
	Updated
	Retimed
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case Updated:
		return "updated"
	case Retimed:
		return "retimed"
	default:
		return "unchanged"
	}
}

// Window restricts a grid to slots intersecting [Start, End).
type Window struct {
	Start Position
	End   Position
}

// Placement is an entry with the slot ID and row it was laid out in.
type Placement struct {
	ID    timeslot.ID `json:"id"`
	Depth int         `json:"depth"`
	Entry Entry       `json:"entry"`
}

// ReconcileStats counts what a Reconcile changed.
type ReconcileStats struct {
	Added     int `json:"added"`
	Updated   int `json:"updated"`
	Retimed   int `json:"retimed"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
}

// Board keeps a slot table in step with keyed schedule entries. Payload
// edits update a slot in place; a change of start or end replaces the slot,
// since slot positions are immutable. A Board is safe for concurrent use.
type Board struct {
	mu    sync.RWMutex
	table *timeslot.Table[Entry]
	keys  map[string]timeslot.ID

	tracer  trace.Tracer
	logger  *slog.Logger
	metrics *observability.TableMetrics
}

// BoardOption configures a Board.
type BoardOption func(*Board)

// WithLogger sets the board logger.
func WithLogger(logger *slog.Logger) BoardOption {
	return func(b *Board) { b.logger = logger }
}

// WithTracer sets the tracer used for reconcile spans.
func WithTracer(tracer trace.Tracer) BoardOption {
	return func(b *Board) { b.tracer = tracer }
}

// WithMetrics records mutations and grid shapes.
func WithMetrics(tm *observability.TableMetrics) BoardOption {
	return func(b *Board) { b.metrics = tm }
}

// WithTable replaces the backing table, e.g. to inject an ID generator.
// The table must be empty.
func WithTable(table *timeslot.Table[Entry]) BoardOption {
	return func(b *Board) { b.table = table }
}

// NewBoard returns an empty board.
func NewBoard(opts ...BoardOption) *Board {
	b := &Board{
		table:  timeslot.New[Entry](),
		keys:   make(map[string]timeslot.ID),
		tracer: otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(b)
	}

	b.logger = observability.Component(b.logger, "board")

	return b
}

// Instrument attaches table metrics to a board that is already in use.
func (b *Board) Instrument(tm *observability.TableMetrics) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.metrics = tm
}

// Len returns the number of entries.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.table.Len()
}

// Get returns the entry stored under key and its slot ID.
func (b *Board) Get(key string) (Entry, timeslot.ID, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	id, ok := b.keys[key]
	if !ok {
		return Entry{}, timeslot.NilID, false
	}

	slot, _ := b.table.Slot(id)

	return slot.Data(), id, true
}

// IDOf returns the slot holding exactly e, if any.
func (b *Board) IDOf(e Entry) (timeslot.ID, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.table.Get(e)
}

// FindLabel returns the earliest entry with the given label.
func (b *Board) FindLabel(label string) (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	id, ok := b.table.Find(func(e Entry) bool { return e.Label == label })
	if !ok {
		return Entry{}, false
	}

	slot, _ := b.table.Slot(id)

	return slot.Data(), true
}

// Entries returns every entry in start order.
func (b *Board) Entries() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Entry, 0, b.table.Len())
	for slot := range b.table.All() {
		out = append(out, slot.Data())
	}

	return out
}

// Put adds e or brings the stored entry with the same key in line with it.
func (b *Board) Put(ctx context.Context, e Entry) (timeslot.ID, Outcome, error) {
	err := e.Check()
	if err != nil {
		return timeslot.NilID, Unchanged, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.put(ctx, e)
}

func (b *Board) put(ctx context.Context, e Entry) (timeslot.ID, Outcome, error) {
	ctx, span := b.tracer.Start(ctx, observability.SpanSchedulePut,
		trace.WithAttributes(attribute.String("slot.key", e.Key)))
	defer span.End()

	id, ok := b.keys[e.Key]
	if !ok {
		id = b.table.Add(int64(e.Start), int64(e.End), e)
		b.keys[e.Key] = id
		b.metrics.RecordMutation(ctx, observability.MutationAdd)

		return id, Added, nil
	}

	slot, _ := b.table.Slot(id)

	switch {
	case slot.Data() == e:
		return id, Unchanged, nil
	case slot.Start() == int64(e.Start) && slot.End() == int64(e.End):
		err := b.table.Update(id, e)
		if err != nil {
			return id, Unchanged, fmt.Errorf("update %q: %w", e.Key, err)
		}

		b.metrics.RecordMutation(ctx, observability.MutationUpdate)

		return id, Updated, nil
	default:
		err := b.table.RemoveID(id)
		if err != nil {
			return id, Unchanged, fmt.Errorf("retime %q: %w", e.Key, err)
		}

		id = b.table.Add(int64(e.Start), int64(e.End), e)
		b.keys[e.Key] = id
		b.metrics.RecordMutation(ctx, observability.MutationRemove)
		b.metrics.RecordMutation(ctx, observability.MutationAdd)

		return id, Retimed, nil
	}
}

// Delete removes the entry stored under key.
func (b *Board) Delete(ctx context.Context, key string) (Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.delete(ctx, key)
}

func (b *Board) delete(ctx context.Context, key string) (Entry, error) {
	ctx, span := b.tracer.Start(ctx, observability.SpanScheduleDelete,
		trace.WithAttributes(attribute.String("slot.key", key)))
	defer span.End()

	id, ok := b.keys[key]
	if !ok {
		b.metrics.RecordNotFound(ctx, observability.MutationRemove)

		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	slot, _ := b.table.Slot(id)

	err := b.table.RemoveID(id)
	if err != nil {
		return Entry{}, fmt.Errorf("delete %q: %w", key, err)
	}

	delete(b.keys, key)
	b.metrics.RecordMutation(ctx, observability.MutationRemove)

	return slot.Data(), nil
}

// DeleteRange removes one entry spanning exactly [start, end). When several
// do, the earliest placed goes first.
func (b *Board) DeleteRange(ctx context.Context, start, end Position) (Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	victim, ok := b.table.Exact(int64(start), int64(end))
	if !ok {
		b.metrics.RecordNotFound(ctx, observability.MutationRemove)

		return Entry{}, fmt.Errorf("delete range [%d, %d): %w", start, end, timeslot.ErrNotFound)
	}

	id, err := b.table.RemoveRange(int64(start), int64(end))
	if err != nil {
		return Entry{}, fmt.Errorf("delete range: %w", err)
	}

	if b.keys[victim.Data().Key] == id {
		delete(b.keys, victim.Data().Key)
	}

	b.metrics.RecordMutation(ctx, observability.MutationRemove)

	return victim.Data(), nil
}

// Reconcile makes the board hold exactly entries: new keys are added,
// changed ones updated or re-timed, and keys absent from entries removed.
// Entries are checked up front; on error the board is untouched.
func (b *Board) Reconcile(ctx context.Context, entries []Entry) (ReconcileStats, error) {
	ctx, span := b.tracer.Start(ctx, "slotgrid.schedule.reconcile",
		trace.WithAttributes(attribute.Int("schedule.entries", len(entries))))
	defer span.End()

	doc := Document{Slots: entries}

	err := doc.Check()
	if err != nil {
		span.RecordError(err)

		return ReconcileStats{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var stats ReconcileStats

	wanted := make(map[string]struct{}, len(entries))

	for _, e := range entries {
		wanted[e.Key] = struct{}{}

		_, outcome, err := b.put(ctx, e)
		if err != nil {
			return stats, err
		}

		switch outcome {
		case Added:
			stats.Added++
		case Updated:
			stats.Updated++
		case Retimed:
			stats.Retimed++
		default:
			stats.Unchanged++
		}
	}

	for key := range b.keys {
		if _, keep := wanted[key]; keep {
			continue
		}

		_, err := b.delete(ctx, key)
		if err != nil {
			return stats, err
		}

		stats.Removed++
	}

	span.SetAttributes(
		attribute.Int("schedule.added", stats.Added),
		attribute.Int("schedule.removed", stats.Removed),
	)
	b.logger.DebugContext(ctx, "reconciled",
		"added", stats.Added, "updated", stats.Updated, "retimed", stats.Retimed,
		"removed", stats.Removed, "unchanged", stats.Unchanged)

	return stats, nil
}

// Clear removes every entry.
func (b *Board) Clear(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.table.Clear()
	clear(b.keys)
	b.metrics.RecordMutation(ctx, observability.MutationClear)
}

// Grid lays the board out into rows. A nil window lays out every entry.
func (b *Board) Grid(ctx context.Context, window *Window) ([][]Placement, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var cur *timeslot.Cursor[Entry]
	if window == nil {
		cur = b.table.Layout()
	} else {
		cur = b.table.LayoutRange(int64(window.Start), int64(window.End))
	}

	var (
		rows  [][]Placement
		slots int
	)

	for depth, slot := range cur.All() {
		for len(rows) <= depth {
			rows = append(rows, nil)
		}

		rows[depth] = append(rows[depth], Placement{ID: slot.ID(), Depth: depth, Entry: slot.Data()})
		slots++
	}

	err := cur.Err()
	if err != nil {
		return nil, fmt.Errorf("lay out board: %w", err)
	}

	b.metrics.RecordGrid(ctx, len(rows), slots)

	return rows, nil
}

// At returns the entries covering pos in start order.
func (b *Board) At(pos Position) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	slots := b.table.At(int64(pos))

	out := make([]Entry, len(slots))
	for i, s := range slots {
		out[i] = s.Data()
	}

	return out
}
