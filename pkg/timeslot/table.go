// Package timeslot provides an in-memory table of time slots: half-open
// intervals over opaque int64 positions (typically epoch milliseconds), each
// carrying a payload.
//
// The table keeps the start points and the end points of all slots in two
// independently sorted sequences. Many slots may share a start or an end
// position, so lookups resolve equal-position runs explicitly and then pick
// the point by slot ID. On top of these sequences the table answers grid
// layout queries: overlapping slots are packed into the smallest number of
// rows such that no two slots in a row overlap, the classic calendar column
// packing problem.
//
// A Table is not safe for concurrent use. A single owner must serialise
// mutations, and a layout cursor must be drained before the table changes.
package timeslot

import (
	"cmp"
	"fmt"
	"iter"
	"slices"

	"github.com/Sumatoshi-tech/slotgrid/pkg/alg/interval"
)

// Table is an interval index of time slots with payloads of type T.
// Payload equality is used only by Get.
type Table[T comparable] struct {
	starts []BoundaryPoint
	ends   []BoundaryPoint
	slots  map[ID]TimeSlot[T]

	// spans mirrors the slots as closed intervals for point lookups.
	spans *interval.Tree[int64, ID]

	newID   func() ID
	seq     uint64
	version uint64
}

// Option configures a Table.
type Option[T comparable] func(*Table[T])

// WithIDGenerator replaces the random ID source. The generator must never
// return NilID or an ID already issued by the table.
func WithIDGenerator[T comparable](gen func() ID) Option[T] {
	return func(t *Table[T]) {
		t.newID = gen
	}
}

// WithCapacity preallocates room for n slots.
func WithCapacity[T comparable](n int) Option[T] {
	return func(t *Table[T]) {
		t.starts = make([]BoundaryPoint, 0, n)
		t.ends = make([]BoundaryPoint, 0, n)
		t.slots = make(map[ID]TimeSlot[T], n)
	}
}

// New creates an empty table.
func New[T comparable](opts ...Option[T]) *Table[T] {
	t := &Table[T]{
		slots: make(map[ID]TimeSlot[T]),
		spans: interval.New[int64, ID](),
		newID: NewID,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Len returns the number of live slots.
func (t *Table[T]) Len() int {
	return len(t.slots)
}

// Add inserts the slot [start, end) with the given payload and returns its
// new ID. A reversed pair is swapped so that start <= end. Add never fails.
func (t *Table[T]) Add(start, end int64, data T) ID {
	if end < start {
		start, end = end, start
	}

	id := t.newID()
	t.seq++

	slot := TimeSlot[T]{
		start: BoundaryPoint{Position: start, Start: true, ID: id},
		end:   BoundaryPoint{Position: end, Start: false, ID: id},
		data:  data,
		seq:   t.seq,
	}

	t.starts = insertFirst(t.starts, slot.start)
	t.ends = insertLast(t.ends, slot.end)
	t.slots[id] = slot
	t.spans.Insert(start, end, id)
	t.version++

	return id
}

// Slot returns the slot with the given ID.
func (t *Table[T]) Slot(id ID) (TimeSlot[T], bool) {
	slot, ok := t.slots[id]

	return slot, ok
}

// Get returns the ID of the first slot, in start order, whose payload equals
// data. It scans every slot; absence is reported as (NilID, false).
func (t *Table[T]) Get(data T) (ID, bool) {
	return t.Find(func(d T) bool { return d == data })
}

// Find returns the ID of the first slot, in start order, whose payload
// satisfies match.
func (t *Table[T]) Find(match func(T) bool) (ID, bool) {
	for _, p := range t.starts {
		if match(t.slots[p.ID].data) {
			return p.ID, true
		}
	}

	return NilID, false
}

// Update replaces the payload of slot id. Positions never change; re-timing
// a slot means removing it and adding a new one.
func (t *Table[T]) Update(id ID, data T) error {
	slot, ok := t.slots[id]
	if !ok {
		return t.notFound(id)
	}

	slot.data = data
	t.slots[id] = slot
	t.version++

	return nil
}

// Remove deletes the given slot. The slot is located by its boundary
// positions and then by ID among points sharing those positions.
func (t *Table[T]) Remove(slot TimeSlot[T]) error {
	si, okStart := locate(t.starts, slot.start)
	ei, okEnd := locate(t.ends, slot.end)

	if !okStart || !okEnd {
		return t.notFound(slot.ID())
	}

	t.removeAt(si, ei)

	return nil
}

// RemoveID deletes the slot with the given ID. A missing ID yields a
// *NotFoundError listing the live IDs.
func (t *Table[T]) RemoveID(id ID) error {
	slot, ok := t.slots[id]
	if !ok {
		return t.notFound(id)
	}

	return t.Remove(slot)
}

// RemoveRange deletes one slot spanning exactly [start, end) without knowing
// its ID and returns the ID it removed. When several slots span the same
// range the earliest added one goes first. ErrNotFound is returned when
// no slot spans the range.
func (t *Table[T]) RemoveRange(start, end int64) (ID, error) {
	si, ei, ok := t.exact(start, end)
	if !ok {
		return NilID, fmt.Errorf("%w: no slot spans [%d, %d)", ErrNotFound, min(start, end), max(start, end))
	}

	id := t.starts[si].ID
	t.removeAt(si, ei)

	return id, nil
}

// Exact returns the slot RemoveRange(start, end) would remove.
func (t *Table[T]) Exact(start, end int64) (TimeSlot[T], bool) {
	si, _, ok := t.exact(start, end)
	if !ok {
		return TimeSlot[T]{}, false
	}

	return t.slots[t.starts[si].ID], true
}

// exact walks the start points at start from the back of their run (the
// oldest) and returns the boundary indexes of the first slot that also ends
// at end.
func (t *Table[T]) exact(start, end int64) (int, int, bool) {
	if end < start {
		start, end = end, start
	}

	lo, hi := equalRun(t.starts, BoundaryPoint{Position: start, Start: true})

	for si := hi - 1; si >= lo; si-- {
		slot := t.slots[t.starts[si].ID]
		if slot.end.Position != end {
			continue
		}

		ei, ok := locate(t.ends, slot.end)
		if ok {
			return si, ei, true
		}
	}

	return -1, -1, false
}

// Clear removes every slot.
func (t *Table[T]) Clear() {
	t.starts = t.starts[:0]
	t.ends = t.ends[:0]
	clear(t.slots)
	t.spans.Clear()
	t.version++
}

// IDs returns the live IDs in start order.
func (t *Table[T]) IDs() []ID {
	ids := make([]ID, len(t.starts))
	for i, p := range t.starts {
		ids[i] = p.ID
	}

	return ids
}

// All yields every slot in start order. The table must not change while the
// sequence is being consumed.
func (t *Table[T]) All() iter.Seq[TimeSlot[T]] {
	return func(yield func(TimeSlot[T]) bool) {
		for _, p := range t.starts {
			if !yield(t.slots[p.ID]) {
				return
			}
		}
	}
}

// At returns the slots covering pos (start <= pos < end) in start order.
func (t *Table[T]) At(pos int64) []TimeSlot[T] {
	var out []TimeSlot[T]

	t.spans.VisitOverlap(pos, pos, func(iv interval.Interval[int64, ID]) bool {
		if pos < iv.High {
			out = append(out, t.slots[iv.Value])
		}

		return true
	})

	sortByStart(out)

	return out
}

// Overlapping returns the slots intersecting [start, end) in start order:
// the same slots GridRange lays out, as a flat list.
func (t *Table[T]) Overlapping(start, end int64) []TimeSlot[T] {
	if end < start {
		start, end = end, start
	}

	var out []TimeSlot[T]

	t.spans.VisitOverlap(start, end, func(iv interval.Interval[int64, ID]) bool {
		slot := t.slots[iv.Value]
		if slot.Intersects(start, end) {
			out = append(out, slot)
		}

		return true
	})

	sortByStart(out)

	return out
}

// removeAt drops the slot whose start point is starts[si] and end point is
// ends[ei] from every collection.
func (t *Table[T]) removeAt(si, ei int) {
	id := t.starts[si].ID
	slot := t.slots[id]

	t.starts = slices.Delete(t.starts, si, si+1)
	t.ends = slices.Delete(t.ends, ei, ei+1)
	delete(t.slots, id)
	t.spans.Delete(slot.start.Position, slot.end.Position, id)
	t.version++
}

func (t *Table[T]) notFound(id ID) error {
	return &NotFoundError{ID: id, Known: t.IDs()}
}

// sortByStart orders slots the way the start sequence does: by position,
// then newest first.
func sortByStart[T any](slots []TimeSlot[T]) {
	slices.SortFunc(slots, func(a, b TimeSlot[T]) int {
		if c := Compare(a.start, b.start); c != 0 {
			return c
		}

		return cmp.Compare(b.seq, a.seq)
	})
}
