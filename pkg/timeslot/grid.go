package timeslot

import "slices"

// Layout returns a cursor over every slot in start order.
func (t *Table[T]) Layout() *Cursor[T] {
	return newCursor(t, t.starts)
}

// LayoutRange returns a cursor over the slots intersecting [start, end):
// those with slot.start < end and slot.end > start. A reversed window is
// swapped.
func (t *Table[T]) LayoutRange(start, end int64) *Cursor[T] {
	if end < start {
		start, end = end, start
	}

	return newCursor(t, t.rangeStarts(start, end))
}

// Grid lays out the whole table into rows. Rows are ordered by depth; each
// row lists its slots in start order and no two slots in a row overlap.
func (t *Table[T]) Grid() [][]TimeSlot[T] {
	rows, _ := t.Layout().Rows()

	return rows
}

// GridRange lays out the slots intersecting [start, end). Slots entirely
// outside the window are excluded; rows are packed among the included slots
// only.
func (t *Table[T]) GridRange(start, end int64) [][]TimeSlot[T] {
	rows, _ := t.LayoutRange(start, end).Rows()

	return rows
}

// rangeStarts selects the start points of slots still open after start and
// opened before end, preserving start order.
func (t *Table[T]) rangeStarts(start, end int64) []BoundaryPoint {
	// End points at start itself close slots before the window opens.
	firstEnd := upperBound(t.ends, BoundaryPoint{Position: start, Start: false})
	// Start points at end itself open slots after the window closes.
	lastStart := lowerBound(t.starts, BoundaryPoint{Position: end, Start: true})

	open := make(map[ID]struct{}, len(t.ends)-firstEnd)
	for _, p := range t.ends[firstEnd:] {
		open[p.ID] = struct{}{}
	}

	candidates := t.starts[:lastStart]
	out := make([]BoundaryPoint, 0, min(len(open), len(candidates)))

	for _, p := range candidates {
		if _, ok := open[p.ID]; ok {
			out = append(out, p)
		}
	}

	return slices.Clip(out)
}
