package timeslot

import "iter"

// Cursor sweeps a sequence of start points in order and assigns each slot
// the smallest row (depth) it fits in: a row is free once the slot starts at
// or after the furthest end placed in it. For slots of positive length this
// is exactly "does not overlap the row's most recent slot"; a zero-length
// slot is never placed inside a row's reach, even at an occupant's start.
//
// A cursor is forward-only and cannot be restarted: once Next returns false
// it stays exhausted. Mutating the table while a cursor is live ends the
// sweep with ErrModified.
type Cursor[T comparable] struct {
	table   *Table[T]
	version uint64
	starts  []BoundaryPoint

	pos   int
	slot  TimeSlot[T]
	depth int
	err   error

	// reach[d] is the furthest end among slots emitted at depth d.
	reach []int64
}

func newCursor[T comparable](t *Table[T], starts []BoundaryPoint) *Cursor[T] {
	return &Cursor[T]{
		table:   t,
		version: t.version,
		starts:  starts,
		depth:   -1,
	}
}

// Next advances to the next slot. It returns false when the sweep is
// exhausted or the table changed; Err tells the two apart.
func (c *Cursor[T]) Next() bool {
	if c.err != nil || c.pos >= len(c.starts) {
		return false
	}

	if c.version != c.table.version {
		c.err = ErrModified

		return false
	}

	slot := c.table.slots[c.starts[c.pos].ID]
	c.pos++

	depth := len(c.reach)

	for d, end := range c.reach {
		if slot.Start() >= end {
			depth = d

			break
		}
	}

	if depth == len(c.reach) {
		c.reach = append(c.reach, slot.End())
	} else {
		c.reach[depth] = max(c.reach[depth], slot.End())
	}

	c.slot = slot
	c.depth = depth

	return true
}

// Slot returns the slot placed by the last successful Next.
func (c *Cursor[T]) Slot() TimeSlot[T] {
	return c.slot
}

// Depth returns the row assigned to the current slot, or -1 before the
// first Next.
func (c *Cursor[T]) Depth() int {
	return c.depth
}

// Err returns ErrModified if the table changed mid-sweep, nil otherwise.
func (c *Cursor[T]) Err() error {
	return c.err
}

// Rows drains the remaining sweep into rows, each ordered by placement.
func (c *Cursor[T]) Rows() ([][]TimeSlot[T], error) {
	var rows [][]TimeSlot[T]

	for c.Next() {
		for len(rows) <= c.depth {
			rows = append(rows, nil)
		}

		rows[c.depth] = append(rows[c.depth], c.slot)
	}

	if c.err != nil {
		return nil, c.err
	}

	return rows, nil
}

// All adapts the cursor to a range-over-func sequence of (depth, slot)
// pairs. Check Err after the loop.
func (c *Cursor[T]) All() iter.Seq2[int, TimeSlot[T]] {
	return func(yield func(int, TimeSlot[T]) bool) {
		for c.Next() {
			if !yield(c.depth, c.slot) {
				return
			}
		}
	}
}
