package timeslot

// TimeSlot is the half-open interval [Start, End) of a slot together with
// its payload. Two slots are the same slot when their IDs are equal,
// regardless of payload.
type TimeSlot[T any] struct {
	start BoundaryPoint
	end   BoundaryPoint
	data  T

	// seq is the table-wide insertion sequence; it breaks start ties the
	// same way the start sequence does.
	seq uint64
}

// ID returns the slot identifier.
func (s TimeSlot[T]) ID() ID { return s.start.ID }

// StartPoint returns the opening boundary point.
func (s TimeSlot[T]) StartPoint() BoundaryPoint { return s.start }

// EndPoint returns the closing boundary point.
func (s TimeSlot[T]) EndPoint() BoundaryPoint { return s.end }

// Start returns the start position.
func (s TimeSlot[T]) Start() int64 { return s.start.Position }

// End returns the end position.
func (s TimeSlot[T]) End() int64 { return s.end.Position }

// Len returns End - Start.
func (s TimeSlot[T]) Len() int64 { return s.end.Position - s.start.Position }

// Data returns the payload.
func (s TimeSlot[T]) Data() T { return s.data }

// Equal reports whether both values denote the same slot.
func (s TimeSlot[T]) Equal(other TimeSlot[T]) bool {
	return s.ID() == other.ID()
}

// Overlaps reports whether the two slots share any position. Touching
// slots (one ends where the other starts) do not overlap.
func (s TimeSlot[T]) Overlaps(other TimeSlot[T]) bool {
	return s.start.Position < other.end.Position && s.end.Position > other.start.Position
}

// Intersects reports whether the slot shares any position with the window
// [start, end), using the same rule as Overlaps.
func (s TimeSlot[T]) Intersects(start, end int64) bool {
	return s.start.Position < end && s.end.Position > start
}
