package timeslot

import (
	"cmp"
	"fmt"

	"github.com/google/uuid"
)

// ID identifies a time slot. IDs are random 128-bit values compared by value.
type ID uuid.UUID

// NilID is the zero ID. Table never issues it.
var NilID ID

// NewID returns a fresh random ID.
func NewID() ID {
	return ID(uuid.New())
}

// ParseID parses the canonical textual form of an ID.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilID, fmt.Errorf("parse slot id %q: %w", s, err)
	}

	return ID(u), nil
}

// String returns the canonical textual form of the ID.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// MarshalText implements [encoding.TextMarshaler].
func (id ID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (id *ID) UnmarshalText(data []byte) error {
	var u uuid.UUID

	err := u.UnmarshalText(data)
	if err != nil {
		return fmt.Errorf("unmarshal slot id: %w", err)
	}

	*id = ID(u)

	return nil
}

// BoundaryPoint is one edge of a slot: its position, whether it opens or
// closes the slot, and the slot it belongs to.
type BoundaryPoint struct {
	Position int64
	Start    bool
	ID       ID
}

// Compare orders boundary points by position; at equal positions a start
// point sorts before an end point, so a slot ending where another begins
// does not overlap it. Points with equal position and kind compare equal
// whatever their IDs.
func Compare(a, b BoundaryPoint) int {
	if c := cmp.Compare(a.Position, b.Position); c != 0 {
		return c
	}

	switch {
	case a.Start == b.Start:
		return 0
	case a.Start:
		return -1
	default:
		return 1
	}
}

// String formats the point for diagnostics.
func (p BoundaryPoint) String() string {
	kind := "end"
	if p.Start {
		kind = "start"
	}

	return fmt.Sprintf("%s@%d(%s)", kind, p.Position, p.ID)
}
