package timeslot

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when an operation names a slot the table does not hold.
	ErrNotFound = errors.New("slot not found")

	// ErrModified is reported by a Cursor whose table changed after the cursor was created.
	ErrModified = errors.New("table modified during layout")
)

// NotFoundError describes a lookup by ID that failed. It lists the IDs that
// were live at the time of the failure and unwraps to ErrNotFound.
type NotFoundError struct {
	ID    ID
	Known []ID
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	known := make([]string, len(e.Known))
	for i, id := range e.Known {
		known[i] = id.String()
	}

	return fmt.Sprintf("slot %q not found; known slots: {%s}", e.ID, strings.Join(known, ";"))
}

// Unwrap returns ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
