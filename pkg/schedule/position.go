package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidPosition is returned for a position that is neither an integer
// nor an RFC 3339 timestamp.
var ErrInvalidPosition = errors.New("invalid position")

// Position is a slot boundary. Documents may write it as an integer
// (opaque, usually epoch milliseconds) or as an RFC 3339 timestamp, which is
// converted to epoch milliseconds. It always encodes as an integer.
type Position int64

// At returns the position of t in epoch milliseconds.
func At(t time.Time) Position {
	return Position(t.UnixMilli())
}

// Time interprets the position as epoch milliseconds.
func (p Position) Time() time.Time {
	return time.UnixMilli(int64(p)).UTC()
}

// ParsePosition reads a decimal integer or an RFC 3339 timestamp.
func ParsePosition(text string) (Position, error) {
	n, err := strconv.ParseInt(text, 10, 64)
	if err == nil {
		return Position(n), nil
	}

	var p Position

	err = p.parse(text)
	if err != nil {
		return 0, err
	}

	return p, nil
}

// UnmarshalJSON accepts a JSON number or an RFC 3339 string.
func (p *Position) UnmarshalJSON(data []byte) error {
	var text string

	if err := json.Unmarshal(data, &text); err == nil {
		return p.parse(text)
	}

	var n int64

	err := json.Unmarshal(data, &n)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPosition, data)
	}

	*p = Position(n)

	return nil
}

// UnmarshalYAML accepts an integer scalar or an RFC 3339 timestamp scalar.
func (p *Position) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d: expected a scalar", ErrInvalidPosition, node.Line)
	}

	if node.Tag == "!!int" {
		n, err := strconv.ParseInt(node.Value, 0, 64)
		if err != nil {
			return fmt.Errorf("%w: line %d: %w", ErrInvalidPosition, node.Line, err)
		}

		*p = Position(n)

		return nil
	}

	return p.parse(node.Value)
}

func (p *Position) parse(text string) error {
	t, err := time.Parse(time.RFC3339Nano, text)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidPosition, text)
	}

	*p = At(t)

	return nil
}
