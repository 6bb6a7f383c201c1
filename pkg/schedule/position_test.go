package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPosition_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want Position
	}{
		{name: "integer", in: `42`, want: 42},
		{name: "negative", in: `-7`, want: -7},
		{name: "timestamp", in: `"1970-01-01T00:00:01Z"`, want: 1000},
		{name: "offset", in: `"1970-01-01T01:00:00+01:00"`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var p Position
			require.NoError(t, json.Unmarshal([]byte(tt.in), &p))
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestPosition_UnmarshalJSON_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{`"tomorrow"`, `1.5`, `true`} {
		var p Position

		err := json.Unmarshal([]byte(in), &p)
		require.ErrorIs(t, err, ErrInvalidPosition, in)
	}
}

func TestPosition_UnmarshalYAML(t *testing.T) {
	t.Parallel()

	var got struct {
		A Position `yaml:"a"`
		B Position `yaml:"b"`
		C Position `yaml:"c"`
		D Position `yaml:"d"`
	}

	raw := "a: 15\nb: 0x10\nc: 2024-01-01T00:00:00Z\nd: \"2024-01-01T00:00:00.5Z\"\n"
	require.NoError(t, yaml.Unmarshal([]byte(raw), &got))

	base := At(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, Position(15), got.A)
	assert.Equal(t, Position(16), got.B)
	assert.Equal(t, base, got.C)
	assert.Equal(t, base+500, got.D)
}

func TestPosition_UnmarshalYAML_Invalid(t *testing.T) {
	t.Parallel()

	var got struct {
		A Position `yaml:"a"`
	}

	err := yaml.Unmarshal([]byte("a: soon\n"), &got)
	require.ErrorIs(t, err, ErrInvalidPosition)

	err = yaml.Unmarshal([]byte("a: [1, 2]\n"), &got)
	require.ErrorIs(t, err, ErrInvalidPosition)
}

func TestPosition_Time(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 3, 4, 5, 6, 7, 8_000_000, time.UTC)

	assert.True(t, ts.Equal(At(ts).Time()))
	assert.Equal(t, time.UTC, At(ts).Time().Location())
}

func TestParsePosition(t *testing.T) {
	t.Parallel()

	p, err := ParsePosition("-12")
	require.NoError(t, err)
	assert.Equal(t, Position(-12), p)

	p, err = ParsePosition("1970-01-01T00:00:00.25Z")
	require.NoError(t, err)
	assert.Equal(t, Position(250), p)

	_, err = ParsePosition("")
	require.ErrorIs(t, err, ErrInvalidPosition)

	_, err = ParsePosition("12abc")
	require.ErrorIs(t, err, ErrInvalidPosition)
}
