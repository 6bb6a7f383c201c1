// Package render draws laid out schedule grids as terminal tables and HTML
// Gantt charts.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/slotgrid/pkg/schedule"
)

const (
	defaultTitle      = "Schedule"
	defaultTextWidth  = 60
	defaultChartWidth = 1200
	defaultRowHeight  = 40

	cellSlot  = '█'
	cellPoint = '│'
	cellEmpty = '·'
)

// depthColors cycles through rows so that neighbouring rows differ.
var depthColors = []color.Attribute{
	color.FgCyan,
	color.FgGreen,
	color.FgYellow,
	color.FgMagenta,
	color.FgBlue,
	color.FgRed,
}

// Options control both renderers. Zero values fall back to defaults.
type Options struct {
	Title string
	// Color enables ANSI colours in Text output.
	Color bool
	// Width is the number of timeline cells in Text output.
	Width int
	// ChartWidth is the HTML chart width in pixels.
	ChartWidth int
	// RowHeight is the HTML chart height per grid row in pixels.
	RowHeight int
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = defaultTitle
	}

	if o.Width <= 0 {
		o.Width = defaultTextWidth
	}

	if o.ChartWidth <= 0 {
		o.ChartWidth = defaultChartWidth
	}

	if o.RowHeight <= 0 {
		o.RowHeight = defaultRowHeight
	}

	return o
}

// Bounds returns the smallest start and largest end in rows. ok is false for
// an empty grid.
func Bounds(rows [][]schedule.Placement) (lo, hi schedule.Position, ok bool) {
	for _, row := range rows {
		for _, p := range row {
			if !ok || p.Entry.Start < lo {
				lo = p.Entry.Start
			}

			if !ok || p.Entry.End > hi {
				hi = p.Entry.End
			}

			ok = true
		}
	}

	return lo, hi, ok
}

// Summary describes a grid in one line, e.g. "4 slots in 2 rows over [0, 40)".
func Summary(rows [][]schedule.Placement) string {
	slots := 0
	for _, row := range rows {
		slots += len(row)
	}

	lo, hi, ok := Bounds(rows)
	if !ok {
		return "no slots"
	}

	return fmt.Sprintf("%s %s in %s %s over [%s, %s)",
		humanize.Comma(int64(slots)), plural(slots, "slot"),
		humanize.Comma(int64(len(rows))), plural(len(rows), "row"),
		humanize.Comma(int64(lo)), humanize.Comma(int64(hi)))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}

	return word + "s"
}

// Text writes the grid as a table: one line per row, with a scaled timeline
// and the keys placed in that row.
func Text(w io.Writer, rows [][]schedule.Placement, opts Options) error {
	opts = opts.withDefaults()

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetTitle(opts.Title)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Format.Footer = text.FormatDefault
	tbl.AppendHeader(table.Row{"Row", "Timeline", "Slots"})

	lo, hi, _ := Bounds(rows)
	scale := newScale(lo, hi, opts.Width)

	for depth, row := range rows {
		paint := color.New(depthColors[depth%len(depthColors)])
		if opts.Color {
			paint.EnableColor()
		} else {
			paint.DisableColor()
		}

		keys := make([]string, len(row))
		for i, p := range row {
			keys[i] = p.Entry.Key
		}

		tbl.AppendRow(table.Row{
			depth,
			paint.Sprint(scale.line(row)),
			paint.Sprint(strings.Join(keys, ", ")),
		})
	}

	tbl.AppendFooter(table.Row{"", Summary(rows)})
	tbl.Render()

	return nil
}

// scale maps positions onto timeline cells.
type scale struct {
	lo    float64
	span  float64
	width int
}

func newScale(lo, hi schedule.Position, width int) scale {
	span := float64(hi - lo)
	if span <= 0 {
		span = 1
	}

	return scale{lo: float64(lo), span: span, width: width}
}

func (s scale) cell(p schedule.Position) int {
	c := int(math.Floor((float64(p) - s.lo) / s.span * float64(s.width)))

	return min(max(c, 0), s.width-1)
}

func (s scale) line(row []schedule.Placement) string {
	cells := []rune(strings.Repeat(string(cellEmpty), s.width))

	for _, p := range row {
		first := s.cell(p.Entry.Start)

		if p.Entry.Start == p.Entry.End {
			cells[first] = cellPoint

			continue
		}

		last := max(s.cell(p.Entry.End-1), first)
		for c := first; c <= last; c++ {
			cells[c] = cellSlot
		}
	}

	return string(cells)
}
