package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/slotgrid/pkg/schedule"
)

const (
	ganttStack  = "gantt"
	gapColor    = "transparent"
	chartChrome = 120
)

// depthPalette mirrors depthColors for the HTML chart.
var depthPalette = []string{"#56b6c2", "#98c379", "#e5c07b", "#c678dd", "#61afef", "#e06c75"}

// HTML writes the grid as a Gantt chart: one horizontal bar per row, built
// from stacked series that alternate between a transparent gap and a slot.
func HTML(w io.Writer, rows [][]schedule.Placement, o Options) error {
	bar := buildGantt(rows, o.withDefaults())

	err := bar.Render(w)
	if err != nil {
		return fmt.Errorf("render gantt: %w", err)
	}

	return nil
}

func buildGantt(rows [][]schedule.Placement, o Options) *charts.Bar {
	lo, _, _ := Bounds(rows)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: o.Title,
			Width:     fmt.Sprintf("%dpx", o.ChartWidth),
			Height:    fmt.Sprintf("%dpx", len(rows)*o.RowHeight+chartChrome),
		}),
		charts.WithTitleOpts(opts.Title{Title: o.Title, Subtitle: Summary(rows), Left: "center"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: fmt.Sprintf("offset from %d", lo)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Inverse: opts.Bool(true)}),
	)

	labels := make([]string, len(rows))
	width := 0

	for depth, row := range rows {
		labels[depth] = fmt.Sprintf("row %d", depth)
		width = max(width, len(row))
	}

	bar.SetXAxis(labels)

	// Values are offsets from lo.
	for i := range width {
		gaps := make([]opts.BarData, len(rows))
		spans := make([]opts.BarData, len(rows))

		for depth, row := range rows {
			if i >= len(row) {
				gaps[depth] = opts.BarData{Value: 0}
				spans[depth] = opts.BarData{Value: 0}

				continue
			}

			prev := lo
			if i > 0 {
				prev = row[i-1].Entry.End
			}

			e := row[i].Entry
			gaps[depth] = opts.BarData{Value: int64(e.Start - prev)}
			spans[depth] = opts.BarData{
				Name:      e.Key,
				Value:     int64(e.End - e.Start),
				ItemStyle: &opts.ItemStyle{Color: depthPalette[depth%len(depthPalette)]},
			}
		}

		bar.AddSeries(fmt.Sprintf("gap %d", i), gaps,
			charts.WithBarChartOpts(opts.BarChart{Stack: ganttStack}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: gapColor}),
		)
		bar.AddSeries(fmt.Sprintf("slot %d", i), spans,
			charts.WithBarChartOpts(opts.BarChart{Stack: ganttStack}),
		)
	}

	bar.XYReversal()

	return bar
}
