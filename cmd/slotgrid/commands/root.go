// Package commands implements the slotgrid CLI commands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/slotgrid/pkg/config"
	"github.com/Sumatoshi-tech/slotgrid/pkg/observability"
	"github.com/Sumatoshi-tech/slotgrid/pkg/render"
	"github.com/Sumatoshi-tech/slotgrid/pkg/schedule"
	"github.com/Sumatoshi-tech/slotgrid/pkg/version"
)

const (
	configFlag  = "config"
	startFlag   = "start"
	endFlag     = "end"
	noColorFlag = "no-color"
)

// ErrWindowIncomplete is returned when only one of --start and --end is set.
var ErrWindowIncomplete = errors.New("--start and --end must be given together")

// NewRootCommand builds the slotgrid command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "slotgrid",
		Short: "Lay out time slots into non-overlapping rows",
		Long: `slotgrid packs schedule entries into the fewest rows such that no two
entries in a row overlap, and serves or renders the resulting grid.

Commands:
  layout    Print the grid of a schedule file
  validate  Check a schedule file against the schema
  render    Write the grid as an HTML Gantt chart
  serve     Run the HTTP API`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String(configFlag, "", "config file (default .slotgrid.yaml in . or $HOME)")

	root.AddCommand(
		newLayoutCommand(),
		newValidateCommand(),
		newRenderCommand(),
		newServeCommand(),
		newVersionCommand(),
	)

	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString(configFlag)
	if err != nil {
		return nil, fmt.Errorf("read --%s: %w", configFlag, err)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

// telemetryConfig maps the file configuration onto observability settings.
// Only the server exposes a Prometheus endpoint.
func telemetryConfig(cfg *config.Config, mode observability.AppMode) observability.Config {
	oc := observability.DefaultConfig()
	oc.ServiceVersion = version.Version
	oc.Mode = mode
	oc.Environment = cfg.Telemetry.Environment
	oc.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	oc.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	oc.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	oc.SampleRatio = cfg.Telemetry.SampleRatio
	oc.DebugTrace = cfg.Telemetry.DebugTrace
	oc.TraceVerbose = cfg.Telemetry.TraceVerbose
	oc.Prometheus = cfg.Telemetry.Prometheus && mode == observability.ModeServe
	oc.LogLevel = observability.ParseLevel(cfg.Logging.Level)
	oc.LogJSON = cfg.Logging.Format == config.FormatJSON
	oc.ShutdownTimeoutSec = int(cfg.Server.ShutdownTimeout.Seconds())

	return oc
}

func renderOptions(cfg *config.Config) render.Options {
	return render.Options{
		Title:      cfg.Render.Title,
		Color:      cfg.Render.Color,
		Width:      cfg.Render.MaxWidth,
		ChartWidth: cfg.Render.ChartWidth,
		RowHeight:  cfg.Render.RowHeight,
	}
}

func addWindowFlags(cmd *cobra.Command) {
	cmd.Flags().String(startFlag, "", "lay out only slots ending after this position (integer or RFC 3339)")
	cmd.Flags().String(endFlag, "", "lay out only slots starting before this position (integer or RFC 3339)")
}

// windowFromFlags returns nil when neither bound is set.
func windowFromFlags(cmd *cobra.Command) (*schedule.Window, error) {
	startRaw, _ := cmd.Flags().GetString(startFlag)
	endRaw, _ := cmd.Flags().GetString(endFlag)

	if startRaw == "" && endRaw == "" {
		return nil, nil //nolint:nilnil // no window means the whole board.
	}

	if startRaw == "" || endRaw == "" {
		return nil, ErrWindowIncomplete
	}

	start, err := schedule.ParsePosition(startRaw)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", startFlag, err)
	}

	end, err := schedule.ParsePosition(endRaw)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", endFlag, err)
	}

	return &schedule.Window{Start: start, End: end}, nil
}

// gridOf loads the schedule at path ("-" reads stdin) and lays it out.
func gridOf(
	ctx context.Context, logger *slog.Logger, stdin io.Reader, path string, window *schedule.Window,
) (*schedule.Document, [][]schedule.Placement, error) {
	raw, err := readInput(stdin, path)
	if err != nil {
		return nil, nil, err
	}

	doc, err := schedule.Parse(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	board := schedule.NewBoard(schedule.WithLogger(logger))

	_, err = board.Reconcile(ctx, doc.Slots)
	if err != nil {
		return nil, nil, err
	}

	rows, err := board.Grid(ctx, window)
	if err != nil {
		return nil, nil, err
	}

	return doc, rows, nil
}
