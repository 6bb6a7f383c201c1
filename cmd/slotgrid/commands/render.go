package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/slotgrid/pkg/observability"
	"github.com/Sumatoshi-tech/slotgrid/pkg/render"
)

const (
	outputFlag      = "output"
	outputShort     = "o"
	titleFlag       = "title"
	renderFilePerms = 0o644
)

// ErrNoOutput is returned when --output is not set.
var ErrNoOutput = errors.New("output file is required (use --output)")

func newRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <file|->",
		Short: "Write the grid of a schedule file as an HTML Gantt chart",
		Args:  cobra.ExactArgs(1),
		RunE:  runRender,
	}

	addWindowFlags(cmd)
	cmd.Flags().StringP(outputFlag, outputShort, "", "output HTML file")
	cmd.Flags().String(titleFlag, "", "chart title (default: the document title)")

	return cmd
}

func runRender(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString(outputFlag)
	if output == "" {
		return ErrNoOutput
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	window, err := windowFromFlags(cmd)
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cmd.ErrOrStderr(), telemetryConfig(cfg, observability.ModeCLI))

	doc, rows, err := gridOf(cmd.Context(), logger, cmd.InOrStdin(), args[0], window)
	if err != nil {
		return err
	}

	opts := renderOptions(cfg)
	if doc.Title != "" {
		opts.Title = doc.Title
	}

	if title, _ := cmd.Flags().GetString(titleFlag); title != "" {
		opts.Title = title
	}

	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, renderFilePerms)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}

	err = render.HTML(f, rows, opts)
	closeErr := f.Close()

	if err != nil {
		return err
	}

	if closeErr != nil {
		return fmt.Errorf("close %s: %w", output, closeErr)
	}

	logger.InfoContext(cmd.Context(), "rendered", "output", output, "summary", render.Summary(rows))

	return nil
}
