package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/slotgrid/pkg/observability"
	"github.com/Sumatoshi-tech/slotgrid/pkg/render"
	"github.com/Sumatoshi-tech/slotgrid/pkg/schedule"
)

const jsonFlag = "json"

type layoutOutput struct {
	Title   string                 `json:"title,omitempty"`
	Rows    [][]schedule.Placement `json:"rows"`
	Summary string                 `json:"summary"`
}

func newLayoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout <file|->",
		Short: "Print the grid of a schedule file",
		Args:  cobra.ExactArgs(1),
		RunE:  runLayout,
	}

	addWindowFlags(cmd)
	cmd.Flags().Bool(jsonFlag, false, "print the grid as JSON")
	cmd.Flags().Bool(noColorFlag, false, "disable colours")

	return cmd
}

func runLayout(cmd *cobra.Command, args []string) error {
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

	asJSON, _ := cmd.Flags().GetBool(jsonFlag)
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		err = enc.Encode(layoutOutput{Title: doc.Title, Rows: rows, Summary: render.Summary(rows)})
		if err != nil {
			return fmt.Errorf("encode grid: %w", err)
		}

		return nil
	}

	opts := renderOptions(cfg)
	if doc.Title != "" {
		opts.Title = doc.Title
	}

	noColor, _ := cmd.Flags().GetBool(noColorFlag)
	if noColor {
		opts.Color = false
	}

	return render.Text(cmd.OutOrStdout(), rows, opts)
}
