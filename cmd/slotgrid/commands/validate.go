package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/slotgrid/pkg/schedule"
)

// ErrValidationFailed is returned after a failed validation has been reported.
var ErrValidationFailed = errors.New("schedule validation failed")

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file|->",
		Short: "Check a schedule file against the schema",
		Long: `Validate checks a YAML or JSON schedule against the embedded JSON schema
and then for duplicate keys and entries that end before they start.`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}

	cmd.Flags().Bool(noColorFlag, false, "disable colours")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	noColor, _ := cmd.Flags().GetBool(noColorFlag)

	raw, err := readInput(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	ok := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	note := color.New(color.FgYellow)

	for _, c := range []*color.Color{ok, bad, note} {
		if noColor {
			c.DisableColor()
		}
	}

	out := cmd.OutOrStdout()

	doc, err := schedule.Parse(raw)
	if err == nil {
		ok.Fprintf(out, "schedule is valid (%s, %d slots)\n", args[0], len(doc.Slots))

		return nil
	}

	bad.Fprintf(out, "schedule is invalid (%s)\n", args[0])

	for _, problem := range problems(err) {
		note.Fprintf(out, "  - %s\n", problem)
	}

	return ErrValidationFailed
}

// problems flattens schema violations and joined check errors into lines.
func problems(err error) []string {
	var se *schedule.SchemaError
	if errors.As(err, &se) {
		return se.Problems
	}

	var lines []string

	for line := range strings.SplitSeq(err.Error(), "\n") {
		line = strings.TrimPrefix(line, schedule.ErrInvalidDocument.Error()+": ")
		if line != "" {
			lines = append(lines, line)
		}
	}

	return lines
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}

		return raw, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule %s: %w", path, err)
	}

	return raw, nil
}
