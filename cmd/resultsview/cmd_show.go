package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"resultsview/internal/artifact"
	"resultsview/internal/format"
)

func newShowCmd(a *app) *cobra.Command {
	var flags struct {
		markdown bool
		maxCell  int
	}
	cmd := &cobra.Command{
		Use:   "show <artifact>",
		Short: "Print one CSV or JSON artifact",
		Long: `Prints an artifact by its path relative to the results root, for example
"patient_metrics_summary.csv" or "ai_reports/index.csv". CSV files are shown
as a table and JSON files pretty-printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			p := args[0]
			out := cmd.OutOrStdout()
			m := format.ModeFor(flags.markdown)

			switch strings.ToLower(path.Ext(p)) {
			case ".csv":
				t, err := s.Table(ctx, p)
				if err != nil {
					return showError(p, err)
				}
				fmt.Fprint(out, format.Lines(format.Heading(m, p), format.Table(t, m, flags.maxCell)))
			case ".json":
				v, err := s.JSON(ctx, p)
				if err != nil {
					return showError(p, err)
				}
				b, err := json.MarshalIndent(v, "", "  ")
				if err != nil {
					return fmt.Errorf("format %s: %w", p, err)
				}
				fmt.Fprintf(out, "%s\n", b)
			default:
				return fmt.Errorf("show %s: only .csv and .json artifacts can be printed", p)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&flags.markdown, "markdown", false, "Render Markdown instead of a terminal table")
	f.IntVar(&flags.maxCell, "max-cell", 60, "Truncate cells longer than this many characters (0 = no limit)")
	return cmd
}

// showError prefers the parse failure over plain absence so a malformed
// file is reported as such.
func showError(p string, err error) error {
	var perr *artifact.ParseError
	if errors.As(err, &perr) {
		return fmt.Errorf("show %s: %w", p, perr)
	}
	return fmt.Errorf("show %s: %w", p, err)
}
