package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"resultsview/internal/format"
	"resultsview/internal/manifest"
)

func newCheckCmd(a *app) *cobra.Command {
	var flags struct {
		markdown bool
		strict   bool
		limit    int
	}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "List which expected result files are present",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			cats, err := manifest.Check(ctx, s, manifest.Expected(), flags.limit)
			if err != nil {
				return fmt.Errorf("check files: %w", err)
			}
			m := format.ModeFor(flags.markdown)
			fmt.Fprint(cmd.OutOrStdout(), format.Lines(
				format.Status(s.Status(), m),
				format.Checker(cats, m),
			))

			if flags.strict {
				missing := 0
				for _, c := range cats {
					p, n := c.Counts()
					missing += n - p
				}
				if missing > 0 {
					return fmt.Errorf("%d expected files missing", missing)
				}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&flags.markdown, "markdown", false, "Render Markdown instead of a terminal table")
	f.BoolVar(&flags.strict, "strict", false, "Exit non-zero when any expected file is missing")
	f.IntVar(&flags.limit, "parallel", 8, "Maximum concurrent presence probes")
	return cmd
}
