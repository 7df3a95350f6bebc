package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"resultsview/internal/artifact"
)

func newDiscoverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Print the results root the dashboard would load",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.discover(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !r.Discovered {
				fmt.Fprintln(out, artifact.Status{Kind: artifact.KindRemote, Base: r.Base}.Message())
				return artifact.ErrRootNotFound
			}
			fmt.Fprintln(out, r.Base)
			return nil
		},
	}
}
