package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/karasz/gtscale/tai64"
	"github.com/karasz/gtscale/timescale"
)

func newNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Print the current time on every timescale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			utc := timescale.UTC.Now()
			out := cmd.OutOrStdout()
			for _, s := range []timescale.Scale{timescale.UTC, timescale.TAI, timescale.TT} {
				tp, err := utc.In(s)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "%-6s %s\n", s, tp)
			}
			label, err := tai64.Format(utc)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "%-6s %s\n", "TAI64N", label)
			return nil
		},
	}
}
