package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/karasz/gtscale/timescale"
)

func newLeapsCmd() *cobra.Command {
	var file string

	c := &cobra.Command{
		Use:   "leaps",
		Short: "List the TAI-UTC table",
		Long: `List the TAI-UTC table: the UTC onset of each epoch, TAI-UTC at that
onset in seconds and the drift in seconds per day, which is zero from
1972 on. With --file the table is read from a file in the USNO
tai-utc.dat format instead of the built-in one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lt := timescale.Leaps()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				if lt, err = timescale.ParseLeapTable(f); err != nil {
					return fmt.Errorf("%s: %w", file, err)
				}
			}

			out := cmd.OutOrStdout()
			for _, e := range lt.Entries() {
				onset := timescale.NewTimePoint(timescale.UTC, e.UTCOnset)
				offset := float64(e.TAIOnset-e.UTCOnset) / 1e9
				_, _ = fmt.Fprintf(out, "%s %12.7f %9.6f\n", onset, offset, e.Drift)
			}
			return nil
		},
	}
	c.Flags().StringVarP(&file, "file", "f", "", "read the table from a tai-utc.dat file")
	return c
}
