package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/karasz/gtscale/tai64"
	"github.com/karasz/gtscale/timescale"
)

func newConvertCmd() *cobra.Command {
	from, to := timescale.UTC, timescale.TAI
	var label bool

	c := &cobra.Command{
		Use:   "convert TIME",
		Short: "Convert an ISO-8601 time from one timescale to another",
		Example: `  gtscale convert 2009-04-02T07:26:39.314159265Z
  gtscale convert --from tai --to tt 20090402T072713`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tp, err := from.Parse(args[0])
			if err != nil {
				return err
			}
			out, err := tp.In(to)
			if err != nil {
				return err
			}
			if label {
				text, err := tai64.Format(out)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", out, text)
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	c.Flags().Var(&from, "from", "timescale of TIME: utc, tai or tt")
	c.Flags().Var(&to, "to", "timescale to print: utc, tai or tt")
	c.Flags().BoolVar(&label, "label", false, "also print the TAI64N label")
	return c
}

func newMJDCmd() *cobra.Command {
	scale := timescale.UTC
	var fromMJD, fromJD float64

	c := &cobra.Command{
		Use:   "mjd [TIME]",
		Short: "Print the Modified Julian Date and Julian Date of a time, or the time of a day count",
		Example: `  gtscale mjd 1970-01-01T00:00:00Z
  gtscale mjd --scale tai --from-mjd 54922.31`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			mjdSet := cmd.Flags().Changed("from-mjd")
			jdSet := cmd.Flags().Changed("from-jd")

			switch {
			case mjdSet && jdSet:
				return errors.New("--from-mjd and --from-jd are exclusive")
			case (mjdSet || jdSet) && len(args) > 0:
				return errors.New("TIME cannot be combined with --from-mjd or --from-jd")
			case mjdSet || jdSet:
				var (
					tp  timescale.TimePoint
					err error
				)
				if mjdSet {
					tp, err = scale.FromMJD(fromMJD)
				} else {
					tp, err = scale.FromJD(fromJD)
				}
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, tp)
				return nil
			case len(args) == 0:
				return errors.New("TIME, --from-mjd or --from-jd required")
			}

			tp, err := scale.Parse(args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "MJD %s\nJD %s\n", formatDays(tp.MJD()), formatDays(tp.JD()))
			return nil
		},
	}
	c.Flags().Var(&scale, "scale", "timescale of TIME and of the printed result: utc, tai or tt")
	c.Flags().Float64Var(&fromMJD, "from-mjd", 0, "print the time at this Modified Julian Date")
	c.Flags().Float64Var(&fromJD, "from-jd", 0, "print the time at this Julian Date")
	return c
}

func formatDays(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}
