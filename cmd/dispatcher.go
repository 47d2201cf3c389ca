// Package cmd implements the gtscale command line: timescale conversion
// subcommands and the TAICLOCK daemon and client.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// exitFailure is the status reported for any failure, as djb's tools do.
const exitFailure = 111

// Version is set at build time with -ldflags.
var Version = "dev"

// NewRootCmd returns the gtscale command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gtscale",
		Short: "Convert instants between UTC, TAI and TT and serve TAI time",
		Long: `gtscale converts instants between the UTC, TAI and TT timescales with
nanosecond precision, using the historical TAI-UTC table from 1961 on.

It also carries a TAICLOCK server (gtclockd), its client (gtclockc), an
SNTP client (gntpclockc) and a filter rewriting TAI64N labels in logs
(gtailocal). Linked or copied under
one of those names it runs that applet directly.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newConvertCmd(),
		newMJDCmd(),
		newNowCmd(),
		newLeapsCmd(),
		newTAILocalCmd(),
		newGTClockDCmd(),
		newGTClockCCmd(),
		newGNTPClockCCmd(),
	)
	return root
}

// MainDispatcher runs the applet calledAs names, or the gtscale command
// for any other name, and returns the process exit status.
func MainDispatcher(calledAs string, args []string) int {
	root := NewRootCmd()
	for _, c := range root.Commands() {
		if c.Name() == calledAs {
			args = append([]string{calledAs}, args...)
			break
		}
	}
	root.SetArgs(args)

	if err := root.ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintf(root.ErrOrStderr(), "%s: %v\n", calledAs, err)
		return exitFailure
	}
	return 0
}
