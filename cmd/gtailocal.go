package cmd

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/karasz/gtscale/tai64"
	"github.com/karasz/gtscale/timescale"
)

const (
	tainLabelLength = 25
	taiLabelLength  = 17
)

// labelRewriter replaces external TAI64N and TAI64 labels with ISO-8601
// text on one timescale.
type labelRewriter struct {
	scale timescale.Scale
}

// tryParseTimestamp attempts to read a label of the given length at the
// start of s, returning its replacement text.
func (r labelRewriter) tryParseTimestamp(s string, length int) (string, bool) {
	if len(s) < length {
		return "", false
	}
	tp, err := tai64.Parse(s[:length])
	if err != nil {
		return "", false
	}
	tp, err = tp.In(r.scale)
	if err != nil {
		return "", false
	}
	return tp.String(), true
}

// processline rewrites every label in s, trying TAI64N before TAI64.
// Anything that does not parse is copied unchanged.
func (r labelRewriter) processline(s string) string {
	var b strings.Builder
	for {
		atpos := strings.IndexByte(s, '@')
		if atpos == -1 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:atpos])
		s = s[atpos:]

		replaced := false
		for _, length := range []int{tainLabelLength, taiLabelLength} {
			if text, ok := r.tryParseTimestamp(s, length); ok {
				b.WriteString(text)
				s = s[length:]
				replaced = true
				break
			}
		}
		if !replaced {
			b.WriteByte('@')
			s = s[1:]
		}
	}
}

// validateInputFile checks that standard input is a pipe.
func validateInputFile(file *os.File) error {
	info, err := file.Stat()
	if err != nil {
		return err
	}

	if info.Mode()&os.ModeNamedPipe == 0 {
		return errors.New("the command is intended to work with pipes.\nUsage: cat logfile | gtailocal")
	}

	return nil
}

// processInputStream reads lines from in and writes them rewritten to
// output, flushing after every line.
func (r labelRewriter) processInputStream(in *bufio.Reader, output *bufio.Writer) error {
	for {
		input, err := in.ReadString('\n')
		if input != "" {
			if _, werr := output.WriteString(r.processline(input)); werr != nil {
				return werr
			}
			if werr := output.Flush(); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func newTAILocalCmd() *cobra.Command {
	r := labelRewriter{scale: timescale.UTC}

	c := &cobra.Command{
		Use:   "gtailocal [FILE]",
		Short: "Rewrite TAI64N and TAI64 labels in a log as ISO-8601 times",
		Long: `gtailocal copies its input to its output, replacing every external TAI64N
("@" and 24 hex digits) or TAI64 ("@" and 16 hex digits) label with the
ISO-8601 time it names on the chosen timescale. Without FILE, or with
"-", it reads standard input, which must be a pipe.`,
		Example: "  tail -f /service/gtclockd/log/main/current | gtailocal --scale tai",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				input = f
			} else if f, ok := input.(*os.File); ok {
				if err := validateInputFile(f); err != nil {
					return err
				}
			}

			output := bufio.NewWriter(cmd.OutOrStdout())
			err := r.processInputStream(bufio.NewReader(input), output)
			_ = output.Flush()
			return err
		},
	}
	c.Flags().Var(&r.scale, "scale", "timescale to print: utc, tai or tt")
	return c
}
