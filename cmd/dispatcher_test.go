package cmd

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/karasz/gtscale/timescale"
)

// 2009-04-02T07:26:39.314159265Z
const pinnedUTC = 1238657199314159265

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "cmd_log")
	if err != nil {
		panic(err)
	}
	_ = logger.Initialise(logger.Configuration{
		Directory: dir,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	})
	rc := m.Run()
	logger.Finalise()
	_ = os.RemoveAll(dir)
	os.Exit(rc)
}

// executeCommand runs the gtscale command with args and returns what it
// printed.
func executeCommand(args ...string) (string, error) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// pinClock fixes the wall clock at the UTC nanosecond count ns for the
// rest of the test.
func pinClock(t *testing.T, ns int64) {
	t.Helper()
	old := timescale.NowFunc
	timescale.NowFunc = func() time.Time { return time.Unix(0, ns) }
	t.Cleanup(func() { timescale.NowFunc = old })
}

func TestRootCommands(t *testing.T) {
	names := []string{}
	for _, c := range NewRootCmd().Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"convert", "mjd", "now", "leaps", "gtailocal", "gtclockd", "gtclockc", "gntpclockc"} {
		assert.Contains(t, names, want)
	}
}

func TestMainDispatcher(t *testing.T) {
	tests := []struct {
		name     string
		calledAs string
		args     []string
		want     int
	}{
		{"subcommand", "gtscale", []string{"mjd", "--from-mjd", "40587"}, 0},
		{"called as applet", "mjd", []string{"--from-mjd", "40587"}, 0},
		{"unknown name runs root", "a.out", []string{"mjd", "1970-01-01T00:00:00Z"}, 0},
		{"failing subcommand", "gtscale", []string{"convert", "not a time"}, exitFailure},
		{"applet failure", "mjd", []string{}, exitFailure},
		{"unknown subcommand", "gtscale", []string{"frobnicate"}, exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MainDispatcher(tt.calledAs, tt.args))
		})
	}
}
