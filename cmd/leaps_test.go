package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karasz/gtscale/timescale"
)

func TestNowCmd(t *testing.T) {
	pinClock(t, pinnedUTC)

	out, err := executeCommand("now")
	require.NoError(t, err)
	assert.Equal(t, "UTC    2009-04-02T07:26:39.314159265Z\n"+
		"TAI    2009-04-02T07:27:13.314159265\n"+
		"TT     2009-04-02T07:27:45.498159265\n"+
		"TAI64N @4000000049D468D112B9B0A1\n", out)
}

func TestLeapsCmd(t *testing.T) {
	out, err := executeCommand("leaps")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, timescale.Leaps().Len())
	assert.Equal(t, []string{"1961-01-01T00:00:00.000000000Z", "1.4228180", "0.001296"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1972-01-01T00:00:00.000000000Z", "10.0000000", "0.000000"}, strings.Fields(lines[13]))
	assert.Equal(t, []string{"2017-01-01T00:00:00.000000000Z", "37.0000000", "0.000000"}, strings.Fields(lines[len(lines)-1]))
}

func TestLeapsCmdFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "tai-utc.dat")
	data := " 2015 JUL  1 =JD 2457204.5  TAI-UTC=  36.0       S + (MJD - 41317.) X 0.0      S\n" +
		" 2017 JAN  1 =JD 2457754.5  TAI-UTC=  37.0       S + (MJD - 41317.) X 0.0      S\n"
	require.NoError(t, os.WriteFile(file, []byte(data), 0o644))

	out, err := executeCommand("leaps", "--file", file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2015-07-01T00:00:00.000000000Z", strings.Fields(lines[0])[0])
	assert.Equal(t, "36.0000000", strings.Fields(lines[0])[1])

	require.NoError(t, os.WriteFile(file, []byte("not a leap line\n"), 0o644))
	_, err = executeCommand("leaps", "-f", file)
	assert.ErrorIs(t, err, timescale.ErrLeapTable)

	_, err = executeCommand("leaps", "-f", filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
