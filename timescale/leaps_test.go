package timescale

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeapsTable(t *testing.T) {
	lt := Leaps()
	require.Equal(t, 41, lt.Len())

	entries := lt.Entries()
	first := entries[0]
	assert.Equal(t, int64(-283996800000000000), first.UTCOnset, "1961-01-01T00:00:00Z")
	assert.Equal(t, int64(-283996798577182000), first.TAIOnset)
	assert.Equal(t, 1.422818, first.Offset)
	assert.Equal(t, 37300.0, first.MJDRef)
	assert.Equal(t, 0.001296, first.Drift)

	last := entries[len(entries)-1]
	assert.Equal(t, 37.0, last.Offset)
	assert.Zero(t, last.Drift)
	assert.Equal(t, last.UTCOnset+37*nsPerSecond, last.TAIOnset)
}

func TestLeapsMonotonic(t *testing.T) {
	entries := Leaps().Entries()
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].UTCOnset, entries[i].UTCOnset, "UTC onset %d", i)
		assert.Less(t, entries[i-1].TAIOnset, entries[i].TAIOnset, "TAI onset %d", i)
	}
}

func TestLeapsEntriesIsCopy(t *testing.T) {
	entries := Leaps().Entries()
	entries[0].Offset = 99
	assert.Equal(t, 1.422818, Leaps().Entries()[0].Offset)
}

func TestLeapsConcurrentFirstUse(t *testing.T) {
	var wg sync.WaitGroup
	tables := make([]*LeapTable, 16)
	for i := range tables {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tables[i] = Leaps()
		}(i)
	}
	wg.Wait()
	for _, lt := range tables {
		assert.Same(t, tables[0], lt)
	}
}

func TestLeapsLookup(t *testing.T) {
	const jan1972 = int64(63072000000000000)
	lt := Leaps()

	tests := []struct {
		name    string
		byTAI   bool
		ns      int64
		offset  float64
		wantErr bool
	}{
		{name: "first UTC onset", ns: -283996800000000000, offset: 1.422818},
		{name: "before first UTC onset", ns: -283996800000000001, wantErr: true},
		{name: "1972 UTC onset", ns: jan1972, offset: 10},
		{name: "just before 1972 on UTC axis", ns: jan1972 - 1, offset: 4.21317},
		{name: "far future", ns: 4102444800000000000, offset: 37},
		{name: "1972 TAI onset", byTAI: true, ns: jan1972 + 10*nsPerSecond, offset: 10},
		{name: "UTC onset on TAI axis", byTAI: true, ns: jan1972, offset: 4.21317},
		{name: "first TAI onset", byTAI: true, ns: -283996798577182000, offset: 1.422818},
		{name: "before first TAI onset", byTAI: true, ns: -283996798577182001, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				e   LeapEntry
				err error
			)
			if tt.byTAI {
				e, err = lt.ByTAI(tt.ns)
			} else {
				e, err = lt.ByUTC(tt.ns)
			}
			if tt.wantErr {
				require.ErrorIs(t, err, ErrOutOfRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.offset, e.Offset)
		})
	}
}

func TestLeapsOffsetAt(t *testing.T) {
	lt := Leaps()

	off, err := lt.OffsetAt(NewTimePoint(UTC, 1238657199314159265))
	require.NoError(t, err)
	assert.Equal(t, 34.0, off)

	// 1970-01-01 lies on the drifting 1968 entry
	off, err = lt.OffsetAt(NewTimePoint(UTC, 0))
	require.NoError(t, err)
	assert.InDelta(t, 8.000082, off, 1e-9)

	_, err = lt.OffsetAt(NewTimePoint(TAI, 0))
	assert.ErrorIs(t, err, ErrScaleMismatch)
}

func TestParseLeapTable(t *testing.T) {
	const good = `
1972 JAN  1 =JD 2441317.5  TAI-UTC=  10.0       S + (MJD - 41317.) X 0.0      S

1972 JUL  1 =JD 2441499.5  TAI-UTC=  11.0       S + (MJD - 41317.) X 0.0      S
`
	tests := []struct {
		name    string
		text    string
		entries int
	}{
		{name: "two entries with blank lines", text: good, entries: 2},
		{name: "empty", text: ""},
		{name: "garbage", text: "1972 JAN  1 leap happened\n"},
		{name: "missing drift", text: "1972 JAN  1 =JD 2441317.5  TAI-UTC=  10.0       S\n"},
		{
			name: "out of order",
			text: "1972 JUL  1 =JD 2441499.5  TAI-UTC=  11.0       S + (MJD - 41317.) X 0.0      S\n" +
				"1972 JAN  1 =JD 2441317.5  TAI-UTC=  10.0       S + (MJD - 41317.) X 0.0      S\n",
		},
		{
			name: "duplicate onset",
			text: "1972 JAN  1 =JD 2441317.5  TAI-UTC=  10.0       S + (MJD - 41317.) X 0.0      S\n" +
				"1972 JAN  1 =JD 2441317.5  TAI-UTC=  10.0       S + (MJD - 41317.) X 0.0      S\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lt, err := ParseLeapTable(strings.NewReader(tt.text))
			if tt.entries == 0 {
				require.ErrorIs(t, err, ErrLeapTable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.entries, lt.Len())
		})
	}
}

func TestCustomTableConvert(t *testing.T) {
	lt, err := ParseLeapTable(strings.NewReader(
		"1972 JAN  1 =JD 2441317.5  TAI-UTC=  10.0       S + (MJD - 41317.) X 0.0      S\n"))
	require.NoError(t, err)

	// the single entry applies forever after its onset
	tai, err := lt.Convert(NewTimePoint(UTC, 1238657199314159265), TAI)
	require.NoError(t, err)
	assert.Equal(t, int64(1238657209314159265), tai.Nanoseconds())

	_, err = lt.Convert(NewTimePoint(UTC, 0), TAI)
	assert.ErrorIs(t, err, ErrOutOfRange)
}
