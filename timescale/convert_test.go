package timescale

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustIn(t *testing.T, tp TimePoint, to Scale) TimePoint {
	t.Helper()
	out, err := tp.In(to)
	require.NoError(t, err)
	return out
}

func TestConvertFromMJD(t *testing.T) {
	ts, err := UTC.FromMJD(45205.125)
	require.NoError(t, err)
	assert.Equal(t, int64(399006000000000000), ts.Nanoseconds())

	tai := mustIn(t, ts, TAI)
	assert.Equal(t, int64(399006021000000000), tai.Nanoseconds())
	assert.InDelta(t, 45205.125, ts.MJD(), 1e-5)
	assert.InDelta(t, 45205.125+21.0/86400.0, tai.MJD(), 1e-5)
}

func TestConvertLeapSecondBoundaries(t *testing.T) {
	tests := []struct {
		mjd  float64
		leap time.Duration
	}{
		{45205.0, 21 * time.Second},
		{41498.99, 10 * time.Second},
		{41499.01, 11 * time.Second},
		{57203.99, 35 * time.Second},
		{57204.01, 36 * time.Second},
		{57000.0, 35 * time.Second},
		{57210.0, 36 * time.Second},
	}

	for _, tt := range tests {
		utc, err := UTC.FromMJD(tt.mjd)
		require.NoError(t, err)
		tai := mustIn(t, utc, TAI)
		got := time.Duration(tai.Nanoseconds()-utc.Nanoseconds()) / time.Second * time.Second
		assert.Equal(t, tt.leap, got, "MJD %v", tt.mjd)
	}
}

func TestConvertKnownInstants(t *testing.T) {
	tests := []struct {
		name string
		from TimePoint
		to   Scale
		want int64
	}{
		{"2007 UTC to TAI", NewTimePoint(UTC, 1192755473000000000), TAI, 1192755506000000000},
		{"2007 TAI to UTC", NewTimePoint(TAI, 1192755506000000000), UTC, 1192755473000000000},
		{"2007 TT to UTC", NewTimePoint(TT, 1192755538184000000), UTC, 1192755473000000000},
		{"2007 TT to TAI", NewTimePoint(TT, 1192755538184000000), TAI, 1192755506000000000},
		{"1990 boundary", NewTimePoint(UTC, 631152000000000000), TAI, 631152025000000000},
		{"two seconds before 1990", NewTimePoint(UTC, 631151998000000000), TAI, 631152022000000000},
		{"2009 UTC to TAI", NewTimePoint(UTC, 1238657199314159265), TAI, 1238657233314159265},
		{"2009 UTC to TT", NewTimePoint(UTC, 1238657199314159265), TT, 1238657265498159265},
		{"identity", NewTimePoint(TT, 42), TT, 42},
		{"TAI epoch to UTC", NewTimePoint(TAI, 0), UTC, -8000081760},
		{"TAI -1 to UTC", NewTimePoint(TAI, -1), UTC, -8000081761},
		{"TAI 1 to UTC", NewTimePoint(TAI, 1), UTC, -8000081759},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustIn(t, tt.from, tt.to)
			assert.Equal(t, tt.to, got.Scale())
			assert.Equal(t, tt.want, got.Nanoseconds())
		})
	}
}

func TestConvertMJDAfterConversion(t *testing.T) {
	utc := mustIn(t, NewTimePoint(TAI, 1192755506000000000), UTC)
	assert.InDelta(t, 54392.040196759262, utc.MJD(), 1e-9)
}

func TestConvertFixedTTOffset(t *testing.T) {
	for _, ns := range []int64{math.MinInt64 + TTMinusTAI, -1e18, -1, 0, 1, 1238657233314159265, math.MaxInt64 - TTMinusTAI} {
		tai := NewTimePoint(TAI, ns)
		tt := mustIn(t, tai, TT)
		d, err := tt.Sub(NewTimePoint(TT, ns))
		require.NoError(t, err)
		assert.Equal(t, 32184*time.Millisecond, d)
		assert.True(t, mustIn(t, tt, TAI).Equal(tai))
	}
}

func TestConvertOverflow(t *testing.T) {
	_, err := NewTimePoint(TAI, math.MaxInt64-TTMinusTAI+1).In(TT)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = NewTimePoint(TT, math.MinInt64+TTMinusTAI-1).In(TAI)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestConvertBeforeLeapTable(t *testing.T) {
	early := NewTimePoint(UTC, -500000000*nsPerSecond)
	_, err := early.In(TAI)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = early.In(TT)
	assert.ErrorIs(t, err, ErrOutOfRange)

	utc, err := UTC.Parse("1960-12-31T23:59:59Z")
	require.NoError(t, err)
	_, err = utc.In(TAI)
	assert.ErrorIs(t, err, ErrOutOfRange)

	utc, err = UTC.Parse("1961-01-01T00:00:00Z")
	require.NoError(t, err)
	_, err = utc.In(TAI)
	assert.NoError(t, err)

	// TAI and TT points before the table exist but have no UTC reading
	for _, s := range []Scale{TAI, TT} {
		tp, err := s.Parse("1960-01-01T00:00:00")
		require.NoError(t, err)
		_, err = tp.In(UTC)
		assert.ErrorIs(t, err, ErrOutOfRange, s.String())
	}
}

func TestConvertUnknownScale(t *testing.T) {
	_, err := NewTimePoint(UTC, 0).In(Scale(9))
	assert.ErrorIs(t, err, ErrUnknownScale)

	_, err = Convert(NewTimePoint(Scale(9), 0), TAI)
	assert.ErrorIs(t, err, ErrUnknownScale)
}

func TestConvertRoundTrip(t *testing.T) {
	inputs := []string{
		"1961-01-01T00:00:00Z",
		"1969-03-01T12:39:45.12345Z",
		"1969-03-01T12:39:45.123456Z",
		"1972-01-01T00:00:00Z",
		"1972-06-30T23:59:59.999999999Z",
		"2009-04-02T07:26:39.314159265Z",
		"2016-12-31T23:59:59.5Z",
		"2017-01-01T00:00:00Z",
		"2040-01-01T00:00:00Z",
	}

	for _, in := range inputs {
		utc, err := UTC.Parse(in)
		require.NoError(t, err)
		for _, via := range []Scale{TAI, TT} {
			back := mustIn(t, mustIn(t, utc, via), UTC)
			assert.Equal(t, utc, back, "%s via %s", in, via)
		}
	}
}

func TestConvertPre1972(t *testing.T) {
	tests := []struct {
		in  string
		tai int64
	}{
		{"1969-03-01T12:39:45.12345Z", -26392807668252446},
		{"1969-03-01T12:39:45.123456Z", -26392807668246446},
	}

	for _, tt := range tests {
		utc, err := UTC.Parse(tt.in)
		require.NoError(t, err)
		tai := mustIn(t, utc, TAI)
		assert.Equal(t, tt.tai, tai.Nanoseconds())
		assert.Equal(t, utc.String(), mustIn(t, tai, UTC).String())
	}
}
