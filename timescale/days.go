package timescale

import (
	"fmt"
	"math"
	"time"
)

// Day count constants. The epoch 1970-01-01T00:00:00 is MJD 40587.0 and
// JD 2440587.5.
const (
	MJDToJD  = 2400000.5
	EpochMJD = 40587.0

	nsPerDay = 86.4e12

	// maxDays is the span of signed 64-bit nanoseconds either side of the
	// epoch: 1677-09-21 to 2262-04-12.
	maxDays = 106751.99

	minYear = 1902
	maxYear = 2261
)

// Calendar holds broken-down date and time fields. Month and Day are
// 1-based.
type Calendar struct {
	Year, Month, Day     int
	Hour, Minute, Second int
}

func mjdOf(ns int64) float64 {
	return float64(ns)/nsPerDay + EpochMJD
}

// MJD returns t as a Modified Julian Date on t's own scale.
func (t TimePoint) MJD() float64 {
	return mjdOf(t.ns)
}

// JD returns t as a Julian Date on t's own scale.
func (t TimePoint) JD() float64 {
	return t.MJD() + MJDToJD
}

// FromMJD returns the time point at Modified Julian Date mjd on scale s.
func (s Scale) FromMJD(mjd float64) (TimePoint, error) {
	if math.IsNaN(mjd) || mjd > EpochMJD+maxDays || mjd < EpochMJD-maxDays {
		return TimePoint{}, fmt.Errorf("MJD %v: %w", mjd, ErrOutOfRange)
	}
	return TimePoint{scale: s, ns: int64((mjd - EpochMJD) * nsPerDay)}, nil
}

// FromJD returns the time point at Julian Date jd on scale s.
func (s Scale) FromJD(jd float64) (TimePoint, error) {
	return s.FromMJD(jd - MJDToJD)
}

// FromCalendar returns the time point for the given proleptic Gregorian
// fields read on scale s. Years outside [1902, 2261] are rejected;
// out-of-range fields are normalised (January 32 is February 1).
func (s Scale) FromCalendar(year, month, day, hour, minute, second int) (TimePoint, error) {
	if year < minYear || year > maxYear {
		return TimePoint{}, fmt.Errorf("year %d outside [%d, %d]: %w", year, minYear, maxYear, ErrOutOfRange)
	}
	// time.Date has no error sentinel, so 1969-12-31T23:59:59 (-1 s) needs
	// no special casing here.
	secs := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC).Unix()
	if secs > math.MaxInt64/nsPerSecond || secs < math.MinInt64/nsPerSecond {
		return TimePoint{}, fmt.Errorf("unconvertible date %04d-%02d-%02d: %w", year, month, day, ErrOutOfRange)
	}
	return TimePoint{scale: s, ns: secs * nsPerSecond}, nil
}

// Calendar breaks t into calendar fields, rounding toward negative
// infinity to whole seconds.
func (t TimePoint) Calendar() Calendar {
	sec, _ := floorSeconds(t.ns)
	u := time.Unix(sec, 0).UTC()
	year, month, day := u.Date()
	hour, minute, second := u.Clock()
	return Calendar{
		Year: year, Month: int(month), Day: day,
		Hour: hour, Minute: minute, Second: second,
	}
}
