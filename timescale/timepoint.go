package timescale

import (
	"fmt"
	"time"
)

const nsPerSecond = int64(time.Second)

// TimePoint is an instant counted in nanoseconds since 1970-01-01T00:00:00
// on the timeline of its Scale. The zero value is the UTC epoch.
type TimePoint struct {
	scale Scale
	ns    int64
}

// NewTimePoint returns the time point ns nanoseconds after the epoch of s.
func NewTimePoint(s Scale, ns int64) TimePoint {
	return TimePoint{scale: s, ns: ns}
}

// Scale returns the timescale t is counted in.
func (t TimePoint) Scale() Scale {
	return t.scale
}

// Nanoseconds returns the count of nanoseconds since the scale's epoch.
func (t TimePoint) Nanoseconds() int64 {
	return t.ns
}

// Add returns t+d on the same scale.
func (t TimePoint) Add(d time.Duration) TimePoint {
	return TimePoint{scale: t.scale, ns: t.ns + int64(d)}
}

// Sub returns t-u. Both time points must share a scale.
func (t TimePoint) Sub(u TimePoint) (time.Duration, error) {
	if t.scale != u.scale {
		return 0, fmt.Errorf("%s - %s: %w", t.scale, u.scale, ErrScaleMismatch)
	}
	return time.Duration(t.ns - u.ns), nil
}

// Equal reports whether t and u are the same instant on the same scale.
func (t TimePoint) Equal(u TimePoint) bool {
	return t.scale == u.scale && t.ns == u.ns
}

// Before reports whether t's count is less than u's. Only meaningful when
// both share a scale.
func (t TimePoint) Before(u TimePoint) bool {
	return t.ns < u.ns
}

// After reports whether t's count is greater than u's.
func (t TimePoint) After(u TimePoint) bool {
	return t.ns > u.ns
}

// Timespec splits t into whole seconds and nanoseconds, truncating toward
// zero like a C struct timespec.
func (t TimePoint) Timespec() (sec, nsec int64) {
	return t.ns / nsPerSecond, t.ns % nsPerSecond
}

// Timeval splits t into whole seconds and microseconds, truncating toward
// zero like a C struct timeval.
func (t TimePoint) Timeval() (sec, usec int64) {
	return t.ns / nsPerSecond, (t.ns / 1000) % 1000000
}

// Time returns t's count as a time.Time in the UTC location. No scale
// conversion happens: a TAI point yields the TAI calendar reading.
func (t TimePoint) Time() time.Time {
	return time.Unix(0, t.ns).UTC()
}

// floorSeconds splits ns into whole seconds rounded toward negative
// infinity and a non-negative nanosecond remainder.
func floorSeconds(ns int64) (sec, frac int64) {
	sec, frac = ns/nsPerSecond, ns%nsPerSecond
	if frac < 0 {
		sec--
		frac += nsPerSecond
	}
	return sec, frac
}
