package timescale

import (
	"fmt"
	"math"
)

// TTMinusTAI is the fixed offset of Terrestrial Time ahead of TAI, in
// nanoseconds.
const TTMinusTAI int64 = 32184000000

const secondsPerDay = 86400.0

type conversion func(lt *LeapTable, ns int64) (int64, error)

// conversions is indexed by [from][to].
var conversions = [...][3]conversion{
	UTC: {UTC: identity, TAI: utcToTAI, TT: utcToTT},
	TAI: {UTC: taiToUTC, TAI: identity, TT: taiToTT},
	TT:  {UTC: ttToUTC, TAI: ttToTAI, TT: identity},
}

// In returns t converted to scale to using the process-wide leap table.
func (t TimePoint) In(to Scale) (TimePoint, error) {
	return Leaps().Convert(t, to)
}

// Convert returns tp converted to scale to using the process-wide leap
// table.
func Convert(tp TimePoint, to Scale) (TimePoint, error) {
	return Leaps().Convert(tp, to)
}

// Convert returns tp converted to scale to. UTC<->TAI fails with
// ErrOutOfRange before the table's first onset.
func (lt *LeapTable) Convert(tp TimePoint, to Scale) (TimePoint, error) {
	if !tp.scale.valid() {
		return TimePoint{}, fmt.Errorf("from %s: %w", tp.scale, ErrUnknownScale)
	}
	if !to.valid() {
		return TimePoint{}, fmt.Errorf("to %s: %w", to, ErrUnknownScale)
	}
	ns, err := conversions[tp.scale][to](lt, tp.ns)
	if err != nil {
		return TimePoint{}, fmt.Errorf("%s->%s: %w", tp.scale, to, err)
	}
	return TimePoint{scale: to, ns: ns}, nil
}

func identity(_ *LeapTable, ns int64) (int64, error) {
	return ns, nil
}

func utcToTAI(lt *LeapTable, ns int64) (int64, error) {
	e, err := lt.ByUTC(ns)
	if err != nil {
		return 0, err
	}
	leap := e.seconds(mjdOf(ns))
	return addNanos(ns, roundNanos(leap))
}

func taiToUTC(lt *LeapTable, ns int64) (int64, error) {
	e, err := lt.ByTAI(ns)
	if err != nil {
		return 0, err
	}
	leap := e.seconds(mjdOf(ns))
	// the drift term is defined against UTC MJD, not TAI MJD
	leap /= 1.0 + e.Drift/secondsPerDay
	return addNanos(ns, -roundNanos(leap))
}

func taiToTT(_ *LeapTable, ns int64) (int64, error) {
	return addNanos(ns, TTMinusTAI)
}

func ttToTAI(_ *LeapTable, ns int64) (int64, error) {
	return addNanos(ns, -TTMinusTAI)
}

func utcToTT(lt *LeapTable, ns int64) (int64, error) {
	tai, err := utcToTAI(lt, ns)
	if err != nil {
		return 0, err
	}
	return taiToTT(lt, tai)
}

func ttToUTC(lt *LeapTable, ns int64) (int64, error) {
	tai, err := ttToTAI(lt, ns)
	if err != nil {
		return 0, err
	}
	return taiToUTC(lt, tai)
}

// roundNanos converts seconds to the nearest nanosecond, ties away from
// zero.
func roundNanos(seconds float64) int64 {
	return int64(math.Round(seconds * 1e9))
}

func addNanos(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, fmt.Errorf("%d ns %+d ns overflows: %w", a, b, ErrOutOfRange)
	}
	return a + b, nil
}
