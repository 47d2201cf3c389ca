package timescale

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// leapData is the USNO tai-utc.dat table, one leap epoch per line.
//
// Source: http://maia.usno.navy.mil/ser7/tai-utc.dat
const leapData = `1961 JAN  1 =JD 2437300.5  TAI-UTC=   1.4228180 S + (MJD - 37300.) X 0.001296 S
1961 AUG  1 =JD 2437512.5  TAI-UTC=   1.3728180 S + (MJD - 37300.) X 0.001296 S
1962 JAN  1 =JD 2437665.5  TAI-UTC=   1.8458580 S + (MJD - 37665.) X 0.0011232S
1963 NOV  1 =JD 2438334.5  TAI-UTC=   1.9458580 S + (MJD - 37665.) X 0.0011232S
1964 JAN  1 =JD 2438395.5  TAI-UTC=   3.2401300 S + (MJD - 38761.) X 0.001296 S
1964 APR  1 =JD 2438486.5  TAI-UTC=   3.3401300 S + (MJD - 38761.) X 0.001296 S
1964 SEP  1 =JD 2438639.5  TAI-UTC=   3.4401300 S + (MJD - 38761.) X 0.001296 S
1965 JAN  1 =JD 2438761.5  TAI-UTC=   3.5401300 S + (MJD - 38761.) X 0.001296 S
1965 MAR  1 =JD 2438820.5  TAI-UTC=   3.6401300 S + (MJD - 38761.) X 0.001296 S
1965 JUL  1 =JD 2438942.5  TAI-UTC=   3.7401300 S + (MJD - 38761.) X 0.001296 S
1965 SEP  1 =JD 2439004.5  TAI-UTC=   3.8401300 S + (MJD - 38761.) X 0.001296 S
1966 JAN  1 =JD 2439126.5  TAI-UTC=   4.3131700 S + (MJD - 39126.) X 0.002592 S
1968 FEB  1 =JD 2439887.5  TAI-UTC=   4.2131700 S + (MJD - 39126.) X 0.002592 S
1972 JAN  1 =JD 2441317.5  TAI-UTC=  10.0       S + (MJD - 41317.) X 0.0      S
1972 JUL  1 =JD 2441499.5  TAI-UTC=  11.0       S + (MJD - 41317.) X 0.0      S
1973 JAN  1 =JD 2441683.5  TAI-UTC=  12.0       S + (MJD - 41317.) X 0.0      S
1974 JAN  1 =JD 2442048.5  TAI-UTC=  13.0       S + (MJD - 41317.) X 0.0      S
1975 JAN  1 =JD 2442413.5  TAI-UTC=  14.0       S + (MJD - 41317.) X 0.0      S
1976 JAN  1 =JD 2442778.5  TAI-UTC=  15.0       S + (MJD - 41317.) X 0.0      S
1977 JAN  1 =JD 2443144.5  TAI-UTC=  16.0       S + (MJD - 41317.) X 0.0      S
1978 JAN  1 =JD 2443509.5  TAI-UTC=  17.0       S + (MJD - 41317.) X 0.0      S
1979 JAN  1 =JD 2443874.5  TAI-UTC=  18.0       S + (MJD - 41317.) X 0.0      S
1980 JAN  1 =JD 2444239.5  TAI-UTC=  19.0       S + (MJD - 41317.) X 0.0      S
1981 JUL  1 =JD 2444786.5  TAI-UTC=  20.0       S + (MJD - 41317.) X 0.0      S
1982 JUL  1 =JD 2445151.5  TAI-UTC=  21.0       S + (MJD - 41317.) X 0.0      S
1983 JUL  1 =JD 2445516.5  TAI-UTC=  22.0       S + (MJD - 41317.) X 0.0      S
1985 JUL  1 =JD 2446247.5  TAI-UTC=  23.0       S + (MJD - 41317.) X 0.0      S
1988 JAN  1 =JD 2447161.5  TAI-UTC=  24.0       S + (MJD - 41317.) X 0.0      S
1990 JAN  1 =JD 2447892.5  TAI-UTC=  25.0       S + (MJD - 41317.) X 0.0      S
1991 JAN  1 =JD 2448257.5  TAI-UTC=  26.0       S + (MJD - 41317.) X 0.0      S
1992 JUL  1 =JD 2448804.5  TAI-UTC=  27.0       S + (MJD - 41317.) X 0.0      S
1993 JUL  1 =JD 2449169.5  TAI-UTC=  28.0       S + (MJD - 41317.) X 0.0      S
1994 JUL  1 =JD 2449534.5  TAI-UTC=  29.0       S + (MJD - 41317.) X 0.0      S
1996 JAN  1 =JD 2450083.5  TAI-UTC=  30.0       S + (MJD - 41317.) X 0.0      S
1997 JUL  1 =JD 2450630.5  TAI-UTC=  31.0       S + (MJD - 41317.) X 0.0      S
1999 JAN  1 =JD 2451179.5  TAI-UTC=  32.0       S + (MJD - 41317.) X 0.0      S
2006 JAN  1 =JD 2453736.5  TAI-UTC=  33.0       S + (MJD - 41317.) X 0.0      S
2009 JAN  1 =JD 2454832.5  TAI-UTC=  34.0       S + (MJD - 41317.) X 0.0      S
2012 JUL  1 =JD 2456109.5  TAI-UTC=  35.0       S + (MJD - 41317.) X 0.0      S
2015 JUL  1 =JD 2457204.5  TAI-UTC=  36.0       S + (MJD - 41317.) X 0.0      S
2017 JAN  1 =JD 2457754.5  TAI-UTC=  37.0       S + (MJD - 41317.) X 0.0      S
`

var leapLine = regexp.MustCompile(
	`^\d{4}.*?=JD\s*([\d.]+)\s+TAI-UTC=\s+([\d.]+)\s+S \+ \(MJD - ([\d.]+)\) X ([\d.]+)\s*S$`)

// LeapEntry is one epoch of the TAI-UTC history. From its onset until the
// next entry's onset TAI-UTC = Offset + (MJD - MJDRef) * Drift seconds,
// MJD being the UTC Modified Julian Date. Drift is zero from 1972 on.
type LeapEntry struct {
	UTCOnset int64   // UTC nanoseconds of the onset
	TAIOnset int64   // TAI nanoseconds of the onset
	Offset   float64 // TAI-UTC at MJDRef, seconds
	MJDRef   float64 // reference MJD of the drift term
	Drift    float64 // seconds per day
}

// seconds returns TAI-UTC in seconds at the given MJD.
func (e LeapEntry) seconds(mjd float64) float64 {
	return e.Offset + (mjd-e.MJDRef)*e.Drift
}

// LeapTable is an immutable list of leap epochs, strictly increasing on
// both the UTC and the TAI axis. It is safe for concurrent use.
type LeapTable struct {
	entries []LeapEntry
}

var (
	leapsOnce sync.Once
	leaps     *LeapTable
)

// Leaps returns the process-wide table built from the embedded USNO data.
// It is constructed on first use.
func Leaps() *LeapTable {
	leapsOnce.Do(func() {
		lt, err := ParseLeapTable(strings.NewReader(leapData))
		if err != nil {
			panic(err)
		}
		leaps = lt
	})
	return leaps
}

// ParseLeapTable builds a table from text in the tai-utc.dat format. Blank
// lines are skipped; any other line that does not parse is an error.
func ParseLeapTable(r io.Reader) (*LeapTable, error) {
	var entries []LeapEntry
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		e, err := parseLeapLine(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if n := len(entries); n > 0 &&
			(e.UTCOnset <= entries[n-1].UTCOnset || e.TAIOnset <= entries[n-1].TAIOnset) {
			return nil, fmt.Errorf("line %d: onset not increasing: %w", line, ErrLeapTable)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no entries: %w", ErrLeapTable)
	}
	return &LeapTable{entries: entries}, nil
}

func parseLeapLine(text string) (LeapEntry, error) {
	m := leapLine.FindStringSubmatch(text)
	if m == nil {
		return LeapEntry{}, fmt.Errorf("%q: %w", text, ErrLeapTable)
	}
	var f [4]float64
	for i := range f {
		v, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return LeapEntry{}, fmt.Errorf("%q: %v: %w", m[i+1], err, ErrLeapTable)
		}
		f[i] = v
	}
	mjdUTC := f[0] - MJDToJD
	e := LeapEntry{
		UTCOnset: int64((mjdUTC - EpochMJD) * nsPerDay),
		Offset:   f[1],
		MJDRef:   f[2],
		Drift:    f[3],
	}
	e.TAIOnset = e.UTCOnset + int64(math.Round(1e9*e.seconds(mjdUTC)))
	return e, nil
}

// Len returns the number of entries.
func (lt *LeapTable) Len() int {
	return len(lt.entries)
}

// Entries returns a copy of the entries in onset order.
func (lt *LeapTable) Entries() []LeapEntry {
	return append([]LeapEntry(nil), lt.entries...)
}

// ByUTC returns the entry in effect at UTC nanoseconds ns: the last one
// whose UTC onset is at or before ns.
func (lt *LeapTable) ByUTC(ns int64) (LeapEntry, error) {
	i := sort.Search(len(lt.entries), func(i int) bool {
		return lt.entries[i].UTCOnset > ns
	})
	if i == 0 {
		return LeapEntry{}, fmt.Errorf("UTC %d ns precedes the leap second table: %w", ns, ErrOutOfRange)
	}
	return lt.entries[i-1], nil
}

// ByTAI is ByUTC on the TAI axis. The two axes differ by the very offset
// being looked up, so each direction must search its own.
func (lt *LeapTable) ByTAI(ns int64) (LeapEntry, error) {
	i := sort.Search(len(lt.entries), func(i int) bool {
		return lt.entries[i].TAIOnset > ns
	})
	if i == 0 {
		return LeapEntry{}, fmt.Errorf("TAI %d ns precedes the leap second table: %w", ns, ErrOutOfRange)
	}
	return lt.entries[i-1], nil
}

// OffsetAt returns TAI-UTC in seconds at the UTC instant utc.
func (lt *LeapTable) OffsetAt(utc TimePoint) (float64, error) {
	if utc.scale != UTC {
		return 0, fmt.Errorf("offset lookup needs UTC, got %s: %w", utc.scale, ErrScaleMismatch)
	}
	e, err := lt.ByUTC(utc.ns)
	if err != nil {
		return 0, err
	}
	return e.seconds(utc.MJD()), nil
}
