// Package timescale converts instants between the UTC, TAI and TT
// timescales, and between ISO-8601 text, calendar fields, Julian Date and
// Modified Julian Date, keeping nanosecond precision.
//
// A TimePoint is a signed count of nanoseconds since 1970-01-01T00:00:00
// counted on its own scale's timeline. UTC<->TAI conversion consults the
// historical leap second table (see Leaps); TAI<->TT is a fixed 32.184 s.
package timescale

import (
	"fmt"
	"strings"
)

// Scale identifies the timescale a TimePoint is counted in.
type Scale uint8

// Supported timescales.
const (
	UTC Scale = iota // coordinated universal time
	TAI              // international atomic time
	TT               // terrestrial time
)

var scaleNames = [...]string{
	UTC: "UTC",
	TAI: "TAI",
	TT:  "TT",
}

func (s Scale) String() string {
	if s.valid() {
		return scaleNames[s]
	}
	return fmt.Sprintf("Scale(%d)", uint8(s))
}

func (s Scale) valid() bool {
	return int(s) < len(scaleNames)
}

// ParseScale returns the Scale called name, ignoring case.
func ParseScale(name string) (Scale, error) {
	for i, n := range scaleNames {
		if strings.EqualFold(n, name) {
			return Scale(i), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownScale)
}

// Set parses name into s, so a *Scale can back a command line flag.
func (s *Scale) Set(name string) error {
	v, err := ParseScale(name)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Type names the flag value type.
func (*Scale) Type() string {
	return "scale"
}
