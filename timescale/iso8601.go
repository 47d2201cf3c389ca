package timescale

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Basic and extended forms: the "-" and ":" separators are each optional
// and "." or "," may mark the fraction. UTC requires a trailing "Z"; TAI
// and TT forbid it. No other zone designators are accepted.
const isoBody = `^(\d{4})-?(\d{2})-?(\d{2})T(\d{2}):?(\d{2}):?(\d{2})(?:[.,](\d*))?`

var (
	isoUTC   = regexp.MustCompile(isoBody + `Z$`)
	isoOther = regexp.MustCompile(isoBody + `$`)
)

const fracDigits = 9

func (s Scale) isoPattern() *regexp.Regexp {
	if s == UTC {
		return isoUTC
	}
	return isoOther
}

func (s Scale) isoSuffix() string {
	if s == UTC {
		return "Z"
	}
	return ""
}

// Parse reads an ISO-8601 date-time on scale s, for example
// "2009-04-02T07:26:39.314159265Z" for UTC or "20090402T072639,5" for TAI.
// Fractions beyond nanoseconds are truncated.
func (s Scale) Parse(text string) (TimePoint, error) {
	if !s.valid() {
		return TimePoint{}, fmt.Errorf("parse on %s: %w", s, ErrUnknownScale)
	}
	m := s.isoPattern().FindStringSubmatch(text)
	if m == nil {
		return TimePoint{}, fmt.Errorf("%s %q: %w", s, text, ErrInvalidFormat)
	}
	var f [6]int
	for i := range f {
		// the pattern admits only ASCII digits here
		f[i], _ = strconv.Atoi(m[i+1])
	}
	tp, err := s.FromCalendar(f[0], f[1], f[2], f[3], f[4], f[5])
	if err != nil {
		return TimePoint{}, err
	}
	if frac := m[7]; frac != "" {
		if len(frac) > fracDigits {
			frac = frac[:fracDigits]
		}
		frac += strings.Repeat("0", fracDigits-len(frac))
		n, _ := strconv.ParseInt(frac, 10, 64)
		tp.ns += n
	}
	return tp, nil
}

// Parse reads text as an ISO-8601 date-time on scale s.
func Parse(s Scale, text string) (TimePoint, error) {
	return s.Parse(text)
}

// String renders t as YYYY-MM-DDThh:mm:ss.nnnnnnnnn, followed by "Z" for
// UTC. Negative counts round toward negative infinity, so -1 ns is
// 1969-12-31T23:59:59.999999999.
func (t TimePoint) String() string {
	_, frac := floorSeconds(t.ns)
	c := t.Calendar()
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d.%09d%s",
		c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second, frac, t.scale.isoSuffix())
}

// Format renders tp as canonical ISO-8601 text.
func Format(tp TimePoint) string {
	return tp.String()
}

// MarshalText implements encoding.TextMarshaler.
func (t TimePoint) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. The receiver's scale
// selects the grammar, so set it before decoding; the zero value is UTC.
func (t *TimePoint) UnmarshalText(text []byte) error {
	tp, err := t.scale.Parse(string(text))
	if err != nil {
		return err
	}
	*t = tp
	return nil
}
