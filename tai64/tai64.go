// Package tai64 converts time points to and from TAI64, TAI64N and TAI64NA
// labels as described in http://cr.yp.to/libtai/tai64.html.
//
// Label 2^62+s names the TAI second beginning s seconds after
// 1970-01-01T00:00:00 TAI, so a TAI TimePoint maps onto a label without any
// leap second arithmetic. Points on other scales are converted to TAI first.
package tai64

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/karasz/glibtai"

	"github.com/karasz/gtscale/timescale"
)

const (
	labelBase   = uint64(1) << 62
	nsPerSecond = int64(time.Second)

	// Length is the size of a packed TAI64N label.
	Length = glibtai.TAINLength

	maxSec = math.MaxInt64 / nsPerSecond
	minSec = math.MinInt64/nsPerSecond - 1
)

// Label returns the TAI64N label of tp.
func Label(tp timescale.TimePoint) (glibtai.TAIN, error) {
	tai, err := tp.In(timescale.TAI)
	if err != nil {
		return glibtai.TAIN{}, err
	}
	ns := tai.Nanoseconds()
	sec, nano := ns/nsPerSecond, ns%nsPerSecond
	if nano < 0 {
		sec--
		nano += nsPerSecond
	}
	buf := make([]byte, Length)
	binary.BigEndian.PutUint64(buf, labelBase+uint64(sec))
	binary.BigEndian.PutUint32(buf[8:], uint32(nano))
	return glibtai.TAINUnpack(buf), nil
}

// FromLabel returns the TAI time point named by l.
func FromLabel(l glibtai.TAIN) (timescale.TimePoint, error) {
	buf := glibtai.TAINPack(l)
	sec := int64(binary.BigEndian.Uint64(buf) - labelBase)
	nano := binary.BigEndian.Uint32(buf[8:])
	if int64(nano) >= nsPerSecond {
		return timescale.TimePoint{}, fmt.Errorf("label %s: nanoseconds %d: %w", l, nano, timescale.ErrInvalidFormat)
	}
	ns, ok := nanos(sec, nano)
	if !ok {
		return timescale.TimePoint{}, fmt.Errorf("label %s: %w", l, timescale.ErrOutOfRange)
	}
	return timescale.NewTimePoint(timescale.TAI, ns), nil
}

// nanos joins a signed second count and its nanoseconds, reporting false
// when the result does not fit in an int64.
func nanos(sec int64, nano uint32) (int64, bool) {
	if sec > maxSec || sec < minSec {
		return 0, false
	}
	if sec < 0 {
		ns := (sec + 1) * nsPerSecond
		d := int64(nano) - nsPerSecond
		if ns < math.MinInt64-d {
			return 0, false
		}
		return ns + d, true
	}
	ns := sec * nsPerSecond
	if ns > math.MaxInt64-int64(nano) {
		return 0, false
	}
	return ns + int64(nano), true
}

// Format renders tp as external TAI64N text: "@" and 24 hex digits.
func Format(tp timescale.TimePoint) (string, error) {
	l, err := Label(tp)
	if err != nil {
		return "", err
	}
	return l.String(), nil
}

// Parse reads external TAI64N ("@" and 24 hex digits) or TAI64 ("@" and
// 16 hex digits) text and returns the TAI time point it names.
func Parse(text string) (timescale.TimePoint, error) {
	if len(text) == 0 || text[0] != '@' {
		return timescale.TimePoint{}, fmt.Errorf("label %q: %w", text, timescale.ErrInvalidFormat)
	}
	switch len(text) {
	case 1 + 2*glibtai.TAINLength:
		l, err := glibtai.TAINfromString(text)
		if err != nil {
			return timescale.TimePoint{}, fmt.Errorf("label %q: %w", text, timescale.ErrInvalidFormat)
		}
		return FromLabel(l)
	case 1 + 2*glibtai.TAILength:
		t, err := glibtai.TAIfromString(text)
		if err != nil {
			return timescale.TimePoint{}, fmt.Errorf("label %q: %w", text, timescale.ErrInvalidFormat)
		}
		buf := make([]byte, Length)
		copy(buf, glibtai.TAIPack(t))
		return FromLabel(glibtai.TAINUnpack(buf))
	}
	return timescale.TimePoint{}, fmt.Errorf("label %q: %w", text, timescale.ErrInvalidFormat)
}

// Pack returns the 12 byte TAI64N encoding of tp.
func Pack(tp timescale.TimePoint) ([]byte, error) {
	l, err := Label(tp)
	if err != nil {
		return nil, err
	}
	return glibtai.TAINPack(l), nil
}

// Unpack decodes the TAI64N label in the first 12 bytes of b.
func Unpack(b []byte) (timescale.TimePoint, error) {
	if len(b) < Length {
		return timescale.TimePoint{}, fmt.Errorf("%d bytes, want %d: %w", len(b), Length, timescale.ErrInvalidFormat)
	}
	return FromLabel(glibtai.TAINUnpack(b[:Length]))
}
