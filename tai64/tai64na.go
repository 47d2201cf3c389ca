package tai64

import (
	"fmt"

	"github.com/karasz/gtscale/timescale"
)

// LengthNA is the size of a packed TAI64NA label.
const LengthNA = Length + 4

// PackNA returns the 16 byte TAI64NA encoding of tp. Time points carry no
// attoseconds, so the last four bytes are zero.
func PackNA(tp timescale.TimePoint) ([]byte, error) {
	n, err := Pack(tp)
	if err != nil {
		return nil, err
	}
	result := make([]byte, LengthNA)
	copy(result, n)
	return result, nil
}

// UnpackNA decodes the TAI64NA label in the first 16 bytes of b. The
// attosecond field is dropped.
func UnpackNA(b []byte) (timescale.TimePoint, error) {
	if len(b) < LengthNA {
		return timescale.TimePoint{}, fmt.Errorf("%d bytes, want %d: %w", len(b), LengthNA, timescale.ErrInvalidFormat)
	}
	return Unpack(b[:Length])
}
