package timescale

import (
	"fmt"
	"time"
)

// NowFunc reads the process wall clock as UTC. Tests may replace it.
var NowFunc = time.Now

// Now returns the current instant on scale s.
func (s Scale) Now() TimePoint {
	utc := TimePoint{scale: UTC, ns: NowFunc().UnixNano()}
	tp, err := utc.In(s)
	if err != nil {
		// only reachable with a wall clock set before 1961
		panic(fmt.Sprintf("timescale: clock unusable: %v", err))
	}
	return tp
}
