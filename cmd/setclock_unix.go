//go:build linux || darwin || freebsd || openbsd || netbsd || dragonfly

package cmd

import (
	"syscall"
	"time"
)

// setSystemClockTime sets the system clock to t with settimeofday, to
// microsecond precision.
func setSystemClockTime(t time.Time) error {
	tv := syscall.NsecToTimeval(t.UnixNano())
	return syscall.Settimeofday(&tv)
}

// setSystemClock moves the system clock by offset.
func setSystemClock(offset time.Duration) error {
	return setSystemClockTime(time.Now().Add(offset))
}
