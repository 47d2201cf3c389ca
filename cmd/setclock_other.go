//go:build !linux && !darwin && !freebsd && !openbsd && !netbsd && !dragonfly && !windows

package cmd

import (
	"errors"
	"time"
)

func setSystemClock(time.Duration) error {
	return errors.ErrUnsupported
}
