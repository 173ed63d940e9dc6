//go:build darwin

package clock

import "golang.org/x/sys/unix"

// CLOCK_MONOTONIC on Darwin is backed by mach_continuous_time and advances
// during sleep.
func readTicks() uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return fallbackTicks()
	}
	return uint64(ts.Nano())
}
