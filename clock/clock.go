// Package clock provides a monotonic time source that keeps advancing while
// the host sleeps, and a TimeReference that pins it to wall-clock epoch time.
package clock

import (
	"math"
	"time"
)

// Tick to nanosecond ratio. Every platform source reports nanoseconds, but the
// ratio is kept explicit so conversions stay in one place.
const (
	tickNumer = 1
	tickDenom = 1
)

// processStart anchors the fallback source on platforms without a
// sleep-aware clock.
var processStart = time.Now()

func fallbackTicks() uint64 {
	// +1 keeps the first reading non-zero.
	return uint64(time.Since(processStart)) + 1
}

// AbsoluteTime is an opaque monotonic tick value. Values are ordered and never
// decrease for the lifetime of the process.
type AbsoluteTime struct {
	ticks uint64
}

// Now returns the current monotonic time.
func Now() AbsoluteTime {
	return AbsoluteTime{ticks: readTicks()}
}

// IsZero reports whether t was never set.
func (t AbsoluteTime) IsZero() bool { return t.ticks == 0 }

// Before reports whether t is earlier than u.
func (t AbsoluteTime) Before(u AbsoluteTime) bool { return t.ticks < u.ticks }

// After reports whether t is later than u.
func (t AbsoluteTime) After(u AbsoluteTime) bool { return t.ticks > u.ticks }

// Compare returns -1, 0 or +1 depending on whether t is before, equal to or
// after u.
func (t AbsoluteTime) Compare(u AbsoluteTime) int {
	switch {
	case t.ticks < u.ticks:
		return -1
	case t.ticks > u.ticks:
		return 1
	}
	return 0
}

// Elapsed returns the interval between t and now.
func (t AbsoluteTime) Elapsed() Interval {
	return Between(t, Now())
}

// Interval is the signed distance between two AbsoluteTime values. t1 is
// usually earlier than t2, but that is not required: reversed intervals are
// negative.
type Interval struct {
	ticks int64
}

// Between returns the interval from t1 to t2.
//
// Both values must be below math.MaxInt64 ticks (about 292 years of uptime);
// larger values are a contract violation and panic.
func Between(t1, t2 AbsoluteTime) Interval {
	if t1.ticks >= math.MaxInt64 || t2.ticks >= math.MaxInt64 {
		panic("clock: absolute time out of signed 64-bit range")
	}
	return Interval{ticks: int64(t2.ticks) - int64(t1.ticks)}
}

// Nanoseconds returns the interval in nanoseconds.
func (i Interval) Nanoseconds() int64 {
	return i.ticks * tickNumer / tickDenom
}

// Microseconds returns the interval in whole microseconds, truncated toward zero.
func (i Interval) Microseconds() int64 {
	return i.Nanoseconds() / 1000
}

// Milliseconds returns the interval in whole milliseconds, truncated toward zero.
func (i Interval) Milliseconds() int64 {
	return i.Microseconds() / 1000
}

// Seconds returns the interval as fractional seconds.
func (i Interval) Seconds() float64 {
	return float64(i.Nanoseconds()) / float64(time.Second)
}

// Duration returns the interval as a time.Duration.
func (i Interval) Duration() time.Duration {
	return time.Duration(i.Nanoseconds())
}
