package clock

import "time"

// TimeReference pins wall-clock time to a monotonic reading, taken once at
// construction, so later AbsoluteTime values can be expressed as epoch time.
// A TimeReference is immutable and safe for concurrent use.
//
// Epoch nanoseconds fit in an int64 until the year 2262.
type TimeReference struct {
	absoluteReference AbsoluteTime
	wallReference     int64
	serverOffsetNanos int64
}

// NewTimeReference captures the current monotonic and wall-clock times.
// serverOffset is the fractional number of seconds to add to local time to
// obtain server time; it may be negative.
func NewTimeReference(serverOffset float64) TimeReference {
	return TimeReference{
		absoluteReference: Now(),
		wallReference:     time.Now().UnixNano(),
		serverOffsetNanos: int64(serverOffset * float64(time.Second)),
	}
}

// ServerOffset returns the configured offset to server time.
func (r TimeReference) ServerOffset() time.Duration {
	return time.Duration(r.serverOffsetNanos)
}

// NanosecondsSinceEpoch converts t to nanoseconds since the Unix epoch,
// including the server offset.
func (r TimeReference) NanosecondsSinceEpoch(t AbsoluteTime) int64 {
	delta := Between(r.absoluteReference, t).Nanoseconds()
	return r.wallReference + delta + r.serverOffsetNanos
}

// MicrosecondsSinceEpoch is NanosecondsSinceEpoch in microseconds.
func (r TimeReference) MicrosecondsSinceEpoch(t AbsoluteTime) int64 {
	return r.NanosecondsSinceEpoch(t) / 1000
}

// MillisecondsSinceEpoch is NanosecondsSinceEpoch in milliseconds.
func (r TimeReference) MillisecondsSinceEpoch(t AbsoluteTime) int64 {
	return r.MicrosecondsSinceEpoch(t) / 1000
}

// NanosecondsSinceEpochFromTime converts a wall-clock time, such as a log
// record timestamp, applying the same server offset.
func (r TimeReference) NanosecondsSinceEpochFromTime(t time.Time) int64 {
	return t.UnixNano() + r.serverOffsetNanos
}
