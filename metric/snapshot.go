package metric

import (
	"cmp"
	"slices"

	"github.com/ashita-ai/nautilus/attr"
	"github.com/ashita-ai/nautilus/clock"
)

// Snapshot is the collected state of one instrument. Exactly one of Sum,
// Gauge and Histogram is set.
type Snapshot struct {
	Name        string
	Unit        string
	Description string
	Start       clock.AbsoluteTime
	Time        clock.AbsoluteTime

	Sum       *SumData
	Gauge     *GaugeData
	Histogram *HistogramData
}

// Len returns the number of data points.
func (s Snapshot) Len() int {
	switch {
	case s.Sum != nil:
		return len(s.Sum.Points)
	case s.Gauge != nil:
		return len(s.Gauge.Points)
	case s.Histogram != nil:
		return len(s.Histogram.Points)
	}
	return 0
}

// SumData holds counter and up-down counter points.
type SumData struct {
	Points      []NumberPoint
	Temporality Temporality
	Monotonic   bool
}

// GaugeData holds observable gauge points.
type GaugeData struct {
	Points []NumberPoint
}

// HistogramData holds histogram points.
type HistogramData struct {
	Points      []HistogramPoint
	Temporality Temporality
}

// NumberPoint is one aggregated value. Value is Int64, Uint64 or Float64
// according to the instrument's number type.
type NumberPoint struct {
	Attributes attr.Set
	Value      attr.Value
}

// HistogramPoint is one aggregated distribution. BucketCounts has one more
// entry than Bounds; the last counts values above every bound.
type HistogramPoint struct {
	Attributes   attr.Set
	Count        uint64
	Sum          float64
	Bounds       []float64
	BucketCounts []uint64
}

// sortPoints orders points by their rendered attribute set. Sets that render
// alike but differ in value kind are ordered by hash.
func sortPoints[P any](points []P, key func(P) attr.Set) {
	slices.SortFunc(points, func(a, b P) int {
		ka, kb := key(a), key(b)
		return cmp.Or(
			cmp.Compare(ka.String(), kb.String()),
			cmp.Compare(ka.Hash(), kb.Hash()),
		)
	})
}
