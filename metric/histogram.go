package metric

import (
	"fmt"
	"slices"

	"github.com/ashita-ai/nautilus/attr"
	"github.com/ashita-ai/nautilus/clock"
)

type histogramValue[N Number] struct {
	count   uint64
	sum     float64
	buckets []uint64
}

// Histogram counts non-negative values into explicit buckets per attribute
// set. Bucket i holds values v with v <= bounds[i] that fit no earlier
// bucket; a final bucket holds values above every bound.
type Histogram[N Number] struct {
	base
	bounds []N
	values *attr.SetMap[*histogramValue[N]]
}

// NewHistogram creates a histogram with delta temporality. bounds must be
// strictly increasing; anything else panics.
func NewHistogram[N Number](m *Meter, name, unit, description string, bounds []N) *Histogram[N] {
	for i := 1; i < len(bounds); i++ {
		if bounds[i] <= bounds[i-1] {
			panic(fmt.Sprintf("metric: %s: explicit bounds not strictly increasing at index %d", name, i))
		}
	}
	h := &Histogram[N]{
		base:   newBase(m, name, unit, description, TemporalityDelta),
		bounds: slices.Clone(bounds),
		values: attr.NewSetMap[*histogramValue[N]](),
	}
	m.register(h)
	return h
}

// Bounds returns a copy of the explicit bucket bounds.
func (h *Histogram[N]) Bounds() []N { return slices.Clone(h.bounds) }

// Record adds v to the distribution for the attribute set. Negative values
// panic.
func (h *Histogram[N]) Record(v N, kvs ...attr.KeyValue) {
	checkNonNegative(h.name, v)
	key := aggregationKey(kvs)

	idx := len(h.bounds)
	for i, b := range h.bounds {
		if v <= b {
			idx = i
			break
		}
	}

	h.meter.mu.Lock()
	defer h.meter.mu.Unlock()
	hv, ok := h.values.Get(key)
	if !ok {
		hv = &histogramValue[N]{buckets: make([]uint64, len(h.bounds)+1)}
		h.values.Put(key, hv)
	}
	hv.count++
	hv.sum += float64(v)
	hv.buckets[idx]++
}

func (h *Histogram[N]) Reset() {
	h.meter.mu.Lock()
	defer h.meter.mu.Unlock()
	h.resetLocked()
}

func (h *Histogram[N]) resetLocked() {
	h.start = clock.Now()
	h.values.Clear()
}

func (h *Histogram[N]) Collect() Snapshot { return h.collect(false) }

func (h *Histogram[N]) collect(reset bool) Snapshot {
	bounds := make([]float64, len(h.bounds))
	for i, b := range h.bounds {
		bounds[i] = float64(b)
	}

	h.meter.mu.Lock()
	defer h.meter.mu.Unlock()

	points := make([]HistogramPoint, 0, h.values.Len())
	h.values.Range(func(s attr.Set, hv *histogramValue[N]) bool {
		points = append(points, HistogramPoint{
			Attributes:   s,
			Count:        hv.count,
			Sum:          hv.sum,
			Bounds:       bounds,
			BucketCounts: slices.Clone(hv.buckets),
		})
		return true
	})
	sortPoints(points, func(p HistogramPoint) attr.Set { return p.Attributes })

	snap := h.snapshot(clock.Now())
	snap.Histogram = &HistogramData{Points: points, Temporality: h.temporality}
	if reset {
		h.resetLocked()
	}
	return snap
}
