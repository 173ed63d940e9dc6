package metric

import (
	"github.com/ashita-ai/nautilus/attr"
	"github.com/ashita-ai/nautilus/clock"
)

type observableKind int

const (
	observableCounter observableKind = iota
	observableUpDownCounter
	observableGauge
)

// Observable is an asynchronous instrument. Its callback runs only when the
// instrument is collected and reports current values through Observe, which
// replaces any earlier value for the same attribute set.
type Observable[N Number] struct {
	base
	kind     observableKind
	numKind  attr.Kind
	callback func(*Observable[N])
	values   *attr.SetMap[N]
}

// NewObservableCounter creates a monotonic observable counter with delta
// temporality.
func NewObservableCounter[N Number](m *Meter, name, unit, description string, callback func(*Observable[N])) *Observable[N] {
	return newObservable(m, name, unit, description, observableCounter, TemporalityDelta, callback)
}

// NewObservableUpDownCounter creates a non-monotonic observable counter with
// delta temporality.
func NewObservableUpDownCounter[N Number](m *Meter, name, unit, description string, callback func(*Observable[N])) *Observable[N] {
	return newObservable(m, name, unit, description, observableUpDownCounter, TemporalityDelta, callback)
}

// NewObservableGauge creates a gauge. Gauges have no temporality. Each
// collection clears earlier observations before running the callback, so
// only attribute sets observed in that run are reported.
func NewObservableGauge[N Number](m *Meter, name, unit, description string, callback func(*Observable[N])) *Observable[N] {
	return newObservable(m, name, unit, description, observableGauge, TemporalityUnspecified, callback)
}

func newObservable[N Number](m *Meter, name, unit, description string, kind observableKind, t Temporality, callback func(*Observable[N])) *Observable[N] {
	o := &Observable[N]{
		base:     newBase(m, name, unit, description, t),
		kind:     kind,
		numKind:  numberKind[N](),
		callback: callback,
		values:   attr.NewSetMap[N](),
	}
	m.register(o)
	return o
}

// Observe records the current value for the attribute set. Negative values
// on an observable counter panic.
func (o *Observable[N]) Observe(v N, kvs ...attr.KeyValue) {
	if o.kind == observableCounter {
		checkNonNegative(o.name, v)
	}
	key := aggregationKey(kvs)

	o.meter.mu.Lock()
	defer o.meter.mu.Unlock()
	o.values.Put(key, v)
}

func (o *Observable[N]) Reset() {
	o.meter.mu.Lock()
	defer o.meter.mu.Unlock()
	o.resetLocked()
}

func (o *Observable[N]) resetLocked() {
	o.start = clock.Now()
	o.values.Clear()
}

func (o *Observable[N]) Collect() Snapshot { return o.collect(false) }

func (o *Observable[N]) collect(reset bool) Snapshot {
	// The callback calls Observe, which takes the meter lock.
	if o.callback != nil {
		if o.kind == observableGauge {
			o.meter.mu.Lock()
			o.values.Clear()
			o.meter.mu.Unlock()
		}
		o.callback(o)
	}

	o.meter.mu.Lock()
	defer o.meter.mu.Unlock()

	snap := o.snapshot(clock.Now())
	points := numberPoints(o.values, o.numKind)
	switch o.kind {
	case observableGauge:
		snap.Gauge = &GaugeData{Points: points}
	default:
		snap.Sum = &SumData{
			Points:      points,
			Temporality: o.temporality,
			Monotonic:   o.kind == observableCounter,
		}
	}
	if reset {
		o.resetLocked()
	}
	return snap
}
