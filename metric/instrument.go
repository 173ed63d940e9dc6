package metric

import (
	"fmt"

	"github.com/ashita-ai/nautilus/attr"
	"github.com/ashita-ai/nautilus/clock"
)

// base carries what every instrument shares. Mutable fields are guarded by
// the owning meter's lock.
type base struct {
	meter       *Meter
	name        string
	unit        string
	description string

	start       clock.AbsoluteTime
	temporality Temporality
}

func newBase(m *Meter, name, unit, description string, t Temporality) base {
	return base{
		meter:       m,
		name:        name,
		unit:        unit,
		description: description,
		start:       clock.Now(),
		temporality: t,
	}
}

func (b *base) Name() string        { return b.name }
func (b *base) Unit() string        { return b.unit }
func (b *base) Description() string { return b.description }

// StartTime returns the moment the current aggregation period began.
func (b *base) StartTime() clock.AbsoluteTime {
	b.meter.mu.Lock()
	defer b.meter.mu.Unlock()
	return b.start
}

func (b *base) Temporality() Temporality {
	b.meter.mu.Lock()
	defer b.meter.mu.Unlock()
	return b.temporality
}

// SetTemporality switches between delta and cumulative reporting.
func (b *base) SetTemporality(t Temporality) {
	b.meter.mu.Lock()
	defer b.meter.mu.Unlock()
	b.temporality = t
}

func (b *base) snapshot(now clock.AbsoluteTime) Snapshot {
	return Snapshot{
		Name:        b.name,
		Unit:        b.unit,
		Description: b.description,
		Start:       b.start,
		Time:        now,
	}
}

// numberKind reports how values of N are exported.
func numberKind[N Number]() attr.Kind {
	var zero N
	one, two := N(1), N(2)
	if one/two != zero {
		return attr.KindFloat64
	}
	if zero-one < zero {
		return attr.KindInt64
	}
	return attr.KindUint64
}

func numberValue[N Number](kind attr.Kind, v N) attr.Value {
	switch kind {
	case attr.KindFloat64:
		return attr.Float64Value(float64(v))
	case attr.KindInt64:
		return attr.Int64Value(int64(v))
	}
	return attr.Uint64Value(uint64(v))
}

func aggregationKey(kvs []attr.KeyValue) attr.Set {
	set := attr.NewSet(kvs...)
	attr.MustScalar(set)
	return set
}

// checkedAdd returns cur+v and panics if integer arithmetic wrapped.
func checkedAdd[N Number](instrument string, cur, v N) N {
	sum := cur + v
	if (v > 0 && sum < cur) || (v < 0 && sum > cur) {
		panic(fmt.Sprintf("metric: %s: total overflows on adding %v to %v", instrument, v, cur))
	}
	return sum
}

func checkNonNegative[N Number](instrument string, v N) {
	if v < 0 {
		panic(fmt.Sprintf("metric: %s: negative value %v", instrument, v))
	}
}

// Counter accumulates values per attribute set. A monotonic counter only
// accepts non-negative increments; an up-down counter accepts any.
type Counter[N Number] struct {
	base
	monotonic bool
	kind      attr.Kind
	values    *attr.SetMap[N]
}

// NewCounter creates a monotonic counter with delta temporality. A total
// that overflows N panics.
func NewCounter[N Number](m *Meter, name, unit, description string) *Counter[N] {
	return newCounter[N](m, name, unit, description, true)
}

// NewUpDownCounter creates a counter that accepts negative increments.
func NewUpDownCounter[N Number](m *Meter, name, unit, description string) *Counter[N] {
	return newCounter[N](m, name, unit, description, false)
}

func newCounter[N Number](m *Meter, name, unit, description string, monotonic bool) *Counter[N] {
	c := &Counter[N]{
		base:      newBase(m, name, unit, description, TemporalityDelta),
		monotonic: monotonic,
		kind:      numberKind[N](),
		values:    attr.NewSetMap[N](),
	}
	m.register(c)
	return c
}

// Monotonic reports whether the counter rejects negative increments.
func (c *Counter[N]) Monotonic() bool { return c.monotonic }

// Add adds v to the total for the attribute set. The first write for a set
// starts from zero. Negative increments on a monotonic counter and
// non-scalar attributes panic.
func (c *Counter[N]) Add(v N, kvs ...attr.KeyValue) {
	if c.monotonic {
		checkNonNegative(c.name, v)
	}
	key := aggregationKey(kvs)

	c.meter.mu.Lock()
	defer c.meter.mu.Unlock()
	cur, _ := c.values.Get(key)
	c.values.Put(key, checkedAdd(c.name, cur, v))
}

// Value returns the current total for the attribute set.
func (c *Counter[N]) Value(kvs ...attr.KeyValue) N {
	key := attr.NewSet(kvs...)
	c.meter.mu.Lock()
	defer c.meter.mu.Unlock()
	v, _ := c.values.Get(key)
	return v
}

func (c *Counter[N]) Reset() {
	c.meter.mu.Lock()
	defer c.meter.mu.Unlock()
	c.resetLocked()
}

func (c *Counter[N]) resetLocked() {
	c.start = clock.Now()
	c.values.Clear()
}

func (c *Counter[N]) Collect() Snapshot { return c.collect(false) }

func (c *Counter[N]) collect(reset bool) Snapshot {
	c.meter.mu.Lock()
	defer c.meter.mu.Unlock()

	snap := c.snapshot(clock.Now())
	snap.Sum = &SumData{
		Points:      numberPoints(c.values, c.kind),
		Temporality: c.temporality,
		Monotonic:   c.monotonic,
	}
	if reset {
		c.resetLocked()
	}
	return snap
}

func numberPoints[N Number](values *attr.SetMap[N], kind attr.Kind) []NumberPoint {
	points := make([]NumberPoint, 0, values.Len())
	values.Range(func(s attr.Set, v N) bool {
		points = append(points, NumberPoint{Attributes: s, Value: numberValue(kind, v)})
		return true
	})
	sortPoints(points, func(p NumberPoint) attr.Set { return p.Attributes })
	return points
}
