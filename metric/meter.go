// Package metric records application measurements in counters, histograms
// and observable instruments, aggregating them per attribute set until they
// are collected for export.
package metric

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Number is any Go integer or floating point type an instrument can record.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Temporality describes how successive collections relate.
type Temporality int

const (
	// TemporalityUnspecified applies to gauges, which do not aggregate.
	TemporalityUnspecified Temporality = iota
	// TemporalityDelta reports only what was recorded since the last reset.
	TemporalityDelta
	// TemporalityCumulative reports everything since the start time.
	TemporalityCumulative
)

func (t Temporality) String() string {
	switch t {
	case TemporalityDelta:
		return "delta"
	case TemporalityCumulative:
		return "cumulative"
	}
	return "unspecified"
}

// Instrument is implemented by every instrument a Meter creates.
type Instrument interface {
	Name() string
	Unit() string
	Description() string
	Temporality() Temporality
	// Reset clears recorded state and moves the start time to now.
	Reset()
	// Collect returns an immutable view of the current state.
	Collect() Snapshot

	collect(reset bool) Snapshot
}

// InstrumentReporter receives snapshots collected by Meter.Flush.
type InstrumentReporter interface {
	ReportInstruments(ctx context.Context, snapshots []Snapshot)
}

// Meter creates instruments. All instruments from one Meter share a single
// aggregation lock, so a Meter is the unit of write contention.
type Meter struct {
	name    string
	version string
	logger  *slog.Logger

	mu sync.Mutex // guards instrument values

	regMu       sync.Mutex
	instruments []Instrument
}

// NewMeter returns a meter for the named instrumentation scope. A nil logger
// uses slog.Default.
func NewMeter(name, version string, logger *slog.Logger) *Meter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Meter{name: name, version: version, logger: logger}
}

func (m *Meter) Name() string    { return m.name }
func (m *Meter) Version() string { return m.version }

func (m *Meter) register(inst Instrument) {
	m.regMu.Lock()
	m.instruments = append(m.instruments, inst)
	m.regMu.Unlock()
}

// Instruments returns every instrument created from m, in creation order.
func (m *Meter) Instruments() []Instrument {
	m.regMu.Lock()
	defer m.regMu.Unlock()
	out := make([]Instrument, len(m.instruments))
	copy(out, m.instruments)
	return out
}

// Flush collects every registered instrument, resets those with delta
// temporality in the same step, and hands the non-empty snapshots to r. A
// nil reporter discards them.
func (m *Meter) Flush(ctx context.Context, r InstrumentReporter) {
	start := time.Now()
	var snaps []Snapshot
	for _, inst := range m.Instruments() {
		snap := inst.collect(inst.Temporality() == TemporalityDelta)
		if snap.Len() == 0 {
			continue
		}
		snaps = append(snaps, snap)
	}
	if len(snaps) == 0 {
		return
	}
	if r == nil {
		m.logger.Debug("metric: no reporter, discarding snapshots", "instrument_count", len(snaps))
		return
	}
	r.ReportInstruments(ctx, snaps)
	m.logger.Debug("metric: instruments flushed",
		"instrument_count", len(snaps),
		"flush_duration_ms", time.Since(start).Milliseconds(),
	)
}
