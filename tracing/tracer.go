package tracing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/ashita-ai/nautilus/ident"
	"github.com/ashita-ai/nautilus/internal/telemetry"
)

const (
	rootSpanName = "root"
	meterName    = "nautilus/tracing"

	// DefaultFlushInterval is how often retired spans are handed to the
	// reporter when no other interval is configured.
	DefaultFlushInterval = 60 * time.Second

	// minFlushInterval replaces non-positive intervals.
	minFlushInterval = time.Second
)

// SpanReporter receives batches of ended spans. Implementations must not
// mutate the spans.
type SpanReporter interface {
	ReportSpans(ctx context.Context, spans []*Span)
}

// Tracer creates spans and buffers them once they end. Every span that ends
// lands in the retired buffer, which is flushed to the configured reporter
// periodically or on demand. Without a reporter, flushed spans are
// discarded so the buffer cannot grow without bound.
//
// All methods are safe for concurrent use.
type Tracer struct {
	logger *slog.Logger
	meter  metric.Meter

	mu       sync.Mutex
	traceID  ident.TraceID
	root     *Span
	retired  []*Span
	reporter SpanReporter
	interval time.Duration

	reportedSpans  atomic.Int64
	discardedSpans atomic.Int64

	loopMu      sync.Mutex
	cancelLoop  context.CancelFunc
	done        chan struct{}
	resetCh     chan struct{}
	metricsOnce sync.Once
}

// TracerOption configures a Tracer.
type TracerOption func(*Tracer)

// WithMeterProvider registers the tracer's self-metrics with mp instead of
// the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) TracerOption {
	return func(t *Tracer) { t.meter = mp.Meter(meterName) }
}

// WithFlushInterval sets the initial periodic flush interval.
func WithFlushInterval(d time.Duration) TracerOption {
	return func(t *Tracer) {
		if d <= 0 {
			d = minFlushInterval
		}
		t.interval = d
	}
}

// NewTracer creates a tracer with a fresh trace id and root span. A nil
// logger uses slog.Default.
func NewTracer(logger *slog.Logger, opts ...TracerOption) *Tracer {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracer{
		logger:   logger,
		interval: DefaultFlushInterval,
		resetCh:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.meter == nil {
		t.meter = telemetry.Meter(meterName)
	}
	t.traceID = ident.NewTraceID()
	t.root = newSpan(rootSpanName, KindInternal, t.traceID, ident.SpanID{}, nil, t.retire)
	return t
}

// TraceID returns the id of the current trace.
func (t *Tracer) TraceID() ident.TraceID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.traceID
}

// Root returns the current root span.
func (t *Tracer) Root() *Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.root
}

// CurrentBaggage returns the baggage carried by ctx, falling back to the
// root span.
func (t *Tracer) CurrentBaggage(ctx context.Context) Baggage {
	if b, ok := BaggageFromContext(ctx); ok {
		return b
	}
	return NewBaggage(t.Root())
}

// CurrentSpan returns the active span for ctx, falling back to the root span.
func (t *Tracer) CurrentSpan(ctx context.Context) *Span {
	return t.CurrentBaggage(ctx).Span()
}

// StartSpan creates a span the caller must End. The parent is, in order of
// preference, the WithBaggage option, the baggage in ctx, or the root span.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) *Span {
	cfg := resolveSpanConfig(opts)

	var parent *Span
	if cfg.baggage != nil {
		parent = cfg.baggage.Span()
	} else {
		parent = t.CurrentSpan(ctx)
	}

	kind := cfg.kind
	if kind == KindUnspecified {
		kind = parent.Kind()
	}
	return newSpan(name, kind, parent.TraceID(), parent.ID(), cfg.attributes, t.retire)
}

// WithSpan runs fn inside a new span and ends it when fn returns. The context
// passed to fn carries the new span, so spans started from it become
// children. An error returned by fn is recorded on the span and returned
// unchanged. A panic is recorded, the span ended, and the panic resumed.
func (t *Tracer) WithSpan(ctx context.Context, name string, fn func(ctx context.Context) error, opts ...SpanOption) error {
	_, err := WithSpanValue(ctx, t, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, opts...)
	return err
}

// WithSpanValue is WithSpan for functions that produce a value.
func WithSpanValue[T any](ctx context.Context, t *Tracer, name string, fn func(ctx context.Context) (T, error), opts ...SpanOption) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	span := t.StartSpan(ctx, name, opts...)
	defer func() {
		if r := recover(); r != nil {
			span.RecordError(fmt.Errorf("panic: %v", r))
			span.End()
			panic(r)
		}
		span.End()
	}()

	v, err := fn(ContextWithSpan(ctx, span))
	if err != nil {
		span.RecordError(err)
	}
	return v, err
}

func (t *Tracer) retire(s *Span) {
	t.mu.Lock()
	t.retired = append(t.retired, s)
	t.mu.Unlock()
}

// RetiredSpans returns a copy of the spans waiting to be flushed.
func (t *Tracer) RetiredSpans() []*Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Span, len(t.retired))
	copy(out, t.retired)
	return out
}

// Len returns the number of spans waiting to be flushed.
func (t *Tracer) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.retired)
}

// SetReporter installs the destination for flushed spans. nil discards.
func (t *Tracer) SetReporter(r SpanReporter) {
	t.mu.Lock()
	t.reporter = r
	t.mu.Unlock()
}

// FlushTrace ends the current root span, starts a new trace with a fresh id
// and root, and flushes everything retired so far. Spans still open keep the
// old trace id.
func (t *Tracer) FlushTrace(ctx context.Context) {
	t.mu.Lock()
	old := t.root
	t.traceID = ident.NewTraceID()
	t.root = newSpan(rootSpanName, KindInternal, t.traceID, ident.SpanID{}, nil, t.retire)
	t.mu.Unlock()

	old.End()
	t.FlushRetiredSpans(ctx)
}

// FlushRetiredSpans hands the retired buffer to the reporter. The buffer is
// swapped out under the lock; the reporter runs without it.
func (t *Tracer) FlushRetiredSpans(ctx context.Context) {
	t.mu.Lock()
	if len(t.retired) == 0 {
		t.mu.Unlock()
		return
	}
	batch := t.retired
	t.retired = nil
	reporter := t.reporter
	t.mu.Unlock()

	if reporter == nil {
		t.discardedSpans.Add(int64(len(batch)))
		t.logger.Debug("tracing: no reporter, discarding spans", "span_count", len(batch))
		return
	}

	start := time.Now()
	reporter.ReportSpans(ctx, batch)
	t.reportedSpans.Add(int64(len(batch)))

	t.logger.Debug("tracing: spans flushed",
		"span_count", len(batch),
		"flush_duration_ms", time.Since(start).Milliseconds(),
	)
}

// FlushInterval returns the periodic flush interval.
func (t *Tracer) FlushInterval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}

// SetFlushInterval changes the periodic flush interval. Non-positive values
// become one second. A running flush loop is rescheduled.
func (t *Tracer) SetFlushInterval(d time.Duration) {
	if d <= 0 {
		d = minFlushInterval
	}
	t.mu.Lock()
	t.interval = d
	t.mu.Unlock()

	select {
	case t.resetCh <- struct{}{}:
	default:
	}
}

// Start begins the periodic flush loop and registers self-metrics. Calling
// Start on a running tracer is a no-op. Call Stop to end the loop.
func (t *Tracer) Start(ctx context.Context) {
	t.metricsOnce.Do(t.registerMetrics)

	t.loopMu.Lock()
	defer t.loopMu.Unlock()
	if t.cancelLoop != nil {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	t.cancelLoop = cancel
	t.done = make(chan struct{})
	go t.flushLoop(loopCtx, t.done)
}

func (t *Tracer) flushLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.FlushInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.FlushRetiredSpans(ctx)
		case <-t.resetCh:
			ticker.Reset(t.FlushInterval())
		}
	}
}

// Stop ends the flush loop, waits for it to exit and flushes what remains.
// ctx bounds both the wait and the final flush.
func (t *Tracer) Stop(ctx context.Context) {
	t.loopMu.Lock()
	cancel, done := t.cancelLoop, t.done
	t.cancelLoop, t.done = nil, nil
	t.loopMu.Unlock()

	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			t.logger.Warn("tracing: stop timed out waiting for flush loop")
		}
	}
	t.FlushRetiredSpans(ctx)
}

// ReportedSpans returns the number of spans handed to a reporter.
func (t *Tracer) ReportedSpans() int64 { return t.reportedSpans.Load() }

// DiscardedSpans returns the number of spans flushed while no reporter was
// installed.
func (t *Tracer) DiscardedSpans() int64 { return t.discardedSpans.Load() }

func (t *Tracer) registerMetrics() {
	meter := t.meter

	_, _ = meter.Int64ObservableGauge("nautilus.tracing.retired_depth",
		metric.WithDescription("Current number of ended spans waiting to be flushed"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(t.Len()))
			return nil
		}),
	)

	_, _ = meter.Int64ObservableCounter("nautilus.tracing.reported_total",
		metric.WithDescription("Total spans handed to the reporter"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(t.ReportedSpans())
			return nil
		}),
	)

	_, _ = meter.Int64ObservableCounter("nautilus.tracing.discarded_total",
		metric.WithDescription("Total spans discarded because no reporter was installed"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(t.DiscardedSpans())
			return nil
		}),
	)
}
