package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ashita-ai/nautilus/attr"
	"github.com/ashita-ai/nautilus/clock"
	"github.com/ashita-ai/nautilus/ident"
	"github.com/ashita-ai/nautilus/internal/telemetry"
	"github.com/ashita-ai/nautilus/metric"
	"github.com/ashita-ai/nautilus/otlp"
	"github.com/ashita-ai/nautilus/resource"
	"github.com/ashita-ai/nautilus/sampling"
	"github.com/ashita-ai/nautilus/tracing"
)

const (
	instrumentationName = "nautilus/report"
	sessionIDKey        = "session.id"
)

// ErrNoTransport is returned by NewSamplingReporter when no transport is given.
var ErrNoTransport = errors.New("report: transport is required")

// SamplingReporter encodes telemetry as OTLP/JSON and hands it to a
// Transport, but only for sessions the StableGUIDSampler selects. A session
// lasts until the application goes to the background; then a new session
// GUID is drawn and the sampling decision is recomputed.
type SamplingReporter struct {
	transport     Transport
	timeReference clock.TimeReference
	resource      resource.Attributes
	additional    []attr.KeyValue
	exporterOpts  []otlp.Option
	interval      time.Duration
	sampleRate    float64
	seed          []byte
	logger        *slog.Logger

	lifecycle    <-chan LifecycleEvent
	onBackground func(ctx context.Context)
	subscribe    sync.Once

	mu      sync.Mutex
	guid    []byte
	sampler *sampling.StableGUIDSampler

	sampledOut atomic.Int64

	tracer   trace.Tracer
	payloads otelmetric.Int64Counter
	sendTime otelmetric.Float64Histogram
}

// Option configures a SamplingReporter.
type Option func(*SamplingReporter)

// WithFlushInterval sets the interval returned by FlushInterval.
func WithFlushInterval(d time.Duration) Option {
	return func(r *SamplingReporter) { r.interval = d }
}

// WithSampleRate sets the percentage of sessions that report.
func WithSampleRate(percent float64) Option {
	return func(r *SamplingReporter) { r.sampleRate = percent }
}

// WithSeed sets the salt mixed into the sampling hash.
func WithSeed(seed []byte) Option {
	return func(r *SamplingReporter) { r.seed = slices.Clone(seed) }
}

// WithTimeReference sets the reference used to stamp exported times,
// typically one carrying the offset to server time.
func WithTimeReference(tr clock.TimeReference) Option {
	return func(r *SamplingReporter) { r.timeReference = tr }
}

// WithResource sets the resource attributes sent with every payload.
func WithResource(res resource.Attributes) Option {
	return func(r *SamplingReporter) { r.resource = res }
}

// WithAdditionalAttributes appends resource attributes to every payload.
func WithAdditionalAttributes(kvs ...attr.KeyValue) Option {
	return func(r *SamplingReporter) { r.additional = append(r.additional, kvs...) }
}

// WithExporterOptions passes options to the exporter built for each report.
func WithExporterOptions(opts ...otlp.Option) Option {
	return func(r *SamplingReporter) { r.exporterOpts = append(r.exporterOpts, opts...) }
}

// WithLogger sets the logger. Nil keeps slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(r *SamplingReporter) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithLifecycleEvents makes SubscribeToLifecycleEvents consume events from
// ch until it is closed. On Background, onBackground runs (usually flushing
// the current trace) and the session GUID is reset.
func WithLifecycleEvents(ch <-chan LifecycleEvent, onBackground func(ctx context.Context)) Option {
	return func(r *SamplingReporter) {
		r.lifecycle = ch
		r.onBackground = onBackground
	}
}

// NewSamplingReporter returns a reporter delivering through t.
func NewSamplingReporter(t Transport, opts ...Option) (*SamplingReporter, error) {
	if t == nil {
		return nil, ErrNoTransport
	}
	r := &SamplingReporter{
		transport:     t,
		timeReference: clock.NewTimeReference(0),
		resource:      resource.Default(),
		interval:      DefaultFlushInterval,
		sampleRate:    1.0,
		seed:          []byte(sampling.DefaultSeed),
		logger:        slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	if math.IsNaN(r.sampleRate) || r.sampleRate < 0 || r.sampleRate > 100 {
		return nil, fmt.Errorf("report: sample rate %v outside [0, 100]", r.sampleRate)
	}

	r.guid = ident.NewSessionGUID()
	r.sampler = sampling.NewStableGUIDSampler(r.sampleRate, r.seed, r.guid)

	meter := telemetry.Meter(instrumentationName)
	r.payloads, _ = meter.Int64Counter("nautilus.report.payloads",
		otelmetric.WithDescription("Payloads handed to the transport, by kind and outcome"),
	)
	r.sendTime, _ = meter.Float64Histogram("nautilus.report.send.duration",
		otelmetric.WithDescription("Time spent in Transport.Send (ms)"),
		otelmetric.WithUnit("ms"),
	)
	r.tracer = telemetry.Tracer(instrumentationName)
	return r, nil
}

// FlushInterval implements Reporter.
func (r *SamplingReporter) FlushInterval() time.Duration { return r.interval }

// SessionGUID returns a copy of the current session GUID.
func (r *SamplingReporter) SessionGUID() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.guid)
}

// SessionID is the session GUID in hex, as sent in the session.id resource
// attribute.
func (r *SamplingReporter) SessionID() string {
	return ident.HexEncode(r.SessionGUID())
}

// ResetSession draws a new session GUID and recomputes the sampling
// decision.
func (r *SamplingReporter) ResetSession() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guid = ident.NewSessionGUID()
	r.sampler.SetGUID(r.guid)
}

// SamplingEnabled reports whether the current session is sampled.
func (r *SamplingReporter) SamplingEnabled() bool {
	return r.sampler.ShouldSample()
}

// SampledOut returns the number of spans, snapshots and log records dropped
// because the session was not sampled.
func (r *SamplingReporter) SampledOut() int64 { return r.sampledOut.Load() }

func (r *SamplingReporter) exporter() *otlp.Exporter {
	opts := []otlp.Option{otlp.WithResource(r.resource), otlp.WithLogger(r.logger)}
	return otlp.NewExporter(r.timeReference, append(opts, r.exporterOpts...)...)
}

func (r *SamplingReporter) resourceAttributes() []attr.KeyValue {
	kvs := slices.Clone(r.additional)
	return append(kvs, attr.String(sessionIDKey, r.SessionID()))
}

// ReportSpans implements tracing.SpanReporter.
func (r *SamplingReporter) ReportSpans(ctx context.Context, spans []*tracing.Span) {
	if len(spans) == 0 || !r.admit(KindTraces, len(spans)) {
		return
	}
	body, err := r.exporter().ExportSpansJSON(spans, r.resourceAttributes()...)
	r.deliver(ctx, KindTraces, body, err)
}

// ReportInstruments implements metric.InstrumentReporter.
func (r *SamplingReporter) ReportInstruments(ctx context.Context, snaps []metric.Snapshot) {
	if len(snaps) == 0 || !r.admit(KindMetrics, len(snaps)) {
		return
	}
	body, err := r.exporter().ExportMetricsJSON(snaps, r.resourceAttributes()...)
	r.deliver(ctx, KindMetrics, body, err)
}

// ReportLogs sends log records through the same sampling and transport.
func (r *SamplingReporter) ReportLogs(ctx context.Context, records []otlp.Record) {
	if len(records) == 0 || !r.admit(KindLogs, len(records)) {
		return
	}
	body, err := r.exporter().ExportLogsJSON(records, r.resourceAttributes()...)
	r.deliver(ctx, KindLogs, body, err)
}

func (r *SamplingReporter) admit(kind Kind, n int) bool {
	if r.SamplingEnabled() {
		return true
	}
	r.sampledOut.Add(int64(n))
	r.logger.Debug("report: session not sampled", "kind", kind, "item_count", n)
	return false
}

func (r *SamplingReporter) deliver(ctx context.Context, kind Kind, body []byte, err error) {
	if err != nil {
		r.logger.Warn("report: encode failed", "kind", kind, "error", err)
		return
	}
	if err := r.send(ctx, Payload{Kind: kind, ContentType: ContentTypeJSON, Body: body}); err != nil {
		r.logger.Warn("report: dispatch failed", "kind", kind, "payload_bytes", len(body), "error", err)
	}
}

func (r *SamplingReporter) send(ctx context.Context, p Payload) error {
	ctx, span := r.tracer.Start(ctx, "report.send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("nautilus.payload.kind", string(p.Kind)),
			attribute.Int("nautilus.payload.bytes", len(p.Body)),
		),
	)
	defer span.End()

	start := time.Now()
	err := r.transport.Send(ctx, p)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("kind", string(p.Kind)),
		attribute.String("outcome", outcome),
	)
	if r.payloads != nil {
		r.payloads.Add(ctx, 1, attrs)
	}
	if r.sendTime != nil {
		r.sendTime.Record(ctx, float64(elapsed.Milliseconds()), attrs)
	}
	if err != nil {
		return fmt.Errorf("report: send %s: %w", p.Kind, err)
	}
	r.logger.Debug("report: payload sent", "kind", p.Kind, "payload_bytes", len(p.Body),
		"send_duration_ms", elapsed.Milliseconds())
	return nil
}

// SubscribeToLifecycleEvents implements Reporter. Without a lifecycle
// channel it does nothing. Later calls are no-ops.
func (r *SamplingReporter) SubscribeToLifecycleEvents() {
	if r.lifecycle == nil {
		return
	}
	r.subscribe.Do(func() {
		go r.watchLifecycle()
	})
}

func (r *SamplingReporter) watchLifecycle() {
	for ev := range r.lifecycle {
		r.logger.Debug("report: lifecycle event", "event", ev.String())
		if ev != Background {
			continue
		}
		if r.onBackground != nil {
			r.onBackground(context.Background())
		}
		r.ResetSession()
	}
}
