// Package report defines where finished telemetry goes. A Reporter receives
// retired spans and instrument snapshots on every flush; delivery over the
// network belongs to a Transport supplied by the application.
package report

import (
	"context"
	"time"

	"github.com/ashita-ai/nautilus/metric"
	"github.com/ashita-ai/nautilus/tracing"
)

// DefaultFlushInterval is the cadence reporters request unless configured.
const DefaultFlushInterval = 60 * time.Second

// Reporter accepts finished telemetry. Implementations own batching,
// compression and retry; the core never retries.
type Reporter interface {
	tracing.SpanReporter
	metric.InstrumentReporter

	// FlushInterval is the desired time between flushes. Non-positive
	// values are treated as one second.
	FlushInterval() time.Duration

	// SubscribeToLifecycleEvents is called once at bootstrap so the reporter
	// can react to the host application moving between foreground and
	// background.
	SubscribeToLifecycleEvents()
}

// NoOpReporter discards everything.
type NoOpReporter struct{}

func (NoOpReporter) FlushInterval() time.Duration                         { return DefaultFlushInterval }
func (NoOpReporter) ReportSpans(context.Context, []*tracing.Span)         {}
func (NoOpReporter) ReportInstruments(context.Context, []metric.Snapshot) {}
func (NoOpReporter) SubscribeToLifecycleEvents()                          {}

// Kind names the signal a payload carries.
type Kind string

const (
	KindTraces  Kind = "traces"
	KindMetrics Kind = "metrics"
	KindLogs    Kind = "logs"
)

const ContentTypeJSON = "application/json"

// Payload is an encoded OTLP request ready for delivery.
type Payload struct {
	Kind        Kind
	ContentType string
	Body        []byte
}

// Transport delivers payloads, typically by POSTing them to an OTLP/HTTP
// collector at /v1/traces, /v1/metrics or /v1/logs.
type Transport interface {
	Send(ctx context.Context, p Payload) error
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, p Payload) error

func (f TransportFunc) Send(ctx context.Context, p Payload) error { return f(ctx, p) }

// LifecycleEvent is a change in the host application's state.
type LifecycleEvent int

const (
	// Foreground means the application became active.
	Foreground LifecycleEvent = iota + 1
	// Background means the application is about to be suspended. Reporters
	// flush the current trace and start a new session.
	Background
)

func (e LifecycleEvent) String() string {
	switch e {
	case Foreground:
		return "foreground"
	case Background:
		return "background"
	}
	return "unknown"
}
