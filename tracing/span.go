// Package tracing creates spans, links them into traces through context
// propagation and buffers finished spans until a reporter collects them.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"runtime"
	"slices"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/ashita-ai/nautilus/attr"
	"github.com/ashita-ai/nautilus/clock"
	"github.com/ashita-ai/nautilus/ident"
)

// Kind describes the relationship of a span to its surroundings.
type Kind int

const (
	// KindUnspecified asks the tracer to inherit the parent's kind.
	KindUnspecified Kind = iota
	// KindInternal is an operation within the application.
	KindInternal
	// KindClient is a request to a remote service.
	KindClient
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindClient:
		return "client"
	}
	return "unspecified"
}

// StatusCode is the outcome of a span.
type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

// Status pairs a code with a message. Message is only meaningful for
// StatusError.
type Status struct {
	Code    StatusCode
	Message string
}

// ErrorStatus returns an error status with the given message.
func ErrorStatus(msg string) Status { return Status{Code: StatusError, Message: msg} }

// Event is a timestamped annotation on a span.
type Event struct {
	Time       clock.AbsoluteTime
	Name       string
	Attributes []attr.KeyValue
}

// NewEvent returns an event stamped with the current time.
func NewEvent(name string, kvs ...attr.KeyValue) Event {
	return Event{Time: clock.Now(), Name: name, Attributes: slices.Clone(kvs)}
}

const (
	exceptionEventName = "exception"
	maxStackFrames     = 20
)

// Span is a timed, named operation within a trace. Spans are created by a
// Tracer and are safe for concurrent use. Once ended, a span is immutable:
// further mutations are ignored.
type Span struct {
	name     string
	kind     Kind
	traceID  ident.TraceID
	id       ident.SpanID
	parentID ident.SpanID
	start    clock.AbsoluteTime

	mu         sync.Mutex
	end        clock.AbsoluteTime
	attributes map[string]attr.Value
	events     []Event
	status     Status
	sampled    bool
	retire     func(*Span)
}

func newSpan(name string, kind Kind, traceID ident.TraceID, parentID ident.SpanID, kvs []attr.KeyValue, retire func(*Span)) *Span {
	s := &Span{
		name:     name,
		kind:     kind,
		traceID:  traceID,
		id:       ident.NewSpanID(),
		parentID: parentID,
		start:    clock.Now(),
		sampled:  true,
		retire:   retire,
	}
	if len(kvs) > 0 {
		s.attributes = make(map[string]attr.Value, len(kvs))
		for _, kv := range kvs {
			s.attributes[kv.Key] = kv.Value
		}
	}
	return s
}

func (s *Span) Name() string                  { return s.name }
func (s *Span) Kind() Kind                    { return s.kind }
func (s *Span) TraceID() ident.TraceID        { return s.traceID }
func (s *Span) ID() ident.SpanID              { return s.id }
func (s *Span) StartTime() clock.AbsoluteTime { return s.start }

// ParentID returns the parent span id, or false for a trace root.
func (s *Span) ParentID() (ident.SpanID, bool) {
	return s.parentID, s.parentID.IsValid()
}

// EndTime returns the end time, or false while the span is open.
func (s *Span) EndTime() (clock.AbsoluteTime, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.end, !s.end.IsZero()
}

// Ended reports whether End has been called.
func (s *Span) Ended() bool {
	_, ok := s.EndTime()
	return ok
}

// Duration returns the elapsed time between start and end, or false while
// the span is open.
func (s *Span) Duration() (clock.Interval, bool) {
	end, ok := s.EndTime()
	if !ok {
		return clock.Interval{}, false
	}
	return clock.Between(s.start, end), true
}

// End closes the span and hands it to the tracer's retired buffer. Ending a
// span twice is a programming error and panics.
func (s *Span) End() {
	s.mu.Lock()
	if !s.end.IsZero() {
		s.mu.Unlock()
		panic(fmt.Sprintf("tracing: span %q (%s) ended twice", s.name, s.id))
	}
	s.end = clock.Now()
	retire := s.retire
	s.retire = nil
	s.mu.Unlock()

	if retire != nil {
		retire(s)
	}
}

// SetAttribute sets one attribute from a dynamic value.
func (s *Span) SetAttribute(key string, value any) {
	s.SetAttributes(attr.Any(key, value))
}

// SetAttributes sets attributes, replacing existing keys.
func (s *Span) SetAttributes(kvs ...attr.KeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.end.IsZero() {
		return
	}
	if s.attributes == nil {
		s.attributes = make(map[string]attr.Value, len(kvs))
	}
	for _, kv := range kvs {
		s.attributes[kv.Key] = kv.Value
	}
}

// Attributes returns the attributes sorted by key.
func (s *Span) Attributes() []attr.KeyValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	kvs := make([]attr.KeyValue, 0, len(s.attributes))
	for _, k := range slices.Sorted(maps.Keys(s.attributes)) {
		kvs = append(kvs, attr.KeyValue{Key: k, Value: s.attributes[k]})
	}
	return kvs
}

// AddEvent appends an event.
func (s *Span) AddEvent(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.end.IsZero() {
		return
	}
	s.events = append(s.events, e)
}

// Events returns a copy of the recorded events in insertion order.
func (s *Span) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

// SetStatus replaces the status.
func (s *Span) SetStatus(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.end.IsZero() {
		return
	}
	s.status = st
}

func (s *Span) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetSampled controls the trace flags propagated in the traceparent header.
func (s *Span) SetSampled(sampled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sampled = sampled
}

func (s *Span) Sampled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampled
}

// RecordError adds an exception event describing err and marks the span
// failed with the error's message.
func (s *Span) RecordError(err error) {
	if err == nil {
		return
	}
	msg := err.Error()
	s.AddEvent(NewEvent(exceptionEventName,
		attr.String("exception.type", errorType(err)),
		attr.String("exception.message", msg),
		attr.String("exception.stacktrace", stacktrace(3)),
	))
	s.SetStatus(ErrorStatus(msg))
}

// errorType names the innermost wrapped error's concrete type.
func errorType(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return fmt.Sprintf("%T", err)
		}
		err = next
	}
}

func stacktrace(skip int) string {
	pcs := make([]uintptr, maxStackFrames)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		f, more := frames.Next()
		fmt.Fprintf(&sb, "%s\n\t%s:%d", f.Function, f.File, f.Line)
		if !more {
			break
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// TraceParentHeader returns a W3C traceparent value for this span.
func (s *Span) TraceParentHeader() string {
	flags := "00"
	if s.Sampled() {
		flags = "01"
	}
	return "00-" + s.traceID.String() + "-" + s.id.String() + "-" + flags
}

// SpanContext returns the OpenTelemetry view of this span's identity.
func (s *Span) SpanContext() trace.SpanContext {
	var flags trace.TraceFlags
	if s.Sampled() {
		flags = trace.FlagsSampled
	}
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    s.traceID.OTel(),
		SpanID:     s.id.OTel(),
		TraceFlags: flags,
	})
}

// Inject writes trace context headers for this span into carrier, for
// example an http.Header wrapped in propagation.HeaderCarrier.
func (s *Span) Inject(ctx context.Context, carrier propagation.TextMapCarrier) {
	propagation.TraceContext{}.Inject(trace.ContextWithSpanContext(ctx, s.SpanContext()), carrier)
}

func (s *Span) String() string {
	return fmt.Sprintf("%s[%s/%s]", s.name, s.traceID, s.id)
}
