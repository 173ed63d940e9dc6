package otlp

import (
	"github.com/ashita-ai/nautilus/attr"
	"github.com/ashita-ai/nautilus/tracing"
)

func spanKind(k tracing.Kind) SpanKind {
	switch k {
	case tracing.KindClient:
		return SpanKindClient
	default:
		// Unspecified is never written.
		return SpanKindInternal
	}
}

func spanStatus(st tracing.Status) *Status {
	switch st.Code {
	case tracing.StatusOK:
		return &Status{Code: StatusCodeOK}
	case tracing.StatusError:
		return &Status{Code: StatusCodeError, Message: st.Message}
	}
	return &Status{Code: StatusCodeUnset}
}

// ExportSpan maps one span. An open span is written without an end time.
func (e *Exporter) ExportSpan(s *tracing.Span) Span {
	traceID := s.TraceID()
	spanID := s.ID()
	out := Span{
		TraceID:           HexBytes(traceID[:]),
		SpanID:            HexBytes(spanID[:]),
		Name:              s.Name(),
		Kind:              spanKind(s.Kind()),
		StartTimeUnixNano: e.time(s.StartTime()),
		Status:            spanStatus(s.Status()),
	}
	if parent, ok := s.ParentID(); ok {
		out.ParentSpanID = HexBytes(parent[:])
	}
	if end, ok := s.EndTime(); ok {
		out.EndTimeUnixNano = e.time(end)
	}
	if kvs := s.Attributes(); len(kvs) > 0 {
		out.Attributes = ConvertAttributes(kvs)
	}
	for _, ev := range s.Events() {
		se := SpanEvent{TimeUnixNano: e.time(ev.Time), Name: ev.Name}
		if len(ev.Attributes) > 0 {
			se.Attributes = ConvertAttributes(ev.Attributes)
		}
		out.Events = append(out.Events, se)
	}
	return out
}

// ExportSpans wraps spans in a trace request with the exporter's resource
// plus additional resource attributes.
func (e *Exporter) ExportSpans(spans []*tracing.Span, additional ...attr.KeyValue) ExportTraceServiceRequest {
	mapped := make([]Span, 0, len(spans))
	for _, s := range spans {
		mapped = append(mapped, e.ExportSpan(s))
	}
	return ExportTraceServiceRequest{
		ResourceSpans: []ResourceSpans{{
			Resource: e.Resource(additional...),
			InstrumentationLibrarySpans: []InstrumentationLibrarySpans{{
				InstrumentationLibrary: e.scopeRef(),
				Spans:                  mapped,
				SchemaURL:              e.schemaURL,
			}},
		}},
	}
}

// ExportSpansJSON is ExportSpans followed by EncodeJSON.
func (e *Exporter) ExportSpansJSON(spans []*tracing.Span, additional ...attr.KeyValue) ([]byte, error) {
	return e.EncodeJSON(e.ExportSpans(spans, additional...))
}
