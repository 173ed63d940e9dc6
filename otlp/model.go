package otlp

import (
	"encoding/json"
	"fmt"

	"github.com/ashita-ai/nautilus/ident"
)

// HexBytes marshals as a lowercase hex string, which is how OTLP/JSON
// carries ids and byte values.
type HexBytes []byte

func (b HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(ident.HexEncode(b))
}

func (b *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("otlp: hex bytes: %w", err)
	}
	out, err := ident.HexDecode(s)
	if err != nil {
		return fmt.Errorf("otlp: hex bytes: %w", err)
	}
	*b = out
	return nil
}

// Common.

type AnyValue struct {
	StringValue *string       `json:"string_value,omitempty"`
	BoolValue   *bool         `json:"bool_value,omitempty"`
	IntValue    *string       `json:"int_value,omitempty"`
	DoubleValue *float64      `json:"double_value,omitempty"`
	ArrayValue  *ArrayValue   `json:"array_value,omitempty"`
	KvlistValue *KeyValueList `json:"kvlist_value,omitempty"`
	BytesValue  *HexBytes     `json:"bytes_value,omitempty"`
}

type ArrayValue struct {
	Values []AnyValue `json:"values"`
}

type KeyValueList struct {
	Values []KeyValue `json:"values"`
}

type KeyValue struct {
	Key   string   `json:"key"`
	Value AnyValue `json:"value"`
}

type InstrumentationLibrary struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type Resource struct {
	Attributes             []KeyValue `json:"attributes"`
	DroppedAttributesCount int64      `json:"dropped_attributes_count,omitempty"`
}

// Traces.

type SpanKind string

const (
	SpanKindUnspecified SpanKind = "SPAN_KIND_UNSPECIFIED"
	SpanKindInternal    SpanKind = "SPAN_KIND_INTERNAL"
	SpanKindServer      SpanKind = "SPAN_KIND_SERVER"
	SpanKindClient      SpanKind = "SPAN_KIND_CLIENT"
	SpanKindProducer    SpanKind = "SPAN_KIND_PRODUCER"
	SpanKindConsumer    SpanKind = "SPAN_KIND_CONSUMER"
)

type StatusCode string

const (
	StatusCodeUnset StatusCode = "STATUS_CODE_UNSET"
	StatusCodeOK    StatusCode = "STATUS_CODE_OK"
	StatusCodeError StatusCode = "STATUS_CODE_ERROR"
)

type Status struct {
	Message string     `json:"message,omitempty"`
	Code    StatusCode `json:"code"`
}

type SpanEvent struct {
	TimeUnixNano           string     `json:"time_unix_nano"`
	Name                   string     `json:"name"`
	Attributes             []KeyValue `json:"attributes,omitempty"`
	DroppedAttributesCount int64      `json:"dropped_attributes_count,omitempty"`
}

type Span struct {
	TraceID                HexBytes    `json:"trace_id"`
	SpanID                 HexBytes    `json:"span_id"`
	TraceState             string      `json:"trace_state,omitempty"`
	ParentSpanID           HexBytes    `json:"parent_span_id,omitempty"`
	Name                   string      `json:"name"`
	Kind                   SpanKind    `json:"kind"`
	StartTimeUnixNano      string      `json:"start_time_unix_nano"`
	EndTimeUnixNano        string      `json:"end_time_unix_nano,omitempty"`
	Attributes             []KeyValue  `json:"attributes,omitempty"`
	DroppedAttributesCount int64       `json:"dropped_attributes_count,omitempty"`
	Events                 []SpanEvent `json:"events,omitempty"`
	DroppedEventsCount     int64       `json:"dropped_events_count,omitempty"`
	Status                 *Status     `json:"status,omitempty"`
}

type InstrumentationLibrarySpans struct {
	InstrumentationLibrary *InstrumentationLibrary `json:"instrumentation_library,omitempty"`
	Spans                  []Span                  `json:"spans"`
	SchemaURL              string                  `json:"schema_url,omitempty"`
}

type ResourceSpans struct {
	Resource                    *Resource                     `json:"resource,omitempty"`
	InstrumentationLibrarySpans []InstrumentationLibrarySpans `json:"instrumentation_library_spans"`
	SchemaURL                   string                        `json:"schema_url,omitempty"`
}

type ExportTraceServiceRequest struct {
	ResourceSpans []ResourceSpans `json:"resource_spans"`
}

// Metrics.

type AggregationTemporality string

const (
	AggregationTemporalityUnspecified AggregationTemporality = "AGGREGATION_TEMPORALITY_UNSPECIFIED"
	AggregationTemporalityDelta       AggregationTemporality = "AGGREGATION_TEMPORALITY_DELTA"
	AggregationTemporalityCumulative  AggregationTemporality = "AGGREGATION_TEMPORALITY_CUMULATIVE"
)

type NumberDataPoint struct {
	Attributes        []KeyValue `json:"attributes"`
	StartTimeUnixNano string     `json:"start_time_unix_nano,omitempty"`
	TimeUnixNano      string     `json:"time_unix_nano"`
	AsDouble          *float64   `json:"as_double,omitempty"`
	AsInt             *string    `json:"as_int,omitempty"`
}

type HistogramDataPoint struct {
	Attributes        []KeyValue `json:"attributes"`
	StartTimeUnixNano string     `json:"start_time_unix_nano,omitempty"`
	TimeUnixNano      string     `json:"time_unix_nano"`
	Count             string     `json:"count"`
	Sum               *float64   `json:"sum,omitempty"`
	BucketCounts      []string   `json:"bucket_counts"`
	ExplicitBounds    []float64  `json:"explicit_bounds"`
}

type Gauge struct {
	DataPoints []NumberDataPoint `json:"data_points"`
}

type Sum struct {
	DataPoints             []NumberDataPoint      `json:"data_points"`
	AggregationTemporality AggregationTemporality `json:"aggregation_temporality"`
	IsMonotonic            bool                   `json:"is_monotonic"`
}

type Histogram struct {
	DataPoints             []HistogramDataPoint   `json:"data_points"`
	AggregationTemporality AggregationTemporality `json:"aggregation_temporality"`
}

type Metric struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Unit        string     `json:"unit,omitempty"`
	Gauge       *Gauge     `json:"gauge,omitempty"`
	Sum         *Sum       `json:"sum,omitempty"`
	Histogram   *Histogram `json:"histogram,omitempty"`
}

type InstrumentationLibraryMetrics struct {
	InstrumentationLibrary *InstrumentationLibrary `json:"instrumentation_library,omitempty"`
	Metrics                []Metric                `json:"metrics"`
	SchemaURL              string                  `json:"schema_url,omitempty"`
}

type ResourceMetrics struct {
	Resource                      *Resource                       `json:"resource,omitempty"`
	InstrumentationLibraryMetrics []InstrumentationLibraryMetrics `json:"instrumentation_library_metrics"`
	SchemaURL                     string                          `json:"schema_url,omitempty"`
}

type ExportMetricsServiceRequest struct {
	ResourceMetrics []ResourceMetrics `json:"resource_metrics"`
}

// Logs.

type SeverityNumber string

const (
	SeverityNumberUnspecified SeverityNumber = "SEVERITY_NUMBER_UNSPECIFIED"
	SeverityNumberTrace       SeverityNumber = "SEVERITY_NUMBER_TRACE"
	SeverityNumberDebug       SeverityNumber = "SEVERITY_NUMBER_DEBUG"
	SeverityNumberInfo        SeverityNumber = "SEVERITY_NUMBER_INFO"
	SeverityNumberWarn        SeverityNumber = "SEVERITY_NUMBER_WARN"
	SeverityNumberError       SeverityNumber = "SEVERITY_NUMBER_ERROR"
	SeverityNumberFatal       SeverityNumber = "SEVERITY_NUMBER_FATAL"
)

type LogRecord struct {
	TimeUnixNano           string         `json:"time_unix_nano"`
	SeverityNumber         SeverityNumber `json:"severity_number,omitempty"`
	SeverityText           string         `json:"severity_text,omitempty"`
	Name                   string         `json:"name,omitempty"`
	Body                   *AnyValue      `json:"body,omitempty"`
	Attributes             []KeyValue     `json:"attributes,omitempty"`
	DroppedAttributesCount int64          `json:"dropped_attributes_count,omitempty"`
	Flags                  int64          `json:"flags,omitempty"`
	TraceID                HexBytes       `json:"trace_id,omitempty"`
	SpanID                 HexBytes       `json:"span_id,omitempty"`
}

type InstrumentationLibraryLogs struct {
	InstrumentationLibrary *InstrumentationLibrary `json:"instrumentation_library,omitempty"`
	Logs                   []LogRecord             `json:"logs"`
	SchemaURL              string                  `json:"schema_url,omitempty"`
}

type ResourceLogs struct {
	Resource                   *Resource                    `json:"resource,omitempty"`
	InstrumentationLibraryLogs []InstrumentationLibraryLogs `json:"instrumentation_library_logs"`
	SchemaURL                  string                       `json:"schema_url,omitempty"`
}

type ExportLogsServiceRequest struct {
	ResourceLogs []ResourceLogs `json:"resource_logs"`
}
