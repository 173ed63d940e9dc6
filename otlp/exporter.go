// Package otlp maps spans, instrument snapshots and log records onto the
// OTLP/JSON wire schema.
//
// Identifiers and raw bytes are written as lowercase hex, integers as
// decimal strings and timestamps as decimal-string nanoseconds since the
// epoch. Mapping never mutates its input.
package otlp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/ashita-ai/nautilus/attr"
	"github.com/ashita-ai/nautilus/clock"
	"github.com/ashita-ai/nautilus/resource"
)

const (
	DefaultScopeName    = "NautilusTelemetry"
	DefaultScopeVersion = "1.0"
)

// ErrEncode is returned when a request cannot be serialized, for example
// because a float attribute is NaN.
var ErrEncode = errors.New("otlp: encode json")

// Exporter converts telemetry into OTLP requests. Timestamps are computed
// from the exporter's TimeReference at conversion time. An Exporter is
// immutable and safe for concurrent use.
type Exporter struct {
	timeReference clock.TimeReference
	resource      *resource.Attributes
	scope         InstrumentationLibrary
	schemaURL     string
	prettyPrint   bool
	logger        *slog.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithPrettyPrint indents encoded JSON.
func WithPrettyPrint(on bool) Option {
	return func(e *Exporter) { e.prettyPrint = on }
}

// WithSchemaURL sets the schema URL written on every scope block.
func WithSchemaURL(url string) Option {
	return func(e *Exporter) { e.schemaURL = url }
}

// WithResource replaces the default process resource.
func WithResource(r resource.Attributes) Option {
	return func(e *Exporter) { e.resource = &r }
}

// WithScope overrides the instrumentation scope name and version.
func WithScope(name, version string) Option {
	return func(e *Exporter) { e.scope = InstrumentationLibrary{Name: name, Version: version} }
}

// WithLogger sets the logger used to report dropped data points.
func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExporter returns an exporter that stamps times using tr.
func NewExporter(tr clock.TimeReference, opts ...Option) *Exporter {
	e := &Exporter{
		timeReference: tr,
		scope:         InstrumentationLibrary{Name: DefaultScopeName, Version: DefaultScopeVersion},
		logger:        slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.resource == nil {
		res := resource.Default()
		e.resource = &res
	}
	return e
}

// TimeReference returns the reference used for timestamps.
func (e *Exporter) TimeReference() clock.TimeReference { return e.timeReference }

// Resource returns the resource block written on every request, with
// extra attributes merged in behind the built-in ones.
func (e *Exporter) Resource(additional ...attr.KeyValue) *Resource {
	return &Resource{Attributes: ConvertAttributes(e.resource.With(additional...).KeyValues())}
}

func (e *Exporter) scopeRef() *InstrumentationLibrary {
	s := e.scope
	return &s
}

func (e *Exporter) time(t clock.AbsoluteTime) string {
	return strconv.FormatInt(e.timeReference.NanosecondsSinceEpoch(t), 10)
}

// EncodeJSON serializes v, indented if the exporter pretty-prints.
func (e *Exporter) EncodeJSON(v any) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	if e.prettyPrint {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return b, nil
}

// ConvertValue maps v onto an AnyValue. It reports false for values that
// have no wire representation; arrays and maps keep only their convertible
// elements.
func ConvertValue(v attr.Value) (AnyValue, bool) {
	switch v.Kind() {
	case attr.KindString:
		s := v.AsString()
		return AnyValue{StringValue: &s}, true
	case attr.KindBool:
		b := v.AsBool()
		return AnyValue{BoolValue: &b}, true
	case attr.KindInt64:
		s := strconv.FormatInt(v.AsInt64(), 10)
		return AnyValue{IntValue: &s}, true
	case attr.KindUint64:
		s := strconv.FormatUint(v.AsUint64(), 10)
		return AnyValue{IntValue: &s}, true
	case attr.KindFloat64:
		f := v.AsFloat64()
		return AnyValue{DoubleValue: &f}, true
	case attr.KindBytes:
		b := HexBytes(v.AsBytes())
		return AnyValue{BytesValue: &b}, true
	case attr.KindArray:
		elems := v.AsArray()
		out := make([]AnyValue, 0, len(elems))
		for _, el := range elems {
			if av, ok := ConvertValue(el); ok {
				out = append(out, av)
			}
		}
		return AnyValue{ArrayValue: &ArrayValue{Values: out}}, true
	case attr.KindMap:
		return AnyValue{KvlistValue: &KeyValueList{Values: ConvertAttributes(v.AsMap())}}, true
	}
	return AnyValue{}, false
}

// ConvertAttributes maps kvs onto a key-sorted list, dropping values that
// cannot be represented. The result is never nil.
func ConvertAttributes(kvs []attr.KeyValue) []KeyValue {
	out := make([]KeyValue, 0, len(kvs))
	for _, kv := range kvs {
		av, ok := ConvertValue(kv.Value)
		if !ok {
			continue
		}
		out = append(out, KeyValue{Key: kv.Key, Value: av})
	}
	slices.SortStableFunc(out, func(a, b KeyValue) int { return strings.Compare(a.Key, b.Key) })
	return out
}
