package otlp

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/ashita-ai/nautilus/attr"
	"github.com/ashita-ai/nautilus/ident"
)

// Record is a log entry to export. TraceID and SpanID are optional and
// omitted when zero.
type Record struct {
	Time       time.Time
	Level      slog.Level
	Message    string
	Attributes []attr.KeyValue
	TraceID    ident.TraceID
	SpanID     ident.SpanID
}

// RecordFromSlog converts a slog record. Groups become nested maps.
func RecordFromSlog(r slog.Record) Record {
	out := Record{Time: r.Time, Level: r.Level, Message: r.Message}
	r.Attrs(func(a slog.Attr) bool {
		if kv, ok := slogAttr(a); ok {
			out.Attributes = append(out.Attributes, kv)
		}
		return true
	})
	return out
}

func slogAttr(a slog.Attr) (attr.KeyValue, bool) {
	v := a.Value.Resolve()
	if a.Key == "" && v.Kind() != slog.KindGroup {
		return attr.KeyValue{}, false
	}
	switch v.Kind() {
	case slog.KindString:
		return attr.String(a.Key, v.String()), true
	case slog.KindInt64:
		return attr.Int64(a.Key, v.Int64()), true
	case slog.KindUint64:
		return attr.Uint64(a.Key, v.Uint64()), true
	case slog.KindFloat64:
		return attr.Float64(a.Key, v.Float64()), true
	case slog.KindBool:
		return attr.Bool(a.Key, v.Bool()), true
	case slog.KindDuration:
		return attr.Int64(a.Key, v.Duration().Nanoseconds()), true
	case slog.KindTime:
		return attr.String(a.Key, v.Time().Format(time.RFC3339Nano)), true
	case slog.KindGroup:
		var kvs []attr.KeyValue
		for _, g := range v.Group() {
			if kv, ok := slogAttr(g); ok {
				kvs = append(kvs, kv)
			}
		}
		return attr.Map(a.Key, kvs...), a.Key != ""
	}
	return attr.Any(a.Key, v.Any()), true
}

// SeverityFromLevel maps a slog level onto the OTLP severity ladder.
func SeverityFromLevel(l slog.Level) SeverityNumber {
	switch {
	case l < slog.LevelDebug:
		return SeverityNumberTrace
	case l < slog.LevelInfo:
		return SeverityNumberDebug
	case l < slog.LevelWarn:
		return SeverityNumberInfo
	case l < slog.LevelError:
		return SeverityNumberWarn
	case l < slog.LevelError+4:
		return SeverityNumberError
	}
	return SeverityNumberFatal
}

// ExportLog maps one record. Wall-clock times receive the exporter's
// server offset.
func (e *Exporter) ExportLog(r Record) LogRecord {
	body := r.Message
	out := LogRecord{
		TimeUnixNano:   strconv.FormatInt(e.timeReference.NanosecondsSinceEpochFromTime(r.Time), 10),
		SeverityNumber: SeverityFromLevel(r.Level),
		SeverityText:   r.Level.String(),
		Body:           &AnyValue{StringValue: &body},
	}
	if len(r.Attributes) > 0 {
		out.Attributes = ConvertAttributes(r.Attributes)
	}
	if r.TraceID.IsValid() {
		out.TraceID = HexBytes(r.TraceID[:])
	}
	if r.SpanID.IsValid() {
		out.SpanID = HexBytes(r.SpanID[:])
	}
	return out
}

// ExportLogs wraps records in a logs request.
func (e *Exporter) ExportLogs(records []Record, additional ...attr.KeyValue) ExportLogsServiceRequest {
	mapped := make([]LogRecord, 0, len(records))
	for _, r := range records {
		mapped = append(mapped, e.ExportLog(r))
	}
	return ExportLogsServiceRequest{
		ResourceLogs: []ResourceLogs{{
			Resource: e.Resource(additional...),
			InstrumentationLibraryLogs: []InstrumentationLibraryLogs{{
				InstrumentationLibrary: e.scopeRef(),
				Logs:                   mapped,
				SchemaURL:              e.schemaURL,
			}},
		}},
	}
}

// ExportLogsJSON is ExportLogs followed by EncodeJSON.
func (e *Exporter) ExportLogsJSON(records []Record, additional ...attr.KeyValue) ([]byte, error) {
	return e.EncodeJSON(e.ExportLogs(records, additional...))
}
