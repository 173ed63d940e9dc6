package otlp

import (
	"strconv"

	"github.com/ashita-ai/nautilus/attr"
	"github.com/ashita-ai/nautilus/metric"
)

func temporality(t metric.Temporality) AggregationTemporality {
	switch t {
	case metric.TemporalityDelta:
		return AggregationTemporalityDelta
	case metric.TemporalityCumulative:
		return AggregationTemporalityCumulative
	}
	return AggregationTemporalityUnspecified
}

func (e *Exporter) numberPoints(snap metric.Snapshot, points []metric.NumberPoint) []NumberDataPoint {
	start, now := e.time(snap.Start), e.time(snap.Time)
	out := make([]NumberDataPoint, 0, len(points))
	for _, p := range points {
		dp := NumberDataPoint{
			Attributes:        ConvertAttributes(p.Attributes.KeyValues()),
			StartTimeUnixNano: start,
			TimeUnixNano:      now,
		}
		switch p.Value.Kind() {
		case attr.KindInt64:
			s := strconv.FormatInt(p.Value.AsInt64(), 10)
			dp.AsInt = &s
		case attr.KindUint64:
			s := strconv.FormatUint(p.Value.AsUint64(), 10)
			dp.AsInt = &s
		case attr.KindFloat64:
			f := p.Value.AsFloat64()
			dp.AsDouble = &f
		default:
			e.logger.Warn("otlp: dropping data point with unsupported value",
				"metric", snap.Name, "kind", p.Value.Kind().String())
			continue
		}
		out = append(out, dp)
	}
	return out
}

func (e *Exporter) histogramPoints(snap metric.Snapshot, points []metric.HistogramPoint) []HistogramDataPoint {
	start, now := e.time(snap.Start), e.time(snap.Time)
	out := make([]HistogramDataPoint, 0, len(points))
	for _, p := range points {
		counts := make([]string, len(p.BucketCounts))
		for i, c := range p.BucketCounts {
			counts[i] = strconv.FormatUint(c, 10)
		}
		bounds := p.Bounds
		if bounds == nil {
			bounds = []float64{}
		}
		sum := p.Sum
		out = append(out, HistogramDataPoint{
			Attributes:        ConvertAttributes(p.Attributes.KeyValues()),
			StartTimeUnixNano: start,
			TimeUnixNano:      now,
			Count:             strconv.FormatUint(p.Count, 10),
			Sum:               &sum,
			BucketCounts:      counts,
			ExplicitBounds:    bounds,
		})
	}
	return out
}

// ExportMetric maps one instrument snapshot.
func (e *Exporter) ExportMetric(snap metric.Snapshot) Metric {
	out := Metric{Name: snap.Name, Description: snap.Description, Unit: snap.Unit}
	switch {
	case snap.Sum != nil:
		out.Sum = &Sum{
			DataPoints:             e.numberPoints(snap, snap.Sum.Points),
			AggregationTemporality: temporality(snap.Sum.Temporality),
			IsMonotonic:            snap.Sum.Monotonic,
		}
	case snap.Gauge != nil:
		out.Gauge = &Gauge{DataPoints: e.numberPoints(snap, snap.Gauge.Points)}
	case snap.Histogram != nil:
		out.Histogram = &Histogram{
			DataPoints:             e.histogramPoints(snap, snap.Histogram.Points),
			AggregationTemporality: temporality(snap.Histogram.Temporality),
		}
	}
	return out
}

// ExportInstrument collects inst without resetting it and maps the result.
func (e *Exporter) ExportInstrument(inst metric.Instrument) Metric {
	return e.ExportMetric(inst.Collect())
}

// ExportMetrics wraps snapshots in a metrics request.
func (e *Exporter) ExportMetrics(snaps []metric.Snapshot, additional ...attr.KeyValue) ExportMetricsServiceRequest {
	mapped := make([]Metric, 0, len(snaps))
	for _, s := range snaps {
		mapped = append(mapped, e.ExportMetric(s))
	}
	return ExportMetricsServiceRequest{
		ResourceMetrics: []ResourceMetrics{{
			Resource: e.Resource(additional...),
			InstrumentationLibraryMetrics: []InstrumentationLibraryMetrics{{
				InstrumentationLibrary: e.scopeRef(),
				Metrics:                mapped,
				SchemaURL:              e.schemaURL,
			}},
		}},
	}
}

// ExportMetricsJSON is ExportMetrics followed by EncodeJSON.
func (e *Exporter) ExportMetricsJSON(snaps []metric.Snapshot, additional ...attr.KeyValue) ([]byte, error) {
	return e.EncodeJSON(e.ExportMetrics(snaps, additional...))
}
