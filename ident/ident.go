// Package ident generates trace and span identifiers and session GUIDs, and
// owns the lowercase hex encoding used for identifiers on the wire.
package ident

import (
	"crypto/rand"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceID identifies a trace. The zero value is invalid.
type TraceID [16]byte

// SpanID identifies a span within a trace. The zero value is invalid.
type SpanID [8]byte

// NewTraceID returns a random, non-zero trace id. Safe for concurrent use.
func NewTraceID() TraceID {
	var id TraceID
	for !id.IsValid() {
		fill(id[:])
	}
	return id
}

// NewSpanID returns a random, non-zero span id. Safe for concurrent use.
func NewSpanID() SpanID {
	var id SpanID
	for !id.IsValid() {
		fill(id[:])
	}
	return id
}

// NewSessionGUID returns 16 random bytes identifying a reporting session.
func NewSessionGUID() []byte {
	u := uuid.New()
	return u[:]
}

func fill(b []byte) {
	// crypto/rand.Read never returns an error on supported platforms and
	// crashes the program irrecoverably otherwise.
	_, _ = rand.Read(b)
}

// IsValid reports whether id is non-zero.
func (id TraceID) IsValid() bool { return id != TraceID{} }

// IsValid reports whether id is non-zero.
func (id SpanID) IsValid() bool { return id != SpanID{} }

// String returns the 32-character lowercase hex form.
func (id TraceID) String() string { return HexEncode(id[:]) }

// String returns the 16-character lowercase hex form.
func (id SpanID) String() string { return HexEncode(id[:]) }

// OTel converts id to the OpenTelemetry API type.
func (id TraceID) OTel() trace.TraceID { return trace.TraceID(id) }

// OTel converts id to the OpenTelemetry API type.
func (id SpanID) OTel() trace.SpanID { return trace.SpanID(id) }

// TraceIDFromOTel converts an OpenTelemetry trace id.
func TraceIDFromOTel(id trace.TraceID) TraceID { return TraceID(id) }

// SpanIDFromOTel converts an OpenTelemetry span id.
func SpanIDFromOTel(id trace.SpanID) SpanID { return SpanID(id) }
