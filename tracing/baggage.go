package tracing

import (
	"context"

	"github.com/ashita-ai/nautilus/attr"
)

// Baggage carries the active span through a call chain. It travels in a
// context.Context; a span started under a context with baggage becomes a
// child of the baggage's span.
type Baggage struct {
	span *Span
}

// NewBaggage wraps span as the parent for subsequent spans.
func NewBaggage(span *Span) Baggage { return Baggage{span: span} }

// Span returns the span this baggage points at.
func (b Baggage) Span() *Span { return b.span }

type contextKey string

const keyBaggage contextKey = "baggage"

// ContextWithBaggage returns a new context carrying b.
func ContextWithBaggage(ctx context.Context, b Baggage) context.Context {
	return context.WithValue(ctx, keyBaggage, b)
}

// ContextWithSpan is shorthand for ContextWithBaggage(ctx, NewBaggage(span)).
func ContextWithSpan(ctx context.Context, span *Span) context.Context {
	return ContextWithBaggage(ctx, NewBaggage(span))
}

// BaggageFromContext extracts baggage from the context.
func BaggageFromContext(ctx context.Context) (Baggage, bool) {
	if ctx == nil {
		return Baggage{}, false
	}
	b, ok := ctx.Value(keyBaggage).(Baggage)
	if !ok || b.span == nil {
		return Baggage{}, false
	}
	return b, true
}

// SpanOption configures a span at creation.
type SpanOption func(*spanConfig)

type spanConfig struct {
	kind       Kind
	attributes []attr.KeyValue
	baggage    *Baggage
}

// WithKind sets the span kind. KindUnspecified inherits the parent's kind.
func WithKind(k Kind) SpanOption {
	return func(c *spanConfig) { c.kind = k }
}

// WithAttributes sets initial attributes. Repeated options accumulate.
func WithAttributes(kvs ...attr.KeyValue) SpanOption {
	return func(c *spanConfig) { c.attributes = append(c.attributes, kvs...) }
}

// WithBaggage names the parent explicitly, overriding any baggage in the
// context. Baggage without a span is ignored.
func WithBaggage(b Baggage) SpanOption {
	return func(c *spanConfig) {
		if b.span != nil {
			c.baggage = &b
		}
	}
}

func resolveSpanConfig(opts []SpanOption) spanConfig {
	var c spanConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
