package tracer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelTracer adapts OpenTelemetry's tracer to the module's Tracer interface.
type OTelTracer struct {
	tracer trace.Tracer
}

// OTelOption configures the OTelTracer.
type OTelOption func(*OTelTracer)

// WithOTelTracer injects a pre-configured OpenTelemetry tracer.
func WithOTelTracer(t trace.Tracer) OTelOption {
	return func(o *OTelTracer) {
		o.tracer = t
	}
}

// NewOTel creates an OpenTelemetry-backed tracer. By default it uses the
// global tracer provider under the "vouch/grant" instrumentation name.
func NewOTel(opts ...OTelOption) *OTelTracer {
	t := &OTelTracer{}
	for _, opt := range opts {
		opt(t)
	}
	if t.tracer == nil {
		t.tracer = otel.Tracer("vouch/grant")
	}
	return t
}

func (t *OTelTracer) Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(toOTelAttributes(attrs)...))
	return ctx, &otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.End()
}

func (s *otelSpan) SetAttributes(attrs ...Attribute) {
	s.span.SetAttributes(toOTelAttributes(attrs)...)
}

func (s *otelSpan) AddEvent(name string, attrs ...Attribute) {
	s.span.AddEvent(name, trace.WithAttributes(toOTelAttributes(attrs)...))
}

func toOTelAttributes(attrs []Attribute) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	result := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		switch v := a.Value.(type) {
		case string:
			result = append(result, attribute.String(a.Key, v))
		case bool:
			result = append(result, attribute.Bool(a.Key, v))
		case int64:
			result = append(result, attribute.Int64(a.Key, v))
		case int:
			result = append(result, attribute.Int64(a.Key, int64(v)))
		case float64:
			result = append(result, attribute.Float64(a.Key, v))
		}
	}
	return result
}

var (
	_ Tracer = (*OTelTracer)(nil)
	_ Span   = (*otelSpan)(nil)
)
