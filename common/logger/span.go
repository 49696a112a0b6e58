package logger

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "suggestbox"

// Span is an OTel span tagged with the log fields of the context it was
// started from, so traces and log lines share the same suggestion and
// message ids.
type Span struct {
	ctx  context.Context
	span trace.Span
}

//	span := logger.StartSpan(ctx, "worker.merge_sweep")
//	defer span.End(err)
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) *Span {
	opts = append(opts, trace.WithAttributes(spanAttributes(ctx)...))
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, opts...)
	return &Span{ctx: ctx, span: span}
}

// StartLinkedSpan continues the trace of the request that published an
// event. An empty or malformed traceID starts a fresh trace.
func StartLinkedSpan(ctx context.Context, traceID, name string, opts ...trace.SpanStartOption) *Span {
	if id, err := trace.TraceIDFromHex(traceID); err == nil {
		remote := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    id,
			TraceFlags: trace.FlagsSampled,
			Remote:     true,
		})
		opts = append(opts, trace.WithLinks(trace.Link{SpanContext: remote}))
		ctx = trace.ContextWithRemoteSpanContext(ctx, remote)
	}
	return StartSpan(ctx, name, opts...)
}

func (s *Span) Context() context.Context {
	return s.ctx
}

// End records err, if any, as the span outcome and ends the span.
func (s *Span) End(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.End()
}

func spanAttributes(ctx context.Context) []attribute.KeyValue {
	attrs := GetLogFields(ctx).Attrs()
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, attribute.String(a.Key, a.Value.String()))
	}
	return out
}
