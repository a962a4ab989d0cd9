package websock

import (
	"context"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// defaultTracerName identifies spans produced by this package. The tracer
// comes from the global OpenTelemetry provider; without one configured the
// spans are no-ops.
const defaultTracerName = "websock"

// startOpenSpan opens a client span covering dial plus upgrade handshake.
func startOpenSpan(ctx context.Context, connID string, u *url.URL) (context.Context, trace.Span) {
	tracer := otel.Tracer(defaultTracerName)
	return tracer.Start(ctx, "websock.open",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("websock.conn_id", connID),
			attribute.String("url.full", u.String()),
			attribute.String("server.address", u.Hostname()),
		),
	)
}

// endOpenSpan records the handshake outcome and ends the span.
func endOpenSpan(span trace.Span, subprotocol string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		if subprotocol != "" {
			span.SetAttributes(attribute.String("websock.subprotocol", subprotocol))
		}
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
