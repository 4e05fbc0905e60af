package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "tenantforge"

// StartResolveSpan starts a span for resolving a request's tenant and collection.
func StartResolveSpan(ctx context.Context, tenantName, collection, intent string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "resolve",
		trace.WithAttributes(
			attribute.String("tenant", tenantName),
			attribute.String("collection", collection),
			attribute.String("intent", intent),
		),
	)
}

// StartProvisionSpan starts a span for a provisioning workflow step.
func StartProvisionSpan(ctx context.Context, op, tenantName string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "provision."+op,
		trace.WithAttributes(attribute.String("tenant", tenantName)),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
