package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var usecaseTracer = otel.Tracer("contested-territory/internal/usecase")

const (
	attrObjectID = attribute.Key("contest.object_id")
	attrActor    = attribute.Key("contest.actor")
	attrPointID  = attribute.Key("contest.point_id")
)

// startUsecaseSpan only opens a child span under an already sampled request;
// background work such as the settlement loop stays untraced unless the
// caller started a span.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		return ctx, parent
	}
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
