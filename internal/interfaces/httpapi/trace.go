package httpapi

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("contested-territory/internal/interfaces/httpapi")
var noopSpan = trace.SpanFromContext(context.Background())

// RequestTracing opens the root server span. Health check paths are left untraced
// so every child span below has no valid parent and collapses to a no-op.
func RequestTracing(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "contested-territory-http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
		otelhttp.WithFilter(func(r *http.Request) bool {
			return shouldTraceRequest(r.URL.Path)
		}),
	)
}

func shouldTraceRequest(path string) bool {
	switch strings.ToLower(strings.TrimSpace(path)) {
	case "/healthz", "/health", "/livez", "/readyz":
		return false
	default:
		return true
	}
}

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() || !shouldCreateHTTPAPISpan(name) {
		return ctx, noopSpan
	}
	return apiTracer.Start(ctx, name)
}

// startHandlerSpan tags the handler span with the contest object named in
// the route so traces can be searched by hill or lobby.
func startHandlerSpan(r *http.Request, name string) (context.Context, trace.Span) {
	ctx, span := startSpan(r.Context(), name)
	if span.IsRecording() {
		span.SetAttributes(routeAttributes(r)...)
	}
	return ctx, span
}

func routeAttributes(r *http.Request) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if id := r.PathValue("objectID"); id != "" {
		attrs = append(attrs, attribute.String("contest.object_id", id))
	}
	if id := r.PathValue("pointID"); id != "" {
		attrs = append(attrs, attribute.String("contest.point_id", id))
	}
	return attrs
}

func shouldCreateHTTPAPISpan(name string) bool {
	return strings.HasPrefix(name, "httpapi.Handler.")
}
