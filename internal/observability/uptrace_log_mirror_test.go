package observability

import (
	"errors"
	"math"
	"testing"

	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	otellog "go.opentelemetry.io/otel/log"
)

func TestIsQuietRequestLog(t *testing.T) {
	if !isQuietRequestLog("http request", []any{"method", "GET", "path", "/healthz"}) {
		t.Fatalf("expected health check log to be skipped")
	}
	if isQuietRequestLog("http request", []any{"path", "/v1/hills/hill-1"}) {
		t.Fatalf("did not expect hill request log to be skipped")
	}
	if isQuietRequestLog("hill settled", []any{"path", "/healthz"}) {
		t.Fatalf("did not expect non-request event to be skipped")
	}
}

func TestBuildOTelLogAttributes(t *testing.T) {
	attrs := buildOTelLogAttributes([]any{
		"object_id", contest.ObjectID("hill-1"),
		"epoch", accrual.Timestamp(1000),
		"error", errors.New("boom"),
		"dangling",
	})
	if len(attrs) != 4 {
		t.Fatalf("expected 4 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "object_id" || attrs[0].Value.AsString() != "hill-1" {
		t.Fatalf("unexpected object_id attribute: %v", attrs[0])
	}
	if attrs[1].Key != "epoch" || attrs[1].Value.AsInt64() != 1000 {
		t.Fatalf("unexpected epoch attribute: %v", attrs[1])
	}
	if attrs[2].Value.AsString() != "boom" {
		t.Fatalf("unexpected error attribute: %v", attrs[2])
	}
	if attrs[3].Key != "dangling" || attrs[3].Value.Kind() != otellog.KindEmpty {
		t.Fatalf("unexpected dangling attribute: %v", attrs[3])
	}
}

func TestToOTelLogValue_LargeUnsigned(t *testing.T) {
	v := toOTelLogValue(accrual.Timestamp(math.MaxUint64))
	if v.Kind() != otellog.KindString || v.AsString() != "18446744073709551615" {
		t.Fatalf("expected string rendering for values beyond int64, got %v", v)
	}
}
