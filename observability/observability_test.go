package observability

import (
	"context"
	"testing"
	"time"
)

func TestMetricsNoopProvider(t *testing.T) {
	// Without an installed provider the otel API is a no-op; instruments
	// must still be creatable and recordable.
	m, err := DefaultMetrics()
	if err != nil {
		t.Fatalf("DefaultMetrics() failed: %v", err)
	}

	ctx := context.Background()
	m.RecordFixtureCreated(ctx, "users")
	m.RecordQueryBuilt(ctx, "users", 2)
	m.RecordVerification(ctx, "users", "pass")
	m.RecordOperation(ctx, "have", 5*time.Millisecond)
}

func TestStartSpanNoopProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), SpanHave)
	if span == nil {
		t.Fatal("StartSpan returned nil span")
	}
	SetSpanError(ctx, nil)
	span.End()
}

func TestDefaultConfigs(t *testing.T) {
	tc := DefaultTracerConfig("orders")
	if tc.SuiteName != "orders" || tc.Endpoint == "" || tc.SampleRate != 1.0 {
		t.Errorf("unexpected tracer defaults: %+v", tc)
	}
	mc := DefaultMeterConfig("orders")
	if mc.SuiteName != "orders" || mc.Interval <= 0 {
		t.Errorf("unexpected meter defaults: %+v", mc)
	}
}
