package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/fixkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// SuiteName identifies the test suite in exported metrics.
	SuiteName string
	// Environment is the run environment (development, ci).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for local runs.
func DefaultMeterConfig(suiteName string) MeterConfig {
	return MeterConfig{
		SuiteName:   suiteName,
		Environment: "development",
		Endpoint:    "localhost:4318",
		Insecure:    true,
		Interval:    15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down when the suite exits.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.SuiteName, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"suite", config.SuiteName,
		"endpoint", config.Endpoint,
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics bundles the instruments fixture operations record against.
type Metrics struct {
	fixturesCreated  metric.Int64Counter
	queriesBuilt     metric.Int64Counter
	verifications    metric.Int64Counter
	operationSeconds metric.Float64Histogram
}

// NewMetrics creates fixture metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	fixturesCreated, err := meter.Int64Counter("fixkit.fixtures.created",
		metric.WithDescription("Total fixtures persisted"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fixtures.created counter: %w", err)
	}

	queriesBuilt, err := meter.Int64Counter("fixkit.queries.built",
		metric.WithDescription("Total criteria queries built against the ORM"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queries.built counter: %w", err)
	}

	verifications, err := meter.Int64Counter("fixkit.verifications.total",
		metric.WithDescription("Total see/dont-see verifications by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating verifications counter: %w", err)
	}

	operationSeconds, err := meter.Float64Histogram("fixkit.operation.duration",
		metric.WithDescription("Duration of fixture operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating operation.duration histogram: %w", err)
	}

	return &Metrics{
		fixturesCreated:  fixturesCreated,
		queriesBuilt:     queriesBuilt,
		verifications:    verifications,
		operationSeconds: operationSeconds,
	}, nil
}

// DefaultMetrics creates instruments on the global meter.
func DefaultMetrics() (*Metrics, error) {
	return NewMetrics(Meter(defaultTracerName))
}

// RecordFixtureCreated counts a persisted fixture for a model.
func (m *Metrics) RecordFixtureCreated(ctx context.Context, model string) {
	m.fixturesCreated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
	))
}

// RecordQueryBuilt counts a criteria query and its join depth.
func (m *Metrics) RecordQueryBuilt(ctx context.Context, model string, joinDepth int) {
	m.queriesBuilt.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.Int("join_depth", joinDepth),
	))
}

// RecordVerification counts a verification by outcome ("pass"/"fail").
func (m *Metrics) RecordVerification(ctx context.Context, model, outcome string) {
	m.verifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("outcome", outcome),
	))
}

// RecordOperation records a fixture operation duration.
func (m *Metrics) RecordOperation(ctx context.Context, operation string, d time.Duration) {
	m.operationSeconds.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
	))
}
