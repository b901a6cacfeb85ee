package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// globalMeterProvider holds the provider installed by InitMetrics so
// ShutdownMetrics can flush it.
var globalMeterProvider *sdkmetric.MeterProvider

// InitMetrics configures OpenTelemetry metrics with a Prometheus exporter
// and installs the provider globally. The exporter registers with the
// default Prometheus registry; the HTTP server exposes it at /metrics.
func InitMetrics(serviceName string) (*sdkmetric.MeterProvider, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	globalMeterProvider = provider
	return provider, nil
}

// GetMeter returns a meter for the named component.
func GetMeter(name string) metric.Meter {
	return otel.Meter(name)
}

// ShutdownMetrics flushes and stops the globally installed meter provider.
func ShutdownMetrics(ctx context.Context) error {
	if globalMeterProvider == nil {
		return nil
	}
	if err := globalMeterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// Recorder bundles the service's domain instruments: filter applications,
// workflow stage executions and durations, and query classifications.
type Recorder struct {
	filterApplications metric.Int64Counter
	stageExecutions    metric.Int64Counter
	stageDuration      metric.Float64Histogram
	classifications    metric.Int64Counter
}

// NewRecorder creates the domain instruments on the given meter.
func NewRecorder(meter metric.Meter) (*Recorder, error) {
	filterApplications, err := meter.Int64Counter(
		"feriado.filter.applications",
		metric.WithDescription("Number of filter selections applied to the dataset"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter applications counter: %w", err)
	}

	stageExecutions, err := meter.Int64Counter(
		"feriado.workflow.stages",
		metric.WithDescription("Number of workflow stage executions by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage executions counter: %w", err)
	}

	stageDuration, err := meter.Float64Histogram(
		"feriado.workflow.stage.duration",
		metric.WithDescription("Workflow stage execution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage duration histogram: %w", err)
	}

	classifications, err := meter.Int64Counter(
		"feriado.query.classifications",
		metric.WithDescription("Number of classified queries by query type"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifications counter: %w", err)
	}

	return &Recorder{
		filterApplications: filterApplications,
		stageExecutions:    stageExecutions,
		stageDuration:      stageDuration,
		classifications:    classifications,
	}, nil
}

// RecordFilterApplication counts one filter application with the number of
// active facets and whether the resulting view was empty.
func (r *Recorder) RecordFilterApplication(ctx context.Context, facets int, empty bool) {
	r.filterApplications.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("facets", facets),
		attribute.Bool("empty", empty),
	))
}

// RecordStage counts one stage execution by terminal status and records its
// duration.
func (r *Recorder) RecordStage(ctx context.Context, stage, status string, seconds float64) {
	r.stageExecutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
	r.stageDuration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("stage", stage),
	))
}

// RecordClassification counts one classified query by its query type.
func (r *Recorder) RecordClassification(ctx context.Context, queryType string) {
	r.classifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", queryType),
	))
}
