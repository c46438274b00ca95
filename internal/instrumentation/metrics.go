package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrOperation    = "operation"
	attrModel        = "model"
	attrStatus       = "status"
	attrGroupVersion = "group_version"
)

// Status values recorded on every metric.
const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// Mapper operation metrics
	operationsTotal   metric.Int64Counter
	operationDuration metric.Float64Histogram

	// Schema resolution metrics
	schemaFetchesTotal  metric.Int64Counter
	schemaFetchDuration metric.Float64Histogram

	// detailedLabels controls whether high-cardinality labels (model,
	// group_version) are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are
// included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.operationsTotal, err = meter.Int64Counter(
		"model_operations_total",
		metric.WithDescription("Total number of model persistence operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model_operations_total counter: %w", err)
	}

	m.operationDuration, err = meter.Float64Histogram(
		"model_operation_duration_seconds",
		metric.WithDescription("Model persistence operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model_operation_duration_seconds histogram: %w", err)
	}

	m.schemaFetchesTotal, err = meter.Int64Counter(
		"schema_fetches_total",
		metric.WithDescription("Total number of OpenAPI document fetches"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema_fetches_total counter: %w", err)
	}

	m.schemaFetchDuration, err = meter.Float64Histogram(
		"schema_fetch_duration_seconds",
		metric.WithDescription("OpenAPI document fetch duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema_fetch_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordOperation records a mapper operation with its outcome and duration.
// It satisfies the mapper's MetricsRecorder interface.
//
// CARDINALITY NOTE: when detailedLabels is false (default), only operation
// and status labels are recorded. When true, the model name is also
// included; keep it disabled for registries with many models.
func (m *Metrics) RecordOperation(ctx context.Context, model, operation string, duration time.Duration, err error) {
	if m.operationsTotal == nil || m.operationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, statusFor(err)),
	}
	if m.detailedLabels {
		attrs = append(attrs, attribute.String(attrModel, model))
	}

	m.operationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordSchemaFetch records one OpenAPI document fetch. Cache hits in the
// schema resolver never reach this method; the counter measures actual
// cluster round trips.
func (m *Metrics) RecordSchemaFetch(ctx context.Context, group, version string, duration time.Duration, err error) {
	if m.schemaFetchesTotal == nil || m.schemaFetchDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrStatus, statusFor(err)),
	}
	if m.detailedLabels {
		gv := version
		if group != "" {
			gv = group + "/" + version
		}
		attrs = append(attrs, attribute.String(attrGroupVersion, gv))
	}

	m.schemaFetchesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.schemaFetchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

func statusFor(err error) string {
	if err != nil {
		return statusError
	}
	return statusSuccess
}
