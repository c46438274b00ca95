package instrumentation

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// mockMeterProvider creates a simple meter for testing
func mockMeterProvider() metric.Meter {
	provider := sdkmetric.NewMeterProvider()
	return provider.Meter("test")
}

func TestNewMetrics(t *testing.T) {
	meter := mockMeterProvider()
	metrics, err := NewMetrics(meter, false)
	if err != nil {
		t.Fatalf("expected no error creating metrics, got %v", err)
	}

	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}
	if metrics.operationsTotal == nil {
		t.Error("expected operationsTotal to be initialized")
	}
	if metrics.operationDuration == nil {
		t.Error("expected operationDuration to be initialized")
	}
	if metrics.schemaFetchesTotal == nil {
		t.Error("expected schemaFetchesTotal to be initialized")
	}
	if metrics.schemaFetchDuration == nil {
		t.Error("expected schemaFetchDuration to be initialized")
	}
	if metrics.detailedLabels != false {
		t.Error("expected detailedLabels to be false")
	}
}

func TestMetrics_RecordOperation(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := NewMetrics(provider.Meter("test"), false)
	if err != nil {
		t.Fatalf("expected no error creating metrics, got %v", err)
	}

	ctx := context.Background()
	metrics.RecordOperation(ctx, "Pod", "get", 50*time.Millisecond, nil)
	metrics.RecordOperation(ctx, "Pod", "create", 100*time.Millisecond, nil)
	metrics.RecordOperation(ctx, "Widget", "update", 75*time.Millisecond, errors.New("conflict"))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("expected no error collecting metrics, got %v", err)
	}

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "model_operations_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("expected Sum[int64] data for %s", m.Name)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	if total != 3 {
		t.Errorf("expected 3 recorded operations, got %d", total)
	}
}

func TestMetrics_RecordOperation_NilMetrics(t *testing.T) {
	metrics := &Metrics{}
	ctx := context.Background()

	// Should not panic
	metrics.RecordOperation(ctx, "Pod", "get", 50*time.Millisecond, nil)
}

func TestMetrics_RecordSchemaFetch(t *testing.T) {
	meter := mockMeterProvider()
	metrics, err := NewMetrics(meter, true)
	if err != nil {
		t.Fatalf("expected no error creating metrics, got %v", err)
	}

	ctx := context.Background()
	metrics.RecordSchemaFetch(ctx, "", "v1", 20*time.Millisecond, nil)
	metrics.RecordSchemaFetch(ctx, "example.com", "v1", 30*time.Millisecond, errors.New("unreachable"))
}

func TestMetrics_RecordSchemaFetch_NilMetrics(t *testing.T) {
	metrics := &Metrics{}
	ctx := context.Background()

	// Should not panic
	metrics.RecordSchemaFetch(ctx, "", "v1", 20*time.Millisecond, nil)
}

type staticDocumentSource struct {
	doc []byte
	err error
}

func (s *staticDocumentSource) GroupVersionDocument(context.Context, string, string) ([]byte, error) {
	return s.doc, s.err
}

func TestInstrumentDocumentSource(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := NewMetrics(provider.Meter("test"), false)
	if err != nil {
		t.Fatalf("expected no error creating metrics, got %v", err)
	}

	source := InstrumentDocumentSource(&staticDocumentSource{doc: []byte("{}")}, metrics)

	ctx := context.Background()
	doc, err := source.GroupVersionDocument(ctx, "", "v1")
	if err != nil {
		t.Fatalf("expected no error fetching document, got %v", err)
	}
	if string(doc) != "{}" {
		t.Errorf("expected document to pass through, got %q", doc)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("expected no error collecting metrics, got %v", err)
	}

	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "schema_fetches_total" {
				found = true
			}
		}
	}
	if !found {
		t.Error("expected schema_fetches_total to be recorded")
	}
}
