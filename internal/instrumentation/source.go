package instrumentation

import (
	"context"
	"time"

	"github.com/tmitchell/kubeorm/internal/schema"
)

// InstrumentedDocumentSource wraps a schema document source and records
// every cluster fetch. Because the schema resolver caches documents, the
// recorded count equals the number of cache misses.
type InstrumentedDocumentSource struct {
	source  schema.DocumentSource
	metrics *Metrics
}

// InstrumentDocumentSource decorates a document source with fetch metrics.
func InstrumentDocumentSource(source schema.DocumentSource, metrics *Metrics) *InstrumentedDocumentSource {
	return &InstrumentedDocumentSource{source: source, metrics: metrics}
}

// GroupVersionDocument implements schema.DocumentSource.
func (s *InstrumentedDocumentSource) GroupVersionDocument(ctx context.Context, group, version string) ([]byte, error) {
	start := time.Now()
	doc, err := s.source.GroupVersionDocument(ctx, group, version)
	s.metrics.RecordSchemaFetch(ctx, group, version, time.Since(start), err)
	return doc, err
}
