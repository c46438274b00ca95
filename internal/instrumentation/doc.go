// Package instrumentation provides OpenTelemetry metrics for the mapper and
// the schema resolver.
//
// Metrics wraps named instruments for mapper operations and schema document
// fetches. It is constructed from any metric.Meter; with the default no-op
// global meter every record call is free. A nil or zero-value Metrics is
// safe to record against.
//
// Recording is decoupled from the instrumented packages: the mapper takes a
// MetricsRecorder interface it defines itself, and schema fetches are
// observed by wrapping the resolver's DocumentSource with
// InstrumentDocumentSource. Cached schema lookups never reach the wrapped
// source, so the fetch instruments count cluster round trips only.
//
// High-cardinality attributes (model name, group/version) are only attached
// when detailed labels are enabled at construction.
package instrumentation
