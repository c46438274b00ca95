// Package logging provides structured logging utilities for kubeorm.
//
// It centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package:
// typed attribute constructors with fixed key names, and sanitization of
// values that may embed API server hosts or IP addresses.
//
// Usage:
//
//	logger := logging.WithOperation(slog.Default(), "mapper.save")
//	logger.Info("saved resource",
//	    logging.Namespace("default"),
//	    logging.Name("web-0"))
package logging
