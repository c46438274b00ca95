package logging

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation    = "operation"
	KeyModel        = "model"
	KeyKind         = "kind"
	KeyGroupVersion = "group_version"
	KeyNamespace    = "namespace"
	KeyResource     = "resource"
	KeyName         = "name"
	KeyField        = "field"
	KeyDuration     = "duration"
	KeyError        = "error"
	KeyHost         = "host"
)

// ipv4Regex matches IPv4 addresses for sanitization.
var ipv4Regex = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)

// ipv6Regex matches IPv6 addresses for sanitization, covering the full,
// compressed and bracketed (URL) forms.
var ipv6Regex = regexp.MustCompile(`\[?([0-9a-fA-F]{0,4}:){2,7}[0-9a-fA-F]{0,4}\]?`)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithModel returns a logger with the model attribute set.
func WithModel(logger *slog.Logger, model string) *slog.Logger {
	return logger.With(slog.String(KeyModel, model))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Model returns a slog attribute for the model name.
func Model(name string) slog.Attr {
	return slog.String(KeyModel, name)
}

// Kind returns a slog attribute for the Kubernetes kind.
func Kind(kind string) slog.Attr {
	return slog.String(KeyKind, kind)
}

// GroupVersion returns a slog attribute for a group/version pair.
func GroupVersion(group, version string) slog.Attr {
	if group == "" {
		return slog.String(KeyGroupVersion, version)
	}
	return slog.String(KeyGroupVersion, group+"/"+version)
}

// Namespace returns a slog attribute for the namespace.
func Namespace(ns string) slog.Attr {
	return slog.String(KeyNamespace, ns)
}

// Resource returns a slog attribute for the plural resource name.
func Resource(resource string) slog.Attr {
	return slog.String(KeyResource, resource)
}

// Name returns a slog attribute for an object name.
func Name(name string) slog.Attr {
	return slog.String(KeyName, name)
}

// Field returns a slog attribute for a model field name.
func Field(name string) slog.Attr {
	return slog.String(KeyField, name)
}

// Duration returns a slog attribute for an operation duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Err returns a slog attribute for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// SanitizedErr returns a slog attribute for an error with IP addresses redacted.
// This should be used when logging errors that may contain hostnames or IP
// addresses from Kubernetes API server responses, which could leak network
// topology information.
func SanitizedErr(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, SanitizeHost(err.Error()))
}

// Host returns a slog attribute for a host with IP addresses sanitized.
func Host(host string) slog.Attr {
	return slog.String(KeyHost, SanitizeHost(host))
}

// SanitizeHost returns a sanitized version of the host for logging purposes.
// It redacts IP addresses (both IPv4 and IPv6) while preserving enough context
// for debugging.
//
// Examples:
//   - "https://192.168.1.100:6443" -> "https://<redacted-ip>:6443"
//   - "https://api.cluster.example.com:6443" -> unchanged
//   - "2001:db8::1" -> "<redacted-ip>"
//   - "" -> "<empty>"
func SanitizeHost(host string) string {
	if host == "" {
		return "<empty>"
	}

	redactIPs := func(s string) string {
		result := ipv4Regex.ReplaceAllString(s, "<redacted-ip>")
		result = ipv6Regex.ReplaceAllString(result, "<redacted-ip>")
		return result
	}

	if !strings.Contains(host, "://") {
		return redactIPs(host)
	}

	parsed, err := url.Parse(host)
	if err != nil {
		return redactIPs(host)
	}

	if ipv4Regex.MatchString(parsed.Host) || ipv6Regex.MatchString(parsed.Host) {
		parsed.Host = redactIPs(parsed.Host)
		return parsed.String()
	}

	return host
}
