package k8s

import (
	"context"
	"log/slog"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
)

// Client defines the typed verbs the persistence mapper and schema resolver
// need against a cluster. All manifests cross this boundary as unstructured
// objects; every call is synchronous blocking I/O and no retries happen at
// this layer.
type Client interface {
	// Get retrieves a specific resource by name. Namespace must be empty for
	// cluster-scoped resources.
	Get(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string) (*unstructured.Unstructured, error)

	// List retrieves resources, optionally constrained by selectors and
	// paginated with Limit/Continue.
	List(ctx context.Context, gvr schema.GroupVersionResource, namespace string, opts ListOptions) (*unstructured.UnstructuredList, error)

	// Create creates a new resource from the provided manifest.
	Create(ctx context.Context, gvr schema.GroupVersionResource, namespace string, obj *unstructured.Unstructured) (*unstructured.Unstructured, error)

	// Update replaces a resource. The manifest's metadata.resourceVersion is
	// sent as-is; the server rejects stale versions with a conflict.
	Update(ctx context.Context, gvr schema.GroupVersionResource, namespace string, obj *unstructured.Unstructured) (*unstructured.Unstructured, error)

	// Patch updates specific fields of a resource.
	Patch(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string, patchType types.PatchType, data []byte) (*unstructured.Unstructured, error)

	// Delete removes a resource by name. The server's not-found outcome is
	// returned unmodified; absorbing it is the mapper's concern.
	Delete(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string) error

	// GroupVersionDocument returns the raw OpenAPI v3 JSON document for one
	// API group/version, as served by the cluster's discovery endpoint.
	GroupVersionDocument(ctx context.Context, group, version string) ([]byte, error)

	// Host returns the API server host the client is configured against.
	Host() string
}

// ListOptions provides configuration for list operations.
type ListOptions struct {
	LabelSelector string `json:"labelSelector,omitempty"`
	FieldSelector string `json:"fieldSelector,omitempty"`

	// Pagination options
	Limit    int64  `json:"limit,omitempty"`    // Maximum number of items to return (0 = no limit)
	Continue string `json:"continue,omitempty"` // Continue token from previous request
}

// ClientConfig holds configuration for the Kubernetes client.
type ClientConfig struct {
	// KubeconfigPath is an explicit kubeconfig location. When set it is the
	// first (and winning) entry in the credential resolution chain.
	KubeconfigPath string

	// Context selects a kubeconfig context; empty means the file's current
	// context.
	Context string

	// Performance settings applied to the rest config. Zero values pick the
	// package defaults. Callers needing per-request timeouts configure them
	// here; the adapter itself defines no cancellation beyond the transport.
	QPSLimit   float32
	BurstLimit int
	Timeout    time.Duration

	// Logger for adapter-level debug output; nil means slog.Default().
	Logger *slog.Logger
}
