package schema

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmitchell/kubeorm/internal/kerrors"
)

// countingSource serves canned documents keyed "group/version" and counts
// cluster fetches.
type countingSource struct {
	docs  map[string][]byte
	err   error
	delay time.Duration
	calls int32
}

func (s *countingSource) GroupVersionDocument(_ context.Context, group, version string) ([]byte, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	doc, ok := s.docs[group+"/"+version]
	if !ok {
		return nil, &kerrors.SchemaNotFoundError{Group: group, Version: version}
	}
	return doc, nil
}

func corev1Document() []byte {
	return []byte(`{
		"components": {
			"schemas": {
				"io.k8s.api.core.v1.Pod": {
					"type": "object",
					"required": ["spec"],
					"properties": {
						"apiVersion": {"type": "string"},
						"kind": {"type": "string"},
						"metadata": {"$ref": "#/components/schemas/io.k8s.apimachinery.pkg.apis.meta.v1.ObjectMeta"},
						"spec": {"type": "object"},
						"status": {"type": "object"}
					}
				},
				"io.k8s.api.core.v1.Namespace": {
					"type": "object",
					"properties": {
						"spec": {"type": "object"},
						"status": {"type": "object"}
					}
				}
			}
		}
	}`)
}

func widgetDocument() []byte {
	return []byte(`{
		"components": {
			"schemas": {
				"com.example.v1.Widget": {
					"type": "object",
					"required": ["size"],
					"properties": {
						"size": {"type": "integer", "format": "int32"},
						"owner": {"type": "string", "maxLength": 63},
						"enabled": {"type": "boolean"},
						"weight": {"type": "number"},
						"tags": {"type": "array"}
					}
				}
			}
		}
	}`)
}

func TestDefinitionKey(t *testing.T) {
	tests := []struct {
		name     string
		group    string
		version  string
		kind     string
		expected string
	}{
		{
			name:     "core group empty",
			group:    "",
			version:  "v1",
			kind:     "Pod",
			expected: "io.k8s.api.core.v1.Pod",
		},
		{
			name:     "core group legacy name",
			group:    "core",
			version:  "v1",
			kind:     "Namespace",
			expected: "io.k8s.api.core.v1.Namespace",
		},
		{
			name:     "builtin short group",
			group:    "apps",
			version:  "v1",
			kind:     "Deployment",
			expected: "io.k8s.api.apps.v1.Deployment",
		},
		{
			name:     "builtin dotted group keeps left-most label",
			group:    "rbac.authorization.k8s.io",
			version:  "v1",
			kind:     "Role",
			expected: "io.k8s.api.rbac.v1.Role",
		},
		{
			name:     "builtin suffixed group",
			group:    "storage.k8s.io",
			version:  "v1",
			kind:     "StorageClass",
			expected: "io.k8s.api.storage.v1.StorageClass",
		},
		{
			name:     "custom group dot-reversed",
			group:    "example.com",
			version:  "v1",
			kind:     "Widget",
			expected: "com.example.v1.Widget",
		},
		{
			name:     "custom group with subdomains",
			group:    "monitoring.coreos.com",
			version:  "v1alpha1",
			kind:     "Prometheus",
			expected: "com.coreos.monitoring.v1alpha1.Prometheus",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, definitionKey(tc.group, tc.version, tc.kind))
		})
	}
}

func TestResolveNormalizesProperties(t *testing.T) {
	source := &countingSource{docs: map[string][]byte{"example.com/v1": widgetDocument()}}
	resolver := NewResolver(source, nil)

	nodes, err := resolver.Resolve(context.Background(), "example.com", "v1", "Widget")
	require.NoError(t, err)

	// Sorted by name, identity properties absent.
	require.Len(t, nodes, 5)
	assert.Equal(t, Node{Name: "enabled", Type: "boolean"}, nodes[0])
	assert.Equal(t, Node{Name: "owner", Type: "string", MaxLength: 63}, nodes[1])
	assert.Equal(t, Node{Name: "size", Type: "integer", Format: "int32", Required: true}, nodes[2])
	assert.Equal(t, Node{Name: "tags", Type: "array"}, nodes[3])
	assert.Equal(t, Node{Name: "weight", Type: "number"}, nodes[4])
}

func TestResolveSkipsIdentityProperties(t *testing.T) {
	source := &countingSource{docs: map[string][]byte{"/v1": corev1Document()}}
	resolver := NewResolver(source, nil)

	nodes, err := resolver.Resolve(context.Background(), "", "v1", "Pod")
	require.NoError(t, err)

	for _, node := range nodes {
		assert.NotContains(t, []string{"metadata", "apiVersion", "kind"}, node.Name)
	}
	require.Len(t, nodes, 2)
	assert.Equal(t, "spec", nodes[0].Name)
	assert.True(t, nodes[0].Required)
	assert.Equal(t, "status", nodes[1].Name)
	assert.False(t, nodes[1].Required)
}

func TestResolveFetchesDocumentOnce(t *testing.T) {
	source := &countingSource{docs: map[string][]byte{"/v1": corev1Document()}}
	resolver := NewResolver(source, nil)
	ctx := context.Background()

	_, err := resolver.Resolve(ctx, "", "v1", "Pod")
	require.NoError(t, err)
	_, err = resolver.Resolve(ctx, "", "v1", "Pod")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&source.calls),
		"second resolution of the same coordinates must not touch the cluster")

	// A sibling kind in the same group/version shares the cached document.
	_, err = resolver.Resolve(ctx, "", "v1", "Namespace")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&source.calls))
}

func TestResolveConcurrentFirstFetch(t *testing.T) {
	source := &countingSource{
		docs:  map[string][]byte{"example.com/v1": widgetDocument()},
		delay: 50 * time.Millisecond,
	}
	resolver := NewResolver(source, nil)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = resolver.Resolve(context.Background(), "example.com", "v1", "Widget")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "goroutine %d", i)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&source.calls),
		"concurrent first resolutions should collapse into one fetch")
}

func TestResolveMissingKind(t *testing.T) {
	source := &countingSource{docs: map[string][]byte{"/v1": corev1Document()}}
	resolver := NewResolver(source, nil)

	_, err := resolver.Resolve(context.Background(), "", "v1", "Imaginary")
	require.Error(t, err)
	assert.ErrorIs(t, err, kerrors.ErrSchemaNotFound)

	var notFound *kerrors.SchemaNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Imaginary", notFound.Kind)
}

func TestResolveMissingDocument(t *testing.T) {
	source := &countingSource{docs: map[string][]byte{}}
	resolver := NewResolver(source, nil)

	_, err := resolver.Resolve(context.Background(), "example.com", "v1", "Widget")
	require.Error(t, err)
	assert.ErrorIs(t, err, kerrors.ErrSchemaNotFound)

	var notFound *kerrors.SchemaNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Widget", notFound.Kind)
}

func TestResolveConnectionErrorPropagates(t *testing.T) {
	source := &countingSource{
		err: &kerrors.ConnectionError{Host: "https://cluster.example.com", Err: errors.New("connection refused")},
	}
	resolver := NewResolver(source, nil)

	_, err := resolver.Resolve(context.Background(), "", "v1", "Pod")
	require.Error(t, err)
	assert.ErrorIs(t, err, kerrors.ErrConnection)
	assert.NotErrorIs(t, err, kerrors.ErrSchemaNotFound)
}

func TestResolveMalformedDocument(t *testing.T) {
	source := &countingSource{docs: map[string][]byte{"/v1": []byte("not json")}}
	resolver := NewResolver(source, nil)

	_, err := resolver.Resolve(context.Background(), "", "v1", "Pod")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse openapi document")
}

func TestResolveDistinctGroupVersionsFetchSeparately(t *testing.T) {
	source := &countingSource{docs: map[string][]byte{
		"/v1":            corev1Document(),
		"example.com/v1": widgetDocument(),
	}}
	resolver := NewResolver(source, nil)
	ctx := context.Background()

	_, err := resolver.Resolve(ctx, "", "v1", "Pod")
	require.NoError(t, err)
	_, err = resolver.Resolve(ctx, "example.com", "v1", "Widget")
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&source.calls))
}

func TestResolveFields(t *testing.T) {
	source := &countingSource{docs: map[string][]byte{"example.com/v1": widgetDocument()}}
	resolver := NewResolver(source, nil)

	fields, err := resolver.ResolveFields(context.Background(), "example.com", "v1", "Widget")
	require.NoError(t, err)
	require.Len(t, fields, 5)

	byName := make(map[string]int)
	for i, f := range fields {
		byName[f.Name] = i
		assert.True(t, f.TopLevel, fmt.Sprintf("%s should be a manifest root property", f.Name))
	}

	size := fields[byName["size"]]
	assert.False(t, size.Nullable)

	owner := fields[byName["owner"]]
	assert.Equal(t, 63, owner.MaxLength)
	assert.True(t, owner.Nullable)
}
