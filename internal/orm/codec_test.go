package orm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
)

func TestDecodeManifest(t *testing.T) {
	registry := testRegistry(t)
	pod, _ := registry.Lookup("Pod")

	obj := podManifest("web-1", "prod", "42")
	obj.SetAnnotations(map[string]string{"team": "platform"})

	inst := decodeManifest(pod, obj)

	assert.Equal(t, "web-1", inst.Name())
	assert.Equal(t, "prod", inst.Namespace())
	assert.Equal(t, "42", inst.ResourceVersion())
	assert.Equal(t, "uid-web-1", inst.UID())

	labels, ok := inst.Get("metadata_labels")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"app": "web"}, labels)

	annotations, ok := inst.Get("metadata_annotations")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"team": "platform"}, annotations)

	spec, ok := inst.Get("spec")
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"nodeName": "node-1"}, spec)
}

func TestDecodeManifestTypedObject(t *testing.T) {
	registry := testRegistry(t)
	pod, _ := registry.Lookup("Pod")

	typed := &corev1.Pod{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Pod"},
		ObjectMeta: metav1.ObjectMeta{
			Name:            "web-typed",
			Namespace:       "prod",
			ResourceVersion: "7",
			UID:             types.UID("uid-web-typed"),
			Labels:          map[string]string{"app": "web"},
		},
		Spec: corev1.PodSpec{NodeName: "node-2"},
	}
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(typed)
	require.NoError(t, err)

	inst := decodeManifest(pod, &unstructured.Unstructured{Object: content})

	assert.Equal(t, "web-typed", inst.Name())
	assert.Equal(t, "prod", inst.Namespace())
	assert.Equal(t, "7", inst.ResourceVersion())
	assert.Equal(t, "uid-web-typed", inst.UID())

	spec, ok := inst.Get("spec")
	require.True(t, ok)
	assert.Equal(t, "node-2", spec.(map[string]interface{})["nodeName"])
}

func TestDecodeManifestSpecScopedFields(t *testing.T) {
	registry := testRegistry(t)
	widget, _ := registry.Lookup("Widget")

	inst := decodeManifest(widget, &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "example.com/v1",
		"kind":       "Widget",
		"metadata":   map[string]interface{}{"name": "w", "namespace": "default"},
		"spec": map[string]interface{}{
			"size":  int64(3),
			"owner": "alice",
		},
	}})

	size, ok := inst.Get("size")
	require.True(t, ok)
	assert.Equal(t, int64(3), size)

	owner, ok := inst.Get("owner")
	require.True(t, ok)
	assert.Equal(t, "alice", owner)
}

func TestDecodeManifestAbsentFieldsStayUnset(t *testing.T) {
	registry := testRegistry(t)
	pod, _ := registry.Lookup("Pod")

	inst := decodeManifest(pod, &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Pod",
		"metadata":   map[string]interface{}{"name": "bare"},
	}})

	status, ok := inst.Get("status")
	assert.True(t, ok)
	assert.Nil(t, status)
	assert.Empty(t, inst.ResourceVersion())
}

func TestEncodeManifest(t *testing.T) {
	registry := testRegistry(t)
	pod, _ := registry.Lookup("Pod")

	inst := NewInstance(pod)
	require.NoError(t, inst.Set("metadata_name", "web-2"))
	require.NoError(t, inst.Set("metadata_labels", map[string]string{"app": "web"}))
	require.NoError(t, inst.Set("spec", map[string]interface{}{"nodeName": "node-3"}))

	obj := encodeManifest(inst)

	assert.Equal(t, "v1", obj.GetAPIVersion())
	assert.Equal(t, "Pod", obj.GetKind())
	assert.Equal(t, "web-2", obj.GetName())
	assert.Equal(t, "default", obj.GetNamespace())
	assert.Equal(t, map[string]string{"app": "web"}, obj.GetLabels())

	// Unset fields and the never-read resourceVersion are omitted.
	_, found, _ := unstructured.NestedMap(obj.Object, "status")
	assert.False(t, found)
	assert.Empty(t, obj.GetResourceVersion())
}

func TestEncodeManifestUnnamed(t *testing.T) {
	registry := testRegistry(t)
	pod, _ := registry.Lookup("Pod")

	obj := encodeManifest(NewInstance(pod))

	_, found, _ := unstructured.NestedString(obj.Object, "metadata", "name")
	assert.False(t, found)
	assert.Equal(t, "pod-", obj.GetGenerateName())
}

func TestEncodeManifestSpecScopedFields(t *testing.T) {
	registry := testRegistry(t)
	widget, _ := registry.Lookup("Widget")

	inst := NewInstance(widget)
	require.NoError(t, inst.Set("metadata_name", "w"))
	require.NoError(t, inst.Set("size", 5))

	obj := encodeManifest(inst)

	assert.Equal(t, "example.com/v1", obj.GetAPIVersion())
	size, found, err := unstructured.NestedFieldNoCopy(obj.Object, "spec", "size")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 5, size)
}

func TestEncodeManifestClusterScoped(t *testing.T) {
	registry := testRegistry(t)
	nsModel, _ := registry.Lookup("Namespace")

	inst := NewInstance(nsModel)
	require.NoError(t, inst.Set("metadata_name", "staging"))

	obj := encodeManifest(inst)

	_, found, _ := unstructured.NestedString(obj.Object, "metadata", "namespace")
	assert.False(t, found, "cluster-scoped manifests carry no namespace")
}

func TestEncodeManifestRoundTripsResourceVersion(t *testing.T) {
	registry := testRegistry(t)
	pod, _ := registry.Lookup("Pod")

	inst := decodeManifest(pod, podManifest("web-1", "default", "42"))
	obj := encodeManifest(inst)

	assert.Equal(t, "42", obj.GetResourceVersion())
}
