package k8s

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"
)

// Resource operation functions shared by clusterClient and its tests. They
// operate on a dynamic.Interface directly so tests can exercise them against
// a fake client without constructing credentials.

// resourceFor selects the namespaced or cluster-scoped resource interface.
// An empty namespace means cluster scope.
func resourceFor(dynamicClient dynamic.Interface, gvr schema.GroupVersionResource, namespace string) dynamic.ResourceInterface {
	if namespace != "" {
		return dynamicClient.Resource(gvr).Namespace(namespace)
	}
	return dynamicClient.Resource(gvr)
}

// getResource retrieves a specific resource by name.
func getResource(ctx context.Context, dynamicClient dynamic.Interface,
	gvr schema.GroupVersionResource, namespace, name string) (*unstructured.Unstructured, error) {

	obj, err := resourceFor(dynamicClient, gvr, namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %q: %w", gvr.Resource, name, err)
	}
	return obj, nil
}

// listResources retrieves resources with pagination support.
func listResources(ctx context.Context, dynamicClient dynamic.Interface,
	gvr schema.GroupVersionResource, namespace string, opts ListOptions) (*unstructured.UnstructuredList, error) {

	listOpts := metav1.ListOptions{
		LabelSelector: opts.LabelSelector,
		FieldSelector: opts.FieldSelector,
	}
	if opts.Limit > 0 {
		listOpts.Limit = opts.Limit
	}
	if opts.Continue != "" {
		listOpts.Continue = opts.Continue
	}

	list, err := resourceFor(dynamicClient, gvr, namespace).List(ctx, listOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", gvr.Resource, err)
	}
	return list, nil
}

// createResource creates a new resource from the provided manifest.
func createResource(ctx context.Context, dynamicClient dynamic.Interface,
	gvr schema.GroupVersionResource, namespace string, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {

	result, err := resourceFor(dynamicClient, gvr, namespace).Create(ctx, obj, metav1.CreateOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", obj.GetKind(), err)
	}
	return result, nil
}

// updateResource replaces a resource. The manifest's resourceVersion carries
// the optimistic-concurrency token; stale versions fail with a conflict.
func updateResource(ctx context.Context, dynamicClient dynamic.Interface,
	gvr schema.GroupVersionResource, namespace string, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {

	result, err := resourceFor(dynamicClient, gvr, namespace).Update(ctx, obj, metav1.UpdateOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to update %s %q: %w", obj.GetKind(), obj.GetName(), err)
	}
	return result, nil
}

// patchResource updates specific fields of a resource.
func patchResource(ctx context.Context, dynamicClient dynamic.Interface,
	gvr schema.GroupVersionResource, namespace, name string, patchType types.PatchType, data []byte) (*unstructured.Unstructured, error) {

	result, err := resourceFor(dynamicClient, gvr, namespace).Patch(ctx, name, patchType, data, metav1.PatchOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to patch %s %q: %w", gvr.Resource, name, err)
	}
	return result, nil
}

// deleteResource removes a resource by name.
func deleteResource(ctx context.Context, dynamicClient dynamic.Interface,
	gvr schema.GroupVersionResource, namespace, name string) error {

	err := resourceFor(dynamicClient, gvr, namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete %s %q: %w", gvr.Resource, name, err)
	}
	return nil
}
