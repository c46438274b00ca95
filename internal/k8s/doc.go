// Package k8s provides the Kubernetes client adapter: cluster connectivity
// with a fixed credential resolution order and typed verbs over raw
// unstructured manifests.
//
// Credential resolution, first match wins:
//
//  1. explicit kubeconfig path from ClientConfig
//  2. kubeconfig path from KUBEORM_KUBECONFIG, then KUBECONFIG
//  3. in-cluster service account token and CA bundle
//  4. default kubeconfig path (~/.kube/config)
//
// All verbs are synchronous blocking I/O; the adapter performs no retries.
// Retries and error absorption (e.g. idempotent delete) belong to the
// persistence mapper.
package k8s
