package k8s

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/openapi"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/tmitchell/kubeorm/internal/kerrors"
	"github.com/tmitchell/kubeorm/internal/logging"
)

// clusterClient implements the Client interface using client-go.
//
// Credentials are resolved once at construction; the dynamic and openapi
// clients are constructed lazily and cached behind an RWMutex.
type clusterClient struct {
	config     *ClientConfig
	restConfig *rest.Config
	logger     *slog.Logger

	mu            sync.RWMutex
	dynamicClient dynamic.Interface
	openapiClient openapi.Client
}

// NewClient creates a new Kubernetes client with the given configuration.
// Credential resolution happens here, first match wins: explicit kubeconfig
// path, kubeconfig path from the environment, in-cluster service account,
// default kubeconfig path. An exhausted chain fails with AuthenticationError.
func NewClient(config *ClientConfig) (Client, error) {
	if config == nil {
		config = &ClientConfig{}
	}

	// Set defaults
	if config.QPSLimit == 0 {
		config.QPSLimit = DefaultQPSLimit
	}
	if config.BurstLimit == 0 {
		config.BurstLimit = DefaultBurstLimit
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout * time.Second
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	restConfig, err := resolveRestConfig(config, logger)
	if err != nil {
		return nil, err
	}

	// Apply performance settings
	restConfig.QPS = config.QPSLimit
	restConfig.Burst = config.BurstLimit
	restConfig.Timeout = config.Timeout

	logger.Debug("kubernetes client configured", logging.Host(restConfig.Host))

	return &clusterClient{
		config:     config,
		restConfig: restConfig,
		logger:     logger,
	}, nil
}

// defaultKubeconfigPath is the last entry in the credential chain. A var so
// tests can point it at a scratch location.
var defaultKubeconfigPath = clientcmd.RecommendedHomeFile

// resolveRestConfig walks the credential resolution chain and returns the
// first rest.Config that loads. Reasons for skipped sources are collected
// into the AuthenticationError so an exhausted chain is diagnosable.
func resolveRestConfig(config *ClientConfig, logger *slog.Logger) (*rest.Config, error) {
	var reasons []string

	// (a) explicit kubeconfig path from configuration
	if config.KubeconfigPath != "" {
		restConfig, err := configFromKubeconfig(config.KubeconfigPath, config.Context)
		if err == nil {
			logger.Debug("using explicit kubeconfig", slog.String("path", config.KubeconfigPath))
			return restConfig, nil
		}
		reasons = append(reasons, fmt.Sprintf("explicit kubeconfig %s: %v", config.KubeconfigPath, err))
	} else {
		reasons = append(reasons, "no explicit kubeconfig path configured")
	}

	// (b) kubeconfig path from the environment
	for _, env := range []string{EnvKubeconfig, EnvKubeconfigFallback} {
		path := os.Getenv(env)
		if path == "" {
			continue
		}
		path = expandHome(path)
		restConfig, err := configFromKubeconfig(path, config.Context)
		if err == nil {
			logger.Debug("using kubeconfig from environment",
				slog.String("env", env), slog.String("path", path))
			return restConfig, nil
		}
		reasons = append(reasons, fmt.Sprintf("%s=%s: %v", env, path, err))
	}

	// (c) in-cluster service account
	if err := validateInClusterEnvironment(); err == nil {
		restConfig, err := rest.InClusterConfig()
		if err == nil {
			logger.Debug("using in-cluster service account")
			return restConfig, nil
		}
		reasons = append(reasons, fmt.Sprintf("in-cluster: %v", err))
	} else {
		reasons = append(reasons, fmt.Sprintf("in-cluster: %v", err))
	}

	// (d) default kubeconfig path
	defaultPath := defaultKubeconfigPath
	if _, err := os.Stat(defaultPath); err == nil {
		restConfig, err := configFromKubeconfig(defaultPath, config.Context)
		if err == nil {
			logger.Debug("using default kubeconfig", slog.String("path", defaultPath))
			return restConfig, nil
		}
		reasons = append(reasons, fmt.Sprintf("default kubeconfig %s: %v", defaultPath, err))
	} else {
		reasons = append(reasons, fmt.Sprintf("default kubeconfig %s: not present", defaultPath))
	}

	return nil, &kerrors.AuthenticationError{Reason: strings.Join(reasons, "; ")}
}

// configFromKubeconfig builds a rest.Config from one kubeconfig file,
// optionally overriding the current context.
func configFromKubeconfig(path, contextName string) (*rest.Config, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	loadingRules.ExplicitPath = path

	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		loadingRules,
		&clientcmd.ConfigOverrides{
			CurrentContext: contextName,
		},
	)

	return clientConfig.ClientConfig()
}

// validateInClusterEnvironment checks that the service-account token and CA
// bundle are present at the conventional mount path.
func validateInClusterEnvironment() error {
	if _, err := os.Stat(DefaultTokenPath); os.IsNotExist(err) {
		return fmt.Errorf("service account token not found at %s", DefaultTokenPath)
	}
	if _, err := os.Stat(DefaultCACertPath); os.IsNotExist(err) {
		return fmt.Errorf("service account CA certificate not found at %s", DefaultCACertPath)
	}
	return nil
}

// expandHome resolves a leading ~/ against the user's home directory.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// Host returns the API server host the client is configured against.
func (c *clusterClient) Host() string {
	return c.restConfig.Host
}

// getDynamicClient returns the cached dynamic client, constructing it on
// first use.
func (c *clusterClient) getDynamicClient() (dynamic.Interface, error) {
	c.mu.RLock()
	if c.dynamicClient != nil {
		defer c.mu.RUnlock()
		return c.dynamicClient, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if c.dynamicClient != nil {
		return c.dynamicClient, nil
	}

	dynamicClient, err := dynamic.NewForConfig(c.restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}
	c.dynamicClient = dynamicClient

	return dynamicClient, nil
}

// getOpenAPIClient returns the cached OpenAPI v3 discovery client,
// constructing it on first use.
func (c *clusterClient) getOpenAPIClient() (openapi.Client, error) {
	c.mu.RLock()
	if c.openapiClient != nil {
		defer c.mu.RUnlock()
		return c.openapiClient, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.openapiClient != nil {
		return c.openapiClient, nil
	}

	discoveryClient, err := discovery.NewDiscoveryClientForConfig(c.restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery client: %w", err)
	}
	c.openapiClient = discoveryClient.OpenAPIV3()

	return c.openapiClient, nil
}

// Get retrieves a specific resource by name.
func (c *clusterClient) Get(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string) (*unstructured.Unstructured, error) {
	dynamicClient, err := c.getDynamicClient()
	if err != nil {
		return nil, err
	}
	return getResource(ctx, dynamicClient, gvr, namespace, name)
}

// List retrieves resources with pagination support.
func (c *clusterClient) List(ctx context.Context, gvr schema.GroupVersionResource, namespace string, opts ListOptions) (*unstructured.UnstructuredList, error) {
	dynamicClient, err := c.getDynamicClient()
	if err != nil {
		return nil, err
	}
	return listResources(ctx, dynamicClient, gvr, namespace, opts)
}

// Create creates a new resource from the provided manifest.
func (c *clusterClient) Create(ctx context.Context, gvr schema.GroupVersionResource, namespace string, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	dynamicClient, err := c.getDynamicClient()
	if err != nil {
		return nil, err
	}
	return createResource(ctx, dynamicClient, gvr, namespace, obj)
}

// Update replaces a resource, relying on the server's resourceVersion check.
func (c *clusterClient) Update(ctx context.Context, gvr schema.GroupVersionResource, namespace string, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	dynamicClient, err := c.getDynamicClient()
	if err != nil {
		return nil, err
	}
	return updateResource(ctx, dynamicClient, gvr, namespace, obj)
}

// Patch updates specific fields of a resource.
func (c *clusterClient) Patch(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string, patchType types.PatchType, data []byte) (*unstructured.Unstructured, error) {
	dynamicClient, err := c.getDynamicClient()
	if err != nil {
		return nil, err
	}
	return patchResource(ctx, dynamicClient, gvr, namespace, name, patchType, data)
}

// Delete removes a resource by name.
func (c *clusterClient) Delete(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string) error {
	dynamicClient, err := c.getDynamicClient()
	if err != nil {
		return err
	}
	return deleteResource(ctx, dynamicClient, gvr, namespace, name)
}

// GroupVersionDocument returns the raw OpenAPI v3 JSON for one group/version.
func (c *clusterClient) GroupVersionDocument(ctx context.Context, group, version string) ([]byte, error) {
	openapiClient, err := c.getOpenAPIClient()
	if err != nil {
		return nil, err
	}

	paths, err := openapiClient.Paths()
	if err != nil {
		return nil, &kerrors.ConnectionError{Host: c.Host(), Err: err}
	}

	gv, ok := paths[openAPIPath(group, version)]
	if !ok {
		return nil, &kerrors.SchemaNotFoundError{Group: group, Version: version}
	}

	data, err := gv.Schema(runtime.ContentTypeJSON)
	if err != nil {
		return nil, &kerrors.ConnectionError{Host: c.Host(), Err: err}
	}

	return data, nil
}

// openAPIPath returns the discovery path key for a group/version: "api/v1"
// for the core group, "apis/<group>/<version>" for named groups.
func openAPIPath(group, version string) string {
	if group == "" || group == "core" {
		return "api/" + version
	}
	return "apis/" + group + "/" + version
}
