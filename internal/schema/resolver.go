package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/tmitchell/kubeorm/internal/kerrors"
	"github.com/tmitchell/kubeorm/internal/logging"
)

// DocumentSource provides raw OpenAPI v3 documents for an API group/version.
// k8s.Client satisfies it.
type DocumentSource interface {
	GroupVersionDocument(ctx context.Context, group, version string) ([]byte, error)
}

// Node is the normalized representation of one OpenAPI schema property.
// It carries exactly what field synthesis needs and is not retained after
// model construction.
type Node struct {
	Name     string
	Type     string
	Format   string
	Required bool

	// MaxLength is the schema's maxLength constraint, 0 when unconstrained.
	MaxLength int
}

// builtinGroups is the set of API groups that ship with Kubernetes. Their
// schema definitions live under the io.k8s.api prefix rather than under the
// dot-reversed group name.
var builtinGroups = map[string]bool{
	"admission.k8s.io":             true,
	"admissionregistration.k8s.io": true,
	"apiextensions.k8s.io":         true,
	"apiregistration.k8s.io":       true,
	"apps":                         true,
	"authentication.k8s.io":        true,
	"authorization.k8s.io":         true,
	"autoscaling":                  true,
	"batch":                        true,
	"certificates.k8s.io":          true,
	"coordination.k8s.io":          true,
	"discovery.k8s.io":             true,
	"events.k8s.io":                true,
	"extensions":                   true,
	"flowcontrol.apiserver.k8s.io": true,
	"imagepolicy.k8s.io":           true,
	"internal.apiserver.k8s.io":    true,
	"metrics.k8s.io":               true,
	"networking.k8s.io":            true,
	"node.k8s.io":                  true,
	"policy":                       true,
	"rbac.authorization.k8s.io":    true,
	"resource.k8s.io":              true,
	"scheduling.k8s.io":            true,
	"storage.k8s.io":               true,
	"storagemigration.k8s.io":      true,
}

// definitionKey computes the components.schemas key for a group/version/kind.
//
// Core resources live under io.k8s.api.core. Built-in named groups keep only
// their left-most label under the same prefix (rbac.authorization.k8s.io
// becomes io.k8s.api.rbac). Everything else is a custom resource whose group
// is dot-reversed (example.com becomes com.example).
func definitionKey(group, version, kind string) string {
	switch {
	case group == "" || group == "core":
		return fmt.Sprintf("io.k8s.api.core.%s.%s", version, kind)
	case builtinGroups[group]:
		prefix := strings.SplitN(group, ".", 2)[0]
		return fmt.Sprintf("io.k8s.api.%s.%s.%s", prefix, version, kind)
	default:
		labels := strings.Split(group, ".")
		for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
			labels[i], labels[j] = labels[j], labels[i]
		}
		return fmt.Sprintf("%s.%s.%s", strings.Join(labels, "."), version, kind)
	}
}

// Resolver fetches OpenAPI v3 documents and normalizes resource schemas into
// Nodes. Parsed documents and resolved node sets are cached for the life of
// the process; registration is a startup-time activity and schema churn is
// handled by restarting.
type Resolver struct {
	source DocumentSource
	logger *slog.Logger

	mu    sync.RWMutex
	nodes map[string][]Node                     // keyed group/version/kind
	docs  map[string]map[string]json.RawMessage // keyed group/version

	// Collapses concurrent first fetches of the same group/version document
	// into a single cluster round trip.
	fetchGroup singleflight.Group
}

// NewResolver creates a resolver over the given document source. logger nil
// means slog.Default().
func NewResolver(source DocumentSource, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		source: source,
		logger: logger,
		nodes:  make(map[string][]Node),
		docs:   make(map[string]map[string]json.RawMessage),
	}
}

// Resolve returns the normalized schema nodes for a group/version/kind,
// fetching the group/version OpenAPI document on first use. The metadata,
// apiVersion and kind properties are skipped; identity is injected by the
// model registry.
//
// A document or definition the cluster does not expose yields
// ErrSchemaNotFound. An unreachable cluster propagates as ErrConnection so
// startup fails fast instead of silently registering schemaless models.
func (r *Resolver) Resolve(ctx context.Context, group, version, kind string) ([]Node, error) {
	cacheKey := group + "/" + version + "/" + kind

	r.mu.RLock()
	nodes, ok := r.nodes[cacheKey]
	r.mu.RUnlock()
	if ok {
		return nodes, nil
	}

	schemas, err := r.schemas(ctx, group, version)
	if err != nil {
		if errors.Is(err, kerrors.ErrSchemaNotFound) {
			return nil, &kerrors.SchemaNotFoundError{Group: group, Version: version, Kind: kind}
		}
		return nil, err
	}

	key := definitionKey(group, version, kind)
	raw, ok := schemas[key]
	if !ok {
		r.logger.Warn("no schema definition for kind",
			logging.Kind(kind), logging.GroupVersion(group, version), slog.String("definition", key))
		return nil, &kerrors.SchemaNotFoundError{Group: group, Version: version, Kind: kind}
	}

	nodes, err = parseNodes(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema definition %q: %w", key, err)
	}

	r.mu.Lock()
	r.nodes[cacheKey] = nodes
	r.mu.Unlock()

	return nodes, nil
}

// schemas returns the parsed components.schemas map for a group/version,
// fetching and caching the document on first use.
func (r *Resolver) schemas(ctx context.Context, group, version string) (map[string]json.RawMessage, error) {
	docKey := group + "/" + version

	r.mu.RLock()
	schemas, ok := r.docs[docKey]
	r.mu.RUnlock()
	if ok {
		return schemas, nil
	}

	result, err, _ := r.fetchGroup.Do(docKey, func() (interface{}, error) {
		// Double-check cache inside singleflight
		r.mu.RLock()
		schemas, ok := r.docs[docKey]
		r.mu.RUnlock()
		if ok {
			return schemas, nil
		}

		r.logger.Debug("fetching openapi document", logging.GroupVersion(group, version))
		raw, err := r.source.GroupVersionDocument(ctx, group, version)
		if err != nil {
			return nil, err
		}

		var doc struct {
			Components struct {
				Schemas map[string]json.RawMessage `json:"schemas"`
			} `json:"components"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse openapi document for %s: %w", docKey, err)
		}

		r.mu.Lock()
		r.docs[docKey] = doc.Components.Schemas
		r.mu.Unlock()

		return doc.Components.Schemas, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(map[string]json.RawMessage), nil
}

// parseNodes normalizes one schema definition's properties into Nodes,
// sorted by name so field order is deterministic.
func parseNodes(raw json.RawMessage) ([]Node, error) {
	var def struct {
		Properties map[string]struct {
			Type      string `json:"type"`
			Format    string `json:"format"`
			MaxLength int    `json:"maxLength"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, err
	}

	required := make(map[string]bool, len(def.Required))
	for _, name := range def.Required {
		required[name] = true
	}

	nodes := make([]Node, 0, len(def.Properties))
	for name, prop := range def.Properties {
		// Identity properties are injected by the registry, not synthesized.
		if name == "metadata" || name == "apiVersion" || name == "kind" {
			continue
		}
		nodes = append(nodes, Node{
			Name:      name,
			Type:      prop.Type,
			Format:    prop.Format,
			Required:  required[name],
			MaxLength: prop.MaxLength,
		})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })

	return nodes, nil
}
