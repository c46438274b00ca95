package model

import (
	"strings"

	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/tmitchell/kubeorm/internal/kerrors"
)

// DefaultNamespace is assigned to namespaced models that do not set one.
const DefaultNamespace = "default"

// ResourceDescriptor is the per-model static configuration mapping a model to
// a Kubernetes resource. Immutable once the model is registered.
type ResourceDescriptor struct {
	// Group is the API group; empty string means the core group.
	Group string

	// Version is the API version within the group. Required.
	Version string

	// Kind is the resource type name, e.g. "Pod". Required.
	Kind string

	// Resource is the plural name used in API paths. Defaults to
	// Pluralize(Kind), which intentionally does not reproduce Kubernetes'
	// irregular plural table; set it explicitly for kinds like Endpoints.
	Resource string

	// Namespace is the default namespace for instances of this model.
	// Defaults to "default" for namespaced models; must stay empty for
	// cluster-scoped ones.
	Namespace string

	// ClusterScoped marks resources that exist outside any namespace.
	ClusterScoped bool

	// SchemaOptional allows registration to proceed with explicit fields
	// only when the cluster has no discoverable schema for the kind. The
	// zero value makes a missing schema a registration error.
	SchemaOptional bool
}

// Pluralize derives a plural resource name from a kind: lowercase, append
// "es" after s, x, z, ch or sh, otherwise append "s". The rule is
// deterministic and deliberately simple; it mismatches Kubernetes' irregular
// plurals ("Endpoints", "NetworkPolicy") and callers override Resource for
// those kinds.
func Pluralize(kind string) string {
	lower := strings.ToLower(kind)
	for _, suffix := range []string{"s", "x", "z", "ch", "sh"} {
		if strings.HasSuffix(lower, suffix) {
			return lower + "es"
		}
	}
	return lower + "s"
}

// withDefaults validates the descriptor and returns a copy with derived
// defaults filled in.
func (d ResourceDescriptor) withDefaults(modelName string) (ResourceDescriptor, error) {
	if d.Kind == "" {
		return d, &kerrors.ValidationError{Model: modelName, Reason: "kind is required"}
	}
	if d.Version == "" {
		return d, &kerrors.ValidationError{Model: modelName, Reason: "version is required"}
	}
	if d.ClusterScoped && d.Namespace != "" {
		return d, &kerrors.ValidationError{Model: modelName, Reason: "cluster-scoped resources cannot have a namespace"}
	}

	if d.Resource == "" {
		d.Resource = Pluralize(d.Kind)
	}
	if !d.ClusterScoped && d.Namespace == "" {
		d.Namespace = DefaultNamespace
	}

	return d, nil
}

// GVR returns the GroupVersionResource for API calls against this model.
func (d ResourceDescriptor) GVR() schema.GroupVersionResource {
	return schema.GroupVersionResource{
		Group:    d.Group,
		Version:  d.Version,
		Resource: d.Resource,
	}
}

// APIVersion returns the manifest apiVersion string: "<version>" for the
// core group, "<group>/<version>" otherwise.
func (d ResourceDescriptor) APIVersion() string {
	if d.Group == "" {
		return d.Version
	}
	return d.Group + "/" + d.Version
}
