package orm

import (
	"fmt"

	"github.com/tmitchell/kubeorm/internal/kerrors"
	"github.com/tmitchell/kubeorm/internal/model"
)

// Instance is an in-memory representation of one Kubernetes object of a
// registered model. Instances are created empty, populated by a read/list
// response, or populated by the caller before save. They are never cached;
// every read hits the cluster.
//
// Instances are not safe for concurrent use.
type Instance struct {
	model     *model.ModelType
	namespace string
	values    map[string]interface{}
}

// NewInstance creates an empty instance of a model. Namespaced models start
// in their descriptor's default namespace.
func NewInstance(m *model.ModelType) *Instance {
	return &Instance{
		model:     m,
		namespace: m.Descriptor().Namespace,
		values:    make(map[string]interface{}),
	}
}

// Model returns the instance's model type.
func (i *Instance) Model() *model.ModelType { return i.model }

// Get returns a field's value. The second return is false when the model has
// no such field; a known field that was never set yields (nil, true).
func (i *Instance) Get(name string) (interface{}, bool) {
	if _, ok := i.model.Field(name); !ok {
		return nil, false
	}
	return i.values[name], true
}

// Set assigns a field value. Unknown fields, server-assigned read-only
// fields (resource_version, metadata_uid) and text values exceeding the
// field's max length are rejected with a validation error.
func (i *Instance) Set(name string, value interface{}) error {
	field, ok := i.model.Field(name)
	if !ok {
		return &kerrors.ValidationError{Model: i.model.Name(), Reason: fmt.Sprintf("unknown field %q", name)}
	}
	if field.ReadOnly {
		return &kerrors.ValidationError{Model: i.model.Name(), Reason: fmt.Sprintf("field %q is assigned by the server and cannot be set", name)}
	}
	if field.Kind == model.FieldText && field.MaxLength > 0 {
		if s, ok := value.(string); ok && len(s) > field.MaxLength {
			return &kerrors.ValidationError{
				Model:  i.model.Name(),
				Reason: fmt.Sprintf("field %q exceeds max length %d", name, field.MaxLength),
			}
		}
	}
	i.values[name] = value
	return nil
}

// store assigns a field value without validation. Used when populating from
// read responses and when reflecting server-assigned values after save.
func (i *Instance) store(name string, value interface{}) {
	i.values[name] = value
}

// Name returns the object name, empty when unset.
func (i *Instance) Name() string {
	s, _ := i.values[model.FieldMetadataName].(string)
	return s
}

// ResourceVersion returns the held resourceVersion, empty for instances that
// were never read from the cluster.
func (i *Instance) ResourceVersion() string {
	s, _ := i.values[model.FieldResourceVersion].(string)
	return s
}

// UID returns the server-assigned object UID, empty for unsaved instances.
func (i *Instance) UID() string {
	s, _ := i.values[model.FieldMetadataUID].(string)
	return s
}

// Namespace returns the instance's namespace, empty for cluster-scoped
// models.
func (i *Instance) Namespace() string { return i.namespace }

// SetNamespace moves the instance to another namespace. Calling it on a
// cluster-scoped model is a usage error.
func (i *Instance) SetNamespace(namespace string) error {
	if i.model.Descriptor().ClusterScoped {
		return &kerrors.ValidationError{Model: i.model.Name(), Reason: "cluster-scoped resources cannot have a namespace"}
	}
	i.namespace = namespace
	return nil
}

func (i *Instance) String() string {
	if i.model.Descriptor().ClusterScoped {
		return fmt.Sprintf("%s %q (cluster-wide)", i.model.Name(), i.Name())
	}
	return fmt.Sprintf("%s %s/%s", i.model.Name(), i.namespace, i.Name())
}
