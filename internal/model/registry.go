package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/tmitchell/kubeorm/internal/kerrors"
	"github.com/tmitchell/kubeorm/internal/logging"
)

// FieldSource resolves the schema-derived fields for a group/version/kind.
// Implemented by the schema resolver; nil disables auto-derivation.
type FieldSource interface {
	ResolveFields(ctx context.Context, group, version, kind string) ([]FieldDescriptor, error)
}

// ModelType is a registered model: descriptor plus frozen field set.
// Immutable after registration, safe for concurrent reads.
type ModelType struct {
	name       string
	descriptor ResourceDescriptor
	fields     []FieldDescriptor
	index      map[string]int
}

// Name returns the model's registry name.
func (m *ModelType) Name() string { return m.name }

// Descriptor returns the model's resource descriptor.
func (m *ModelType) Descriptor() ResourceDescriptor { return m.descriptor }

// Fields returns the model's field descriptors in declaration order:
// identity fields first, then explicit fields, then synthesized ones.
func (m *ModelType) Fields() []FieldDescriptor { return m.fields }

// Field looks up a field descriptor by name.
func (m *ModelType) Field(name string) (FieldDescriptor, bool) {
	i, ok := m.index[name]
	if !ok {
		return FieldDescriptor{}, false
	}
	return m.fields[i], true
}

// GVR returns the GroupVersionResource for API calls against this model.
func (m *ModelType) GVR() schema.GroupVersionResource { return m.descriptor.GVR() }

// Registry holds every registered model type. It is constructed once at
// startup and passed by reference to all call sites needing lookup.
// Population is serialized by a mutex; after startup it is read-only and
// reads take the read lock only.
type Registry struct {
	mu     sync.RWMutex
	source FieldSource
	logger *slog.Logger
	models map[string]*ModelType
}

// NewRegistry creates an empty registry. source may be nil, in which case
// every model must be registered with SchemaOptional=true and explicit
// fields only. logger nil means slog.Default().
func NewRegistry(source FieldSource, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		source: source,
		logger: logger,
		models: make(map[string]*ModelType),
	}
}

// Register builds and stores a model type from a descriptor and explicitly
// declared fields. Registering the same name again returns the existing
// model unchanged (first write wins). Registration is a startup-time
// activity: schema or connectivity failures here abort the caller's
// startup rather than being retried.
func (r *Registry) Register(ctx context.Context, name string, descriptor ResourceDescriptor, explicit []FieldDescriptor) (*ModelType, error) {
	if name == "" {
		return nil, &kerrors.ValidationError{Reason: "model name is required"}
	}

	r.mu.RLock()
	if existing, ok := r.models[name]; ok {
		r.mu.RUnlock()
		return existing, nil
	}
	r.mu.RUnlock()

	// The write lock is held across schema resolution on purpose: concurrent
	// first-time registrations must not race the cluster fetch. The resolver
	// additionally deduplicates identical in-flight fetches.
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.models[name]; ok {
		return existing, nil
	}

	modelType, err := r.buildModel(ctx, name, descriptor, explicit)
	if err != nil {
		return nil, err
	}

	r.models[name] = modelType
	r.logger.Debug("registered model",
		logging.Model(name),
		logging.Kind(modelType.descriptor.Kind),
		logging.GroupVersion(modelType.descriptor.Group, modelType.descriptor.Version),
		slog.Int("fields", len(modelType.fields)))

	return modelType, nil
}

// buildModel assembles the frozen field set for one model: identity fields,
// explicit fields, then schema-derived fields for every property not already
// declared.
func (r *Registry) buildModel(ctx context.Context, name string, descriptor ResourceDescriptor, explicit []FieldDescriptor) (*ModelType, error) {
	descriptor, err := descriptor.withDefaults(name)
	if err != nil {
		return nil, err
	}

	reserved := reservedFieldNames()
	fields := identityFields()
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		seen[f.Name] = true
	}

	for _, f := range explicit {
		if f.Name == "" {
			return nil, &kerrors.ValidationError{Model: name, Reason: "explicit field with empty name"}
		}
		if !f.Kind.Valid() {
			return nil, &kerrors.ValidationError{Model: name, Reason: fmt.Sprintf("field %q has unknown kind %q", f.Name, f.Kind)}
		}
		if reserved[f.Name] {
			return nil, &kerrors.ValidationError{Model: name, Reason: fmt.Sprintf("field %q collides with an injected identity field", f.Name)}
		}
		if seen[f.Name] {
			return nil, &kerrors.ValidationError{Model: name, Reason: fmt.Sprintf("duplicate field %q", f.Name)}
		}
		if f.Kind == FieldText && f.MaxLength == 0 {
			f.MaxLength = DefaultTextMaxLength
		}
		f.Identity = false
		f.ReadOnly = false
		fields = append(fields, f)
		seen[f.Name] = true
	}

	synthesized, err := r.resolveFields(ctx, name, descriptor)
	if err != nil {
		return nil, err
	}
	for _, f := range synthesized {
		// Explicit declarations always win over synthesized fields.
		if seen[f.Name] {
			continue
		}
		fields = append(fields, f)
		seen[f.Name] = true
	}

	index := make(map[string]int, len(fields))
	for i, f := range fields {
		index[f.Name] = i
	}

	return &ModelType{
		name:       name,
		descriptor: descriptor,
		fields:     fields,
		index:      index,
	}, nil
}

// resolveFields fetches schema-derived fields, honoring SchemaOptional.
func (r *Registry) resolveFields(ctx context.Context, name string, descriptor ResourceDescriptor) ([]FieldDescriptor, error) {
	if r.source == nil {
		if !descriptor.SchemaOptional {
			return nil, &kerrors.ValidationError{Model: name, Reason: "schema required but no schema source configured"}
		}
		return nil, nil
	}

	fields, err := r.source.ResolveFields(ctx, descriptor.Group, descriptor.Version, descriptor.Kind)
	if err != nil {
		if errors.Is(err, kerrors.ErrSchemaNotFound) && descriptor.SchemaOptional {
			r.logger.Debug("no schema for model, using explicit fields only",
				logging.Model(name), logging.Kind(descriptor.Kind))
			return nil, nil
		}
		// Connection errors always propagate: registration happens at
		// startup and an unreachable cluster is a broken deployment.
		return nil, err
	}
	return fields, nil
}

// Lookup returns a registered model type by name.
func (r *Registry) Lookup(name string) (*ModelType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	return m, ok
}

// Models returns the sorted names of all registered models.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
