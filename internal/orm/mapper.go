package orm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"

	"github.com/tmitchell/kubeorm/internal/k8s"
	"github.com/tmitchell/kubeorm/internal/kerrors"
	"github.com/tmitchell/kubeorm/internal/logging"
	"github.com/tmitchell/kubeorm/internal/model"
)

// labelCriteriaPrefix marks criteria keys that become server-side label
// selectors, e.g. "metadata_labels.app".
const labelCriteriaPrefix = model.FieldMetadataLabels + "."

// namespaceCriterion narrows a Filter call to one namespace.
const namespaceCriterion = "metadata_namespace"

// MetricsRecorder records mapper operation outcomes. Implementations must be
// safe for concurrent use.
type MetricsRecorder interface {
	RecordOperation(ctx context.Context, model, operation string, duration time.Duration, err error)
}

// Mapper translates model operations into Kubernetes API calls. It is
// stateless apart from its collaborators and safe for concurrent use.
type Mapper struct {
	client   k8s.Client
	registry *model.Registry
	logger   *slog.Logger
	metrics  MetricsRecorder
}

// NewMapper creates a mapper. logger nil means slog.Default(); metrics nil
// disables recording.
func NewMapper(client k8s.Client, registry *model.Registry, logger *slog.Logger, metrics MetricsRecorder) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{
		client:   client,
		registry: registry,
		logger:   logger,
		metrics:  metrics,
	}
}

// FilterOption configures a Filter call.
type FilterOption func(*ResultSet)

// WithOrderBy sorts the result set by the given fields, later fields
// breaking ties. A "-" prefix sorts descending. Ordering forces the full
// snapshot to be drained on first use.
func WithOrderBy(fields ...string) FilterOption {
	return func(rs *ResultSet) { rs.orderBy = fields }
}

// WithPageSize overrides the list page size.
func WithPageSize(size int64) FilterOption {
	return func(rs *ResultSet) { rs.pageSize = size }
}

// Get retrieves one object by name and decodes it into an instance.
// namespace is ignored for cluster-scoped models and defaults to the model's
// descriptor namespace otherwise. A missing object yields ErrNotFound.
func (mp *Mapper) Get(ctx context.Context, modelName, name, namespace string) (*Instance, error) {
	start := time.Now()
	m, err := mp.lookup(modelName)
	if err != nil {
		return nil, err
	}
	namespace = mp.effectiveNamespace(m, namespace)

	obj, err := mp.client.Get(ctx, m.GVR(), namespace, name)
	mp.record(ctx, m, "get", start, err)
	if err != nil {
		return nil, mp.classify(err, m, namespace, name)
	}

	return decodeManifest(m, obj), nil
}

// Filter builds a lazy result set over the objects matching the criteria.
//
// Criteria are routed by key: "metadata_namespace" narrows the list to one
// namespace (absent means all namespaces), "metadata_labels.<key>" entries
// are pushed down to the API server as a label selector, and everything else
// is matched client-side per page against the manifest, since the server
// only indexes labels and a few fixed fields. Client-side keys name model
// fields or dotted manifest paths and may use the "[*]" array wildcard.
func (mp *Mapper) Filter(ctx context.Context, modelName string, criteria Criteria, opts ...FilterOption) (*ResultSet, error) {
	m, err := mp.lookup(modelName)
	if err != nil {
		return nil, err
	}

	namespace := ""
	selectorSet := labels.Set{}
	clientSide := make(map[string]interface{})

	for key, value := range criteria {
		switch {
		case key == namespaceCriterion:
			ns, ok := value.(string)
			if !ok {
				return nil, &kerrors.ValidationError{Model: modelName, Reason: "metadata_namespace criterion must be a string"}
			}
			if m.Descriptor().ClusterScoped {
				return nil, &kerrors.ValidationError{Model: modelName, Reason: "cluster-scoped resources cannot be filtered by namespace"}
			}
			namespace = ns
		case strings.HasPrefix(key, labelCriteriaPrefix):
			label, ok := value.(string)
			if !ok {
				label = fmt.Sprintf("%v", value)
			}
			selectorSet[strings.TrimPrefix(key, labelCriteriaPrefix)] = label
		default:
			clientSide[manifestPath(m, key)] = value
		}
	}

	if err := validateCriteria(modelName, clientSide); err != nil {
		return nil, err
	}

	rs := &ResultSet{
		mapper:     mp,
		modelType:  m,
		namespace:  namespace,
		selector:   selectorSet.AsSelector().String(),
		clientSide: clientSide,
		pageSize:   defaultPageSize,
	}
	for _, opt := range opts {
		opt(rs)
	}

	mp.logger.Debug("filtering resources",
		logging.Model(modelName),
		logging.Namespace(namespace),
		slog.String("selector", rs.selector),
		slog.Int("client_side_criteria", len(clientSide)))

	return rs, nil
}

// Save persists an instance: create when metadata_name is unset (the server
// assigns a name via generateName), update otherwise, sending the held
// resourceVersion for optimistic concurrency. A stale version yields
// ErrConflict and leaves the instance unchanged; retry-with-merge is the
// caller's decision. On success the server-assigned name, resourceVersion
// and uid are reflected back into the instance.
func (mp *Mapper) Save(ctx context.Context, inst *Instance) error {
	start := time.Now()
	m := inst.model

	obj := encodeManifest(inst)
	namespace := ""
	if !m.Descriptor().ClusterScoped {
		namespace = inst.namespace
	}

	operation := "update"
	resourceVersion := inst.ResourceVersion()
	if inst.Name() == "" {
		operation = "create"
	}

	var saved *unstructured.Unstructured
	var err error
	if operation == "create" {
		saved, err = mp.client.Create(ctx, m.GVR(), namespace, obj)
	} else {
		saved, err = mp.client.Update(ctx, m.GVR(), namespace, obj)
	}
	mp.record(ctx, m, operation, start, err)
	if err != nil {
		err = mp.classify(err, m, namespace, inst.Name())
		var conflict *kerrors.ConflictError
		if errors.As(err, &conflict) {
			conflict.ResourceVersion = resourceVersion
		}
		return err
	}

	inst.store(model.FieldMetadataName, saved.GetName())
	inst.store(model.FieldResourceVersion, saved.GetResourceVersion())
	inst.store(model.FieldMetadataUID, string(saved.GetUID()))
	if !m.Descriptor().ClusterScoped {
		if ns := saved.GetNamespace(); ns != "" {
			inst.namespace = ns
		}
	}

	mp.logger.Debug("saved resource",
		logging.Model(m.Name()),
		logging.Operation(operation),
		logging.Namespace(namespace),
		logging.Name(inst.Name()),
		logging.Duration(time.Since(start)))

	return nil
}

// Delete removes the instance's object. Deleting an object that is already
// gone is a success: delete is idempotent. Other failures surface unchanged.
func (mp *Mapper) Delete(ctx context.Context, inst *Instance) error {
	start := time.Now()
	m := inst.model
	if inst.Name() == "" {
		return &kerrors.ValidationError{Model: m.Name(), Reason: "metadata_name is required to delete"}
	}

	namespace := ""
	if !m.Descriptor().ClusterScoped {
		namespace = inst.namespace
	}

	err := mp.client.Delete(ctx, m.GVR(), namespace, inst.Name())
	mp.record(ctx, m, "delete", start, err)
	if err != nil {
		err = mp.classify(err, m, namespace, inst.Name())
		if errors.Is(err, kerrors.ErrNotFound) {
			mp.logger.Debug("delete target already gone",
				logging.Model(m.Name()), logging.Namespace(namespace), logging.Name(inst.Name()))
			return nil
		}
		return err
	}
	return nil
}

// lookup resolves a registered model by name.
func (mp *Mapper) lookup(modelName string) (*model.ModelType, error) {
	m, ok := mp.registry.Lookup(modelName)
	if !ok {
		return nil, &kerrors.ValidationError{Model: modelName, Reason: "model is not registered"}
	}
	return m, nil
}

// effectiveNamespace resolves the namespace for a single-object operation.
func (mp *Mapper) effectiveNamespace(m *model.ModelType, namespace string) string {
	if m.Descriptor().ClusterScoped {
		return ""
	}
	if namespace == "" {
		return m.Descriptor().Namespace
	}
	return namespace
}

// classify maps an API error into the package taxonomy with the model's
// coordinates attached.
func (mp *Mapper) classify(err error, m *model.ModelType, namespace, name string) error {
	return kerrors.FromAPIStatus(err, m.Descriptor().Kind, namespace, name)
}

// record emits an operation metric when a recorder is configured.
func (mp *Mapper) record(ctx context.Context, m *model.ModelType, operation string, start time.Time, err error) {
	if mp.metrics == nil {
		return
	}
	mp.metrics.RecordOperation(ctx, m.Name(), operation, time.Since(start), err)
}
