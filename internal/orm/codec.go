package orm

import (
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/tmitchell/kubeorm/internal/model"
)

// decodeManifest populates an instance from an unstructured manifest.
// Identity fields come from metadata; top-level fields from manifest root
// properties; explicit spec-scoped fields from spec.<name>. Absent manifest
// properties leave the field unset.
func decodeManifest(m *model.ModelType, obj *unstructured.Unstructured) *Instance {
	inst := NewInstance(m)

	inst.store(model.FieldMetadataName, obj.GetName())
	if rv := obj.GetResourceVersion(); rv != "" {
		inst.store(model.FieldResourceVersion, rv)
	}
	if uid := obj.GetUID(); uid != "" {
		inst.store(model.FieldMetadataUID, string(uid))
	}
	if labels := obj.GetLabels(); len(labels) > 0 {
		inst.store(model.FieldMetadataLabels, labels)
	}
	if annotations := obj.GetAnnotations(); len(annotations) > 0 {
		inst.store(model.FieldMetadataAnnotations, annotations)
	}
	if !m.Descriptor().ClusterScoped {
		if ns := obj.GetNamespace(); ns != "" {
			inst.namespace = ns
		}
	}

	spec, _, _ := unstructured.NestedMap(obj.Object, "spec")
	for _, field := range m.Fields() {
		if field.Identity {
			continue
		}
		if field.TopLevel {
			if value, ok := obj.Object[field.Name]; ok {
				inst.store(field.Name, value)
			}
			continue
		}
		if value, ok := spec[field.Name]; ok {
			inst.store(field.Name, value)
		}
	}

	return inst
}

// encodeManifest builds the unstructured manifest for an instance. Unset and
// nil-valued fields are omitted; the namespace is included only for
// namespaced models; the resourceVersion is included only when the instance
// holds one. An instance without a name gets a generateName prefix derived
// from the kind instead.
func encodeManifest(inst *Instance) *unstructured.Unstructured {
	m := inst.model
	descriptor := m.Descriptor()

	metadata := map[string]interface{}{}
	if name := inst.Name(); name != "" {
		metadata["name"] = name
	} else {
		// Unnamed instances are created with a server-generated name.
		metadata["generateName"] = strings.ToLower(descriptor.Kind) + "-"
	}
	if !descriptor.ClusterScoped {
		metadata["namespace"] = inst.namespace
	}
	if rv := inst.ResourceVersion(); rv != "" {
		metadata["resourceVersion"] = rv
	}
	if labels := toStringMap(inst.values[model.FieldMetadataLabels]); len(labels) > 0 {
		metadata["labels"] = labels
	}
	if annotations := toStringMap(inst.values[model.FieldMetadataAnnotations]); len(annotations) > 0 {
		metadata["annotations"] = annotations
	}

	content := map[string]interface{}{
		"apiVersion": descriptor.APIVersion(),
		"kind":       descriptor.Kind,
		"metadata":   metadata,
	}

	for _, field := range m.Fields() {
		if field.Identity {
			continue
		}
		value, ok := inst.values[field.Name]
		if !ok || value == nil {
			continue
		}
		if field.TopLevel {
			content[field.Name] = value
			continue
		}
		spec, ok := content["spec"].(map[string]interface{})
		if !ok {
			spec = make(map[string]interface{})
			content["spec"] = spec
		}
		spec[field.Name] = value
	}

	return &unstructured.Unstructured{Object: content}
}

// toStringMap normalizes a labels/annotations value to map[string]interface{}
// for the manifest. Accepts the map[string]string that decode produces and
// the map[string]interface{} a caller may set.
func toStringMap(value interface{}) map[string]interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return v
	case map[string]string:
		out := make(map[string]interface{}, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out
	default:
		return nil
	}
}
