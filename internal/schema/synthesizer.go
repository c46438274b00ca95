package schema

import (
	"context"

	"github.com/tmitchell/kubeorm/internal/model"
)

// Synthesize maps a normalized schema node to a field descriptor. It is
// total over any node: unknown or composite types become structured blobs.
// Date-time strings stay text and pass through as ISO-8601; arrays are
// stored as opaque JSON regardless of item type.
func Synthesize(node Node) model.FieldDescriptor {
	field := model.FieldDescriptor{
		Name:     node.Name,
		Nullable: !node.Required,
		TopLevel: true,
	}

	switch node.Type {
	case "string":
		field.Kind = model.FieldText
		field.MaxLength = node.MaxLength
		if field.MaxLength == 0 {
			field.MaxLength = model.DefaultTextMaxLength
		}
	case "integer":
		field.Kind = model.FieldInteger
	case "number":
		field.Kind = model.FieldFloat
	case "boolean":
		field.Kind = model.FieldBoolean
	default:
		// array, object, $ref and anything the schema leaves untyped
		field.Kind = model.FieldStructuredBlob
	}

	return field
}

// ResolveFields resolves and synthesizes the schema-derived field set for a
// group/version/kind. It implements model.FieldSource.
func (r *Resolver) ResolveFields(ctx context.Context, group, version, kind string) ([]model.FieldDescriptor, error) {
	nodes, err := r.Resolve(ctx, group, version, kind)
	if err != nil {
		return nil, err
	}

	fields := make([]model.FieldDescriptor, 0, len(nodes))
	for _, node := range nodes {
		fields = append(fields, Synthesize(node))
	}
	return fields, nil
}

var _ model.FieldSource = (*Resolver)(nil)
