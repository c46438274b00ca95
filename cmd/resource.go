package cmd

import (
	"context"
	"strings"

	"github.com/tmitchell/kubeorm/internal/model"
)

// registerAdHocModel registers a throwaway model for one CLI invocation. The
// schema is resolved when the cluster serves one and skipped otherwise, so
// any kind the cluster knows can be addressed without declaring fields.
func registerAdHocModel(ctx context.Context, rt *runtime, kind, group, version string, clusterScoped bool) (*model.ModelType, error) {
	descriptor := model.ResourceDescriptor{
		Group:          group,
		Version:        version,
		Kind:           kind,
		ClusterScoped:  clusterScoped,
		SchemaOptional: true,
	}
	return rt.registry.Register(ctx, strings.ToLower(kind), descriptor, nil)
}
