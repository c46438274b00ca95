package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tmitchell/kubeorm/internal/model"
	"github.com/tmitchell/kubeorm/internal/orm"
)

// newDeleteCmd creates the Cobra command that deletes a resource through the
// mapper. Deletion is idempotent; a resource that is already gone counts as
// deleted.
func newDeleteCmd() *cobra.Command {
	var (
		group         string
		version       string
		namespace     string
		clusterScoped bool
	)

	cmd := &cobra.Command{
		Use:   "delete <kind> <name>",
		Short: "Delete a resource",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			modelType, err := registerAdHocModel(cmd.Context(), rt, args[0], group, version, clusterScoped)
			if err != nil {
				return err
			}

			inst := orm.NewInstance(modelType)
			if err := inst.Set(model.FieldMetadataName, args[1]); err != nil {
				return err
			}
			if namespace != "" {
				if err := inst.SetNamespace(namespace); err != nil {
					return err
				}
			}

			if err := rt.mapper.Delete(cmd.Context(), inst); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %q deleted\n", modelType.Descriptor().Kind, args[1])
			return nil
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "API group (empty for the core group)")
	cmd.Flags().StringVar(&version, "version", "v1", "API version")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Namespace of the resource (default: the model's default namespace)")
	cmd.Flags().BoolVar(&clusterScoped, "cluster-scoped", false, "Treat the resource as cluster scoped")

	return cmd
}
