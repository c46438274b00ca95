package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newGetCmd creates the Cobra command that fetches a single resource through
// the mapper and prints its field values.
func newGetCmd() *cobra.Command {
	var (
		group         string
		version       string
		namespace     string
		clusterScoped bool
	)

	cmd := &cobra.Command{
		Use:   "get <kind> <name>",
		Short: "Fetch a single resource and print its fields",
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

			inst, err := rt.mapper.Get(cmd.Context(), modelType.Name(), args[1], namespace)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "FIELD\tVALUE")
			if !clusterScoped {
				_, _ = fmt.Fprintf(w, "namespace\t%s\n", inst.Namespace())
			}
			for _, field := range modelType.Fields() {
				value, ok := inst.Get(field.Name)
				if !ok || value == nil {
					continue
				}
				_, _ = fmt.Fprintf(w, "%s\t%v\n", field.Name, value)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "API group (empty for the core group)")
	cmd.Flags().StringVar(&version, "version", "v1", "API version")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Namespace of the resource (default: the model's default namespace)")
	cmd.Flags().BoolVar(&clusterScoped, "cluster-scoped", false, "Treat the resource as cluster scoped")

	return cmd
}
