package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tmitchell/kubeorm/internal/model"
)

// newFieldsCmd creates the Cobra command that registers an ad-hoc model
// against the live cluster and prints its synthesized field table.
func newFieldsCmd() *cobra.Command {
	var (
		group         string
		version       string
		clusterScoped bool
		noSchema      bool
	)

	cmd := &cobra.Command{
		Use:   "fields <kind>",
		Short: "Print the field table synthesized for a resource kind",
		Long: `Register an ad-hoc model for the given kind against the live cluster and
print the resulting field table: the injected identity fields plus the fields
synthesized from the cluster's OpenAPI schema.

With --no-schema the model registers even when the cluster serves no schema
for the kind, leaving only the identity fields.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			kind := args[0]

			descriptor := model.ResourceDescriptor{
				Group:          group,
				Version:        version,
				Kind:           kind,
				ClusterScoped:  clusterScoped,
				SchemaOptional: noSchema,
			}
			modelType, err := rt.registry.Register(cmd.Context(), strings.ToLower(kind), descriptor, nil)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "FIELD\tKIND\tNULLABLE\tMAX LENGTH\tORIGIN")
			for _, field := range modelType.Fields() {
				origin := "schema"
				if field.Identity {
					origin = "identity"
				}
				maxLength := ""
				if field.MaxLength > 0 {
					maxLength = strconv.Itoa(field.MaxLength)
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n", field.Name, field.Kind, field.Nullable, maxLength, origin)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "API group (empty for the core group)")
	cmd.Flags().StringVar(&version, "version", "v1", "API version")
	cmd.Flags().BoolVar(&clusterScoped, "cluster-scoped", false, "Treat the resource as cluster scoped")
	cmd.Flags().BoolVar(&noSchema, "no-schema", false, "Register even when the cluster serves no schema for the kind")

	return cmd
}
