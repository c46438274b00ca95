package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tmitchell/kubeorm/internal/model"
	"github.com/tmitchell/kubeorm/internal/orm"
)

// newListCmd creates the Cobra command that lists resources of a kind
// through the mapper.
func newListCmd() *cobra.Command {
	var (
		group         string
		version       string
		namespace     string
		clusterScoped bool
		labelPairs    []string
		orderBy       []string
		pageSize      int64
	)

	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List resources of a kind",
		Long: `List resources of the given kind through the mapper. Label criteria are
pushed down to the API server as label selectors; ordering drains the result
snapshot before printing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			modelType, err := registerAdHocModel(cmd.Context(), rt, args[0], group, version, clusterScoped)
			if err != nil {
				return err
			}

			criteria := orm.Criteria{}
			if namespace != "" {
				criteria["metadata_namespace"] = namespace
			}
			for _, pair := range labelPairs {
				key, value, ok := strings.Cut(pair, "=")
				if !ok {
					return fmt.Errorf("invalid label criterion %q (expected key=value)", pair)
				}
				criteria[model.FieldMetadataLabels+"."+key] = value
			}

			var opts []orm.FilterOption
			if len(orderBy) > 0 {
				opts = append(opts, orm.WithOrderBy(orderBy...))
			}
			if pageSize > 0 {
				opts = append(opts, orm.WithPageSize(pageSize))
			}

			results, err := rt.mapper.Filter(cmd.Context(), modelType.Name(), criteria, opts...)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if clusterScoped {
				_, _ = fmt.Fprintln(w, "NAME")
			} else {
				_, _ = fmt.Fprintln(w, "NAMESPACE\tNAME")
			}
			for {
				inst, err := results.Next(cmd.Context())
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return err
				}
				if clusterScoped {
					_, _ = fmt.Fprintln(w, inst.Name())
				} else {
					_, _ = fmt.Fprintf(w, "%s\t%s\n", inst.Namespace(), inst.Name())
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "API group (empty for the core group)")
	cmd.Flags().StringVar(&version, "version", "v1", "API version")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Namespace to list (default: the model's default namespace)")
	cmd.Flags().BoolVar(&clusterScoped, "cluster-scoped", false, "Treat the resource as cluster scoped")
	cmd.Flags().StringArrayVarP(&labelPairs, "selector", "l", nil, "Label criterion key=value (repeatable)")
	cmd.Flags().StringArrayVar(&orderBy, "order-by", nil, "Field to order by, prefix with - for descending (repeatable)")
	cmd.Flags().Int64Var(&pageSize, "page-size", 0, "Items per list page (0 = default)")

	return cmd
}
