package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/tmitchell/kubeorm/internal/instrumentation"
	"github.com/tmitchell/kubeorm/internal/k8s"
	"github.com/tmitchell/kubeorm/internal/model"
	"github.com/tmitchell/kubeorm/internal/orm"
	"github.com/tmitchell/kubeorm/internal/schema"
)

// Global flags shared by every subcommand that talks to a cluster.
var (
	kubeconfigPath string
	kubeContext    string
	logLevel       string
)

// rootCmd represents the base command for the kubeorm application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "kubeorm",
	Short: "Model mapper for Kubernetes resources",
	Long: `kubeorm maps Kubernetes resources onto registered model types and
exposes ORM-style operations over them. A model is described by a resource
descriptor (group, version, kind, scope); its field set is synthesized from
the cluster's OpenAPI schema at registration time.

The subcommands register ad-hoc models against the live cluster and exercise
the mapper end to end: printing a model's field table, listing and fetching
resources, and deleting them.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
// It initializes and executes the root command, which in turn handles subcommands and flags.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "kubeorm version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra itself usually prints the error. Exiting with a non-zero
		// status code indicates that an error occurred during execution.
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&kubeconfigPath, "kubeconfig", "", "Path to a kubeconfig file (default: standard credential chain)")
	rootCmd.PersistentFlags().StringVar(&kubeContext, "context", "", "Kubeconfig context to use (default: current context)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newFieldsCmd())
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newDeleteCmd())
}

// runtime bundles the wired components a cluster-facing subcommand needs.
type runtime struct {
	client   k8s.Client
	registry *model.Registry
	mapper   *orm.Mapper
	logger   *slog.Logger
}

// parseLogLevel maps the --log-level flag value to a slog level.
func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q (expected debug, info, warn or error)", value)
}

// newRuntime wires the cluster client, schema resolver, registry and mapper
// from the global flags. Metrics go through the global OpenTelemetry meter,
// which is a no-op unless the process installed a meter provider.
func newRuntime() (*runtime, error) {
	level, err := parseLogLevel(logLevel)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	client, err := k8s.NewClient(&k8s.ClientConfig{
		KubeconfigPath: kubeconfigPath,
		Context:        kubeContext,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster client: %w", err)
	}

	metrics, err := instrumentation.NewMetrics(otel.Meter("kubeorm"), false)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	resolver := schema.NewResolver(instrumentation.InstrumentDocumentSource(client, metrics), logger)
	registry := model.NewRegistry(resolver, logger)
	mapper := orm.NewMapper(client, registry, logger, metrics)

	return &runtime{
		client:   client,
		registry: registry,
		mapper:   mapper,
		logger:   logger,
	}, nil
}
