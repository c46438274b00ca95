// Package cmd provides the command-line interface for kubeorm.
//
// This package implements a Cobra-based CLI with multiple subcommands:
//   - fields: Registers a model for a kind and prints its synthesized field table
//   - get: Fetches a single resource through the mapper
//   - list: Lists resources, with label criteria pushed down as selectors
//   - delete: Deletes a resource (idempotent)
//   - version: Displays the application version
//   - self-update: Updates the binary to the latest version from GitHub releases
//
// Command Structure:
//
//	kubeorm fields <kind> [--group --version --cluster-scoped --no-schema]
//	kubeorm get <kind> <name> [-n namespace]
//	kubeorm list <kind> [-n namespace] [-l key=value ...] [--order-by field]
//	kubeorm delete <kind> <name> [-n namespace]
//	kubeorm version
//	kubeorm self-update
//	kubeorm help [command]
//
// Every cluster-facing subcommand honors the global --kubeconfig, --context
// and --log-level flags and registers an ad-hoc model against the live
// cluster before running its operation.
package cmd
