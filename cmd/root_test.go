package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCmdProperties(t *testing.T) {
	assert.Equal(t, "kubeorm", rootCmd.Use)
	assert.Equal(t, "Model mapper for Kubernetes resources", rootCmd.Short)
	assert.True(t, strings.Contains(rootCmd.Long, "Kubernetes"))
	assert.True(t, strings.Contains(rootCmd.Long, "model"))
	assert.True(t, rootCmd.SilenceUsage)
}

func TestSetVersion(t *testing.T) {
	originalVersion := rootCmd.Version
	defer func() {
		rootCmd.Version = originalVersion
	}()

	testVersion := "v1.2.3-test"
	SetVersion(testVersion)

	assert.Equal(t, testVersion, rootCmd.Version)
}

func TestRootCommandHasSubcommands(t *testing.T) {
	subcommands := rootCmd.Commands()

	// Check that expected subcommands exist
	var foundCommands []string
	for _, cmd := range subcommands {
		foundCommands = append(foundCommands, cmd.Use)
	}

	assert.Contains(t, foundCommands, "version")
	assert.Contains(t, foundCommands, "self-update")
	assert.Contains(t, foundCommands, "fields <kind>")
	assert.Contains(t, foundCommands, "get <kind> <name>")
	assert.Contains(t, foundCommands, "list <kind>")
	assert.Contains(t, foundCommands, "delete <kind> <name>")

	// Ensure we have at least the minimum expected commands
	assert.GreaterOrEqual(t, len(foundCommands), 6)
}

func TestRootCommandGlobalFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	assert.NotNil(t, flags.Lookup("kubeconfig"))
	assert.NotNil(t, flags.Lookup("context"))
	assert.NotNil(t, flags.Lookup("log-level"))
	assert.Equal(t, "warn", flags.Lookup("log-level").DefValue)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		expectError bool
	}{
		{name: "debug level", value: "debug"},
		{name: "info level", value: "info"},
		{name: "warn level", value: "warn"},
		{name: "warning alias", value: "warning"},
		{name: "error level", value: "error"},
		{name: "mixed case", value: "Info"},
		{name: "unknown level", value: "verbose", expectError: true},
		{name: "empty level", value: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseLogLevel(tt.value)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
