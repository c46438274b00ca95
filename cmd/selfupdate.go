package cmd

import (
	"errors"
	"fmt"
	goruntime "runtime"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// githubRepoSlug is the GitHub repository releases are published to.
const githubRepoSlug = "tmitchell/kubeorm"

// newSelfUpdateCmd creates the Cobra command for updating the binary in place
// from the latest GitHub release.
func newSelfUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "self-update",
		Short: "Update kubeorm to the latest version",
		Long: `Update kubeorm to the latest version available on GitHub.

The command checks the GitHub releases of ` + githubRepoSlug + ` for a newer
version and, when one exists, replaces the running binary with it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			version := rootCmd.Version
			if version == "" || version == "dev" {
				return errors.New("cannot self-update a development version; install a released build first")
			}

			ctx := cmd.Context()
			latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(githubRepoSlug))
			if err != nil {
				return fmt.Errorf("error occurred while detecting version: %w", err)
			}
			if !found {
				return fmt.Errorf("latest version for %s/%s could not be found from github repository", goruntime.GOOS, goruntime.GOARCH)
			}

			if latest.LessOrEqual(version) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Current version (%s) is the latest\n", version)
				return nil
			}

			exe, err := selfupdate.ExecutablePath()
			if err != nil {
				return errors.New("could not locate executable path")
			}
			if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
				return fmt.Errorf("error occurred while updating binary: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully updated to version %s\n", latest.Version())
			return nil
		},
	}
}
