package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	goversion "go.hein.dev/go-version"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/updater"
)

// Set through -ldflags at release time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// releaseURL is swapped for a test server in tests.
var releaseURL = updater.LatestReleaseURL

func addVersion(topLevel *cobra.Command) {
	shortened := false
	check := false
	output := "json"
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Get cbv version.",
		Example: `
cbv version
cbv version --check
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output != "json" && output != "yaml" {
				return fmt.Errorf("unknown output format %q: want 'json' or 'yaml'", output)
			}
			fmt.Fprint(cmd.OutOrStdout(), goversion.FuncWithOutput(shortened, Version, Commit, Date, output))
			if !check {
				return nil
			}

			// The notice goes to stderr so stdout stays machine readable.
			tag, url, err := updater.CheckForUpdates(cmd.Context(), nil, releaseURL, Version)
			if err != nil {
				return fmt.Errorf("check for updates: %w", err)
			}
			if tag != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "A newer release is available: %s %s\n", tag, url)
			} else {
				fmt.Fprintln(cmd.ErrOrStderr(), "You are running the latest release.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&shortened, "short", "s", false, "Print just the version number.")
	cmd.Flags().BoolVar(&check, "check", false, "Check GitHub for a newer release.")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format. One of 'yaml' or 'json'.")

	topLevel.AddCommand(cmd)
}
