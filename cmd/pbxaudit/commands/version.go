package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// SetVersionInfo updates the version variables with build-time information.
func SetVersionInfo(version, commit, buildTime string) {
	if version != "" {
		Version = version
	}
	if commit != "" {
		Commit = commit
	}
	if buildTime != "" {
		BuildTime = buildTime
	}
}

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run:   runVersion,
	}

	cmd.Flags().Bool("short", false, "show only version number")

	return cmd
}

func runVersion(cmd *cobra.Command, args []string) {
	short, _ := cmd.Flags().GetBool("short")

	if short {
		fmt.Fprintln(cmd.OutOrStdout(), Version)
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "pbxaudit version %s\n", Version)
	fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", Commit)
	fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", BuildTime)
}
