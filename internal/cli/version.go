package cli

import (
	"fmt"

	"github.com/specify-labs/specify/internal/branding"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", branding.CLIName(), buildVersion)
		fmt.Printf("  commit: %s\n", buildCommit)
		fmt.Printf("  built:  %s\n", buildDate)
		fmt.Printf("  source: https://github.com/%s\n", branding.GitHubRepo())
	},
}
