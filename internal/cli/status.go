package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/specify-labs/specify/internal/agents"
	"github.com/specify-labs/specify/internal/branding"
	"github.com/specify-labs/specify/internal/central"
	"github.com/specify-labs/specify/internal/linker"
	"github.com/specify-labs/specify/internal/platform"
	"github.com/spf13/cobra"
)

var statusAI []string

func init() {
	statusCmd.Flags().StringSliceVar(&statusAI, "ai", []string{"all"}, "Agents to check: repeatable, comma-separated, or 'all'")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status [project-dir]",
	Short: "Verify agent link health in a project",
	Long: `Report each agent's link status:

  valid     link exists and resolves
  broken    link exists but its target is gone
  occupied  a regular file or directory holds the path
  missing   nothing exists at the path`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := projectArg(args)
		if err != nil {
			return err
		}

		table := agents.DefaultTable()
		keys, err := table.Parse(statusAI)
		if err != nil {
			return err
		}

		centralRoot, err := central.DefaultRoot()
		if err != nil {
			return err
		}

		lnk := linker.New(filepath.Join(centralRoot, central.AgentsDir), table)
		statuses := lnk.VerifyLinks(project, keys)

		ordered := append([]string{}, keys...)
		sort.Strings(ordered)

		fmt.Printf("Link status for %s:\n", project)
		healthy := true
		for _, key := range ordered {
			s := statuses[key]
			marker := " OK "
			if s != linker.StatusValid {
				healthy = false
				marker = "WARN"
				if s == linker.StatusMissing {
					marker = " -- "
				}
			}
			detail := ""
			if s == linker.StatusValid || s == linker.StatusBroken {
				if target, err := platform.ReadLinkTarget(lnk.TargetPath(project, key)); err == nil {
					detail = " -> " + target
				}
			}
			fmt.Printf("  [%s] %-10s %s%s\n", marker, key, s, detail)
		}

		if !healthy {
			fmt.Printf("\nRun '%s repair' to fix broken or occupied targets.\n", branding.CLIName())
		}
		return nil
	},
}

// projectArg resolves the optional project directory argument,
// defaulting to the current directory.
func projectArg(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return cwd, nil
}
