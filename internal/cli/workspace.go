package cli

import (
	"fmt"

	"github.com/specify-labs/specify/internal/workspace"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(workspaceCmd)
}

var workspaceCmd = &cobra.Command{
	Use:   "workspace [project-dir]",
	Short: "Detect monorepo topology and list member packages",
	Long: `Probe the project for recognized monorepo conventions (pnpm, lerna,
nx, turborepo, npm/yarn workspaces, cargo) in fixed priority order and
report the first match with its member packages.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := projectArg(args)
		if err != nil {
			return err
		}

		topo := workspace.Detect(project)
		if topo == nil {
			fmt.Println("No monorepo topology detected.")
			return nil
		}

		fmt.Printf("Topology: %s\n", topo.Kind)
		fmt.Printf("Manifest: %s\n", topo.ManifestPath)

		members := workspace.ExpandMembers(topo)
		if len(members) == 0 {
			fmt.Println("No member packages resolved.")
			return nil
		}
		fmt.Printf("Members (%d):\n", len(members))
		for _, m := range members {
			fmt.Printf("  %s\n", m)
		}
		return nil
	},
}
