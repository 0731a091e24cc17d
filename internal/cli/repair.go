package cli

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/specify-labs/specify/internal/agents"
	"github.com/specify-labs/specify/internal/central"
	"github.com/specify-labs/specify/internal/linker"
	"github.com/spf13/cobra"
)

var (
	repairAI   []string
	repairMode string
)

func init() {
	repairCmd.Flags().StringSliceVar(&repairAI, "ai", []string{"all"}, "Agents to repair: repeatable, comma-separated, or 'all'")
	repairCmd.Flags().StringVar(&repairMode, "mode", "auto", "Distribution mode: link, copy, or auto")
	rootCmd.AddCommand(repairCmd)
}

var repairCmd = &cobra.Command{
	Use:   "repair [project-dir]",
	Short: "Re-create broken or occupied agent links",
	Long: `Verify each agent's link and re-create the ones reporting broken or
occupied, forcing removal of whatever holds the target. Valid and
missing entries are left untouched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := projectArg(args)
		if err != nil {
			return err
		}

		table := agents.DefaultTable()
		keys, err := table.Parse(repairAI)
		if err != nil {
			return err
		}

		mode, err := effectiveMode(cmd.Flags(), repairMode)
		if err != nil {
			return err
		}

		centralRoot, err := central.DefaultRoot()
		if err != nil {
			return err
		}

		lnk := linker.New(filepath.Join(centralRoot, central.AgentsDir), table)
		results := lnk.Repair(project, keys, mode)
		if len(results) == 0 {
			fmt.Println("Nothing to repair.")
			return nil
		}

		repaired := make([]string, 0, len(results))
		for key := range results {
			repaired = append(repaired, key)
		}
		sort.Strings(repaired)

		for _, key := range repaired {
			res := results[key]
			if res.Outcome == linker.OutcomeCreated {
				fmt.Printf("  [ OK ] %-10s repaired (%s)\n", key, res.Mode)
			} else {
				fmt.Printf("  [FAIL] %-10s %v\n", key, res.Err)
			}
		}
		return nil
	},
}
