package cli

import (
	"fmt"
	"path/filepath"

	"github.com/specify-labs/specify/internal/discovery"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(discoverCmd)
}

var discoverCmd = &cobra.Command{
	Use:   "discover [project-dir]",
	Short: "Discover MCP servers and generate project context",
	Long: `Scan well-known MCP configuration locations and the project tree,
detect the technology stack, and regenerate the context artifacts under
.specify/context/. Unreadable or malformed configuration sources are
skipped; running twice on an unchanged project produces identical
machine-readable output.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := projectArg(args)
		if err != nil {
			return err
		}
		project, err = filepath.Abs(project)
		if err != nil {
			return err
		}

		svc := discovery.NewService()
		ctx := svc.Discover(project)

		fmt.Printf("Found %d MCP server(s)\n", len(ctx.Servers))
		for _, srv := range ctx.Servers {
			fmt.Printf("  - %s (%s)\n", srv.Name, srv.Source)
		}

		fmt.Println("\nProject technology:")
		fmt.Printf("  Language: %s\n", ctx.Technology.Language)
		if ctx.Technology.Framework != "" {
			fmt.Printf("  Framework: %s\n", ctx.Technology.Framework)
		}
		if ctx.Technology.PackageManager != "" {
			fmt.Printf("  Package manager: %s\n", ctx.Technology.PackageManager)
		}
		if ctx.Technology.Database != "" {
			fmt.Printf("  Database: %s\n", ctx.Technology.Database)
		}
		for _, svc := range ctx.Technology.Services {
			fmt.Printf("  Service: %s\n", svc)
		}

		if err := discovery.WriteArtifacts(project, ctx); err != nil {
			return err
		}
		fmt.Printf("\nContext written to %s/\n", discovery.ContextDir)
		return nil
	},
}
