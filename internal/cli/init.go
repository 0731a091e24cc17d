package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/specify-labs/specify/internal/agents"
	"github.com/specify-labs/specify/internal/central"
	"github.com/specify-labs/specify/internal/config"
	"github.com/specify-labs/specify/internal/discovery"
	"github.com/specify-labs/specify/internal/linker"
	"github.com/specify-labs/specify/internal/template"
	"github.com/specify-labs/specify/internal/workspace"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	initAI            []string
	initMode          string
	initFlavor        string
	initForce         bool
	initHere          bool
	initSkipDiscovery bool
	initNoTemplate    bool
	initGitHubToken   string
	initWorkspace     string
)

// projectDirs are the project-local directories created during init,
// separate from linked agent content.
var projectDirs = []string{"memory", "specs", "scripts", "templates", "context"}

func init() {
	initCmd.Flags().StringSliceVar(&initAI, "ai", []string{"claude"}, "Agents to set up: repeatable, comma-separated, or 'all'")
	initCmd.Flags().StringVar(&initMode, "mode", "auto", "Distribution mode: link, copy, or auto")
	initCmd.Flags().StringVar(&initFlavor, "flavor", "sh", "Template script flavor: sh or ps")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing agent targets and merge into non-empty directories without confirmation")
	initCmd.Flags().BoolVar(&initHere, "here", false, "Initialize in the current directory")
	initCmd.Flags().BoolVar(&initSkipDiscovery, "skip-discovery", false, "Skip MCP server discovery and context generation")
	initCmd.Flags().BoolVar(&initNoTemplate, "no-template", false, "Skip template download; only create links and project directories")
	initCmd.Flags().StringVar(&initGitHubToken, "github-token", "", "GitHub token for template downloads (or GH_TOKEN/GITHUB_TOKEN)")
	initCmd.Flags().StringVar(&initWorkspace, "workspace", "", "Initialize in the named workspace member (monorepos)")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [project-dir]",
	Short: "Initialize a project with linked agent command content",
	Long: `Initialize a project directory:

1. Ensure the central per-user repository is populated and current.
2. Download and extract the project template (merging non-destructively
   into existing directories).
3. Link (or copy) agent command content into the project.
4. Discover MCP servers and generate context artifacts.

Each agent's outcome is reported individually; one agent's failure does
not block the others.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := effectiveMode(cmd.Flags(), initMode)
		if err != nil {
			return err
		}
		return runInit(cmd.Context(), args, mode)
	},
}

// effectiveMode resolves the distribution mode: an explicit --mode flag
// wins, otherwise the configured link_mode default applies.
func effectiveMode(flags *pflag.FlagSet, value string) (linker.Mode, error) {
	if !flags.Changed("mode") {
		if v := config.Get("link_mode"); v != "" {
			value = v
		}
	}
	return linker.ParseMode(value)
}

func runInit(parent context.Context, args []string, mode linker.Mode) error {
	log := slog.Default()
	table := agents.DefaultTable()

	keys, err := table.Parse(initAI)
	if err != nil {
		return err
	}

	project, mergeTarget, err := resolveTarget(args)
	if err != nil {
		return err
	}

	fmt.Printf("Initializing %s\n", project)
	fmt.Printf("Agents: %s\n\n", strings.Join(keys, ", "))

	// Central repository.
	repo, err := central.New(buildVersion, table)
	if err != nil {
		return err
	}
	updated, skipped, err := repo.Ensure(false)
	if err != nil {
		return fmt.Errorf("ensuring central repository: %w", err)
	}
	if updated {
		fmt.Printf("Central repository refreshed at %s\n", repo.Root)
	}
	for _, key := range skipped {
		log.Warn("agent has no bundled content and was not installed centrally", "agent", key)
	}

	// Template acquisition, cancellable with Ctrl-C. Extraction only
	// starts once the archive is fully on disk.
	if !initNoTemplate {
		if err := acquireAndExtract(parent, project, mergeTarget, keys[0]); err != nil {
			return err
		}
	}

	// Project-local structure.
	for _, name := range projectDirs {
		if err := os.MkdirAll(filepath.Join(project, ".specify", name), 0755); err != nil {
			return fmt.Errorf("creating project structure: %w", err)
		}
	}

	// Agent links.
	lnk := linker.New(repo.AgentsRoot(), table)
	results := lnk.CreateLinks(project, keys, mode, initForce)
	printLinkReport(results, keys)

	// Capability discovery.
	if !initSkipDiscovery {
		svc := discovery.NewService()
		ctx := svc.Discover(project)
		if err := discovery.WriteArtifacts(project, ctx); err != nil {
			log.Warn("context generation failed", "err", err)
		} else {
			fmt.Printf("\nDiscovered %d MCP server(s); context written to %s\n",
				len(ctx.Servers), discovery.ContextDir)
		}
	}

	fmt.Println("\nProject ready.")
	return nil
}

// resolveTarget picks the project directory from the positional arg,
// --here, and --workspace, and reports whether extraction must merge
// into existing content.
func resolveTarget(args []string) (string, bool, error) {
	var name string
	if len(args) == 1 {
		name = args[0]
	}
	if name == "." {
		initHere = true
		name = ""
	}
	if initHere && name != "" {
		return "", false, fmt.Errorf("cannot combine a project directory with --here")
	}
	if !initHere && name == "" {
		return "", false, fmt.Errorf("specify a project directory, '.', or --here")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", false, fmt.Errorf("getting current directory: %w", err)
	}

	project := cwd
	if !initHere {
		project, err = filepath.Abs(name)
		if err != nil {
			return "", false, err
		}
	}

	// Monorepo member targeting.
	if initWorkspace != "" {
		topo := workspace.Detect(project)
		if topo == nil {
			return "", false, fmt.Errorf("--workspace given but no monorepo detected in %s", project)
		}
		member, err := findMember(topo, initWorkspace)
		if err != nil {
			return "", false, err
		}
		fmt.Printf("Monorepo: %s, member: %s\n", topo.Kind, member)
		project = member
	}

	entries, err := os.ReadDir(project)
	if os.IsNotExist(err) {
		return project, false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", project, err)
	}

	if len(entries) == 0 {
		return project, false, nil
	}
	if !initForce {
		return "", false, fmt.Errorf("%s is not empty (%d items); template files would merge with existing content, rerun with --force to proceed", project, len(entries))
	}
	return project, true, nil
}

func findMember(topo *workspace.Topology, name string) (string, error) {
	members := workspace.ExpandMembers(topo)
	for _, m := range members {
		if filepath.Base(m) == name || strings.Contains(m, name) {
			return m, nil
		}
	}
	return "", fmt.Errorf("workspace member %q not found (members: %s)", name, strings.Join(members, ", "))
}

func acquireAndExtract(parent context.Context, project string, mergeTarget bool, agent string) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	client := template.NewClient(config.TemplateRepo(), config.GitHubToken(initGitHubToken))

	fmt.Printf("Downloading template for %s (%s)...\n", agent, initFlavor)
	archive, err := client.Acquire(ctx, agent, initFlavor)
	if err != nil {
		return err
	}
	defer os.Remove(archive)

	mode := template.NewDirectory
	if mergeTarget {
		mode = template.MergeIntoExisting
	}
	if err := template.Extract(archive, project, mode); err != nil {
		return fmt.Errorf("extracting template: %w", err)
	}
	if err := template.EnsureExecutableScripts(filepath.Join(project, ".specify", "scripts")); err != nil && !os.IsNotExist(err) {
		slog.Default().Warn("restoring script permissions failed", "err", err)
	}
	return nil
}

// printLinkReport emits the itemized per-agent outcome table.
func printLinkReport(results map[string]linker.Result, keys []string) {
	ordered := append([]string{}, keys...)
	sort.Strings(ordered)

	fmt.Println("\nAgent links:")
	for _, key := range ordered {
		res := results[key]
		switch res.Outcome {
		case linker.OutcomeCreated:
			fmt.Printf("  [ OK ] %-10s %s (%s)\n", key, res.Outcome, res.Mode)
		case linker.OutcomeSkippedExists:
			fmt.Printf("  [SKIP] %-10s target exists (use --force to overwrite)\n", key)
		default:
			fmt.Printf("  [FAIL] %-10s %v\n", key, res.Err)
		}
	}
}
