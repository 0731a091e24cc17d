package discovery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// ContextDir is the fixed artifact directory relative to the project.
	ContextDir = ".specify/context"
	// HumanArtifact is the human-readable summary document.
	HumanArtifact = "mcp-servers.md"
	// MachineArtifact is the machine-readable context document.
	MachineArtifact = "project-context.json"
)

var printer = message.NewPrinter(language.English)

// WriteArtifacts writes both context documents under root, overwriting
// any previous versions. The machine-readable document carries no
// timestamp so unchanged projects yield byte-identical output.
func WriteArtifacts(root string, ctx *Context) error {
	dir := filepath.Join(root, filepath.FromSlash(ContextDir))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating context directory: %w", err)
	}

	md := renderMarkdown(ctx)
	if err := os.WriteFile(filepath.Join(dir, HumanArtifact), []byte(md), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", HumanArtifact, err)
	}

	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding context: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(filepath.Join(dir, MachineArtifact), data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", MachineArtifact, err)
	}

	return nil
}

func renderMarkdown(ctx *Context) string {
	var b strings.Builder

	b.WriteString("# MCP Servers Available\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n\n", ctx.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	if len(ctx.Servers) > 0 {
		printer.Fprintf(&b, "## Discovered Servers (%d)\n\n", len(ctx.Servers))
		b.WriteString("| Server | Source | Command | Description |\n")
		b.WriteString("|--------|--------|---------|-------------|\n")
		for _, srv := range ctx.Servers {
			cmd := srv.Command
			if len(srv.Args) > 0 {
				cmd += " " + strings.Join(srv.Args, " ")
			}
			fmt.Fprintf(&b, "| %s | %s | `%s` | %s |\n", srv.Name, srv.Source, cmd, srv.Description)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No MCP servers discovered.\n\n")
	}

	b.WriteString("## Detected Stack\n\n")
	b.WriteString("| Aspect | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Language | %s |\n", ctx.Technology.Language)
	if ctx.Technology.Framework != "" {
		fmt.Fprintf(&b, "| Framework | %s |\n", ctx.Technology.Framework)
	}
	if ctx.Technology.PackageManager != "" {
		fmt.Fprintf(&b, "| Package manager | %s |\n", ctx.Technology.PackageManager)
	}
	if ctx.Technology.Database != "" {
		fmt.Fprintf(&b, "| Database | %s |\n", ctx.Technology.Database)
	}
	if len(ctx.Technology.Services) > 0 {
		fmt.Fprintf(&b, "| Services | %s |\n", strings.Join(ctx.Technology.Services, ", "))
	}
	b.WriteString("\n")

	if recs := recommendations(ctx); len(recs) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, r := range recs {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}

	return b.String()
}

// recommendations suggests integration servers keyed off the detected
// stack, skipping ones already configured.
func recommendations(ctx *Context) []string {
	configured := make(map[string]bool, len(ctx.Servers))
	for _, srv := range ctx.Servers {
		configured[srv.Name] = true
	}

	var recs []string
	switch ctx.Technology.Database {
	case "postgresql":
		if !configured["postgres"] {
			recs = append(recs, "PostgreSQL detected: configure the `postgres` MCP server for schema-aware queries.")
		}
	case "mysql":
		if !configured["mysql"] {
			recs = append(recs, "MySQL detected: configure a MySQL MCP server for schema-aware queries.")
		}
	case "mongodb":
		if !configured["mongodb"] {
			recs = append(recs, "MongoDB detected: configure a MongoDB MCP server for collection-aware queries.")
		}
	}

	if !configured["git"] {
		recs = append(recs, "Configure the `git` MCP server so agents can inspect repository history.")
	}
	if contains(ctx.Technology.Services, "github-actions") && !configured["github"] {
		recs = append(recs, "GitHub Actions detected: the `github` MCP server enables issue and PR operations.")
	}
	return recs
}

func contains(slice []string, val string) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}
	return false
}
