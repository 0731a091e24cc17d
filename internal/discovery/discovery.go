// Package discovery scans external tool configuration for MCP
// (Model Context Protocol) servers, detects the project's technology
// stack, and emits context artifacts consumed by agent prompts.
//
// Discovery is total: unreadable or malformed sources contribute
// nothing instead of failing the call, and re-running on an unchanged
// project produces byte-identical machine-readable output.
package discovery

import (
	"log/slog"
	"sort"
	"time"
)

// Server is one discovered MCP server declaration.
type Server struct {
	Name    string   `json:"name"`
	Source  string   `json:"source"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
	// Description and Capabilities come from the known-server catalog,
	// not from the configuration file.
	Description  string   `json:"description,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// Technology is the detected project stack.
type Technology struct {
	Language       string   `json:"language"`
	Framework      string   `json:"framework,omitempty"`
	PackageManager string   `json:"package_manager,omitempty"`
	Database       string   `json:"database,omitempty"`
	Services       []string `json:"services,omitempty"`
}

// Context is the full capability snapshot for a project.
type Context struct {
	Servers    []Server   `json:"servers"`
	Technology Technology `json:"technology"`
	// GeneratedAt feeds the human-readable document only. It is excluded
	// from the machine-readable artifact so that repeated discovery on an
	// unchanged project stays byte-identical.
	GeneratedAt time.Time `json:"-"`
}

// Source labels, in deduplication priority order.
const (
	SourceProject       = "project"
	SourceClaudeCode    = "claude-code"
	SourceClaudeDesktop = "claude-desktop"
	SourceCursor        = "cursor"
)

var sourcePriority = map[string]int{
	SourceProject:       0,
	SourceClaudeCode:    1,
	SourceClaudeDesktop: 2,
	SourceCursor:        3,
}

// knownServers maps well-known MCP server names to catalog metadata.
var knownServers = map[string]struct {
	Description  string
	Capabilities []string
}{
	"filesystem":   {"Read/write files and directories", []string{"read_file", "write_file", "list_directory", "search_files"}},
	"git":          {"Git repository operations", []string{"git_status", "git_diff", "git_log", "git_commit"}},
	"github":       {"GitHub API operations", []string{"create_issue", "create_pr", "search_repos", "get_file_contents"}},
	"postgres":     {"PostgreSQL database operations", []string{"query", "list_tables", "describe_table"}},
	"sqlite":       {"SQLite database operations", []string{"query", "list_tables", "describe_table"}},
	"puppeteer":    {"Browser automation and web scraping", []string{"navigate", "screenshot", "click", "fill"}},
	"brave-search": {"Web search via Brave Search API", []string{"web_search", "local_search"}},
	"fetch":        {"HTTP fetch operations", []string{"fetch_url", "fetch_html", "fetch_json"}},
}

// Service performs capability discovery.
type Service struct {
	// UserConfigs lists the per-user configuration files to scan. When
	// nil, the platform defaults from UserConfigFiles are used.
	UserConfigs []ConfigFile

	// Now supplies the snapshot timestamp; injectable for tests.
	Now func() time.Time

	Log *slog.Logger
}

// NewService returns a Service scanning the platform's well-known
// configuration locations.
func NewService() *Service {
	return &Service{
		UserConfigs: UserConfigFiles(),
		Now:         time.Now,
		Log:         slog.Default(),
	}
}

// Discover scans configuration sources and the project tree, then
// returns the full capability context. It never fails outright: each
// unreadable source simply contributes nothing.
func (s *Service) Discover(root string) *Context {
	configs := append([]ConfigFile{}, s.UserConfigs...)
	configs = append(configs, projectConfigFiles(root)...)

	var servers []Server
	for _, cf := range configs {
		found, err := parseConfigFile(cf)
		if err != nil {
			s.Log.Debug("skipping unreadable MCP config", "path", cf.Path, "source", cf.Source, "err", err)
			continue
		}
		servers = append(servers, found...)
	}

	return &Context{
		Servers:     dedupeServers(servers),
		Technology:  DetectTechnology(root),
		GeneratedAt: s.Now(),
	}
}

// dedupeServers keeps one entry per server name, preferring
// higher-priority sources, and returns the result sorted by name for
// deterministic output.
func dedupeServers(servers []Server) []Server {
	best := make(map[string]Server, len(servers))
	for _, srv := range servers {
		existing, ok := best[srv.Name]
		if !ok || priority(srv.Source) < priority(existing.Source) {
			best[srv.Name] = srv
		}
	}

	out := make([]Server, 0, len(best))
	for _, srv := range best {
		out = append(out, srv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func priority(source string) int {
	if p, ok := sourcePriority[source]; ok {
		return p
	}
	return 99
}

// annotate fills catalog metadata for a known server name.
func annotate(srv *Server) {
	if info, ok := knownServers[srv.Name]; ok {
		srv.Description = info.Description
		srv.Capabilities = info.Capabilities
	}
}
