package discovery

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/mcp.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

// ConfigFile is one MCP configuration source to scan.
type ConfigFile struct {
	Path   string
	Source string
}

// UserConfigFiles returns the fixed, platform-dependent list of
// well-known per-user MCP configuration locations.
func UserConfigFiles() []ConfigFile {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	claudeCode := ConfigFile{filepath.Join(home, ".claude", "mcp_servers.json"), SourceClaudeCode}

	switch runtime.GOOS {
	case "darwin":
		return []ConfigFile{
			{filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json"), SourceClaudeDesktop},
			claudeCode,
			{filepath.Join(home, ".cursor", "mcp.json"), SourceCursor},
		}
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return []ConfigFile{
			{filepath.Join(appData, "Claude", "claude_desktop_config.json"), SourceClaudeDesktop},
			claudeCode,
			{filepath.Join(appData, "Cursor", "mcp.json"), SourceCursor},
		}
	default:
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			configHome = filepath.Join(home, ".config")
		}
		return []ConfigFile{
			{filepath.Join(configHome, "Claude", "claude_desktop_config.json"), SourceClaudeDesktop},
			claudeCode,
			{filepath.Join(configHome, "cursor", "mcp.json"), SourceCursor},
		}
	}
}

// projectConfigFiles returns the project-local override locations.
func projectConfigFiles(root string) []ConfigFile {
	return []ConfigFile{
		{filepath.Join(root, ".mcp.json"), SourceProject},
		{filepath.Join(root, "mcp.json"), SourceProject},
		{filepath.Join(root, ".mcp", "servers.json"), SourceProject},
	}
}

// getSchema compiles the embedded schema once.
func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("mcp.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("mcp.schema.json")
	})
	return compiledSchema, compileErr
}

// parseConfigFile reads one configuration document and extracts its
// server declarations. Any failure (absent file, bad JSON, schema
// violation) is returned as an error for the caller to log and skip;
// a malformed source never aborts discovery.
func parseConfigFile(cf ConfigFile) ([]Server, error) {
	data, err := os.ReadFile(cf.Path)
	if err != nil {
		return nil, err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", cf.Path, err)
	}

	schema, err := getSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("validating %s: %w", cf.Path, err)
	}

	top, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("parsing %s: expected a JSON object", cf.Path)
	}

	declared, _ := top["mcpServers"].(map[string]any)
	if declared == nil {
		declared, _ = top["servers"].(map[string]any)
	}

	// Iterate names in sorted order so source-level output is stable.
	names := make([]string, 0, len(declared))
	for name := range declared {
		names = append(names, name)
	}
	sort.Strings(names)

	var servers []Server
	for _, name := range names {
		entry, ok := declared[name].(map[string]any)
		if !ok {
			continue
		}
		srv := Server{Name: name, Source: cf.Source}
		if cmd, ok := entry["command"].(string); ok {
			srv.Command = cmd
		}
		if rawArgs, ok := entry["args"].([]any); ok {
			for _, a := range rawArgs {
				if s, ok := a.(string); ok {
					srv.Args = append(srv.Args, s)
				}
			}
		}
		annotate(&srv)
		servers = append(servers, srv)
	}
	return servers, nil
}
