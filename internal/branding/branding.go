// Package branding provides compile-time identity values for the CLI.
//
// Forkers edit branding.yaml in this package; Go's //go:embed bakes it
// into the binary at build time.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName      string `yaml:"cli_name"`
	DisplayName  string `yaml:"display_name"`
	Description  string `yaml:"description"`
	HomeDir      string `yaml:"home_dir"`
	EnvPrefix    string `yaml:"env_prefix"`
	GoModule     string `yaml:"go_module"`
	GitHubRepo   string `yaml:"github_repo"`
	TemplateRepo string `yaml:"template_repo"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:      "specify",
			DisplayName:  "Specify",
			Description:  "Central, linked distribution of AI agent command content",
			HomeDir:      ".project-specify",
			EnvPrefix:    "SPECIFY",
			GoModule:     "github.com/specify-labs/specify",
			GitHubRepo:   "specify-labs/specify",
			TemplateRepo: "specify-labs/specify-templates",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "specify").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".project-specify").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "SPECIFY").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GitHubRepo returns the "owner/repo" string for this CLI's releases.
func GitHubRepo() string { load(); return defaults.GitHubRepo }

// TemplateRepo returns the "owner/repo" string hosting the template release
// archives consumed by project initialization.
func TemplateRepo() string { load(); return defaults.TemplateRepo }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "SPECIFY_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
