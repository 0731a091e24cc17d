// Package central manages the canonical, versioned store of agent command
// content under the user's home directory. Projects link or copy from this
// store rather than carrying their own copies.
package central

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/specify-labs/specify/internal/agents"
	"github.com/specify-labs/specify/internal/branding"
	"github.com/specify-labs/specify/internal/platform"
)

//go:embed all:bundled
var bundledFS embed.FS

const (
	// AgentsDir is the subdirectory holding one content subtree per agent.
	AgentsDir = "agents"
	// VersionFile records the content version installed in the store.
	VersionFile = "version.txt"

	bundledRoot = "bundled"
)

// Repository is the central content store for one user environment.
type Repository struct {
	// Root is the store directory, e.g. ~/.project-specify.
	Root string
	// Version is the content version shipped with this binary.
	Version string
	// Table is the agent configuration used to locate bundled content.
	Table agents.Table

	Log *slog.Logger
}

// New returns a Repository rooted at the default per-user location
// (honoring the SPECIFY_HOME override).
func New(version string, table agents.Table) (*Repository, error) {
	root, err := DefaultRoot()
	if err != nil {
		return nil, err
	}
	return &Repository{Root: root, Version: version, Table: table, Log: slog.Default()}, nil
}

// DefaultRoot returns the per-user store path: $SPECIFY_HOME if set,
// otherwise ~/.project-specify.
func DefaultRoot() (string, error) {
	if v := os.Getenv(branding.EnvVar("HOME")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, branding.HomeDir()), nil
}

// AgentsRoot returns the directory containing per-agent content subtrees.
func (r *Repository) AgentsRoot() string {
	return filepath.Join(r.Root, AgentsDir)
}

// SourcePath returns the absolute content path for an agent descriptor.
func (r *Repository) SourcePath(d agents.Descriptor) string {
	return filepath.Join(r.AgentsRoot(), filepath.FromSlash(d.SourceSubpath))
}

// Installed reports whether the store exists on disk.
func (r *Repository) Installed() bool {
	info, err := os.Stat(r.AgentsRoot())
	return err == nil && info.IsDir()
}

// Ensure populates or refreshes the store from the bundled content.
// It is a no-op when the store exists and its version marker matches the
// binary's version, unless force is set. Agents whose bundled content is
// missing are skipped with a warning and returned in skipped; other
// agents still populate.
func (r *Repository) Ensure(force bool) (updated bool, skipped []string, err error) {
	if !force && r.Installed() && !r.stale() {
		return false, nil, nil
	}

	if err := os.MkdirAll(r.AgentsRoot(), 0755); err != nil {
		return false, nil, fmt.Errorf("creating central repository at %s: %w", r.Root, err)
	}

	for _, key := range r.Table.Keys() {
		desc, _ := r.Table.Lookup(key)
		bundled := bundledRoot + "/" + topLevel(desc.SourceSubpath)
		if _, statErr := fs.Stat(bundledFS, bundled); statErr != nil {
			r.Log.Warn("no bundled content for agent, skipping", "agent", key, "path", bundled)
			skipped = append(skipped, key)
			continue
		}
		dest := filepath.Join(r.AgentsRoot(), topLevel(desc.SourceSubpath))
		if err := r.installSubtree(bundled, dest); err != nil {
			return false, skipped, fmt.Errorf("installing content for %s: %w", key, err)
		}
	}

	versionPath := filepath.Join(r.Root, VersionFile)
	if err := os.WriteFile(versionPath, []byte(r.Version+"\n"), 0644); err != nil {
		return false, skipped, fmt.Errorf("writing version marker: %w", err)
	}

	return true, skipped, nil
}

// stale reports whether the installed version marker differs from the
// binary's content version. An unreadable or unparseable marker counts
// as stale so it gets rewritten.
func (r *Repository) stale() bool {
	data, err := os.ReadFile(filepath.Join(r.Root, VersionFile))
	if err != nil {
		return true
	}
	installed, err := semver.NewVersion(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(string(data)), "v")))
	if err != nil {
		return true
	}
	current, err := semver.NewVersion(strings.TrimPrefix(r.Version, "v"))
	if err != nil {
		// Dev builds carry non-semver versions; always refresh.
		return true
	}
	return !installed.Equal(current)
}

// installSubtree replaces dest with the bundled subtree at src.
func (r *Repository) installSubtree(src, dest string) error {
	if err := os.RemoveAll(dest); err != nil {
		return err
	}

	return fs.WalkDir(bundledFS, src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(path, src)
		rel = strings.TrimPrefix(rel, "/")
		target := filepath.Join(dest, filepath.FromSlash(rel))

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}

		data, err := bundledFS.ReadFile(path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return err
		}
		// Bundled scripts lose their mode bits inside embed.FS.
		if ok, _ := platform.HasInterpreterLine(target); ok {
			return platform.EnsureExecutable(target)
		}
		return nil
	})
}

// topLevel returns the first segment of a slash-separated subpath, the
// per-agent directory name under agents/.
func topLevel(subpath string) string {
	if i := strings.IndexByte(subpath, '/'); i >= 0 {
		return subpath[:i]
	}
	return subpath
}
