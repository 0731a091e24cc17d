// Package workspace detects monorepo topologies. Each recognized
// convention is a Recognizer; Detect iterates a fixed priority list and
// the first recognizer whose marker file exists and parses wins.
//
// Priority is a deliberate policy: dedicated workspace-manifest tools
// (pnpm) beat orchestrators and build tools (lerna, nx, turborepo),
// which beat the generic package.json workspaces field, which beats
// language-specific workspace manifests (cargo). A project containing
// both a dedicated manifest and a generic field therefore always
// detects the dedicated tool.
package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Kind identifies a recognized monorepo convention.
type Kind string

const (
	KindPnpm  Kind = "pnpm"
	KindLerna Kind = "lerna"
	KindNx    Kind = "nx"
	KindTurbo Kind = "turborepo"
	KindNpm   Kind = "npm"
	KindCargo Kind = "cargo"
)

// Topology describes a detected monorepo.
type Topology struct {
	Kind Kind
	// ManifestPath is the absolute path of the marker file that matched.
	ManifestPath string
	// MemberPatterns holds the raw member patterns from the manifest,
	// before glob expansion.
	MemberPatterns []string
	// Root is the project root the topology was detected in.
	Root string
}

// Recognizer probes one monorepo convention. Probe returns (nil, nil)
// both when the marker file is absent and when it fails to parse: a
// malformed manifest is a non-match, not an error, and detection
// continues down the priority list.
type Recognizer interface {
	Kind() Kind
	Probe(root string) (*Topology, error)
}

// Recognizers returns the fixed priority list.
func Recognizers() []Recognizer {
	return []Recognizer{
		pnpmRecognizer{},
		lernaRecognizer{},
		nxRecognizer{},
		turboRecognizer{},
		npmRecognizer{},
		cargoRecognizer{},
	}
}

// Detect returns the topology of the first matching recognizer, or nil
// when no convention matches.
func Detect(root string) *Topology {
	for _, r := range Recognizers() {
		if topo, err := r.Probe(root); err == nil && topo != nil {
			return topo
		}
	}
	return nil
}

// ExpandMembers resolves the topology's member patterns to existing
// directories. Patterns prefixed with "!" are dropped, glob matches are
// filtered to directories, and the result is deduplicated and sorted,
// so expansion stays stable even when a pattern appears twice.
func ExpandMembers(topo *Topology) []string {
	if topo == nil {
		return nil
	}

	seen := make(map[string]bool)
	var members []string

	for _, pattern := range topo.MemberPatterns {
		if strings.HasPrefix(pattern, "!") {
			continue
		}
		pattern = strings.TrimPrefix(pattern, "/")

		matches, err := filepath.Glob(filepath.Join(topo.Root, filepath.FromSlash(pattern)))
		if err != nil {
			// Malformed pattern: skip, same policy as malformed manifests.
			continue
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || !info.IsDir() {
				continue
			}
			if !seen[m] {
				seen[m] = true
				members = append(members, m)
			}
		}
	}

	sort.Strings(members)
	return members
}
