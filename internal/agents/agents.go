// Package agents defines the static configuration table describing every
// supported AI agent integration: where its command content lives in the
// central repository and where a project expects to find it.
package agents

import (
	"fmt"
	"sort"
	"strings"
)

// Descriptor describes one agent integration. Descriptors are immutable;
// components receive a Table at construction and never mutate it.
type Descriptor struct {
	// Key is the stable identifier used on the command line.
	Key string
	// Name is the human-readable agent name.
	Name string
	// SourceSubpath is the content location relative to the central
	// repository's agents/ root.
	SourceSubpath string
	// TargetPath is the link location relative to the project root.
	TargetPath string
	// Files, when non-nil, lists the discrete files to link into
	// TargetPath instead of linking the whole source directory.
	Files []string
}

// WholeDirectory reports whether the agent links its entire source
// directory rather than individual files.
func (d Descriptor) WholeDirectory() bool { return len(d.Files) == 0 }

// Table is an ordered set of descriptors keyed by agent key.
type Table struct {
	descriptors []Descriptor
	byKey       map[string]int
}

// NewTable builds a Table from the given descriptors. Duplicate keys panic:
// the table is static configuration and a duplicate is a programming error.
func NewTable(descriptors []Descriptor) Table {
	byKey := make(map[string]int, len(descriptors))
	for i, d := range descriptors {
		if _, dup := byKey[d.Key]; dup {
			panic(fmt.Sprintf("duplicate agent key %q", d.Key))
		}
		byKey[d.Key] = i
	}
	return Table{descriptors: descriptors, byKey: byKey}
}

// DefaultTable returns the built-in agent configuration.
func DefaultTable() Table {
	return NewTable([]Descriptor{
		{Key: "claude", Name: "Claude Code", SourceSubpath: "claude/commands", TargetPath: ".claude/commands"},
		{Key: "cursor", Name: "Cursor", SourceSubpath: "cursor/commands", TargetPath: ".cursor/commands"},
		{Key: "codex", Name: "Codex CLI", SourceSubpath: "codex/prompts", TargetPath: ".codex/prompts"},
		{Key: "amazonq", Name: "Amazon Q Developer", SourceSubpath: "q/prompts", TargetPath: ".amazonq/prompts"},
		{Key: "copilot", Name: "GitHub Copilot", SourceSubpath: "copilot", TargetPath: ".github", Files: []string{"copilot-instructions.md"}},
		{Key: "gemini", Name: "Gemini CLI", SourceSubpath: "gemini", TargetPath: ".", Files: []string{"GEMINI.md"}},
	})
}

// Lookup returns the descriptor for key.
func (t Table) Lookup(key string) (Descriptor, bool) {
	i, ok := t.byKey[key]
	if !ok {
		return Descriptor{}, false
	}
	return t.descriptors[i], true
}

// Keys returns all agent keys in table order.
func (t Table) Keys() []string {
	keys := make([]string, len(t.descriptors))
	for i, d := range t.descriptors {
		keys[i] = d.Key
	}
	return keys
}

// Len returns the number of descriptors.
func (t Table) Len() int { return len(t.descriptors) }

// Parse interprets the --ai argument values. Each value may be a single
// key, a comma-separated list, or the literal "all". Duplicates are
// dropped while preserving first-seen order. Unknown keys produce an
// error naming the supported set.
func (t Table) Parse(values []string) ([]string, error) {
	var raw []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part != "" {
				raw = append(raw, part)
			}
		}
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("no agents specified: use agent keys or 'all'")
	}

	if len(raw) == 1 && raw[0] == "all" {
		return t.Keys(), nil
	}

	seen := make(map[string]bool, len(raw))
	var keys, unknown []string
	for _, k := range raw {
		if seen[k] {
			continue
		}
		seen[k] = true
		if _, ok := t.byKey[k]; !ok {
			unknown = append(unknown, k)
			continue
		}
		keys = append(keys, k)
	}

	if len(unknown) > 0 {
		supported := t.Keys()
		sort.Strings(supported)
		return nil, fmt.Errorf("unknown agent(s): %s (supported: %s)",
			strings.Join(unknown, ", "), strings.Join(supported, ", "))
	}

	return keys, nil
}
