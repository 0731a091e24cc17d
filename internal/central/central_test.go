package central

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/specify-labs/specify/internal/agents"
	"github.com/specify-labs/specify/internal/branding"
)

func testRepo(t *testing.T, version string) *Repository {
	t.Helper()
	root := t.TempDir()
	t.Setenv(branding.EnvVar("HOME"), root)

	r, err := New(version, agents.DefaultTable())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	return r
}

func TestDefaultRootHonorsEnvOverride(t *testing.T) {
	t.Setenv(branding.EnvVar("HOME"), "/tmp/custom-store")
	root, err := DefaultRoot()
	if err != nil {
		t.Fatal(err)
	}
	if root != "/tmp/custom-store" {
		t.Errorf("DefaultRoot = %q, want override", root)
	}
}

func TestEnsurePopulatesStore(t *testing.T) {
	r := testRepo(t, "1.2.3")

	updated, skipped, err := r.Ensure(false)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if !updated {
		t.Error("first Ensure should report updated")
	}
	if len(skipped) != 0 {
		t.Errorf("unexpected skipped agents: %v", skipped)
	}

	if !r.Installed() {
		t.Error("store should be installed after Ensure")
	}

	data, err := os.ReadFile(filepath.Join(r.Root, VersionFile))
	if err != nil {
		t.Fatalf("reading version marker: %v", err)
	}
	if got := string(data); got != "1.2.3\n" {
		t.Errorf("version marker = %q, want %q", got, "1.2.3\n")
	}

	for _, key := range r.Table.Keys() {
		desc, _ := r.Table.Lookup(key)
		if _, err := os.Stat(r.SourcePath(desc)); err != nil {
			t.Errorf("content for %s missing: %v", key, err)
		}
	}
}

func TestEnsureSkipsWhenFresh(t *testing.T) {
	r := testRepo(t, "1.2.3")

	if _, _, err := r.Ensure(false); err != nil {
		t.Fatal(err)
	}

	// Mark a content file so a refresh would be observable.
	claude, _ := r.Table.Lookup("claude")
	marker := filepath.Join(r.SourcePath(claude), "local-edit.md")
	if err := os.WriteFile(marker, []byte("kept"), 0644); err != nil {
		t.Fatal(err)
	}

	updated, _, err := r.Ensure(false)
	if err != nil {
		t.Fatal(err)
	}
	if updated {
		t.Error("second Ensure at same version should be a no-op")
	}
	if _, err := os.Stat(marker); err != nil {
		t.Error("no-op Ensure must not touch store contents")
	}
}

func TestEnsureForceRefreshes(t *testing.T) {
	r := testRepo(t, "1.2.3")

	if _, _, err := r.Ensure(false); err != nil {
		t.Fatal(err)
	}

	claude, _ := r.Table.Lookup("claude")
	marker := filepath.Join(r.SourcePath(claude), "local-edit.md")
	if err := os.WriteFile(marker, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}

	updated, _, err := r.Ensure(true)
	if err != nil {
		t.Fatal(err)
	}
	if !updated {
		t.Error("forced Ensure should report updated")
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Error("forced refresh should replace the agent subtree")
	}
}

func TestEnsureRefreshesOnVersionChange(t *testing.T) {
	r := testRepo(t, "1.2.3")
	if _, _, err := r.Ensure(false); err != nil {
		t.Fatal(err)
	}

	r.Version = "1.3.0"
	updated, _, err := r.Ensure(false)
	if err != nil {
		t.Fatal(err)
	}
	if !updated {
		t.Error("version change should trigger refresh")
	}

	data, _ := os.ReadFile(filepath.Join(r.Root, VersionFile))
	if got := string(data); got != "1.3.0\n" {
		t.Errorf("version marker = %q, want %q", got, "1.3.0\n")
	}
}

func TestStale(t *testing.T) {
	tests := []struct {
		name      string
		marker    string
		version   string
		wantStale bool
	}{
		{"equal", "1.2.3\n", "1.2.3", false},
		{"equal with v prefix", "v1.2.3\n", "1.2.3", false},
		{"older marker", "1.0.0\n", "1.2.3", true},
		{"garbage marker", "not-a-version\n", "1.2.3", true},
		{"dev build version", "1.2.3\n", "dev", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRepo(t, tt.version)
			if err := os.MkdirAll(r.Root, 0755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(r.Root, VersionFile), []byte(tt.marker), 0644); err != nil {
				t.Fatal(err)
			}
			if got := r.stale(); got != tt.wantStale {
				t.Errorf("stale() = %v, want %v", got, tt.wantStale)
			}
		})
	}
}

func TestEnsureSkipsAgentWithoutBundledContent(t *testing.T) {
	root := t.TempDir()
	t.Setenv(branding.EnvVar("HOME"), root)

	table := agents.NewTable([]agents.Descriptor{
		{Key: "claude", Name: "Claude Code", SourceSubpath: "claude/commands", TargetPath: ".claude/commands"},
		{Key: "ghost", Name: "Ghost", SourceSubpath: "ghost/commands", TargetPath: ".ghost/commands"},
	})

	r := &Repository{Root: root, Version: "1.2.3", Table: table, Log: slog.New(slog.NewTextHandler(io.Discard, nil))}

	updated, skipped, err := r.Ensure(false)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if !updated {
		t.Error("Ensure should still install the agents it can")
	}
	if len(skipped) != 1 || skipped[0] != "ghost" {
		t.Errorf("skipped = %v, want [ghost]", skipped)
	}

	claude, _ := table.Lookup("claude")
	if _, err := os.Stat(r.SourcePath(claude)); err != nil {
		t.Errorf("claude content missing: %v", err)
	}
}

func TestTopLevel(t *testing.T) {
	if got := topLevel("claude/commands"); got != "claude" {
		t.Errorf("topLevel = %q", got)
	}
	if got := topLevel("gemini"); got != "gemini" {
		t.Errorf("topLevel = %q", got)
	}
}
