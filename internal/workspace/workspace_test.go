package workspace

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func write(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func mkdir(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.MkdirAll(filepath.Join(root, name), 0755); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDetectPnpm(t *testing.T) {
	root := t.TempDir()
	write(t, root, "pnpm-workspace.yaml", "packages:\n  - apps/*\n  - packages/*\n")

	topo := Detect(root)
	if topo == nil || topo.Kind != KindPnpm {
		t.Fatalf("topo = %+v, want pnpm", topo)
	}
	want := []string{"apps/*", "packages/*"}
	if !reflect.DeepEqual(topo.MemberPatterns, want) {
		t.Errorf("patterns = %v, want %v", topo.MemberPatterns, want)
	}
}

func TestDetectPriorityPnpmOverNpm(t *testing.T) {
	root := t.TempDir()
	write(t, root, "pnpm-workspace.yaml", "packages:\n  - apps/*\n")
	write(t, root, "package.json", `{"name":"mono","workspaces":["libs/*"]}`)

	topo := Detect(root)
	if topo == nil || topo.Kind != KindPnpm {
		t.Fatalf("topo = %+v, want pnpm to win over package.json workspaces", topo)
	}
}

func TestDetectLernaDefaultsPackages(t *testing.T) {
	root := t.TempDir()
	write(t, root, "lerna.json", `{"version":"independent"}`)

	topo := Detect(root)
	if topo == nil || topo.Kind != KindLerna {
		t.Fatalf("topo = %+v, want lerna", topo)
	}
	if !reflect.DeepEqual(topo.MemberPatterns, []string{"packages/*"}) {
		t.Errorf("patterns = %v, want lerna default", topo.MemberPatterns)
	}
}

func TestDetectNxUsesNpmWorkspaces(t *testing.T) {
	root := t.TempDir()
	write(t, root, "nx.json", `{"targetDefaults":{}}`)
	write(t, root, "package.json", `{"workspaces":["apps/*","libs/*"]}`)

	topo := Detect(root)
	if topo == nil || topo.Kind != KindNx {
		t.Fatalf("topo = %+v, want nx", topo)
	}
	if !reflect.DeepEqual(topo.MemberPatterns, []string{"apps/*", "libs/*"}) {
		t.Errorf("patterns = %v", topo.MemberPatterns)
	}
}

func TestDetectTurbo(t *testing.T) {
	root := t.TempDir()
	write(t, root, "turbo.json", `{"tasks":{"build":{}}}`)

	topo := Detect(root)
	if topo == nil || topo.Kind != KindTurbo {
		t.Fatalf("topo = %+v, want turborepo", topo)
	}
}

func TestDetectNpmWorkspaces(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		want     []string
	}{
		{"array form", `{"workspaces":["pkgs/*"]}`, []string{"pkgs/*"}},
		{"object form", `{"workspaces":{"packages":["pkgs/*"],"nohoist":["**/x"]}}`, []string{"pkgs/*"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			write(t, root, "package.json", tt.manifest)

			topo := Detect(root)
			if topo == nil || topo.Kind != KindNpm {
				t.Fatalf("topo = %+v, want npm", topo)
			}
			if !reflect.DeepEqual(topo.MemberPatterns, tt.want) {
				t.Errorf("patterns = %v, want %v", topo.MemberPatterns, tt.want)
			}
		})
	}
}

func TestDetectPlainPackageJSONIsNotAWorkspace(t *testing.T) {
	root := t.TempDir()
	write(t, root, "package.json", `{"name":"app","version":"1.0.0"}`)

	if topo := Detect(root); topo != nil {
		t.Errorf("topo = %+v, want nil for non-workspace package.json", topo)
	}
}

func TestDetectCargoWorkspace(t *testing.T) {
	root := t.TempDir()
	write(t, root, "Cargo.toml", "[workspace]\nmembers = [\"crates/*\"]\n")

	topo := Detect(root)
	if topo == nil || topo.Kind != KindCargo {
		t.Fatalf("topo = %+v, want cargo", topo)
	}
	if !reflect.DeepEqual(topo.MemberPatterns, []string{"crates/*"}) {
		t.Errorf("patterns = %v", topo.MemberPatterns)
	}
}

func TestDetectCargoWithoutWorkspaceTable(t *testing.T) {
	root := t.TempDir()
	write(t, root, "Cargo.toml", "[package]\nname = \"app\"\nversion = \"0.1.0\"\n")

	if topo := Detect(root); topo != nil {
		t.Errorf("topo = %+v, want nil for a plain crate manifest", topo)
	}
}

func TestDetectMalformedManifestFallsThrough(t *testing.T) {
	root := t.TempDir()
	write(t, root, "pnpm-workspace.yaml", "packages: [unterminated\n")
	write(t, root, "lerna.json", `{"packages":["libs/*"]}`)

	topo := Detect(root)
	if topo == nil || topo.Kind != KindLerna {
		t.Fatalf("topo = %+v, want lerna after malformed pnpm manifest", topo)
	}
}

func TestDetectNothing(t *testing.T) {
	if topo := Detect(t.TempDir()); topo != nil {
		t.Errorf("topo = %+v, want nil in an empty directory", topo)
	}
}

func TestExpandMembers(t *testing.T) {
	root := t.TempDir()
	mkdir(t, root, "apps/web", "apps/api", "packages/core")
	write(t, root, "apps/readme.md", "not a member dir")

	topo := &Topology{Kind: KindPnpm, Root: root, MemberPatterns: []string{"apps/*", "packages/*"}}

	got := ExpandMembers(topo)
	want := []string{
		filepath.Join(root, "apps", "api"),
		filepath.Join(root, "apps", "web"),
		filepath.Join(root, "packages", "core"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("members = %v, want %v", got, want)
	}
}

func TestExpandMembersDedupesAndSorts(t *testing.T) {
	root := t.TempDir()
	mkdir(t, root, "apps/web")

	topo := &Topology{Root: root, MemberPatterns: []string{"apps/*", "apps/*", "apps/web"}}

	got := ExpandMembers(topo)
	if len(got) != 1 {
		t.Fatalf("members = %v, want single deduplicated entry", got)
	}

	again := ExpandMembers(topo)
	if !reflect.DeepEqual(got, again) {
		t.Error("expansion should be deterministic across runs")
	}
}

func TestExpandMembersSkipsNegationsAndLeadingSlash(t *testing.T) {
	root := t.TempDir()
	mkdir(t, root, "apps/web", "apps/legacy")

	topo := &Topology{Root: root, MemberPatterns: []string{"/apps/web", "!apps/legacy"}}

	got := ExpandMembers(topo)
	want := []string{filepath.Join(root, "apps", "web")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("members = %v, want %v", got, want)
	}
}

func TestExpandMembersNilTopology(t *testing.T) {
	if got := ExpandMembers(nil); got != nil {
		t.Errorf("ExpandMembers(nil) = %v, want nil", got)
	}
}
