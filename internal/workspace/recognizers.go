package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"go.yaml.in/yaml/v3"
)

// readMarker returns the marker file contents, or nil when absent.
func readMarker(root, name string) ([]byte, string) {
	path := filepath.Join(root, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ""
	}
	return data, path
}

// pnpmRecognizer matches pnpm-workspace.yaml (or .yml).
type pnpmRecognizer struct{}

func (pnpmRecognizer) Kind() Kind { return KindPnpm }

func (pnpmRecognizer) Probe(root string) (*Topology, error) {
	data, path := readMarker(root, "pnpm-workspace.yaml")
	if data == nil {
		data, path = readMarker(root, "pnpm-workspace.yml")
	}
	if data == nil {
		return nil, nil
	}

	var manifest struct {
		Packages []string `yaml:"packages"`
	}
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, nil
	}
	return &Topology{Kind: KindPnpm, ManifestPath: path, MemberPatterns: manifest.Packages, Root: root}, nil
}

// lernaRecognizer matches lerna.json. An omitted packages list defaults
// to ["packages/*"], lerna's own default.
type lernaRecognizer struct{}

func (lernaRecognizer) Kind() Kind { return KindLerna }

func (lernaRecognizer) Probe(root string) (*Topology, error) {
	data, path := readMarker(root, "lerna.json")
	if data == nil {
		return nil, nil
	}

	var manifest struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, nil
	}
	if len(manifest.Packages) == 0 {
		manifest.Packages = []string{"packages/*"}
	}
	return &Topology{Kind: KindLerna, ManifestPath: path, MemberPatterns: manifest.Packages, Root: root}, nil
}

// nxRecognizer matches nx.json. Nx derives projects from the graph
// rather than listing them, so the topology carries no patterns unless
// a package.json workspaces field supplies them.
type nxRecognizer struct{}

func (nxRecognizer) Kind() Kind { return KindNx }

func (nxRecognizer) Probe(root string) (*Topology, error) {
	data, path := readMarker(root, "nx.json")
	if data == nil {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, nil
	}
	return &Topology{Kind: KindNx, ManifestPath: path, MemberPatterns: npmWorkspacePatterns(root), Root: root}, nil
}

// turboRecognizer matches turbo.json. Turborepo relies on the package
// manager's workspace declaration for membership.
type turboRecognizer struct{}

func (turboRecognizer) Kind() Kind { return KindTurbo }

func (turboRecognizer) Probe(root string) (*Topology, error) {
	data, path := readMarker(root, "turbo.json")
	if data == nil {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, nil
	}
	return &Topology{Kind: KindTurbo, ManifestPath: path, MemberPatterns: npmWorkspacePatterns(root), Root: root}, nil
}

// npmRecognizer matches a package.json carrying a workspaces field
// (npm and yarn use the same format).
type npmRecognizer struct{}

func (npmRecognizer) Kind() Kind { return KindNpm }

func (npmRecognizer) Probe(root string) (*Topology, error) {
	patterns := npmWorkspacePatterns(root)
	if patterns == nil {
		return nil, nil
	}
	return &Topology{
		Kind:           KindNpm,
		ManifestPath:   filepath.Join(root, "package.json"),
		MemberPatterns: patterns,
		Root:           root,
	}, nil
}

// npmWorkspacePatterns reads the workspaces field of package.json,
// accepting both the array form and the {"packages": [...]} object form.
// Returns nil when the file or field is absent or malformed.
func npmWorkspacePatterns(root string) []string {
	data, _ := readMarker(root, "package.json")
	if data == nil {
		return nil
	}

	var manifest struct {
		Workspaces json.RawMessage `json:"workspaces"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil || manifest.Workspaces == nil {
		return nil
	}

	var list []string
	if err := json.Unmarshal(manifest.Workspaces, &list); err == nil {
		return list
	}

	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(manifest.Workspaces, &obj); err == nil && obj.Packages != nil {
		return obj.Packages
	}
	return nil
}

// cargoRecognizer matches a Cargo.toml containing a [workspace] table.
type cargoRecognizer struct{}

func (cargoRecognizer) Kind() Kind { return KindCargo }

func (cargoRecognizer) Probe(root string) (*Topology, error) {
	data, path := readMarker(root, "Cargo.toml")
	if data == nil {
		return nil, nil
	}

	var manifest struct {
		Workspace *struct {
			Members []string `toml:"members"`
		} `toml:"workspace"`
	}
	if err := toml.Unmarshal(data, &manifest); err != nil || manifest.Workspace == nil {
		return nil, nil
	}
	return &Topology{Kind: KindCargo, ManifestPath: path, MemberPatterns: manifest.Workspace.Members, Root: root}, nil
}
