package discovery

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// DetectTechnology inspects marker and manifest files under root and
// returns the detected stack. Every probe degrades to "not detected"
// on error; the function never fails.
func DetectTechnology(root string) Technology {
	tech := Technology{Language: "unknown"}

	switch {
	case exists(root, "package.json"):
		tech.Language = "nodejs"
		if exists(root, "tsconfig.json") {
			tech.Language = "typescript"
		}
		tech.PackageManager = nodePackageManager(root)
		tech.Framework = nodeFramework(root)
	case exists(root, "Cargo.toml"):
		tech.Language = "rust"
		tech.PackageManager = "cargo"
	case exists(root, "go.mod"):
		tech.Language = "go"
	case exists(root, "pyproject.toml") || exists(root, "requirements.txt") || exists(root, "Pipfile"):
		tech.Language = "python"
		tech.PackageManager = pythonPackageManager(root)
		tech.Framework = pythonFramework(root)
	case exists(root, "pom.xml"):
		tech.Language = "java"
		tech.PackageManager = "maven"
	case exists(root, "build.gradle") || exists(root, "build.gradle.kts"):
		tech.Language = "java"
		tech.PackageManager = "gradle"
	}

	tech.Database = detectDatabase(root)
	tech.Services = detectServices(root)
	return tech
}

func exists(root string, name string) bool {
	_, err := os.Stat(filepath.Join(root, name))
	return err == nil
}

// nodePackageManager picks the manager by lockfile presence.
func nodePackageManager(root string) string {
	switch {
	case exists(root, "pnpm-lock.yaml"):
		return "pnpm"
	case exists(root, "yarn.lock"):
		return "yarn"
	default:
		return "npm"
	}
}

// nodeFramework matches known framework package names against the
// declared dependencies in package.json. Order matters: next implies
// react, so next wins.
func nodeFramework(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return ""
	}
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return ""
	}
	deps := make(map[string]bool, len(pkg.Dependencies)+len(pkg.DevDependencies))
	for name := range pkg.Dependencies {
		deps[name] = true
	}
	for name := range pkg.DevDependencies {
		deps[name] = true
	}
	for _, candidate := range []struct{ dep, framework string }{
		{"next", "nextjs"},
		{"react", "react"},
		{"vue", "vue"},
		{"express", "express"},
	} {
		if deps[candidate.dep] {
			return candidate.framework
		}
	}
	return ""
}

func pythonPackageManager(root string) string {
	switch {
	case exists(root, "Pipfile"):
		return "pipenv"
	case exists(root, "poetry.lock"):
		return "poetry"
	default:
		return "pip"
	}
}

// pythonFramework scans pyproject.toml for known framework names.
func pythonFramework(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	if err != nil {
		return ""
	}
	content := strings.ToLower(string(data))
	for _, fw := range []string{"django", "flask", "fastapi"} {
		if strings.Contains(content, fw) {
			return fw
		}
	}
	return ""
}

// detectDatabase scans docker-compose service images and example env
// files for datastore keywords.
func detectDatabase(root string) string {
	if db := composeDatabase(root); db != "" {
		return db
	}
	return envFileDatabase(root)
}

func composeDatabase(root string) string {
	var data []byte
	for _, name := range []string{"docker-compose.yml", "docker-compose.yaml", "compose.yml", "compose.yaml"} {
		if d, err := os.ReadFile(filepath.Join(root, name)); err == nil {
			data = d
			break
		}
	}
	if data == nil {
		return ""
	}

	var compose struct {
		Services map[string]struct {
			Image string `yaml:"image"`
		} `yaml:"services"`
	}
	if err := yaml.Unmarshal(data, &compose); err != nil {
		return ""
	}

	for _, svc := range compose.Services {
		image := strings.ToLower(svc.Image)
		switch {
		case strings.Contains(image, "postgres"):
			return "postgresql"
		case strings.Contains(image, "mysql"), strings.Contains(image, "mariadb"):
			return "mysql"
		case strings.Contains(image, "mongo"):
			return "mongodb"
		}
	}
	return ""
}

// envFileDatabase keyword-scans example environment files. Real .env
// files are deliberately left alone; they may hold secrets and are not
// part of the committed project shape.
func envFileDatabase(root string) string {
	var content string
	for _, name := range []string{".env.example", ".env.sample", ".env.template"} {
		if data, err := os.ReadFile(filepath.Join(root, name)); err == nil {
			content += strings.ToLower(string(data)) + "\n"
		}
	}
	switch {
	case strings.Contains(content, "postgres"):
		return "postgresql"
	case strings.Contains(content, "mysql"):
		return "mysql"
	case strings.Contains(content, "mongodb"), strings.Contains(content, "mongo_"):
		return "mongodb"
	}
	return ""
}

// detectServices reports auxiliary services by marker-file presence, in
// a fixed order for deterministic output.
func detectServices(root string) []string {
	var services []string
	if exists(root, "Dockerfile") {
		services = append(services, "docker")
	}
	if exists(root, filepath.Join(".github", "workflows")) {
		services = append(services, "github-actions")
	}
	if exists(root, ".gitlab-ci.yml") {
		services = append(services, "gitlab-ci")
	}
	if exists(root, "k8s") || exists(root, "kubernetes") {
		services = append(services, "kubernetes")
	}
	if redisDeclared(root) {
		services = append(services, "redis")
	}
	return services
}

func redisDeclared(root string) bool {
	for _, name := range []string{"docker-compose.yml", "docker-compose.yaml", ".env.example", ".env.sample"} {
		if data, err := os.ReadFile(filepath.Join(root, name)); err == nil {
			if strings.Contains(strings.ToLower(string(data)), "redis") {
				return true
			}
		}
	}
	return false
}
