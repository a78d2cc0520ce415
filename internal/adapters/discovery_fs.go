package adapters

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/pelletier/go-toml/v2"

	"agent-bundles/internal/ports"
	"agent-bundles/internal/types"
)

const DefaultInstallDir = ".claude/agents"

// DiscoveryFSAdapter inspects well-known manifest files in the project root.
// InstallDir is resolved against the project root when relative.
type DiscoveryFSAdapter struct {
	InstallDir string
}

var _ ports.DiscoveryPort = DiscoveryFSAdapter{}

type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

type pyProject struct {
	Project struct {
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies map[string]interface{} `toml:"dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

func NewDiscoveryFSAdapter(installDir string) DiscoveryFSAdapter {
	if strings.TrimSpace(installDir) == "" {
		installDir = DefaultInstallDir
	}
	return DiscoveryFSAdapter{InstallDir: installDir}
}

func (a DiscoveryFSAdapter) Discover(ctx context.Context, projectRoot string) (types.DiscoveryResult, error) {
	if err := ctx.Err(); err != nil {
		return types.DiscoveryResult{}, err
	}
	info, err := os.Stat(projectRoot)
	if err != nil || !info.IsDir() {
		return types.DiscoveryResult{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("project root not found: " + projectRoot).
			WithCause(err)
	}
	result := types.DefaultDiscovery()

	if ok, err := a.discoverNode(projectRoot, &result); err != nil {
		return types.DiscoveryResult{}, err
	} else if ok {
		result.Languages = append(result.Languages, "javascript")
	}
	if ok, err := a.discoverPython(projectRoot, &result); err != nil {
		return types.DiscoveryResult{}, err
	} else if ok {
		result.Languages = append(result.Languages, "python")
	}
	if fileExists(filepath.Join(projectRoot, "go.mod")) {
		result.Languages = append(result.Languages, "go")
		setProjectType(&result, "api")
	}

	switch {
	case dirExists(filepath.Join(projectRoot, ".github", "workflows")):
		result.CIPlatform = "github"
	case fileExists(filepath.Join(projectRoot, ".gitlab-ci.yml")):
		result.CIPlatform = "gitlab"
	}

	existing, err := listInstalledBundles(a.installPath(projectRoot))
	if err != nil {
		return types.DiscoveryResult{}, err
	}
	result.ExistingBundles = existing
	return result, nil
}

func (a DiscoveryFSAdapter) discoverNode(root string, result *types.DiscoveryResult) (bool, error) {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read package.json").
			WithCause(err)
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid package.json").
			WithCause(err)
	}
	deps := pkg.Dependencies
	if hasAny(deps, "express", "fastify") {
		result.Frameworks = append(result.Frameworks, "node-api")
		setProjectType(result, "api")
	}
	if hasAny(deps, "react", "vue") {
		result.Frameworks = append(result.Frameworks, "frontend")
		if result.ProjectType == "unknown" {
			result.ProjectType = "frontend"
		} else {
			result.ProjectType = "fullstack"
		}
	}
	return true, nil
}

func (a DiscoveryFSAdapter) discoverPython(root string, result *types.DiscoveryResult) (bool, error) {
	var requirements []string
	found := false
	if data, err := os.ReadFile(filepath.Join(root, "requirements.txt")); err == nil {
		found = true
		requirements = append(requirements, parseRequirements(data)...)
	}
	if data, err := os.ReadFile(filepath.Join(root, "pyproject.toml")); err == nil {
		found = true
		var project pyProject
		if err := toml.Unmarshal(data, &project); err != nil {
			return false, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid pyproject.toml").
				WithCause(err)
		}
		for _, dep := range project.Project.Dependencies {
			requirements = append(requirements, requirementName(dep))
		}
		for name := range project.Tool.Poetry.Dependencies {
			requirements = append(requirements, strings.ToLower(name))
		}
	}
	if !found {
		return false, nil
	}
	deps := map[string]string{}
	for _, name := range requirements {
		deps[name] = ""
	}
	if hasAny(deps, "django", "flask", "fastapi") {
		result.Frameworks = append(result.Frameworks, "python-api")
		setProjectType(result, "api")
	}
	if hasAny(deps, "pandas", "numpy") {
		result.Frameworks = append(result.Frameworks, "data-science")
		setProjectType(result, "data")
	}
	return true, nil
}

func (a DiscoveryFSAdapter) installPath(projectRoot string) string {
	if filepath.IsAbs(a.InstallDir) {
		return a.InstallDir
	}
	return filepath.Join(projectRoot, a.InstallDir)
}

func listInstalledBundles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to list installed bundles").
			WithCause(err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".md"))
	}
	sort.Strings(names)
	return names, nil
}

func parseRequirements(data []byte) []string {
	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		names = append(names, requirementName(line))
	}
	return names
}

// requirementName strips extras, markers and version specifiers from a PEP 508
// requirement line.
func requirementName(line string) string {
	end := strings.IndexAny(line, " <>=!~;[@")
	if end >= 0 {
		line = line[:end]
	}
	return strings.ToLower(strings.TrimSpace(line))
}

func setProjectType(result *types.DiscoveryResult, projectType string) {
	if result.ProjectType == "unknown" {
		result.ProjectType = projectType
	}
}

func hasAny(deps map[string]string, names ...string) bool {
	for _, name := range names {
		if _, ok := deps[name]; ok {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
