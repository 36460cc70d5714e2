package tagger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// DetectProjectName returns the project name used as a base tag: the
// module/package name declared by go.mod, package.json, or
// pyproject.toml under rootPath, in that order, falling back to the
// directory's base name. Adapted from the teacher's project detector
// (formerly internal/mcp/project.go), trimmed to the single field the
// semantic tagger's base tags need.
func DetectProjectName(rootPath string) string {
	if name := detectGoMod(rootPath); name != "" {
		return name
	}
	if name := detectPackageJSON(rootPath); name != "" {
		return name
	}
	if name := detectPyproject(rootPath); name != "" {
		return name
	}
	return filepath.Base(rootPath)
}

var moduleRegex = regexp.MustCompile(`^module\s+(.+)$`)

func detectGoMod(rootPath string) string {
	f, err := os.Open(filepath.Join(rootPath, "go.mod"))
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if m := moduleRegex.FindStringSubmatch(line); len(m) > 1 {
			return filepath.Base(m[1])
		}
	}
	return ""
}

func detectPackageJSON(rootPath string) string {
	data, err := os.ReadFile(filepath.Join(rootPath, "package.json"))
	if err != nil {
		return ""
	}

	var pkg struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil || pkg.Name == "" {
		return ""
	}

	name := pkg.Name
	if strings.HasPrefix(name, "@") {
		if parts := strings.Split(name, "/"); len(parts) > 1 {
			name = parts[len(parts)-1]
		}
	}
	return name
}

var pyprojectNameRegex = regexp.MustCompile(`^\s*name\s*=\s*["']([^"']+)["']`)

func detectPyproject(rootPath string) string {
	f, err := os.Open(filepath.Join(rootPath, "pyproject.toml"))
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	inProjectSection := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "[") {
			inProjectSection = strings.TrimSpace(line) == "[project]"
			continue
		}
		if inProjectSection {
			if m := pyprojectNameRegex.FindStringSubmatch(line); len(m) > 1 {
				return m[1]
			}
		}
	}
	return ""
}
