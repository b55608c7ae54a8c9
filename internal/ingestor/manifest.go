package ingestor

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/standardbeagle/cpg/internal/logx"
)

// ExternalPackage is one dependency declared by a manifest file.
type ExternalPackage struct {
	Name    string
	Version string
}

// manifestHandlers dispatches by file name to the matching parser, per
// SPEC_FULL.md's dependency-manifest ingestion list.
var manifestHandlers = map[string]func(path string) ([]ExternalPackage, error){
	"pyproject.toml":   parsePyprojectToml,
	"requirements.txt": parseRequirementsTxt,
	"package.json":     parsePackageJSON,
	"cargo.toml":       parseCargoToml,
	"go.mod":           parseGoMod,
	"gemfile":          parseGemfile,
	"composer.json":    parseComposerJSON,
}

// ParseManifest dispatches on the base name of path (case-insensitively
// for Gemfile) and returns the declared external packages. An
// unrecognized manifest name yields (nil, nil): §7 treats a missing
// language_config for a manifest file as a recoverable "treat as
// generic file", not an error.
func ParseManifest(path string) ([]ExternalPackage, error) {
	base := strings.ToLower(filepath.Base(path))
	handler, ok := manifestHandlers[base]
	if !ok && strings.HasSuffix(base, ".csproj") {
		return parseCsproj(path)
	}
	if !ok {
		logx.Debugf("no manifest handler for %s, treating as generic file", path)
		return nil, nil
	}
	return handler(path)
}

func parsePyprojectToml(path string) ([]ExternalPackage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Project struct {
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	var out []ExternalPackage
	for _, dep := range doc.Project.Dependencies {
		name, version := splitPEP508(dep)
		out = append(out, ExternalPackage{Name: name, Version: version})
	}
	for name, v := range doc.Tool.Poetry.Dependencies {
		if strings.EqualFold(name, "python") {
			continue
		}
		ver := ""
		if s, ok := v.(string); ok {
			ver = s
		}
		out = append(out, ExternalPackage{Name: name, Version: ver})
	}
	return out, nil
}

var pep508Re = regexp.MustCompile(`^([A-Za-z0-9_.\-]+)\s*(.*)$`)

func splitPEP508(spec string) (name, version string) {
	m := pep508Re.FindStringSubmatch(strings.TrimSpace(spec))
	if m == nil {
		return spec, ""
	}
	return m[1], strings.TrimSpace(m[2])
}

func parseRequirementsTxt(path string) ([]ExternalPackage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []ExternalPackage
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		name, version := splitPEP508(line)
		out = append(out, ExternalPackage{Name: name, Version: version})
	}
	return out, sc.Err()
}

func parsePackageJSON(path string) ([]ExternalPackage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	var out []ExternalPackage
	for name, v := range doc.Dependencies {
		out = append(out, ExternalPackage{Name: name, Version: v})
	}
	for name, v := range doc.DevDependencies {
		out = append(out, ExternalPackage{Name: name, Version: v})
	}
	return out, nil
}

func parseCargoToml(path string) ([]ExternalPackage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Dependencies map[string]any `toml:"dependencies"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	var out []ExternalPackage
	for name, v := range doc.Dependencies {
		version := ""
		switch val := v.(type) {
		case string:
			version = val
		case map[string]any:
			if s, ok := val["version"].(string); ok {
				version = s
			}
		}
		out = append(out, ExternalPackage{Name: name, Version: version})
	}
	return out, nil
}

func parseGoMod(path string) ([]ExternalPackage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []ExternalPackage
	inRequire := false
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "require ("):
			inRequire = true
			continue
		case line == ")":
			inRequire = false
			continue
		case strings.HasPrefix(line, "require "):
			line = strings.TrimPrefix(line, "require ")
		case !inRequire:
			continue
		}
		line = strings.TrimSuffix(line, " // indirect")
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			out = append(out, ExternalPackage{Name: fields[0], Version: fields[1]})
		}
	}
	return out, sc.Err()
}

func parseGemfile(path string) ([]ExternalPackage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gemRe := regexp.MustCompile(`gem\s+['"]([^'"]+)['"](?:\s*,\s*['"]([^'"]+)['"])?`)
	var out []ExternalPackage
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m := gemRe.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		out = append(out, ExternalPackage{Name: m[1], Version: m[2]})
	}
	return out, sc.Err()
}

func parseComposerJSON(path string) ([]ExternalPackage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Require map[string]string `json:"require"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	var out []ExternalPackage
	for name, v := range doc.Require {
		if name == "php" {
			continue
		}
		out = append(out, ExternalPackage{Name: name, Version: v})
	}
	return out, nil
}

func parseCsproj(path string) ([]ExternalPackage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ref := regexp.MustCompile(`<PackageReference\s+Include="([^"]+)"\s+Version="([^"]+)"`)
	var out []ExternalPackage
	for _, m := range ref.FindAllStringSubmatch(string(data), -1) {
		out = append(out, ExternalPackage{Name: m[1], Version: m[2]})
	}
	return out, nil
}
