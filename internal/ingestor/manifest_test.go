package ingestor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseManifestPyprojectToml(t *testing.T) {
	path := writeManifest(t, "pyproject.toml", `
[project]
dependencies = ["requests>=2.0", "click"]

[tool.poetry.dependencies]
python = "^3.11"
fastapi = "^0.100"
`)
	pkgs, err := ParseManifest(path)
	require.NoError(t, err)

	names := map[string]string{}
	for _, p := range pkgs {
		names[p.Name] = p.Version
	}
	assert.Equal(t, ">=2.0", names["requests"])
	assert.Contains(t, names, "click")
	assert.Contains(t, names, "fastapi")
	assert.NotContains(t, names, "python")
}

func TestParseManifestRequirementsTxtSkipsCommentsAndOptions(t *testing.T) {
	path := writeManifest(t, "requirements.txt", "\n# comment\n-r base.txt\nrequests==2.31.0\nclick\n")
	pkgs, err := ParseManifest(path)
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, "requests", pkgs[0].Name)
	assert.Equal(t, "==2.31.0", pkgs[0].Version)
	assert.Equal(t, "click", pkgs[1].Name)
}

func TestParseManifestPackageJSON(t *testing.T) {
	path := writeManifest(t, "package.json", `{
		"dependencies": {"react": "^18.0.0"},
		"devDependencies": {"vitest": "^1.0.0"}
	}`)
	pkgs, err := ParseManifest(path)
	require.NoError(t, err)

	names := map[string]string{}
	for _, p := range pkgs {
		names[p.Name] = p.Version
	}
	assert.Equal(t, "^18.0.0", names["react"])
	assert.Equal(t, "^1.0.0", names["vitest"])
}

func TestParseManifestCargoToml(t *testing.T) {
	path := writeManifest(t, "Cargo.toml", `
[dependencies]
serde = "1.0"
tokio = { version = "1.35", features = ["full"] }
`)
	pkgs, err := ParseManifest(path)
	require.NoError(t, err)

	names := map[string]string{}
	for _, p := range pkgs {
		names[p.Name] = p.Version
	}
	assert.Equal(t, "1.0", names["serde"])
	assert.Equal(t, "1.35", names["tokio"])
}

func TestParseManifestGoMod(t *testing.T) {
	path := writeManifest(t, "go.mod", `module example.com/foo

go 1.22

require (
	github.com/stretchr/testify v1.9.0
	golang.org/x/sync v0.7.0 // indirect
)

require github.com/pelletier/go-toml/v2 v2.2.0
`)
	pkgs, err := ParseManifest(path)
	require.NoError(t, err)

	names := map[string]string{}
	for _, p := range pkgs {
		names[p.Name] = p.Version
	}
	assert.Equal(t, "v1.9.0", names["github.com/stretchr/testify"])
	assert.Equal(t, "v0.7.0", names["golang.org/x/sync"])
	assert.Equal(t, "v2.2.0", names["github.com/pelletier/go-toml/v2"])
}

func TestParseManifestGemfile(t *testing.T) {
	path := writeManifest(t, "Gemfile", `
source "https://rubygems.org"
gem 'rails', '7.1.0'
gem "rspec"
`)
	pkgs, err := ParseManifest(path)
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, "rails", pkgs[0].Name)
	assert.Equal(t, "7.1.0", pkgs[0].Version)
	assert.Equal(t, "rspec", pkgs[1].Name)
}

func TestParseManifestComposerJSONSkipsPHPItself(t *testing.T) {
	path := writeManifest(t, "composer.json", `{
		"require": {"php": ">=8.1", "symfony/console": "^6.0"}
	}`)
	pkgs, err := ParseManifest(path)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "symfony/console", pkgs[0].Name)
}

func TestParseManifestCsproj(t *testing.T) {
	path := writeManifest(t, "foo.csproj", `<Project><ItemGroup>
		<PackageReference Include="Newtonsoft.Json" Version="13.0.3" />
	</ItemGroup></Project>`)
	pkgs, err := ParseManifest(path)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "Newtonsoft.Json", pkgs[0].Name)
	assert.Equal(t, "13.0.3", pkgs[0].Version)
}

func TestParseManifestUnknownFileReturnsNilNil(t *testing.T) {
	path := writeManifest(t, "README.md", "# hello")
	pkgs, err := ParseManifest(path)
	assert.NoError(t, err)
	assert.Nil(t, pkgs)
}
