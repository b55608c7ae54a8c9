// Package config loads the analyzer's project configuration from a
// .cpg.kdl file, in the same KDL-document style as the teacher's
// .lci.kdl loader. CLI-flag overrides are applied on top of the loaded
// values by cmd/cpg, not by this package.
package config

import (
	"os"
	"path/filepath"
)

// Config is the full set of knobs the analyzer driver accepts.
type Config struct {
	// ProjectRoot is the absolute path to the repository being ingested.
	ProjectRoot string

	// Ignore holds glob patterns (doublestar syntax) matched against
	// any path segment; a match skips the file/directory entirely.
	Ignore []string

	// Languages holds the language tags listed in .cpg.kdl. Nothing in
	// the driver reads it; every supported language is ingested.
	Languages []string

	// AstCacheMaxEntries is BoundedASTCache's entry ceiling (§3).
	AstCacheMaxEntries int

	// AstCacheMaxMemoryBytes is BoundedASTCache's soft memory ceiling.
	AstCacheMaxMemoryBytes int64
}

// DefaultIgnorePatterns mirrors the teacher's default exclusion set
// plus the language-ecosystem directories spec.md §6 names explicitly
// (.git, node_modules, build output, virtualenv directories).
var DefaultIgnorePatterns = []string{
	".git",
	".hg",
	".svn",
	"node_modules",
	"vendor",
	"dist",
	"build",
	"target",
	"out",
	"__pycache__",
	".venv",
	"venv",
	".tox",
	".mypy_cache",
	".pytest_cache",
	"*.egg-info",
}

// Default returns the baseline configuration for projectRoot, used
// when no .cpg.kdl file is present.
func Default(projectRoot string) *Config {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		abs = projectRoot
	}
	return &Config{
		ProjectRoot:            abs,
		Ignore:                 append([]string(nil), DefaultIgnorePatterns...),
		AstCacheMaxEntries:     1000,
		AstCacheMaxMemoryBytes: 500 * 1024 * 1024,
	}
}

// Load reads .cpg.kdl from projectRoot if present, falling back to
// Default when the file is absent. A missing file is not an error —
// §7 only treats ingestor/flush failures and "no parsers loaded" as
// fatal misconfiguration.
func Load(projectRoot string) (*Config, error) {
	cfg := Default(projectRoot)

	kdlPath := filepath.Join(cfg.ProjectRoot, ".cpg.kdl")
	content, err := os.ReadFile(kdlPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := mergeKDL(cfg, string(content)); err != nil {
		return nil, err
	}
	return cfg, nil
}
