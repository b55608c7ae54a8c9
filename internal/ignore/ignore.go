// Package ignore matches repository-relative paths against the
// glob-style ignore patterns §6 describes ("files skipped if any path
// segment matches a configured ignore pattern"), using doublestar the
// way the teacher's file scanner does.
package ignore

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher holds a compiled set of ignore patterns.
type Matcher struct {
	patterns []string
}

// New builds a Matcher from raw glob patterns.
func New(patterns []string) *Matcher {
	return &Matcher{patterns: patterns}
}

// MatchesPath reports whether any path segment of relPath (relative to
// the repo root, using forward slashes) matches an ignore pattern, or
// whether the whole relative path matches one as a glob.
func (m *Matcher) MatchesPath(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	segments := strings.Split(relPath, "/")

	for _, pattern := range m.patterns {
		for _, seg := range segments {
			if matched, err := doublestar.Match(pattern, seg); err == nil && matched {
				return true
			}
			if seg == pattern {
				return true
			}
		}
		if matched, err := doublestar.Match(pattern, relPath); err == nil && matched {
			return true
		}
	}
	return false
}
