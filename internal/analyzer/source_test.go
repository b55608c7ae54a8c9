package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/cpg/internal/astcache"
	"github.com/standardbeagle/cpg/internal/ingestor"
	"github.com/standardbeagle/cpg/internal/types"
)

func TestSourceLocatorSnippetReturnsCachedSource(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "mod.py")
	source := "def helper():\n    return 1\n"
	require.NoError(t, os.WriteFile(filePath, []byte(source), 0o644))

	sink, err := ingestor.OpenSQLiteSink(filepath.Join(dir, "out.sqlite"))
	require.NoError(t, err)
	defer sink.Close()

	_, err = sink.EnsureNode(types.NodeFunction, map[string]any{
		"qn": "project.mod.helper", "path": filePath,
	})
	require.NoError(t, err)
	require.NoError(t, sink.FlushAll())

	cache := astcache.New(100, 10*1024*1024)
	cache.Set(filePath, astcache.Entry{Language: types.LangPython, Source: []byte(source)})

	locator := NewSourceLocator(cache, sink)
	snippet, ok := locator.Snippet("project.mod.helper")
	require.True(t, ok)
	assert.Equal(t, source, snippet)
}

func TestSourceLocatorMissingQNReturnsFalse(t *testing.T) {
	sink, err := ingestor.OpenSQLiteSink(filepath.Join(t.TempDir(), "out.sqlite"))
	require.NoError(t, err)
	defer sink.Close()

	cache := astcache.New(100, 10*1024*1024)
	locator := NewSourceLocator(cache, sink)

	_, ok := locator.Snippet("project.mod.doesnotexist")
	assert.False(t, ok)
}

func TestSourceLocatorEvictedFromCacheReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "mod.py")

	sink, err := ingestor.OpenSQLiteSink(filepath.Join(dir, "out.sqlite"))
	require.NoError(t, err)
	defer sink.Close()

	_, err = sink.EnsureNode(types.NodeFunction, map[string]any{
		"qn": "project.mod.helper", "path": filePath,
	})
	require.NoError(t, err)
	require.NoError(t, sink.FlushAll())

	cache := astcache.New(100, 10*1024*1024)

	locator := NewSourceLocator(cache, sink)
	_, ok := locator.Snippet("project.mod.helper")
	assert.False(t, ok, "file was never cached, so the locator should report a miss rather than panic")
}
