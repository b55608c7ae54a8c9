package astcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/cpg/internal/types"
)

func entryWithSource(src string) Entry {
	return Entry{Language: types.LangPython, Source: []byte(src)}
}

func TestSetAndGet(t *testing.T) {
	c := New(10, 1<<20)
	c.Set("a.py", entryWithSource("print(1)"))

	got, ok := c.Get("a.py")
	require.True(t, ok)
	assert.Equal(t, "print(1)", string(got.Source))
	assert.Equal(t, 1, c.Len())
}

func TestGetMissingReturnsFalse(t *testing.T) {
	c := New(10, 1<<20)
	_, ok := c.Get("missing.py")
	assert.False(t, ok)
}

func TestEntryCountEviction(t *testing.T) {
	c := New(2, 1<<20)
	c.Set("a.py", entryWithSource("a"))
	c.Set("b.py", entryWithSource("b"))
	c.Set("c.py", entryWithSource("c"))

	assert.Equal(t, 2, c.Len())
	assert.False(t, c.Contains("a.py"))
	assert.True(t, c.Contains("b.py"))
	assert.True(t, c.Contains("c.py"))
}

func TestGetRefreshesRecency(t *testing.T) {
	c := New(2, 1<<20)
	c.Set("a.py", entryWithSource("a"))
	c.Set("b.py", entryWithSource("b"))

	// Touch a.py so it becomes most-recently-used, leaving b.py as the
	// eviction candidate when c.py is inserted.
	_, _ = c.Get("a.py")
	c.Set("c.py", entryWithSource("c"))

	assert.True(t, c.Contains("a.py"))
	assert.False(t, c.Contains("b.py"))
	assert.True(t, c.Contains("c.py"))
}

func TestDelete(t *testing.T) {
	c := New(10, 1<<20)
	c.Set("a.py", entryWithSource("a"))
	c.Delete("a.py")

	assert.False(t, c.Contains("a.py"))
	assert.Equal(t, 0, c.Len())
}

func TestPathsWithPrefix(t *testing.T) {
	c := New(10, 1<<20)
	c.Set("/repo/pkg/a.py", entryWithSource("a"))
	c.Set("/repo/pkg/b.py", entryWithSource("b"))
	c.Set("/repo/other/c.py", entryWithSource("c"))

	paths := c.PathsWithPrefix("/repo/pkg")
	assert.ElementsMatch(t, []string{"/repo/pkg/a.py", "/repo/pkg/b.py"}, paths)
}

func TestUnchangedTrueForMatchingContent(t *testing.T) {
	c := New(10, 1<<20)
	c.Set("a.py", entryWithSource("print(1)"))

	assert.True(t, c.Unchanged("a.py", []byte("print(1)")))
}

func TestUnchangedFalseForDifferentContent(t *testing.T) {
	c := New(10, 1<<20)
	c.Set("a.py", entryWithSource("print(1)"))

	assert.False(t, c.Unchanged("a.py", []byte("print(2)")))
}

func TestUnchangedFalseForUncachedPath(t *testing.T) {
	c := New(10, 1<<20)
	assert.False(t, c.Unchanged("missing.py", []byte("print(1)")))
}

func TestUnchangedDoesNotPromoteLRUOrder(t *testing.T) {
	c := New(2, 1<<20)
	c.Set("a.py", entryWithSource("a"))
	c.Set("b.py", entryWithSource("b"))

	// Unlike Get, Unchanged is a peek: it must not move a.py to the back
	// of the LRU order, so a.py (not b.py) is still evicted next.
	_ = c.Unchanged("a.py", []byte("a"))
	c.Set("c.py", entryWithSource("c"))

	assert.False(t, c.Contains("a.py"))
	assert.True(t, c.Contains("c.py"))
}

func TestMemoryPressureEviction(t *testing.T) {
	// Each entry costs len(source)+256 bytes; a tiny ceiling forces the
	// 10%-of-entries memory eviction path even under the entry-count cap.
	c := New(100, 300)
	for i := 0; i < 10; i++ {
		c.Set(string(rune('a'+i))+".py", entryWithSource("x"))
	}
	assert.Less(t, c.Len(), 10)
}
