package methodlookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/cpg/internal/astcache"
	"github.com/standardbeagle/cpg/internal/grammar"
	"github.com/standardbeagle/cpg/internal/types"
)

func parsePython(t *testing.T, source string) (*astcache.Cache, string) {
	t.Helper()
	m := grammar.NewManager()
	p, err := m.Parser(types.LangPython)
	require.NoError(t, err)
	tree := p.Parse([]byte(source), nil)
	require.NotNil(t, tree)

	cache := astcache.New(10, 1<<20)
	cache.Set("widget.py", astcache.Entry{Tree: tree, Language: types.LangPython, Source: []byte(source)})
	return cache, "widget.py"
}

func TestLocatorFindsMethodInClass(t *testing.T) {
	source := "class Widget:\n    def render(self):\n        return self\n"
	cache, path := parsePython(t, source)
	l := New(cache, map[types.QN]string{"project.widget": path})

	node, src, ok := l.Find("project.widget.Widget.render")
	require.True(t, ok)
	assert.Equal(t, "function_definition", node.Kind())
	assert.Equal(t, source, string(src))
}

func TestLocatorMissesUnknownModule(t *testing.T) {
	source := "class Widget:\n    def render(self):\n        pass\n"
	cache, path := parsePython(t, source)
	l := New(cache, map[types.QN]string{"project.widget": path})

	_, _, ok := l.Find("project.other.Widget.render")
	assert.False(t, ok)
}

func TestLocatorMissesUnknownMethod(t *testing.T) {
	source := "class Widget:\n    def render(self):\n        pass\n"
	cache, path := parsePython(t, source)
	l := New(cache, map[types.QN]string{"project.widget": path})

	_, _, ok := l.Find("project.widget.Widget.missing")
	assert.False(t, ok)
}

func TestLocatorRejectsBareModuleFunction(t *testing.T) {
	source := "def helper():\n    pass\n"
	cache, path := parsePython(t, source)
	l := New(cache, map[types.QN]string{"project.widget": path})

	_, _, ok := l.Find("project.widget.helper")
	assert.False(t, ok)
}

func TestNilLocatorFindFails(t *testing.T) {
	var l *Locator
	_, _, ok := l.Find("project.widget.Widget.render")
	assert.False(t, ok)
}
