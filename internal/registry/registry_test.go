package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/cpg/internal/types"
)

func TestInsertAndGet(t *testing.T) {
	r := New()
	r.Insert("project.pkg.Class.method", types.NodeMethod)

	kind, ok := r.Get("project.pkg.Class.method")
	require.True(t, ok)
	assert.Equal(t, types.NodeMethod, kind)
	assert.Equal(t, 1, r.Len())
}

func TestInsertOverwriteDoesNotDoubleCount(t *testing.T) {
	r := New()
	r.Insert("project.pkg.Class", types.NodeClass)
	r.Insert("project.pkg.Class", types.NodeClass)
	assert.Equal(t, 1, r.Len())
}

func TestFindWithPrefix(t *testing.T) {
	r := New()
	r.Insert("project.pkg.Class", types.NodeClass)
	r.Insert("project.pkg.Class.method1", types.NodeMethod)
	r.Insert("project.pkg.Class.method2", types.NodeMethod)
	r.Insert("project.pkg.other", types.NodeFunction)

	entries := r.FindWithPrefix("project.pkg.Class")
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[string(e.QN)] = true
	}
	assert.Len(t, entries, 3)
	assert.True(t, names["project.pkg.Class"])
	assert.True(t, names["project.pkg.Class.method1"])
	assert.True(t, names["project.pkg.Class.method2"])
	assert.False(t, names["project.pkg.other"])
}

func TestFindWithPrefixUnknownReturnsNil(t *testing.T) {
	r := New()
	r.Insert("project.pkg.Class", types.NodeClass)
	assert.Nil(t, r.FindWithPrefix("project.nope"))
}

func TestFindEndingWith(t *testing.T) {
	r := New()
	r.Insert("project.a.run", types.NodeFunction)
	r.Insert("project.b.run", types.NodeFunction)
	r.Insert("project.c.other", types.NodeFunction)

	qns := r.FindEndingWith("run")
	assert.Len(t, qns, 2)

	assert.Empty(t, r.FindEndingWith("missing"))
}

func TestFindWithPrefixAndSuffix(t *testing.T) {
	r := New()
	r.Insert("project.a.Base.init", types.NodeMethod)
	r.Insert("project.a.Derived.init", types.NodeMethod)
	r.Insert("project.b.Other.init", types.NodeMethod)

	qns := r.FindWithPrefixAndSuffix("project.a", "init")
	assert.ElementsMatch(t, []types.QN{"project.a.Base.init", "project.a.Derived.init"}, qns)
}

func TestDeletePrunesTrieAndSimpleIndex(t *testing.T) {
	r := New()
	r.Insert("project.a.Class.method", types.NodeMethod)
	r.Delete("project.a.Class.method")

	assert.Equal(t, 0, r.Len())
	assert.False(t, r.Contains("project.a.Class.method"))
	assert.Empty(t, r.FindEndingWith("method"))
	assert.Empty(t, r.FindWithPrefix("project.a.Class"))
}

func TestDeleteUnknownIsNoop(t *testing.T) {
	r := New()
	r.Insert("project.a", types.NodeModule)
	r.Delete("project.nonexistent")
	assert.Equal(t, 1, r.Len())
}

func TestDeleteSiblingLeavesOtherBranchIntact(t *testing.T) {
	r := New()
	r.Insert("project.a.Class.method1", types.NodeMethod)
	r.Insert("project.a.Class.method2", types.NodeMethod)

	r.Delete("project.a.Class.method1")

	assert.False(t, r.Contains("project.a.Class.method1"))
	assert.True(t, r.Contains("project.a.Class.method2"))
	assert.Equal(t, 1, r.Len())
}

func TestKeysSnapshotIsStableDuringMutation(t *testing.T) {
	r := New()
	r.Insert("project.a", types.NodeModule)
	r.Insert("project.b", types.NodeModule)

	keys := r.Keys()
	for _, k := range keys {
		r.Delete(k)
	}
	assert.Equal(t, 0, r.Len())
	assert.Len(t, keys, 2)
}
