package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/cpg/internal/types"
)

// TestMain guards against goroutine leaks from Manager's singleflight
// dedup path, the one piece of background-coordination state this
// package owns.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}

func TestSupportedListsTenLanguages(t *testing.T) {
	got := Supported()
	assert.Len(t, got, 10)
	want := map[types.Language]bool{
		types.LangPython: true, types.LangJavaScript: true, types.LangTypeScript: true,
		types.LangJava: true, types.LangRust: true, types.LangGo: true, types.LangCPP: true,
		types.LangC: true, types.LangLua: true, types.LangScala: true,
	}
	for _, lang := range got {
		assert.True(t, want[lang], "unexpected language %s in Supported()", lang)
		delete(want, lang)
	}
	assert.Empty(t, want, "Supported() missed some languages")
}

func TestManagerHandleBuildsAndCachesEveryLanguage(t *testing.T) {
	m := NewManager()
	for _, lang := range Supported() {
		h, err := m.Handle(lang)
		require.NoError(t, err, "building handle for %s", lang)
		require.NotNil(t, h)
		assert.Equal(t, lang, h.Language)
		assert.NotNil(t, h.Lang)
		assert.NotNil(t, h.Queries.Definitions)
		assert.NotNil(t, h.Queries.Calls)
		assert.NotNil(t, h.Queries.Imports)

		again, err := m.Handle(lang)
		require.NoError(t, err)
		assert.Same(t, h, again, "Handle should return the cached instance on a second call")
	}
}

func TestManagerHandleInheritsQueryOnlyWhereSpecDeclaresOne(t *testing.T) {
	m := NewManager()

	withInherits, err := m.Handle(types.LangPython)
	require.NoError(t, err)
	assert.NotNil(t, withInherits.Queries.Inherits)

	withoutInherits, err := m.Handle(types.LangGo)
	require.NoError(t, err)
	assert.Nil(t, withoutInherits.Queries.Inherits)
}

func TestManagerHandleUnsupportedLanguageErrors(t *testing.T) {
	m := NewManager()
	_, err := m.Handle(types.Language("cobol"))
	assert.Error(t, err)
}

func TestManagerParserReturnsFreshParserPerCall(t *testing.T) {
	m := NewManager()
	p1, err := m.Parser(types.LangPython)
	require.NoError(t, err)
	p2, err := m.Parser(types.LangPython)
	require.NoError(t, err)
	assert.NotSame(t, p1, p2, "Parser must allocate a new *sitter.Parser per call")
}

func TestCompileQueryEmptySourceReturnsNilNil(t *testing.T) {
	q, err := compileQuery(nil, "")
	assert.NoError(t, err)
	assert.Nil(t, q)
}
