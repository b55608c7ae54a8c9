package typeinfer

import (
	"testing"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/cpg/internal/grammar"
	"github.com/standardbeagle/cpg/internal/registry"
	"github.com/standardbeagle/cpg/internal/types"
)

func findKind(n *sitter.Node, kind string) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.Kind() == kind {
		return n
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if found := findKind(n.Child(i), kind); found != nil {
			return found
		}
	}
	return nil
}

func TestGenericEngineJavaTypedParameterUsesDeclaredType(t *testing.T) {
	reg := registry.New()
	e := NewGenericEngine(reg, make(types.ImportMap), make(types.ClassInheritance), DefaultScoringPolicy{}, "name", "type")

	m := grammar.NewManager()
	p, err := m.Parser(types.LangJava)
	require.NoError(t, err)
	source := []byte("class C { void run(Connection conn) {} }")
	tree := p.Parse(source, nil)
	require.NotNil(t, tree)

	method := findKind(tree.RootNode(), "method_declaration")
	require.NotNil(t, method)

	localVars := e.BuildLocalVariableTypeMap(method, "project.mod", source)
	assert.Equal(t, "Connection", localVars["conn"])
}

func TestGenericEngineFallsBackToNameHeuristicWhenUntyped(t *testing.T) {
	reg := registry.New()
	reg.Insert("project.mod.Widget", types.NodeClass)
	e := NewGenericEngine(reg, make(types.ImportMap), make(types.ClassInheritance), DefaultScoringPolicy{}, "pattern", "type")

	m := grammar.NewManager()
	p, err := m.Parser(types.LangJavaScript)
	require.NoError(t, err)
	source := []byte("function render(widget) {}")
	tree := p.Parse(source, nil)
	require.NotNil(t, tree)

	fn := findKind(tree.RootNode(), "function_declaration")
	require.NotNil(t, fn)

	localVars := e.BuildLocalVariableTypeMap(fn, "project.mod", source)
	assert.Equal(t, "Widget", localVars["widget"])
}

func TestGenericEngineInferExpressionReturnTypeConstructorCall(t *testing.T) {
	reg := registry.New()
	reg.Insert("project.mod.Widget", types.NodeClass)
	e := NewGenericEngine(reg, make(types.ImportMap), make(types.ClassInheritance), DefaultScoringPolicy{}, "pattern", "type")

	m := grammar.NewManager()
	p, err := m.Parser(types.LangJavaScript)
	require.NoError(t, err)
	source := []byte("Widget();")
	tree := p.Parse(source, nil)
	require.NotNil(t, tree)

	call := findKind(tree.RootNode(), "call_expression")
	require.NotNil(t, call)

	typ, ok := e.InferExpressionReturnType(call, "project.mod", source, nil)
	assert.True(t, ok)
	assert.Equal(t, "Widget", typ)
}
