package typeinfer

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/cpg/internal/registry"
	"github.com/standardbeagle/cpg/internal/types"
)

// GenericEngine covers JS/TS/Java with a structurally similar but
// shallower subset of PythonEngine (declared/typed parameters only,
// no self-attribute or for-loop element-type inference), and serves as
// the fallback for Rust/C++/C/Lua/Scala, per §4.5: "JS/TS and Java
// engines perform a structurally similar but language-appropriate
// subset".
type GenericEngine struct {
	shared
	paramTypeField string
	paramNameField string
}

// NewGenericEngine builds a moderate-depth engine. paramTypeField and
// paramNameField name the tree-sitter fields a typed parameter node
// uses for its type and name (languages vary; Java's is
// "type"/"name", TS/JS optional-typed params use "type"/"pattern").
// A parameter that is a bare identifier is its own name node.
func NewGenericEngine(reg *registry.FunctionRegistry, imports types.ImportMap, inherit types.ClassInheritance, scoring ScoringPolicy, paramNameField, paramTypeField string) *GenericEngine {
	return &GenericEngine{
		shared:         newShared(reg, imports, inherit, scoring),
		paramNameField: paramNameField,
		paramTypeField: paramTypeField,
	}
}

func (e *GenericEngine) BuildLocalVariableTypeMap(callerNode *sitter.Node, moduleQN types.QN, source []byte) types.LocalVarTypes {
	localVars := make(types.LocalVarTypes)
	if callerNode == nil {
		return localVars
	}

	params := callerNode.ChildByFieldName("parameters")
	if params == nil {
		return localVars
	}
	for i := uint(0); i < params.ChildCount(); i++ {
		param := params.Child(i)
		nameNode := param.ChildByFieldName(e.paramNameField)
		if nameNode == nil && param.Kind() == "identifier" {
			nameNode = param
		}
		typeNode := param.ChildByFieldName(e.paramTypeField)
		if nameNode == nil {
			continue
		}
		name := childText(nameNode, source)
		if typeNode != nil {
			localVars[name] = childText(typeNode, source)
			continue
		}
		if t := BestMatch(e.scoring, name, e.collectAvailableClasses(moduleQN)); t != "" {
			localVars[name] = t
		}
	}
	return localVars
}

// InferExpressionReturnType handles the one case every language shares
// unambiguously: a call to an identifier matching a known class name
// in scope is a constructor call.
func (e *GenericEngine) InferExpressionReturnType(node *sitter.Node, moduleQN types.QN, source []byte, localVars types.LocalVarTypes) (string, bool) {
	if node == nil {
		return "", false
	}
	if node.Kind() == "identifier" {
		if t, ok := localVars[childText(node, source)]; ok {
			return t, true
		}
	}

	fn := node.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "identifier" {
		return "", false
	}
	name := childText(fn, source)
	for _, c := range e.collectAvailableClasses(moduleQN) {
		if c == name {
			return name, true
		}
	}
	return "", false
}

// InferCallReturnType has no AST-node locator wired for JS/TS/Java and
// the rest of GenericEngine's languages (§4.5: Python gets the
// deepest engine); a chained call in these languages falls through to
// CallResolver's import/same-module/trie steps instead.
func (e *GenericEngine) InferCallReturnType(types.QN) (string, bool) {
	return "", false
}
