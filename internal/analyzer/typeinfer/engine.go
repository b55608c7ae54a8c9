package typeinfer

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/cpg/internal/registry"
	"github.com/standardbeagle/cpg/internal/types"
)

// Engine is the per-language contract §4.5 describes: build a local
// variable type map from a function/method body, and infer the return
// type of an arbitrary expression within it.
type Engine interface {
	BuildLocalVariableTypeMap(callerNode *sitter.Node, moduleQN types.QN, source []byte) types.LocalVarTypes
	InferExpressionReturnType(node *sitter.Node, moduleQN types.QN, source []byte, localVars types.LocalVarTypes) (string, bool)

	// InferCallReturnType infers what qn itself returns, by inspecting
	// its own defining method's return statements. CallResolver uses
	// this to resolve a.b().c() style chains (§4.6 step 3): b()'s
	// return type is what c can be looked up against.
	InferCallReturnType(qn types.QN) (string, bool)
}

// shared holds the state every per-language engine needs: the
// registry and import map to resolve candidate class names against,
// the inheritance map for self-attribute/return-type walks, a scoring
// policy, a recursion guard, and a memoization cache for method return
// types (mirroring _method_return_type_cache in type_inference.py).
type shared struct {
	reg       *registry.FunctionRegistry
	imports   types.ImportMap
	inherit   types.ClassInheritance
	scoring   ScoringPolicy
	guard     *Guard
	returnMemo map[string]string
}

func newShared(reg *registry.FunctionRegistry, imports types.ImportMap, inherit types.ClassInheritance, scoring ScoringPolicy) shared {
	if scoring == nil {
		scoring = DefaultScoringPolicy{}
	}
	return shared{
		reg:        reg,
		imports:    imports,
		inherit:    inherit,
		scoring:    scoring,
		guard:      NewGuard(),
		returnMemo: make(map[string]string),
	}
}

// collectAvailableClasses gathers candidate class simple-names visible
// from moduleQN: classes defined directly in the module, plus any
// class-typed names reachable through its import table. Ports
// _collect_available_classes.
func (s shared) collectAvailableClasses(moduleQN types.QN) []string {
	var names []string

	for _, entry := range s.reg.FindWithPrefix(moduleQN) {
		if entry.Kind != types.NodeClass {
			continue
		}
		if entry.QN.Parent() == moduleQN {
			names = append(names, entry.QN.LastSegment())
		}
	}

	aliases, ok := s.imports[moduleQN]
	if !ok {
		return names
	}
	for localName, target := range aliases {
		if kind, ok := s.reg.Get(target); ok && kind == types.NodeClass {
			names = append(names, localName)
		}
	}
	return names
}

func childText(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	return string(source[n.StartByte():n.EndByte()])
}
