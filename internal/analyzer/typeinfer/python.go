package typeinfer

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/cpg/internal/analyzer/methodlookup"
	"github.com/standardbeagle/cpg/internal/registry"
	"github.com/standardbeagle/cpg/internal/types"
)

// PythonEngine ports parsers/py/{type_inference,variable_analyzer,
// expression_analyzer}.py: parameter-name heuristic scoring, a single
// linear body walk for self-attribute assignments and for-loop
// element-type inference, and memoized method-return-type inference.
type PythonEngine struct {
	shared
	locator *methodlookup.Locator
}

// NewPythonEngine builds the full-depth Python engine (§4.5: "Python
// gets the deepest/most complete engine"). locator may be nil (e.g. in
// isolated unit tests); inferMethodReturnType then just reports "no
// return type found" instead of panicking.
func NewPythonEngine(reg *registry.FunctionRegistry, imports types.ImportMap, inherit types.ClassInheritance, scoring ScoringPolicy, locator *methodlookup.Locator) *PythonEngine {
	return &PythonEngine{shared: newShared(reg, imports, inherit, scoring), locator: locator}
}

// BuildLocalVariableTypeMap walks callerNode's parameter list and body
// once, populating parameter types, self-attribute types, and for-loop
// element types. Errors during the walk are swallowed per §7 (a
// partial map is better than none).
func (e *PythonEngine) BuildLocalVariableTypeMap(callerNode *sitter.Node, moduleQN types.QN, source []byte) types.LocalVarTypes {
	localVars := make(types.LocalVarTypes)
	if callerNode == nil {
		return localVars
	}

	e.inferParameterTypes(callerNode, localVars, moduleQN, source)
	e.traverseSinglePass(callerNode, localVars, moduleQN, source)

	return localVars
}

func (e *PythonEngine) inferParameterTypes(callerNode *sitter.Node, localVars types.LocalVarTypes, moduleQN types.QN, source []byte) {
	params := callerNode.ChildByFieldName("parameters")
	if params == nil {
		return
	}
	for i := uint(0); i < params.ChildCount(); i++ {
		e.processParameter(params.Child(i), localVars, moduleQN, source)
	}
}

func (e *PythonEngine) processParameter(param *sitter.Node, localVars types.LocalVarTypes, moduleQN types.QN, source []byte) {
	switch param.Kind() {
	case "identifier":
		name := childText(param, source)
		if name == "" || name == "self" || name == "cls" {
			return
		}
		if t := e.inferTypeFromParameterName(name, moduleQN); t != "" {
			localVars[name] = t
		}
	case "typed_parameter":
		nameNode := param.ChildByFieldName("name")
		if nameNode == nil && param.NamedChildCount() > 0 && param.NamedChild(0).Kind() == "identifier" {
			nameNode = param.NamedChild(0)
		}
		typeNode := param.ChildByFieldName("type")
		if nameNode == nil || typeNode == nil {
			return
		}
		localVars[childText(nameNode, source)] = childText(typeNode, source)
	}
}

func (e *PythonEngine) inferTypeFromParameterName(paramName string, moduleQN types.QN) string {
	candidates := e.collectAvailableClasses(moduleQN)
	return BestMatch(e.scoring, paramName, candidates)
}

// traverseSinglePass walks the body once collecting self.attr = ...
// assignments and `for x in y:` loop variable element types, avoiding
// the repeated traversals the original's comment flags as wasteful.
func (e *PythonEngine) traverseSinglePass(node *sitter.Node, localVars types.LocalVarTypes, moduleQN types.QN, source []byte) {
	stack := []*sitter.Node{node}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n.Kind() {
		case "assignment":
			e.processSelfAssignment(n, localVars, moduleQN, source)
		case "for_statement":
			e.analyzeForClause(n, localVars, moduleQN, source)
		}

		for i := uint(0); i < n.ChildCount(); i++ {
			stack = append(stack, n.Child(i))
		}
	}
}

func (e *PythonEngine) processSelfAssignment(assignment *sitter.Node, localVars types.LocalVarTypes, moduleQN types.QN, source []byte) {
	left := assignment.ChildByFieldName("left")
	right := assignment.ChildByFieldName("right")
	if left == nil || right == nil || left.Kind() != "attribute" {
		return
	}
	attrName := childText(left, source)
	if len(attrName) < 5 || attrName[:5] != "self." {
		return
	}
	if t, ok := e.InferExpressionReturnType(right, moduleQN, source, localVars); ok {
		localVars[attrName] = t
	}
}

func (e *PythonEngine) analyzeForClause(forNode *sitter.Node, localVars types.LocalVarTypes, moduleQN types.QN, source []byte) {
	left := forNode.ChildByFieldName("left")
	right := forNode.ChildByFieldName("right")
	if left == nil || right == nil || left.Kind() != "identifier" {
		return
	}
	loopVar := childText(left, source)
	if elemType := e.inferIterableElementType(right, localVars, moduleQN, source); elemType != "" {
		localVars[loopVar] = elemType
	}
}

func (e *PythonEngine) inferIterableElementType(iterable *sitter.Node, localVars types.LocalVarTypes, moduleQN types.QN, source []byte) string {
	if iterable.Kind() == "list" {
		for i := uint(0); i < iterable.ChildCount(); i++ {
			child := iterable.Child(i)
			if child.Kind() != "call" {
				continue
			}
			fn := child.ChildByFieldName("function")
			if fn == nil || fn.Kind() != "identifier" {
				continue
			}
			name := childText(fn, source)
			if name != "" && name[0] >= 'A' && name[0] <= 'Z' {
				return name
			}
		}
		return ""
	}
	if iterable.Kind() != "identifier" {
		return ""
	}
	varName := childText(iterable, source)
	if t, ok := localVars[varName]; ok && t != "list" {
		return t
	}
	return ""
}

// InferExpressionReturnType infers the type an expression evaluates
// to: a direct call to a known class acts as a constructor, a known
// local variable's recorded type passes through, and a method call on
// a typed receiver recurses into that method's body (guarded against
// cycles and memoized per QN).
func (e *PythonEngine) InferExpressionReturnType(node *sitter.Node, moduleQN types.QN, source []byte, localVars types.LocalVarTypes) (string, bool) {
	if node == nil {
		return "", false
	}

	switch node.Kind() {
	case "call":
		fn := node.ChildByFieldName("function")
		if fn == nil {
			return "", false
		}
		if fn.Kind() == "identifier" {
			name := childText(fn, source)
			for _, c := range e.collectAvailableClasses(moduleQN) {
				if c == name {
					return name, true
				}
			}
			return e.inferMethodReturnType(types.QN(string(moduleQN) + "." + name))
		}
		if fn.Kind() == "attribute" {
			object := fn.ChildByFieldName("object")
			attr := fn.ChildByFieldName("attribute")
			if object == nil || attr == nil {
				return "", false
			}
			objType, ok := e.InferExpressionReturnType(object, moduleQN, source, localVars)
			if !ok {
				return "", false
			}
			methodQN := types.QN(objType + "." + childText(attr, source))
			return e.inferMethodReturnType(methodQN)
		}
	case "identifier":
		if t, ok := localVars[childText(node, source)]; ok {
			return t, true
		}
	}
	return "", false
}

// inferMethodReturnType infers what methodQN's own body returns, by
// locating its defining node and walking its return statements. Ports
// _get_method_return_type_from_ast, memoized the same way
// _method_return_type_cache is in the original.
func (e *PythonEngine) inferMethodReturnType(methodQN types.QN) (string, bool) {
	key := string(methodQN)
	if cached, ok := e.returnMemo[key]; ok {
		return cached, cached != ""
	}

	release, ok := e.guard.Enter(key)
	if !ok {
		return "", false
	}
	defer release()

	if !e.reg.Contains(methodQN) {
		e.returnMemo[key] = ""
		return "", false
	}

	result := e.analyzeMethodReturnStatements(methodQN)
	e.returnMemo[key] = result
	return result, result != ""
}

// InferCallReturnType exposes inferMethodReturnType through the Engine
// interface, for CallResolver's chained-call step (§4.6 step 3).
func (e *PythonEngine) InferCallReturnType(qn types.QN) (string, bool) {
	return e.inferMethodReturnType(qn)
}

// analyzeMethodReturnStatements walks methodQN's body for return
// statements and infers a type from the first one that yields one,
// ports _analyze_method_return_statements / _analyze_return_expression.
func (e *PythonEngine) analyzeMethodReturnStatements(methodQN types.QN) string {
	node, source, ok := e.locator.Find(methodQN)
	if !ok {
		return ""
	}
	moduleQN := methodModuleQN(methodQN)
	localVars := e.BuildLocalVariableTypeMap(node, moduleQN, source)

	var result string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if result != "" {
			return
		}
		if n.Kind() == "return_statement" {
			if t, ok := e.analyzeReturnStatement(n, methodQN, moduleQN, source, localVars); ok {
				result = t
			}
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
			if result != "" {
				return
			}
		}
	}
	walk(node)
	return result
}

func (e *PythonEngine) analyzeReturnStatement(returnNode *sitter.Node, methodQN, moduleQN types.QN, source []byte, localVars types.LocalVarTypes) (string, bool) {
	for i := uint(0); i < returnNode.ChildCount(); i++ {
		child := returnNode.Child(i)
		if !child.IsNamed() {
			continue
		}
		if child.Kind() == "identifier" {
			name := childText(child, source)
			if name == "self" || name == "cls" {
				if classQN := methodClassName(methodQN); classQN != "" {
					return classQN, true
				}
				continue
			}
		}
		if t, ok := e.InferExpressionReturnType(child, moduleQN, source, localVars); ok {
			return t, true
		}
	}
	return "", false
}

func methodModuleQN(methodQN types.QN) types.QN {
	segs := methodQN.Segments()
	if len(segs) < 2 {
		return methodQN
	}
	return types.QN(strings.Join(segs[:len(segs)-2], types.SeparatorDot))
}

func methodClassName(methodQN types.QN) string {
	segs := methodQN.Segments()
	if len(segs) < 2 {
		return ""
	}
	return segs[len(segs)-2]
}
