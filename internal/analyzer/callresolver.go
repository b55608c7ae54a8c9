package analyzer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/standardbeagle/cpg/internal/registry"
	"github.com/standardbeagle/cpg/internal/types"
)

// CallResolver resolves a call site's syntactic head into a qualified
// callee name, in the ordered-steps shape of parsers/call_resolver.py:
// IIFE shortcut, super call, method-chain, import-driven resolution,
// same-module fallback, and finally the simple-name trie fallback.
type CallResolver struct {
	reg     *registry.FunctionRegistry
	imports types.ImportMap
	inherit types.ClassInheritance
}

// NewCallResolver builds a resolver bound to one project's registry,
// import map, and inheritance map (all owned by GraphUpdater).
func NewCallResolver(reg *registry.FunctionRegistry, imports types.ImportMap, inherit types.ClassInheritance) *CallResolver {
	return &CallResolver{reg: reg, imports: imports, inherit: inherit}
}

// Resolution is the resolver's result: the callee's kind and QN.
type Resolution struct {
	Kind types.NodeKind
	QN   types.QN
}

func (c *CallResolver) lookup(qn types.QN) (Resolution, bool) {
	kind, ok := c.reg.Get(qn)
	if !ok {
		return Resolution{}, false
	}
	return Resolution{Kind: kind, QN: qn}, true
}

const (
	keywordSuper       = "super"
	keywordConstructor = "__init__"
	iifeFuncPrefix     = "(function"
	iifeArrowPrefix    = "(() =>"
	builtinPrefix      = "<builtins>"
)

// Resolve is the single entry point (resolve_function_call).
// returnTypeOf infers what a resolved callee QN itself returns
// (typically a typeinfer.Engine's InferCallReturnType); it may be nil,
// in which case a method-chain call site with an inner call as its
// receiver simply fails the chain step and falls through to the later
// steps, same as before this was wired in.
func (c *CallResolver) Resolve(callName string, moduleQN types.QN, localVarTypes types.LocalVarTypes, classContext types.QN, returnTypeOf func(types.QN) (string, bool)) (Resolution, bool) {
	if r, ok := c.tryResolveIIFE(callName, moduleQN); ok {
		return r, ok
	}
	if c.isSuperCall(callName) {
		return c.resolveSuperCall(callName, classContext)
	}
	if strings.Contains(callName, ".") && c.isMethodChain(callName) {
		if r, ok := c.resolveChainedCall(callName, moduleQN, classContext, localVarTypes, returnTypeOf); ok {
			return r, ok
		}
	}
	if r, ok := c.tryResolveViaImports(callName, moduleQN, localVarTypes); ok {
		return r, ok
	}
	if r, ok := c.tryResolveSameModule(callName, moduleQN); ok {
		return r, ok
	}
	return c.tryResolveViaTrie(callName, moduleQN)
}

func (c *CallResolver) tryResolveIIFE(callName string, moduleQN types.QN) (Resolution, bool) {
	if callName == "" {
		return Resolution{}, false
	}
	if !strings.HasPrefix(callName, iifeFuncPrefix) && !strings.HasPrefix(callName, iifeArrowPrefix) {
		return Resolution{}, false
	}
	return c.lookup(types.QN(string(moduleQN) + "." + callName))
}

func (c *CallResolver) isSuperCall(callName string) bool {
	return callName == keywordSuper || strings.HasPrefix(callName, keywordSuper+".") || strings.HasPrefix(callName, keywordSuper+"()")
}

func (c *CallResolver) tryResolveViaImports(callName string, moduleQN types.QN, localVarTypes types.LocalVarTypes) (Resolution, bool) {
	importMap, ok := c.imports[moduleQN]
	if !ok {
		return Resolution{}, false
	}
	if r, ok := c.tryResolveDirectImport(callName, importMap); ok {
		return r, ok
	}
	if r, ok := c.tryResolveQualifiedCall(callName, importMap, moduleQN, localVarTypes); ok {
		return r, ok
	}
	return c.tryResolveWildcardImports(callName, importMap)
}

func (c *CallResolver) tryResolveDirectImport(callName string, importMap map[string]types.QN) (Resolution, bool) {
	qn, ok := importMap[callName]
	if !ok {
		return Resolution{}, false
	}
	return c.lookup(qn)
}

func hasSeparator(callName string) bool {
	return strings.Contains(callName, ".") || strings.Contains(callName, "::") || strings.Contains(callName, ":")
}

func getSeparator(callName string) string {
	if strings.Contains(callName, "::") {
		return "::"
	}
	if strings.Contains(callName, ":") {
		return ":"
	}
	return "."
}

func (c *CallResolver) tryResolveQualifiedCall(callName string, importMap map[string]types.QN, moduleQN types.QN, localVarTypes types.LocalVarTypes) (Resolution, bool) {
	if !hasSeparator(callName) {
		return Resolution{}, false
	}
	sep := getSeparator(callName)
	parts := strings.Split(callName, sep)

	if len(parts) == 2 {
		if r, ok := c.resolveTwoPartCall(parts, callName, sep, importMap, moduleQN, localVarTypes); ok {
			return r, ok
		}
	}
	if len(parts) >= 3 && parts[0] == "self" {
		return c.resolveSelfAttributeCall(parts, importMap, moduleQN, localVarTypes)
	}
	return c.resolveMultiPartCall(parts, importMap, moduleQN, localVarTypes)
}

func (c *CallResolver) tryResolveWildcardImports(callName string, importMap map[string]types.QN) (Resolution, bool) {
	for localName, importedQN := range importMap {
		if !strings.HasPrefix(localName, "*") {
			continue
		}
		if r, ok := c.tryWildcardQNs(callName, importedQN); ok {
			return r, ok
		}
	}
	return Resolution{}, false
}

func (c *CallResolver) tryWildcardQNs(callName string, importedQN types.QN) (Resolution, bool) {
	var candidates []types.QN
	if !strings.Contains(string(importedQN), "::") {
		candidates = append(candidates, types.QN(string(importedQN)+"."+callName))
	}
	candidates = append(candidates, types.QN(string(importedQN)+"::"+callName))

	for _, qn := range candidates {
		if r, ok := c.lookup(qn); ok {
			return r, ok
		}
	}
	return Resolution{}, false
}

func (c *CallResolver) tryResolveSameModule(callName string, moduleQN types.QN) (Resolution, bool) {
	return c.lookup(types.QN(string(moduleQN) + "." + callName))
}

var trailingSegment = regexp.MustCompile(`[.:]+`)

func (c *CallResolver) tryResolveViaTrie(callName string, moduleQN types.QN) (Resolution, bool) {
	segs := trailingSegment.Split(callName, -1)
	searchName := segs[len(segs)-1]

	matches := c.reg.FindEndingWith(searchName)
	if len(matches) == 0 {
		return Resolution{}, false
	}

	sort.Slice(matches, func(i, j int) bool {
		return c.importDistance(matches[i], moduleQN) < c.importDistance(matches[j], moduleQN)
	})
	return c.lookup(matches[0])
}

func (c *CallResolver) resolveClassQNFromType(varType string, importMap map[string]types.QN, moduleQN types.QN) (types.QN, bool) {
	if varType == "" {
		return "", false
	}
	if qn, ok := importMap[varType]; ok {
		return qn, true
	}
	direct := types.QN(string(moduleQN) + "." + varType)
	if c.reg.Contains(direct) {
		return direct, true
	}
	if matches := c.reg.FindEndingWith(varType); len(matches) > 0 {
		return matches[0], true
	}
	return "", false
}

func (c *CallResolver) resolveTwoPartCall(parts []string, callName, sep string, importMap map[string]types.QN, moduleQN types.QN, localVarTypes types.LocalVarTypes) (Resolution, bool) {
	objectName, methodName := parts[0], parts[1]

	if varType, ok := localVarTypes[objectName]; ok {
		if classQN, ok := c.resolveClassQNFromType(varType, importMap, moduleQN); ok {
			methodQN := types.QN(string(classQN) + sep + methodName)
			if r, ok := c.lookup(methodQN); ok {
				return r, ok
			}
			if r, ok := c.resolveInheritedMethod(classQN, methodName); ok {
				return r, ok
			}
		}
		if jsBuiltinTypes[varType] {
			return Resolution{Kind: types.NodeFunction, QN: types.QN(builtinPrefix + "." + varType + ".prototype." + methodName)}, true
		}
	}

	if classQN, ok := importMap[objectName]; ok {
		if strings.Contains(string(classQN), "::") {
			rustParts := strings.Split(string(classQN), "::")
			className := rustParts[len(rustParts)-1]
			for _, qn := range c.reg.FindEndingWith(className) {
				if kind, _ := c.reg.Get(qn); kind == types.NodeClass {
					classQN = qn
					break
				}
			}
		}

		registrySep := "."
		if sep == ":" {
			registrySep = ":"
		}
		methodQN := types.QN(string(classQN) + registrySep + methodName)
		if r, ok := c.lookup(methodQN); ok {
			return r, ok
		}
	}

	methodQN := types.QN(string(moduleQN) + "." + methodName)
	return c.lookup(methodQN)
}

func (c *CallResolver) resolveSelfAttributeCall(parts []string, importMap map[string]types.QN, moduleQN types.QN, localVarTypes types.LocalVarTypes) (Resolution, bool) {
	attributeRef := strings.Join(parts[:len(parts)-1], ".")
	methodName := parts[len(parts)-1]

	varType, ok := localVarTypes[attributeRef]
	if !ok {
		return Resolution{}, false
	}
	classQN, ok := c.resolveClassQNFromType(varType, importMap, moduleQN)
	if !ok {
		return Resolution{}, false
	}
	methodQN := types.QN(string(classQN) + "." + methodName)
	if r, ok := c.lookup(methodQN); ok {
		return r, ok
	}
	return c.resolveInheritedMethod(classQN, methodName)
}

func (c *CallResolver) resolveMultiPartCall(parts []string, importMap map[string]types.QN, moduleQN types.QN, localVarTypes types.LocalVarTypes) (Resolution, bool) {
	className := parts[0]
	methodName := strings.Join(parts[1:], ".")

	if classQN, ok := importMap[className]; ok {
		methodQN := types.QN(string(classQN) + "." + methodName)
		if r, ok := c.lookup(methodQN); ok {
			return r, ok
		}
	}

	if varType, ok := localVarTypes[className]; ok {
		if classQN, ok := c.resolveClassQNFromType(varType, importMap, moduleQN); ok {
			methodQN := types.QN(string(classQN) + "." + methodName)
			if r, ok := c.lookup(methodQN); ok {
				return r, ok
			}
			if r, ok := c.resolveInheritedMethod(classQN, methodName); ok {
				return r, ok
			}
		}
	}
	return Resolution{}, false
}

var jsBuiltinTypes = map[string]bool{
	"Array": true, "String": true, "Number": true, "Boolean": true,
	"Object": true, "Map": true, "Set": true, "Promise": true,
}

var jsBuiltinPatterns = map[string]bool{
	"parseInt": true, "parseFloat": true, "isNaN": true, "setTimeout": true, "setInterval": true,
}

var cppOperators = map[string]string{
	"operator+": builtinPrefix + ".operator.add",
	"operator-": builtinPrefix + ".operator.sub",
	"operator==": builtinPrefix + ".operator.eq",
	"operator!=": builtinPrefix + ".operator.neq",
	"operator<<": builtinPrefix + ".operator.shl",
}

// ResolveBuiltinCall is the §4.6 step 7 language built-ins fallback.
func (c *CallResolver) ResolveBuiltinCall(callName string) (Resolution, bool) {
	if jsBuiltinPatterns[callName] {
		return Resolution{Kind: types.NodeFunction, QN: types.QN(builtinPrefix + "." + callName)}, true
	}
	for _, suffix := range []string{".bind", ".call", ".apply"} {
		if strings.HasSuffix(callName, suffix) {
			return Resolution{Kind: types.NodeFunction, QN: types.QN(builtinPrefix + ".Function.prototype." + suffix[1:])}, true
		}
	}
	if strings.Contains(callName, ".prototype.") && (strings.HasSuffix(callName, ".call") || strings.HasSuffix(callName, ".apply")) {
		base := callName[:strings.LastIndex(callName, ".")]
		return Resolution{Kind: types.NodeFunction, QN: types.QN(base)}, true
	}
	return Resolution{}, false
}

// ResolveCppOperatorCall is the curated-map-or-best-match fallback for
// C++ operator-overload call forms.
func (c *CallResolver) ResolveCppOperatorCall(callName string, moduleQN types.QN) (Resolution, bool) {
	if !strings.HasPrefix(callName, "operator") {
		return Resolution{}, false
	}
	if qn, ok := cppOperators[callName]; ok {
		return Resolution{Kind: types.NodeFunction, QN: types.QN(qn)}, true
	}

	matches := c.reg.FindEndingWith(callName)
	if len(matches) == 0 {
		return Resolution{}, false
	}

	var sameModule []types.QN
	for _, qn := range matches {
		if strings.HasPrefix(string(qn), string(moduleQN)) {
			sameModule = append(sameModule, qn)
		}
	}
	candidates := matches
	if len(sameModule) > 0 {
		candidates = sameModule
	}
	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i]) != len(candidates[j]) {
			return len(candidates[i]) < len(candidates[j])
		}
		return candidates[i] < candidates[j]
	})
	return c.lookup(candidates[0])
}

func (c *CallResolver) isMethodChain(callName string) bool {
	if !strings.Contains(callName, "(") || !strings.Contains(callName, ")") {
		return false
	}
	parts := strings.Split(callName, ".")
	methodCalls := 0
	for _, p := range parts {
		if strings.Contains(p, "(") && strings.Contains(p, ")") {
			methodCalls++
		}
	}
	return methodCalls >= 1 && len(parts) >= 2
}

var finalMethodRe = regexp.MustCompile(`\.([^.()]+)$`)

// ResolveChainedCall resolves a.b().c() style call chains by asking
// inferObjectType (typically a typeinfer.Engine's
// InferExpressionReturnType) for the receiver expression's type.
func (c *CallResolver) ResolveChainedCall(callName string, moduleQN types.QN, inferObjectType func(expr string) (string, bool)) (Resolution, bool) {
	loc := finalMethodRe.FindStringSubmatchIndex(callName)
	if loc == nil {
		return Resolution{}, false
	}
	finalMethod := callName[loc[2]:loc[3]]
	objectExpr := callName[:loc[0]]

	objectType, ok := inferObjectType(objectExpr)
	if !ok || objectType == "" {
		return Resolution{}, false
	}

	fullObjectType := objectType
	if !strings.Contains(objectType, ".") {
		if resolved, ok := c.resolveClassName(objectType, moduleQN); ok {
			fullObjectType = resolved
		}
	}

	methodQN := types.QN(fullObjectType + "." + finalMethod)
	if r, ok := c.lookup(methodQN); ok {
		return r, ok
	}
	return c.resolveInheritedMethod(types.QN(fullObjectType), finalMethod)
}

// resolveChainedCall backs ResolveChainedCall's inferObjectType with
// the two cases _infer_object_type_for_chained_call distinguishes: a
// bare local variable's recorded type, or — when the receiver
// expression is itself a call, i.e. a longer chain like
// "a.b().c().d()" — resolving that inner call's own qualified name and
// asking returnTypeOf what it returns.
func (c *CallResolver) resolveChainedCall(callName string, moduleQN, _ types.QN, localVarTypes types.LocalVarTypes, returnTypeOf func(types.QN) (string, bool)) (Resolution, bool) {
	return c.ResolveChainedCall(callName, moduleQN, func(expr string) (string, bool) {
		if !strings.Contains(expr, "(") {
			if t, ok := localVarTypes[expr]; ok {
				return t, ok
			}
			return "", false
		}
		if returnTypeOf == nil {
			return "", false
		}
		methodQN, ok := c.resolveMethodQualifiedName(expr, moduleQN, localVarTypes)
		if !ok {
			return "", false
		}
		return returnTypeOf(methodQN)
	})
}

// resolveMethodQualifiedName resolves a method-call expression such as
// "self.getWidget()" to the QN of the method it calls,
// without requiring that method to already be resolvable through
// Resolve's full step order — only a class-qualified lookup is needed
// here, mirroring _resolve_method_qualified_name: a 2-part
// "obj.method(...)" call resolves obj either as a local variable's
// type or as a class name directly; 3+ parts starting with "self"
// additionally tries the self-attribute's recorded type; anything else
// falls back to treating the second-to-last part as the class name,
// so a chain such as "a.b().c()" (second-to-last part "b()") does not
// resolve here.
// Trailing call-invocation syntax ("(...)") is always stripped off the
// final part before it is used as a method name, since registry QNs
// never include it.
func (c *CallResolver) resolveMethodQualifiedName(expr string, moduleQN types.QN, localVarTypes types.LocalVarTypes) (types.QN, bool) {
	if !strings.Contains(expr, ".") {
		return "", false
	}
	parts := strings.Split(expr, ".")
	if len(parts) < 2 {
		return "", false
	}
	importMap := c.imports[moduleQN]

	tryClass := func(className, methodName string) (types.QN, bool) {
		if className == "" || methodName == "" {
			return "", false
		}
		classQN, ok := c.resolveClassQNFromType(className, importMap, moduleQN)
		if !ok {
			return "", false
		}
		methodQN := types.QN(string(classQN) + "." + methodName)
		if kind, ok := c.reg.Get(methodQN); ok && kind == types.NodeMethod {
			return methodQN, true
		}
		return c.resolveInheritedMethod(classQN, methodName)
	}

	if len(parts) == 2 {
		objectName, methodName := parts[0], stripCallArgs(parts[1])
		if varType, ok := localVarTypes[objectName]; ok {
			if qn, ok := tryClass(varType, methodName); ok {
				return qn, true
			}
		}
		return tryClass(objectName, methodName)
	}

	if parts[0] == "self" {
		attrRef := strings.Join(parts[:len(parts)-1], ".")
		if varType, ok := localVarTypes[attrRef]; ok {
			if qn, ok := tryClass(varType, stripCallArgs(parts[len(parts)-1])); ok {
				return qn, true
			}
		}
	}

	return tryClass(parts[len(parts)-2], stripCallArgs(parts[len(parts)-1]))
}

// stripCallArgs trims a trailing "(...)" invocation off name, since a
// method-chain segment like "getWidget()" carries call syntax that a
// registry QN never does.
func stripCallArgs(name string) string {
	if i := strings.Index(name, "("); i >= 0 {
		return name[:i]
	}
	return name
}

func (c *CallResolver) resolveClassName(className string, moduleQN types.QN) (string, bool) {
	if qn, ok := c.resolveClassQNFromType(className, c.imports[moduleQN], moduleQN); ok {
		return string(qn), true
	}
	return "", false
}

func (c *CallResolver) resolveSuperCall(callName string, classContext types.QN) (Resolution, bool) {
	var methodName string
	switch {
	case callName == keywordSuper:
		methodName = keywordConstructor
	case strings.Contains(callName, "."):
		methodName = strings.SplitN(callName, ".", 2)[1]
	default:
		return Resolution{}, false
	}

	if classContext == "" {
		return Resolution{}, false
	}
	parents, ok := c.inherit[classContext]
	if !ok || len(parents) == 0 {
		return Resolution{}, false
	}
	return c.resolveInheritedMethod(classContext, methodName)
}

// resolveInheritedMethod does a nearest-ancestor BFS over the class's
// parent chain, visited-guarded for diamond/cycle safety.
func (c *CallResolver) resolveInheritedMethod(classQN types.QN, methodName string) (Resolution, bool) {
	parents, ok := c.inherit[classQN]
	if !ok {
		return Resolution{}, false
	}

	queue := append([]types.QN{}, parents...)
	visited := make(map[types.QN]bool, len(queue))
	for _, p := range queue {
		visited[p] = true
	}

	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]

		methodQN := types.QN(string(parent) + "." + methodName)
		if r, ok := c.lookup(methodQN); ok {
			return r, ok
		}

		for _, grandparent := range c.inherit[parent] {
			if !visited[grandparent] {
				visited[grandparent] = true
				queue = append(queue, grandparent)
			}
		}
	}
	return Resolution{}, false
}

// importDistance scores candidateQN's closeness to callerModuleQN by
// shared QN prefix, with a one-step discount for same-package siblings.
func (c *CallResolver) importDistance(candidateQN types.QN, callerModuleQN types.QN) int {
	callerParts := callerModuleQN.Segments()
	candidateParts := candidateQN.Segments()

	commonPrefix := 0
	minLen := len(callerParts)
	if len(candidateParts) < minLen {
		minLen = len(candidateParts)
	}
	for i := 0; i < minLen; i++ {
		if callerParts[i] != candidateParts[i] {
			break
		}
		commonPrefix++
	}

	maxLen := len(callerParts)
	if len(candidateParts) > maxLen {
		maxLen = len(candidateParts)
	}
	distance := maxLen - commonPrefix

	if len(callerParts) > 0 {
		siblingPrefix := strings.Join(callerParts[:len(callerParts)-1], ".") + "."
		if strings.HasPrefix(string(candidateQN), siblingPrefix) {
			distance--
		}
	}
	return distance
}
