package analyzer

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/cpg/internal/analyzer/typeinfer"
	"github.com/standardbeagle/cpg/internal/errors"
	"github.com/standardbeagle/cpg/internal/ingestor"
	"github.com/standardbeagle/cpg/internal/logx"
	"github.com/standardbeagle/cpg/internal/types"
)

// callLikeKinds are the call-expression node kinds across the ten
// supported languages.
var callLikeKinds = map[string]bool{
	"call":             true, // python
	"call_expression":  true, // js/ts/rust/cpp/c/scala
	"method_invocation": true, // java
	"function_call":    true, // lua
}

// CallProcessor implements pass 3 (§4.7): walk each cached AST,
// extract call sites and their enclosing caller QN, derive call_name
// from the syntactic head, resolve it via CallResolver (with a
// per-language type-inference engine wired in for method-chain
// resolution), and emit CALLS edges.
type CallProcessor struct {
	sink     ingestor.Sink
	resolver *CallResolver
	engine   typeinfer.Engine
	lang     types.Language
	emitted  int
	moduleQN types.QN
}

// NewCallProcessor builds a CallProcessor for one (language, module)
// pair. The caller constructs a fresh engine per file via
// typeinfer.New so the engine's registry/import/inheritance views
// match the state at call-resolution time.
func NewCallProcessor(sink ingestor.Sink, resolver *CallResolver, engine typeinfer.Engine, lang types.Language) *CallProcessor {
	return &CallProcessor{sink: sink, resolver: resolver, engine: engine, lang: lang}
}

type callFrame struct {
	qn         types.QN
	classQN    types.QN
	isFunction bool
}

// Process walks root (module moduleQN, source file content source)
// emitting CALLS edges for resolved call sites, and returns the
// number of edges it emitted. Calls outside any function are attributed
// to the module. Calls inside a function or class that is nested within
// a function body are not visited. Unresolved calls emit no edge and
// are logged at debug.
func (p *CallProcessor) Process(root *sitter.Node, moduleQN types.QN, source []byte) (int, error) {
	if root == nil {
		return 0, nil
	}
	stack := []callFrame{{qn: moduleQN}}
	p.emitted = 0
	p.moduleQN = moduleQN
	err := p.walkNode(root, &stack, source)
	return p.emitted, err
}

func (p *CallProcessor) walkNode(n *sitter.Node, stack *[]callFrame, source []byte) error {
	current := (*stack)[len(*stack)-1]

	if classLikeKinds[n.Kind()] {
		if nameNode := firstNameField(n); nameNode != nil {
			classQN := types.QN(string(current.qn) + types.SeparatorDot + text(nameNode, source))
			*stack = append(*stack, callFrame{qn: classQN, classQN: classQN})
			defer func() { *stack = (*stack)[:len(*stack)-1] }()
			current = (*stack)[len(*stack)-1]
		}
	} else if isFunctionLikeKind(n.Kind()) {
		if nameNode := firstNameField(n); nameNode != nil {
			defQN := types.QN(string(current.qn) + types.SeparatorDot + text(nameNode, source))
			localVars := p.engine.BuildLocalVariableTypeMap(n, p.moduleQN, source)
			next := callFrame{qn: defQN, classQN: current.classQN, isFunction: true}
			*stack = append(*stack, next)
			defer func() { *stack = (*stack)[:len(*stack)-1] }()

			return p.walkCallsWithin(n, next, localVars, source)
		}
	}

	if callLikeKinds[n.Kind()] {
		moduleFrame := callFrame{qn: p.moduleQN, classQN: current.classQN}
		if err := p.emitCall(n, moduleFrame, types.LocalVarTypes{}, source); err != nil {
			return err
		}
	}

	for i := uint(0); i < n.ChildCount(); i++ {
		if err := p.walkNode(n.Child(i), stack, source); err != nil {
			return err
		}
	}
	return nil
}

// walkCallsWithin is entered once per function/method body, so
// localVars (built once via the memoizing type-inference engine) is
// reused for every call site inside rather than recomputed per call.
// It stops at nested function and class nodes, so their bodies are not
// walked.
func (p *CallProcessor) walkCallsWithin(n *sitter.Node, frame callFrame, localVars types.LocalVarTypes, source []byte) error {
	var err error
	walk(n, func(c *sitter.Node) bool {
		if err != nil {
			return false
		}
		if classLikeKinds[c.Kind()] || isFunctionLikeKind(c.Kind()) {
			return c == n
		}
		if callLikeKinds[c.Kind()] {
			if e := p.emitCall(c, frame, localVars, source); e != nil {
				err = e
			}
		}
		return true
	})
	return err
}

func (p *CallProcessor) emitCall(callNode *sitter.Node, frame callFrame, localVars types.LocalVarTypes, source []byte) error {
	callName := extractCallName(callNode, p.lang, source)
	if callName == "" {
		return nil
	}

	res, ok := p.resolver.Resolve(callName, p.moduleQN, localVars, frame.classQN, p.engine.InferCallReturnType)
	if !ok {
		res, ok = p.resolver.ResolveBuiltinCall(callName)
	}
	if !ok && (p.lang == types.LangCPP || p.lang == types.LangC) {
		res, ok = p.resolver.ResolveCppOperatorCall(callName, p.moduleQN)
	}
	if !ok {
		logx.Debugf("calls: unresolved call %q in %s", callName, frame.qn)
		return nil
	}

	callerRef := ingestor.NodeRef{Kind: callerKind(frame), QN: frame.qn}
	calleeRef := ingestor.NodeRef{Kind: res.Kind, QN: res.QN}
	if err := p.sink.EnsureRelationship(callerRef, types.EdgeCalls, calleeRef, nil); err != nil {
		return errors.New(errors.ErrorTypeIngest, "ensure calls edge", err)
	}
	p.emitted++
	return nil
}

func callerKind(frame callFrame) types.NodeKind {
	if !frame.isFunction {
		return types.NodeModule
	}
	if frame.classQN != "" {
		return types.NodeMethod
	}
	return types.NodeFunction
}

// extractCallName derives the syntactic call head text exactly as
// CallResolver expects it (e.g. "self.attr.method", "super.__init__",
// "a.b().c"): the raw source text of the callee expression, which
// already preserves dots/colons for attribute chains.
func extractCallName(callNode *sitter.Node, lang types.Language, source []byte) string {
	if fn := callNode.ChildByFieldName("function"); fn != nil {
		return text(fn, source)
	}
	if lang == types.LangJava {
		objectNode := callNode.ChildByFieldName("object")
		nameNode := callNode.ChildByFieldName("name")
		if nameNode == nil {
			return ""
		}
		if objectNode == nil {
			return text(nameNode, source)
		}
		return text(objectNode, source) + "." + text(nameNode, source)
	}
	if name := callNode.ChildByFieldName("name"); name != nil {
		return text(name, source)
	}
	return ""
}
