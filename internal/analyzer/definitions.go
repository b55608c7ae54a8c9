package analyzer

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/cpg/internal/errors"
	"github.com/standardbeagle/cpg/internal/ingestor"
	"github.com/standardbeagle/cpg/internal/registry"
	"github.com/standardbeagle/cpg/internal/types"
)

// classLikeKinds are the node kinds that open a new "class context" for
// the methods nested inside them, per §4.4's method-qualification
// rule (the class's QN, not the module's, prefixes its methods).
var classLikeKinds = map[string]bool{
	"class_definition":   true, // python
	"class_declaration":  true, // js/ts/java
	"class_specifier":    true, // cpp
	"struct_specifier":   true, // cpp/c
	"interface_declaration": true,
	"enum_declaration":   true,
	"trait_definition":   true, // scala
	"object_definition":  true, // scala
	"trait_item":         true, // rust
	"impl_item":          true, // rust
	"struct_item":        true, // rust
}

// DefinitionProcessor implements pass 2 (§4.4 / §2 item 2): walk each
// AST once, emit DEFINES edges for every class/interface/enum/
// function/method, record QNs into the registry and simple-name
// index, and record ClassInheritance parents.
type DefinitionProcessor struct {
	sink    ingestor.Sink
	reg     *registry.FunctionRegistry
	inherit types.ClassInheritance
}

// NewDefinitionProcessor builds a DefinitionProcessor sharing reg and
// inherit with the rest of the driver (they are mutated in place).
func NewDefinitionProcessor(sink ingestor.Sink, reg *registry.FunctionRegistry, inherit types.ClassInheritance) *DefinitionProcessor {
	return &DefinitionProcessor{sink: sink, reg: reg, inherit: inherit}
}

// frame tracks the enclosing container while walking one file's AST:
// its QN, its node reference for DEFINES edges, and whether it is a
// class (methods defined under a class frame are NodeMethod, not
// NodeFunction).
type frame struct {
	qn      types.QN
	ref     ingestor.NodeRef
	isClass bool
}

// Process walks root (language lang, source file content source) and
// emits definitions under moduleQN. moduleRef is the Module node
// EnsureNode already created for this file (pass 2's orchestration
// creates it once per file before calling Process, so a failed
// EnsureNode never leaves a dangling container frame).
func (p *DefinitionProcessor) Process(lang types.Language, root *sitter.Node, moduleQN types.QN, moduleRef ingestor.NodeRef, source []byte) error {
	if root == nil {
		return nil
	}
	p.reg.Insert(moduleQN, types.NodeModule)
	stack := []frame{{qn: moduleQN, ref: moduleRef}}
	return p.walkNode(lang, root, &stack, source)
}

func (p *DefinitionProcessor) walkNode(lang types.Language, n *sitter.Node, stack *[]frame, source []byte) error {
	current := (*stack)[len(*stack)-1]

	if classLikeKinds[n.Kind()] {
		nameNode := firstNameField(n)
		if nameNode != nil {
			name := text(nameNode, source)
			classQN := types.QN(string(current.qn) + types.SeparatorDot + name)
			ref, err := p.sink.EnsureNode(types.NodeClass, map[string]any{
				"qn": string(classQN), "name": name, "kind": n.Kind(),
			})
			if err != nil {
				return errors.New(errors.ErrorTypeIngest, "ensure class node", err)
			}
			p.reg.Insert(classQN, types.NodeClass)
			if err := p.sink.EnsureRelationship(current.ref, types.EdgeDefines, ref, nil); err != nil {
				return errors.New(errors.ErrorTypeIngest, "ensure defines edge", err)
			}
			p.recordInheritance(n, (*stack)[0].qn, classQN, source)

			*stack = append(*stack, frame{qn: classQN, ref: ref, isClass: true})
			defer func() { *stack = (*stack)[:len(*stack)-1] }()
			current = (*stack)[len(*stack)-1]
		}
	} else if isFunctionLikeKind(n.Kind()) {
		nameNode := firstNameField(n)
		if nameNode != nil {
			name := text(nameNode, source)
			defQN := types.QN(string(current.qn) + types.SeparatorDot + name)
			kind := types.NodeFunction
			edgeKind := types.EdgeDefines
			if current.isClass {
				kind = types.NodeMethod
				edgeKind = types.EdgeDefinesMethod
			}
			ref, err := p.sink.EnsureNode(kind, map[string]any{
				"qn": string(defQN), "name": name, "static": false,
			})
			if err != nil {
				return errors.New(errors.ErrorTypeIngest, "ensure function node", err)
			}
			p.reg.Insert(defQN, kind)
			if err := p.sink.EnsureRelationship(current.ref, edgeKind, ref, nil); err != nil {
				return errors.New(errors.ErrorTypeIngest, "ensure defines edge", err)
			}

			// Nested functions inherit their enclosing function's QN
			// as prefix (§4.4), so push a non-class frame too.
			*stack = append(*stack, frame{qn: defQN, ref: ref})
			defer func() { *stack = (*stack)[:len(*stack)-1] }()
		}
	}

	for i := uint(0); i < n.ChildCount(); i++ {
		if err := p.walkNode(lang, n.Child(i), stack, source); err != nil {
			return err
		}
	}
	return nil
}

// firstNameField returns the node's "name" field, falling back to
// common alternate field names used by method-like declarators
// (Go's field_identifier name field is still "name"; C/C++ function
// declarators nest the identifier one level down under "declarator").
func firstNameField(n *sitter.Node) *sitter.Node {
	if name := n.ChildByFieldName("name"); name != nil {
		return name
	}
	if decl := n.ChildByFieldName("declarator"); decl != nil {
		if name := decl.ChildByFieldName("declarator"); name != nil {
			return name
		}
		return decl
	}
	if t := n.ChildByFieldName("type"); t != nil && (n.Kind() == "impl_item" || n.Kind() == "class_specifier") {
		return t
	}
	return nil
}

func isFunctionLikeKind(kind string) bool {
	switch kind {
	case "function_definition", "function_declaration", "function_item",
		"method_declaration", "method_definition", "local_function",
		"generator_function_declaration":
		return true
	}
	return false
}

// recordInheritance extracts the class's immediate parent clause(s)
// in source order and records them even when the parent name does not
// (yet) resolve to a known class QN — §4.4: "parents that are unknown
// symbols are still recorded by their source text".
func (p *DefinitionProcessor) recordInheritance(classNode *sitter.Node, moduleQN, classQN types.QN, source []byte) {
	var parents []types.QN

	switch classNode.Kind() {
	case "class_definition": // python
		if bases := classNode.ChildByFieldName("superclasses"); bases != nil {
			for i := uint(0); i < bases.ChildCount(); i++ {
				c := bases.Child(i)
				if c.Kind() == "identifier" {
					parents = append(parents, types.QN(text(c, source)))
				}
			}
		}
	case "class_declaration": // js/ts/java
		walk(classNode, func(n *sitter.Node) bool {
			if n == classNode {
				return true
			}
			switch n.Kind() {
			case "identifier", "type_identifier":
				if n.Parent() != nil && (n.Parent().Kind() == "class_heritage" ||
					n.Parent().Kind() == "extends_clause" || n.Parent().Kind() == "superclass") {
					parents = append(parents, types.QN(text(n, source)))
				}
			}
			return n.Kind() != "class_body"
		})
	case "struct_item", "impl_item": // rust
		if trait := classNode.ChildByFieldName("trait"); trait != nil {
			parents = append(parents, types.QN(text(trait, source)))
		}
	case "class_specifier": // cpp
		if base := findChildKind(classNode, "base_class_clause"); base != nil {
			for i := uint(0); i < base.ChildCount(); i++ {
				if c := base.Child(i); c.Kind() == "type_identifier" {
					parents = append(parents, types.QN(text(c, source)))
				}
			}
		}
	}

	if len(parents) == 0 {
		return
	}
	seen := make(map[types.QN]bool, len(parents))
	deduped := parents[:0]
	for _, par := range parents {
		resolved := p.resolveParentQN(moduleQN, par)
		if seen[resolved] {
			continue
		}
		seen[resolved] = true
		deduped = append(deduped, resolved)
	}
	p.inherit[classQN] = deduped
}

// resolveParentQN qualifies a bare base-class name against the
// registry: same-module first (the common case, since base classes
// usually precede or follow their subclass in the same file), then a
// best-effort FindEndingWith scan across the whole registry (mirrors
// CallResolver.resolveClassQNFromType's own same-module-then-any
// fallback order). A name that resolves nowhere is kept bare, per
// §4.4: "parents that are unknown symbols are still recorded by their
// source text".
func (p *DefinitionProcessor) resolveParentQN(moduleQN, bare types.QN) types.QN {
	if kind, ok := p.reg.Get(bare); ok && (kind == types.NodeClass || kind == types.NodeInterface) {
		return bare
	}
	sameModule := types.QN(string(moduleQN) + types.SeparatorDot + string(bare))
	if kind, ok := p.reg.Get(sameModule); ok && (kind == types.NodeClass || kind == types.NodeInterface) {
		return sameModule
	}
	for _, qn := range p.reg.FindEndingWith(string(bare)) {
		if kind, ok := p.reg.Get(qn); ok && (kind == types.NodeClass || kind == types.NodeInterface) {
			return qn
		}
	}
	return bare
}
