// Package methodlookup locates a method's defining AST node from its
// qualified name. It is the missing primitive behind method-return-type
// inference (§4.5 step 5 / §4.6 step 3): resolving a.b().c() style
// chains requires knowing what b() itself returns, and that can only
// come from walking b's own return statements — ported from
// expression_analyzer.py's _find_method_ast_node /
// _find_python_method_in_ast, minus the tree-sitter query layer (a
// plain recursive walk serves the same narrow lookup).
package methodlookup

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/cpg/internal/astcache"
	"github.com/standardbeagle/cpg/internal/types"
)

// classLikeKinds mirrors analyzer.classLikeKinds; duplicated here
// rather than shared because analyzer already imports typeinfer (which
// imports this package), and the table is a handful of stable
// tree-sitter node-kind names, not logic worth a shared dependency.
var classLikeKinds = kindSet{
	"class_definition":      true, // python
	"class_declaration":     true, // js/ts/java
	"class_specifier":       true, // cpp
	"struct_specifier":      true, // cpp/c
	"interface_declaration": true,
	"enum_declaration":      true,
	"trait_definition":      true, // scala
	"object_definition":     true, // scala
	"trait_item":            true, // rust
	"impl_item":             true, // rust
	"struct_item":           true, // rust
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

func nameField(n *sitter.Node) *sitter.Node {
	if name := n.ChildByFieldName("name"); name != nil {
		return name
	}
	if decl := n.ChildByFieldName("declarator"); decl != nil {
		if name := decl.ChildByFieldName("declarator"); name != nil {
			return name
		}
		return decl
	}
	return nil
}

// Locator resolves "...Class.method" qualified names to the AST node
// the method was defined by, via a module-QN to file-path index and
// the shared AST cache both owned by the driver.
type Locator struct {
	cache        *astcache.Cache
	pathByModule map[types.QN]string
}

// New builds a Locator over cache and pathByModule. Both are owned and
// mutated by the caller (GraphUpdater); Locator only ever reads them.
func New(cache *astcache.Cache, pathByModule map[types.QN]string) *Locator {
	return &Locator{cache: cache, pathByModule: pathByModule}
}

// Find returns methodQN's defining node and the source bytes it was
// parsed from. It only handles class methods ("module.Class.method",
// 3+ segments) — a bare module-level function has no class frame to
// search, and CallResolver's same-module fallback already resolves
// those directly through the registry without needing a return type.
func (l *Locator) Find(methodQN types.QN) (*sitter.Node, []byte, bool) {
	if l == nil {
		return nil, nil, false
	}
	segs := methodQN.Segments()
	if len(segs) < 3 {
		return nil, nil, false
	}
	className := segs[len(segs)-2]
	methodName := segs[len(segs)-1]
	moduleQN := types.QN(strings.Join(segs[:len(segs)-2], types.SeparatorDot))

	path, ok := l.pathByModule[moduleQN]
	if !ok {
		return nil, nil, false
	}
	entry, ok := l.cache.Get(path)
	if !ok {
		return nil, nil, false
	}

	classNode := findNamed(entry.Tree.RootNode(), classLikeKinds.has, className, entry.Source)
	if classNode == nil {
		return nil, nil, false
	}
	methodNode := findNamed(classNode, isFunctionLikeKind, methodName, entry.Source)
	if methodNode == nil {
		return nil, nil, false
	}
	return methodNode, entry.Source, true
}

type kindSet map[string]bool

func (s kindSet) has(kind string) bool { return s[kind] }

func findNamed(root *sitter.Node, isMatch func(string) bool, name string, source []byte) *sitter.Node {
	var found *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found != nil {
			return
		}
		if isMatch(n.Kind()) {
			if nameNode := nameField(n); nameNode != nil && nodeText(nameNode, source) == name {
				found = n
				return
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
			if found != nil {
				return
			}
		}
	}
	walk(root)
	return found
}

func nodeText(n *sitter.Node, source []byte) string {
	return string(source[n.StartByte():n.EndByte()])
}
