package typeinfer

import (
	"github.com/standardbeagle/cpg/internal/analyzer/methodlookup"
	"github.com/standardbeagle/cpg/internal/registry"
	"github.com/standardbeagle/cpg/internal/types"
)

// New builds the per-language engine variant for lang, dispatching
// through a closed switch as §4.5's "closed enum of per-language
// engine variants" redesign flag directs, rather than a polymorphic
// language-engine hierarchy. locator backs the Python engine's
// method-return-type walk (§4.5 step 5); it may be nil, in which case
// PythonEngine simply never resolves a method's own return type, the
// same degraded-but-safe behavior GenericEngine always has.
func New(lang types.Language, reg *registry.FunctionRegistry, imports types.ImportMap, inherit types.ClassInheritance, scoring ScoringPolicy, locator *methodlookup.Locator) Engine {
	switch lang {
	case types.LangPython:
		return NewPythonEngine(reg, imports, inherit, scoring, locator)
	case types.LangJavaScript, types.LangTypeScript:
		return NewGenericEngine(reg, imports, inherit, scoring, "pattern", "type")
	case types.LangJava:
		return NewGenericEngine(reg, imports, inherit, scoring, "name", "type")
	default:
		return NewGenericEngine(reg, imports, inherit, scoring, "declarator", "type")
	}
}
