package analyzer

import (
	"github.com/standardbeagle/cpg/internal/errors"
	"github.com/standardbeagle/cpg/internal/ingestor"
	"github.com/standardbeagle/cpg/internal/registry"
	"github.com/standardbeagle/cpg/internal/types"
)

// OverrideProcessor implements pass 3b (§2 item 4 / §4.8): once every
// definition is known, for each method scan its class's MRO and emit
// OVERRIDES to the nearest ancestor defining the same simple name.
// Grounded on the same BFS-over-class_inheritance shape CallResolver
// uses to resolve `super()` calls (callresolver.go's
// resolveInheritedMethod), since §4.6 calls that BFS "the substrate
// behind both super resolution and all object-method lookups".
type OverrideProcessor struct {
	sink    ingestor.Sink
	reg     *registry.FunctionRegistry
	inherit types.ClassInheritance
}

// NewOverrideProcessor builds an OverrideProcessor sharing reg/inherit
// with DefinitionProcessor (read-only in this pass).
func NewOverrideProcessor(sink ingestor.Sink, reg *registry.FunctionRegistry, inherit types.ClassInheritance) *OverrideProcessor {
	return &OverrideProcessor{sink: sink, reg: reg, inherit: inherit}
}

// Run scans every class recorded in inherit and emits OVERRIDES edges.
// Classes with no recorded parents are skipped (§4.4: "parents ... are
// still recorded by their source text" means inherit only ever holds
// classes that declared at least one base).
func (p *OverrideProcessor) Run() (int, error) {
	emitted := 0
	for classQN := range p.inherit {
		methods := directMethodNames(p.reg, classQN)
		for name, childQN := range methods {
			ancestorMethod, ok := p.nearestAncestorMethod(classQN, name, map[types.QN]bool{classQN: true})
			if !ok {
				continue
			}
			childRef := ingestor.NodeRef{Kind: types.NodeMethod, QN: childQN}
			parentRef := ingestor.NodeRef{Kind: types.NodeMethod, QN: ancestorMethod}
			if err := p.sink.EnsureRelationship(childRef, types.EdgeOverrides, parentRef, nil); err != nil {
				return emitted, errors.New(errors.ErrorTypeIngest, "ensure overrides edge", err)
			}
			emitted++
		}
	}
	return emitted, nil
}

// directMethodNames returns the simple-name -> QN map of methods
// defined directly on classQN (not inherited), per B3's "D did not
// define it" boundary condition: D's own absent definitions never
// appear here, so no spurious OVERRIDES is considered for them.
func directMethodNames(reg *registry.FunctionRegistry, classQN types.QN) map[string]types.QN {
	out := make(map[string]types.QN)
	for _, entry := range reg.FindWithPrefix(classQN) {
		if entry.Kind != types.NodeMethod {
			continue
		}
		if entry.QN.Parent() != classQN {
			continue
		}
		out[entry.QN.LastSegment()] = entry.QN
	}
	return out
}

// nearestAncestorMethod performs the left-to-right, breadth-first,
// cycle-safe search §4.6 describes, returning the first ancestor class
// (breadth order) that defines methodName.
func (p *OverrideProcessor) nearestAncestorMethod(classQN types.QN, methodName string, visited map[types.QN]bool) (types.QN, bool) {
	queue := append([]types.QN(nil), p.inherit[classQN]...)
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		if visited[parent] {
			continue
		}
		visited[parent] = true

		candidate := types.QN(string(parent) + types.SeparatorDot + methodName)
		if kind, ok := p.reg.Get(candidate); ok && kind == types.NodeMethod {
			return candidate, true
		}
		queue = append(queue, p.inherit[parent]...)
	}
	return "", false
}
