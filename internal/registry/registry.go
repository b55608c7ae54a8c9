// Package registry implements FunctionRegistry: the QN -> NodeKind
// index maintained as both a flat map (exact lookup, membership) and a
// segment trie (prefix/suffix queries), plus the SimpleNameLookup
// last-resort index. Ported from the original FunctionRegistryTrie
// (graph_updater.py) into an explicit Go tree of *trieNode instead of
// nested maps, since that is the idiomatic shape for a segment trie
// in a systems language (design note: "arena + index" for graphs with
// cycles applies just as well to a plain tree here — no cycles, but
// the same "don't lean on dynamic maps where a struct works" spirit).
package registry

import (
	"strings"
	"sync"

	"github.com/standardbeagle/cpg/internal/types"
)

type trieNode struct {
	children map[string]*trieNode
	qn       types.QN
	kind     types.NodeKind
	isEnd    bool
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[string]*trieNode)}
}

// FunctionRegistry is the QN -> NodeKind index. Mutation is expected to
// be single-threaded per §5, but the mutex guards against accidental
// concurrent reads during long-running host integrations.
type FunctionRegistry struct {
	mu      sync.RWMutex
	flat    map[types.QN]types.NodeKind
	root    *trieNode
	simple  map[string]map[types.QN]struct{}
	entries int
}

// New creates an empty FunctionRegistry.
func New() *FunctionRegistry {
	return &FunctionRegistry{
		flat:   make(map[types.QN]types.NodeKind),
		root:   newTrieNode(),
		simple: make(map[string]map[types.QN]struct{}),
	}
}

// Insert adds or overwrites qn's kind, keeping the flat map, trie, and
// simple-name index in sync (invariant P3).
func (r *FunctionRegistry) Insert(qn types.QN, kind types.NodeKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertLocked(qn, kind)
}

func (r *FunctionRegistry) insertLocked(qn types.QN, kind types.NodeKind) {
	if _, exists := r.flat[qn]; !exists {
		r.entries++
	}
	r.flat[qn] = kind

	segs := qn.Segments()
	node := r.root
	for _, seg := range segs {
		child, ok := node.children[seg]
		if !ok {
			child = newTrieNode()
			node.children[seg] = child
		}
		node = child
	}
	node.isEnd = true
	node.qn = qn
	node.kind = kind

	last := qn.LastSegment()
	set, ok := r.simple[last]
	if !ok {
		set = make(map[types.QN]struct{})
		r.simple[last] = set
	}
	set[qn] = struct{}{}
}

// Get returns qn's kind and whether it is registered.
func (r *FunctionRegistry) Get(qn types.QN) (types.NodeKind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kind, ok := r.flat[qn]
	return kind, ok
}

// Contains reports membership without returning the kind.
func (r *FunctionRegistry) Contains(qn types.QN) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.flat[qn]
	return ok
}

// Len returns the number of registered QNs.
func (r *FunctionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries
}

// Keys returns a snapshot of every registered QN. Intended for passes
// (like RemoveFileFromState) that must mutate the registry while
// iterating a stable view of its prior contents.
func (r *FunctionRegistry) Keys() []types.QN {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]types.QN, 0, len(r.flat))
	for qn := range r.flat {
		keys = append(keys, qn)
	}
	return keys
}

// Delete removes qn from both indices and prunes empty trie branches,
// per the registry's memory-leak-prevention contract.
func (r *FunctionRegistry) Delete(qn types.QN) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteLocked(qn)
}

func (r *FunctionRegistry) deleteLocked(qn types.QN) {
	if _, exists := r.flat[qn]; !exists {
		return
	}
	delete(r.flat, qn)
	r.entries--

	last := qn.LastSegment()
	if set, ok := r.simple[last]; ok {
		delete(set, qn)
		if len(set) == 0 {
			delete(r.simple, last)
		}
	}

	segs := qn.Segments()
	pruneTriePath(r.root, segs)
}

// pruneTriePath removes the endpoint marker for the given path and
// deletes any trie node left with no children and no endpoint.
func pruneTriePath(node *trieNode, segs []string) bool {
	if len(segs) == 0 {
		node.isEnd = false
		node.qn = ""
		return len(node.children) == 0
	}
	child, ok := node.children[segs[0]]
	if !ok {
		return false
	}
	if pruneTriePath(child, segs[1:]) {
		delete(node.children, segs[0])
	}
	return len(node.children) == 0 && !node.isEnd
}

// FindEndingWith returns the QNs whose last segment equals suffix,
// looked up in the simple-name index rather than by scanning the flat
// dictionary.
func (r *FunctionRegistry) FindEndingWith(suffix string) []types.QN {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.simple[suffix]
	if !ok {
		return nil
	}
	out := make([]types.QN, 0, len(set))
	for qn := range set {
		out = append(out, qn)
	}
	return out
}

// FindWithPrefix descends the trie to prefix and collects every
// registered QN beneath it.
func (r *FunctionRegistry) FindWithPrefix(prefix types.QN) []types.RegistryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	node := r.root
	if prefix != "" {
		for _, seg := range prefix.Segments() {
			child, ok := node.children[seg]
			if !ok {
				return nil
			}
			node = child
		}
	}

	var out []types.RegistryEntry
	collect(node, &out)
	return out
}

// FindWithPrefixAndSuffix descends to prefix, then filters the
// collected QNs to those ending with suffix.
func (r *FunctionRegistry) FindWithPrefixAndSuffix(prefix types.QN, suffix string) []types.QN {
	entries := r.FindWithPrefix(prefix)
	var out []types.QN
	want := "." + suffix
	for _, e := range entries {
		if strings.HasSuffix(string(e.QN), want) || string(e.QN) == suffix {
			out = append(out, e.QN)
		}
	}
	return out
}

func collect(node *trieNode, out *[]types.RegistryEntry) {
	if node.isEnd {
		*out = append(*out, types.RegistryEntry{QN: node.qn, Kind: node.kind})
	}
	for _, child := range node.children {
		collect(child, out)
	}
}

// SimpleNameLookup returns the set of QNs sharing name as their last
// segment — the same view as FindEndingWith, exposed for callers that
// already hold `name` rather than a registered QN's suffix.
func (r *FunctionRegistry) SimpleNameLookup(name string) []types.QN {
	return r.FindEndingWith(name)
}
