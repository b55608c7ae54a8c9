// Package astcache implements BoundedASTCache (§3/§4.2): an
// LRU-ordered FilePath -> (ParsedTree, Language) cache bounded by an
// entry count and a soft memory ceiling, ported from graph_updater.py's
// BoundedASTCache. Go has no sys.getsizeof, so memory pressure is
// estimated from each cached source buffer's length rather than a
// runtime heap walk; when even that estimate is unavailable the cache
// falls back to the same 80%-of-max-entries heuristic the original
// uses for its own estimator failure path.
package astcache

import (
	"container/list"
	"sync"

	"github.com/cespare/xxhash/v2"
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/cpg/internal/types"
)

// Entry is a cached parse result for one file. ContentHash is filled in
// by Set and lets callers cheaply detect that a re-ingested file's
// content hasn't actually changed, without diffing the parsed tree.
type Entry struct {
	Tree        *sitter.Tree
	Language    types.Language
	Source      []byte
	ContentHash uint64
}

type record struct {
	path  string
	entry Entry
}

// Cache is the bounded, LRU-ordered AST cache.
type Cache struct {
	mu sync.Mutex

	maxEntries int
	maxMemory  int64

	order   *list.List
	index   map[string]*list.Element
	memUsed int64

	estimatorBroken bool
}

// New creates a Cache with the given entry and soft memory ceilings.
func New(maxEntries int, maxMemoryBytes int64) *Cache {
	return &Cache{
		maxEntries: maxEntries,
		maxMemory:  maxMemoryBytes,
		order:      list.New(),
		index:      make(map[string]*list.Element),
	}
}

// Set stores or replaces the cached entry for path and runs eviction.
// entry.ContentHash is always recomputed from entry.Source, so callers
// never need to set it themselves.
func (c *Cache) Set(path string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry.ContentHash = xxhash.Sum64(entry.Source)

	if el, ok := c.index[path]; ok {
		c.memUsed -= entrySize(el.Value.(*record).entry)
		c.order.Remove(el)
		delete(c.index, path)
	}

	el := c.order.PushBack(&record{path: path, entry: entry})
	c.index[path] = el
	c.memUsed += entrySize(entry)

	c.enforceLimits()
}

// Get returns the cached entry for path, marking it most-recently-used.
func (c *Cache) Get(path string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[path]
	if !ok {
		return Entry{}, false
	}
	c.order.MoveToBack(el)
	return el.Value.(*record).entry, true
}

// Delete removes path from the cache, if present.
func (c *Cache) Delete(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteLocked(path)
}

func (c *Cache) deleteLocked(path string) {
	el, ok := c.index[path]
	if !ok {
		return
	}
	c.memUsed -= entrySize(el.Value.(*record).entry)
	c.order.Remove(el)
	delete(c.index, path)
}

// Unchanged reports whether path is cached with a content hash matching
// source, without promoting it in LRU order. A false result covers both
// "never cached" and "cached but content differs" — either way the
// caller should re-parse.
func (c *Cache) Unchanged(path string, source []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[path]
	if !ok {
		return false
	}
	return el.Value.(*record).entry.ContentHash == xxhash.Sum64(source)
}

// Contains reports whether path is cached, without affecting LRU order.
func (c *Cache) Contains(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.index[path]
	return ok
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// PathsWithPrefix returns every cached path that hasPathPrefix matches
// against prefix, used by RemoveFileFromState-style bulk purges.
func (c *Cache) PathsWithPrefix(prefix string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []string
	for el := c.order.Front(); el != nil; el = el.Next() {
		p := el.Value.(*record).path
		if hasPathPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}

func hasPathPrefix(path, prefix string) bool {
	if prefix == "" {
		return true
	}
	if len(path) < len(prefix) {
		return false
	}
	if path[:len(prefix)] != prefix {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

// enforceLimits evicts least-recently-used entries over the entry
// ceiling, then evicts an additional 10% if memory pressure persists.
func (c *Cache) enforceLimits() {
	for c.order.Len() > c.maxEntries {
		c.evictOldest()
	}

	if c.shouldEvictForMemory() {
		toRemove := c.order.Len() / 10
		if toRemove < 1 {
			toRemove = 1
		}
		for i := 0; i < toRemove && c.order.Len() > 0; i++ {
			c.evictOldest()
		}
	}
}

func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	rec := front.Value.(*record)
	c.memUsed -= entrySize(rec.entry)
	c.order.Remove(front)
	delete(c.index, rec.path)
}

func (c *Cache) shouldEvictForMemory() bool {
	if c.estimatorBroken {
		return c.order.Len() > int(float64(c.maxEntries)*0.8)
	}
	return c.memUsed > c.maxMemory
}

// entrySize estimates an entry's resident size from its source buffer
// length, the closest Go analogue to sys.getsizeof on the parsed tree.
func entrySize(e Entry) int64 {
	return int64(len(e.Source)) + 256
}
