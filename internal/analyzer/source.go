package analyzer

import (
	"encoding/json"

	"github.com/standardbeagle/cpg/internal/astcache"
	"github.com/standardbeagle/cpg/internal/ingestor"
	"github.com/standardbeagle/cpg/internal/types"
)

// SourceLocator resolves a QN back to the source of the file it was
// defined in, using the sink's stored node properties and the AST
// cache (§6: "Persisted state layout is the ingestor's concern", so the
// locator asks the sink for the path and reads the cached source).
type SourceLocator struct {
	cache *astcache.Cache
	sink  ingestor.Sink
}

// NewSourceLocator builds a locator over the driver's AST cache and sink.
func NewSourceLocator(cache *astcache.Cache, sink ingestor.Sink) *SourceLocator {
	return &SourceLocator{cache: cache, sink: sink}
}

// Snippet returns the whole cached source of the file that defines qn
// (not just the definition's own lines), found via the "path" property
// FetchAll reads from the sink's nodes table and then the AST cache,
// falling back to "" if either lookup misses (a
// recoverable condition for the caller, not an error: the node may
// have been defined in a file that has since been evicted from cache).
func (l *SourceLocator) Snippet(qn types.QN) (string, bool) {
	rows, err := l.sink.FetchAll(`SELECT properties FROM nodes WHERE qn = ? LIMIT 1`, string(qn))
	if err != nil || len(rows) == 0 {
		return "", false
	}

	path, ok := pathFromRow(rows[0])
	if !ok {
		return "", false
	}

	entry, ok := l.cache.Get(path)
	if !ok {
		return "", false
	}
	return string(entry.Source), true
}

func pathFromRow(row ingestor.Row) (string, bool) {
	raw, ok := row["properties"]
	if !ok {
		return "", false
	}
	propsText, ok := raw.(string)
	if !ok {
		return "", false
	}
	var props map[string]any
	if err := json.Unmarshal([]byte(propsText), &props); err != nil {
		return "", false
	}
	path, ok := props["path"].(string)
	return path, ok
}
