// Package ingestor defines the Sink interface the analyzer core calls
// to persist graph nodes and edges (§6), plus a SQLite-backed reference
// implementation grounded on the store package in DeusData's
// codebase-memory-mcp (database/sql + mattn/go-sqlite3, WAL journal
// mode, idempotent upserts). The core only ever depends on Sink —
// swapping in a different backing store never touches analyzer code.
package ingestor

import (
	"github.com/standardbeagle/cpg/internal/types"
)

// NodeRef identifies one upserted node for use as an edge endpoint.
type NodeRef struct {
	Kind types.NodeKind
	QN   types.QN
}

// Row is one result row from FetchAll, keyed by column name.
type Row map[string]any

// Sink is the graph-sink collaborator (§6). Implementations must make
// EnsureNode and EnsureRelationship idempotent: re-ingesting the same
// file twice must not duplicate nodes or edges.
type Sink interface {
	EnsureNode(kind types.NodeKind, properties map[string]any) (NodeRef, error)
	EnsureRelationship(src NodeRef, kind types.EdgeKind, dst NodeRef, props map[string]any) error
	FetchAll(query string, args ...any) ([]Row, error)
	FlushAll() error
}
