package ingestor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/cpg/internal/types"
)

func openTestSink(t *testing.T) *SQLiteSink {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.sqlite")
	sink, err := OpenSQLiteSink(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })
	return sink
}

func TestEnsureNodeIsIdempotent(t *testing.T) {
	sink := openTestSink(t)

	ref1, err := sink.EnsureNode(types.NodeFunction, map[string]any{"qn": "pkg.fn", "name": "fn"})
	require.NoError(t, err)
	ref2, err := sink.EnsureNode(types.NodeFunction, map[string]any{"qn": "pkg.fn", "name": "fn"})
	require.NoError(t, err)

	assert.Equal(t, ref1, ref2)
	require.NoError(t, sink.FlushAll())

	rows, err := sink.FetchAll("SELECT qn FROM nodes WHERE kind = ?", types.NodeFunction.String())
	require.NoError(t, err)
	assert.Len(t, rows, 1, "re-ensuring the same (kind, qn) must not duplicate the row")
}

func TestEnsureRelationshipIsIdempotent(t *testing.T) {
	sink := openTestSink(t)

	caller, err := sink.EnsureNode(types.NodeFunction, map[string]any{"qn": "pkg.caller"})
	require.NoError(t, err)
	callee, err := sink.EnsureNode(types.NodeFunction, map[string]any{"qn": "pkg.callee"})
	require.NoError(t, err)

	require.NoError(t, sink.EnsureRelationship(caller, types.EdgeCalls, callee, nil))
	require.NoError(t, sink.EnsureRelationship(caller, types.EdgeCalls, callee, nil))
	require.NoError(t, sink.FlushAll())

	rows, err := sink.FetchAll("SELECT * FROM relationships")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestEnsureRelationshipUnknownEndpointErrors(t *testing.T) {
	sink := openTestSink(t)

	known, err := sink.EnsureNode(types.NodeFunction, map[string]any{"qn": "pkg.known"})
	require.NoError(t, err)
	ghost := NodeRef{Kind: types.NodeFunction, QN: "pkg.ghost"}

	err = sink.EnsureRelationship(known, types.EdgeCalls, ghost, nil)
	assert.Error(t, err)
}

func TestFetchAllOnlySeesFlushedRows(t *testing.T) {
	sink := openTestSink(t)

	_, err := sink.EnsureNode(types.NodeFunction, map[string]any{"qn": "pkg.pending"})
	require.NoError(t, err)

	rows, err := sink.FetchAll("SELECT * FROM nodes")
	require.NoError(t, err)
	assert.Empty(t, rows, "uncommitted writes in the open transaction should not be visible to FetchAll")

	require.NoError(t, sink.FlushAll())
	rows, err = sink.FetchAll("SELECT * FROM nodes")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFlushAllReopensUsableTransaction(t *testing.T) {
	sink := openTestSink(t)

	_, err := sink.EnsureNode(types.NodeFunction, map[string]any{"qn": "pkg.a"})
	require.NoError(t, err)
	require.NoError(t, sink.FlushAll())

	_, err = sink.EnsureNode(types.NodeFunction, map[string]any{"qn": "pkg.b"})
	require.NoError(t, err)
	require.NoError(t, sink.FlushAll())

	rows, err := sink.FetchAll("SELECT qn FROM nodes ORDER BY qn")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "pkg.a", rows[0]["qn"])
	assert.Equal(t, "pkg.b", rows[1]["qn"])
}
