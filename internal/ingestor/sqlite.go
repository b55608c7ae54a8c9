package ingestor

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/standardbeagle/cpg/internal/errors"
	"github.com/standardbeagle/cpg/internal/types"
)

// SQLiteSink persists the graph to a single SQLite file. Writes are
// batched in a transaction and committed on FlushAll, mirroring the
// teacher's "journal mode WAL, batch then flush" store discipline.
type SQLiteSink struct {
	mu     sync.Mutex
	db     *sql.DB
	tx     *sql.Tx
	nodeID map[string]int64
}

// OpenSQLiteSink opens (creating if needed) the SQLite file at path and
// prepares the node/relationship schema.
func OpenSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.New(errors.ErrorTypeIngest, "open sqlite sink", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.New(errors.ErrorTypeIngest, "create schema", err)
	}

	s := &SQLiteSink{db: db, nodeID: make(map[string]int64)}
	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, errors.New(errors.ErrorTypeIngest, "begin transaction", err)
	}
	s.tx = tx
	return s, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS nodes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	qn TEXT NOT NULL,
	properties TEXT,
	UNIQUE(kind, qn)
);
CREATE TABLE IF NOT EXISTS relationships (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	src_id INTEGER NOT NULL,
	kind TEXT NOT NULL,
	dst_id INTEGER NOT NULL,
	properties TEXT,
	UNIQUE(src_id, kind, dst_id)
);
`

// EnsureNode idempotently upserts a node keyed by (kind, qn).
func (s *SQLiteSink) EnsureNode(kind types.NodeKind, properties map[string]any) (NodeRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	qn, _ := properties["qn"].(string)
	key := kind.String() + "\x00" + qn

	if id, ok := s.nodeID[key]; ok {
		_ = id
		return NodeRef{Kind: kind, QN: types.QN(qn)}, nil
	}

	propJSON := encodeProperties(properties)
	res, err := s.tx.Exec(
		`INSERT INTO nodes (kind, qn, properties) VALUES (?, ?, ?)
		 ON CONFLICT(kind, qn) DO UPDATE SET properties = excluded.properties`,
		kind.String(), qn, propJSON,
	)
	if err != nil {
		return NodeRef{}, errors.New(errors.ErrorTypeIngest, "ensure node", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return NodeRef{}, errors.New(errors.ErrorTypeIngest, "node id", err)
	}
	s.nodeID[key] = id
	return NodeRef{Kind: kind, QN: types.QN(qn)}, nil
}

// EnsureRelationship idempotently upserts an edge between two node refs.
func (s *SQLiteSink) EnsureRelationship(src NodeRef, kind types.EdgeKind, dst NodeRef, props map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	srcID, ok := s.nodeID[src.Kind.String()+"\x00"+string(src.QN)]
	if !ok {
		return errors.New(errors.ErrorTypeIngest, "ensure relationship", fmt.Errorf("unknown src node %s", src.QN)).WithFile(string(src.QN))
	}
	dstID, ok := s.nodeID[dst.Kind.String()+"\x00"+string(dst.QN)]
	if !ok {
		return errors.New(errors.ErrorTypeIngest, "ensure relationship", fmt.Errorf("unknown dst node %s", dst.QN)).WithFile(string(dst.QN))
	}

	_, err := s.tx.Exec(
		`INSERT INTO relationships (src_id, kind, dst_id, properties) VALUES (?, ?, ?, ?)
		 ON CONFLICT(src_id, kind, dst_id) DO UPDATE SET properties = excluded.properties`,
		srcID, kind.String(), dstID, encodeProperties(props),
	)
	if err != nil {
		return errors.New(errors.ErrorTypeIngest, "ensure relationship", err)
	}
	return nil
}

// FetchAll runs a read query against the committed state, used by the
// optional embedding/search pass (§6 names this optional for the core).
func (s *SQLiteSink) FetchAll(query string, args ...any) ([]Row, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeIngest, "fetch all", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.New(errors.ErrorTypeIngest, "fetch all columns", err)
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.New(errors.ErrorTypeIngest, "fetch all scan", err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// FlushAll commits the pending transaction and opens a fresh one.
func (s *SQLiteSink) FlushAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tx.Commit(); err != nil {
		return errors.New(errors.ErrorTypeIngest, "flush all", err)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return errors.New(errors.ErrorTypeIngest, "reopen transaction", err)
	}
	s.tx = tx
	return nil
}

// Close flushes and closes the underlying database handle.
func (s *SQLiteSink) Close() error {
	if err := s.FlushAll(); err != nil {
		return err
	}
	return s.db.Close()
}

func encodeProperties(props map[string]any) string {
	if len(props) == 0 {
		return "{}"
	}
	b, err := json.Marshal(props)
	if err != nil {
		return "{}"
	}
	return string(b)
}
