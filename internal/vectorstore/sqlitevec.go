package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"shelf/internal/rag"
)

func init() {
	sqlite_vec.Auto()
}

// validCollectionName matches the names the pipeline derives: they double
// as SQL identifiers here, so anything else is rejected.
var validCollectionName = regexp.MustCompile(`^[a-z0-9_]+$`)

// SQLiteVec is a local vector store backed by SQLite with the sqlite-vec
// extension. Each collection maps to a document table plus a vec0 virtual
// table for KNN queries.
type SQLiteVec struct {
	db  *sql.DB
	dim int
}

// OpenSQLiteVec opens or creates the database at path. dim is the embedding
// dimensionality every collection will store.
func OpenSQLiteVec(path string, dim int) (*SQLiteVec, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dim)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return &SQLiteVec{db: db, dim: dim}, nil
}

// Close closes the underlying database.
func (s *SQLiteVec) Close() error {
	return s.db.Close()
}

type sqliteCollection struct {
	name string
}

func (c *sqliteCollection) Name() string { return c.name }

// CreateCollection drops and recreates the collection's tables, replacing
// any prior contents under the same name.
func (s *SQLiteVec) CreateCollection(ctx context.Context, name string) (rag.Collection, error) {
	if !validCollectionName.MatchString(name) {
		return nil, fmt.Errorf("invalid collection name %q", name)
	}

	stmts := []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s_docs", name),
		fmt.Sprintf("DROP TABLE IF EXISTS %s_vec", name),
		fmt.Sprintf(`CREATE TABLE %s_docs (
			rowid    INTEGER PRIMARY KEY AUTOINCREMENT,
			id       TEXT NOT NULL UNIQUE,
			content  TEXT NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}'
		)`, name),
		fmt.Sprintf("CREATE VIRTUAL TABLE %s_vec USING vec0(doc_rowid INTEGER PRIMARY KEY, embedding float[%d])", name, s.dim),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("create collection %q: %w", name, err)
		}
	}
	return &sqliteCollection{name: name}, nil
}

// AddChunks stores documents and their embeddings in one transaction.
func (s *SQLiteVec) AddChunks(ctx context.Context, col rag.Collection, documents []string, embeddings [][]float32, metadatas []map[string]any, ids []string) error {
	if len(documents) != len(embeddings) || len(documents) != len(metadatas) || len(documents) != len(ids) {
		return fmt.Errorf("mismatched lengths: %d documents, %d embeddings, %d metadatas, %d ids",
			len(documents), len(embeddings), len(metadatas), len(ids))
	}

	name := col.Name()
	if !validCollectionName.MatchString(name) {
		return fmt.Errorf("invalid collection name %q", name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	docStmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s_docs (id, content, metadata) VALUES (?, ?, ?)", name))
	if err != nil {
		return err
	}
	defer docStmt.Close()

	vecStmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s_vec (doc_rowid, embedding) VALUES (?, ?)", name))
	if err != nil {
		return err
	}
	defer vecStmt.Close()

	for i := range documents {
		meta, err := json.Marshal(metadatas[i])
		if err != nil {
			return fmt.Errorf("marshal metadata for %s: %w", ids[i], err)
		}
		res, err := docStmt.ExecContext(ctx, ids[i], documents[i], string(meta))
		if err != nil {
			return fmt.Errorf("insert document %s: %w", ids[i], err)
		}
		rowid, err := res.LastInsertId()
		if err != nil {
			return err
		}
		blob, err := sqlite_vec.SerializeFloat32(embeddings[i])
		if err != nil {
			return fmt.Errorf("serialize embedding for %s: %w", ids[i], err)
		}
		if _, err := vecStmt.ExecContext(ctx, rowid, blob); err != nil {
			return fmt.Errorf("insert embedding for %s: %w", ids[i], err)
		}
	}

	return tx.Commit()
}

// Query returns up to nResults document texts ordered by vector distance.
func (s *SQLiteVec) Query(ctx context.Context, col rag.Collection, queryEmbedding []float32, nResults int) ([]string, error) {
	name := col.Name()
	if !validCollectionName.MatchString(name) {
		return nil, fmt.Errorf("invalid collection name %q", name)
	}

	blob, err := sqlite_vec.SerializeFloat32(queryEmbedding)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT d.content
		FROM %s_vec v
		JOIN %s_docs d ON d.rowid = v.doc_rowid
		WHERE v.embedding MATCH ?
		ORDER BY v.distance
		LIMIT ?
	`, name, name), blob, nResults)
	if err != nil {
		return nil, fmt.Errorf("query collection %q: %w", name, err)
	}
	defer rows.Close()

	var docs []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, err
		}
		docs = append(docs, content)
	}
	return docs, rows.Err()
}
