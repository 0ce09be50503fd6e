// Package store persists project catalog records in SQLite. A Catalog is
// an explicitly constructed handle passed to its users; there is no global
// connection state.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Catalog provides persistence for project metadata records.
type Catalog interface {
	// Upsert inserts the project or, when a record with the same path
	// exists, updates it in place.
	Upsert(p Project) error
	// GetByPath returns the project stored under path, or sql.ErrNoRows.
	GetByPath(path string) (Project, error)
	// List returns all projects ordered by name.
	List() ([]Project, error)
	// Close closes the underlying database.
	Close() error
}

// SQLiteCatalog implements Catalog backed by SQLite.
type SQLiteCatalog struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and initializes
// the schema.
func Open(dbPath string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteCatalog{db: db}, nil
}

func (c *SQLiteCatalog) Upsert(p Project) error {
	res, err := c.db.Exec(`
		UPDATE projects
		SET name = ?, readme_path = ?, backlink_page = ?, repo_url = ?,
		    last_modified = ?, updated_at = CURRENT_TIMESTAMP
		WHERE path = ?
	`, p.Name, p.ReadmePath, p.BacklinkPage, p.RepoURL, p.LastModified, p.Path)
	if err != nil {
		return fmt.Errorf("update project %s: %w", p.Path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	_, err = c.db.Exec(`
		INSERT INTO projects (name, path, readme_path, backlink_page, repo_url, is_private, last_modified)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.Name, p.Path, p.ReadmePath, p.BacklinkPage, p.RepoURL, p.IsPrivate, p.LastModified)
	if err != nil {
		return fmt.Errorf("insert project %s: %w", p.Path, err)
	}
	return nil
}

func (c *SQLiteCatalog) GetByPath(path string) (Project, error) {
	return scanProject(c.db.QueryRow(selectColumns+" FROM projects WHERE path = ?", path))
}

func (c *SQLiteCatalog) List() ([]Project, error) {
	rows, err := c.db.Query(selectColumns + " FROM projects ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

const selectColumns = `SELECT id, name, path, readme_path, backlink_page, repo_url,
	is_private, created_at, updated_at, last_modified`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (Project, error) {
	var p Project
	err := row.Scan(
		&p.ID, &p.Name, &p.Path, &p.ReadmePath, &p.BacklinkPage, &p.RepoURL,
		&p.IsPrivate, &p.CreatedAt, &p.UpdatedAt, &p.LastModified,
	)
	return p, err
}
