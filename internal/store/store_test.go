package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCatalog(t *testing.T) *SQLiteCatalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestUpsert_InsertAndGet(t *testing.T) {
	c := openTestCatalog(t)

	p := Project{
		Name:         "widget",
		Path:         "/home/dev/widget",
		ReadmePath:   sql.NullString{String: "/home/dev/widget/README.md", Valid: true},
		RepoURL:      sql.NullString{String: "https://github.com/acme/widget", Valid: true},
		LastModified: sql.NullTime{Time: time.Now().UTC(), Valid: true},
	}
	require.NoError(t, c.Upsert(p))

	got, err := c.GetByPath("/home/dev/widget")
	require.NoError(t, err)
	assert.Equal(t, "widget", got.Name)
	assert.Equal(t, "https://github.com/acme/widget", got.RepoURL.String)
	assert.True(t, got.LastModified.Valid)
	assert.False(t, got.IsPrivate.Valid)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestUpsert_UpdatesByPath(t *testing.T) {
	c := openTestCatalog(t)

	require.NoError(t, c.Upsert(Project{Name: "old", Path: "/p"}))
	require.NoError(t, c.Upsert(Project{
		Name:    "renamed",
		Path:    "/p",
		RepoURL: sql.NullString{String: "https://github.com/acme/renamed", Valid: true},
	}))

	projects, err := c.List()
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "renamed", projects[0].Name)
	assert.Equal(t, "https://github.com/acme/renamed", projects[0].RepoURL.String)
}

func TestGetByPath_Missing(t *testing.T) {
	c := openTestCatalog(t)
	_, err := c.GetByPath("/nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestList_OrderedByName(t *testing.T) {
	c := openTestCatalog(t)

	require.NoError(t, c.Upsert(Project{Name: "zeta", Path: "/z"}))
	require.NoError(t, c.Upsert(Project{Name: "alpha", Path: "/a"}))

	projects, err := c.List()
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "alpha", projects[0].Name)
	assert.Equal(t, "zeta", projects[1].Name)
}
