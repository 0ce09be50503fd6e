package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitHubURL(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		want   string
	}{
		{"https with .git", "https://github.com/acme/widget.git", "https://github.com/acme/widget"},
		{"https without .git", "https://github.com/acme/widget", "https://github.com/acme/widget"},
		{"ssh", "git@github.com:acme/widget.git", "https://github.com/acme/widget"},
		{"gitlab", "https://gitlab.com/acme/widget.git", ""},
		{"gitlab ssh", "git@gitlab.com:acme/widget.git", ""},
		{"empty", "", ""},
		{"garbage", "not a url", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GitHubURL(tt.remote))
		})
	}
}

func TestParseBacklink(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "Link.md")

	require.NoError(t, os.WriteFile(link,
		[]byte("[logseq](logseq://graph/personal?page=project%2Fmy-project)\n"), 0o644))
	assert.Equal(t, "project/my-project", ParseBacklink(link))
}

func TestParseBacklink_NoMatch(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "Link.md")

	require.NoError(t, os.WriteFile(link, []byte("just some notes\n"), 0o644))
	assert.Empty(t, ParseBacklink(link))
}

func TestParseBacklink_Missing(t *testing.T) {
	assert.Empty(t, ParseBacklink(filepath.Join(t.TempDir(), "Link.md")))
}

func TestScanProjects(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "alpha"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "beta"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".hidden"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0o644))

	projects, err := ScanProjects(dir)
	require.NoError(t, err)

	require.Len(t, projects, 2)
	assert.Equal(t, filepath.Join(dir, "alpha"), projects[0])
	assert.Equal(t, filepath.Join(dir, "beta"), projects[1])
}

func TestLastModified(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))

	ts, ok := LastModified(context.Background(), dir)
	require.True(t, ok)
	assert.False(t, ts.IsZero())
}

func TestLastModified_EmptyTree(t *testing.T) {
	_, ok := LastModified(context.Background(), t.TempDir())
	assert.False(t, ok)
}

func TestLastModified_SkipsExcludedDirs(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, ".git")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "HEAD"), []byte("ref"), 0o644))

	// Only file lives under an excluded directory.
	_, ok := LastModified(context.Background(), dir)
	assert.False(t, ok)
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Link.md"),
		[]byte("[logseq](logseq://graph/g?page=notes%2Fthing)"), 0o644))

	md := Collect(context.Background(), dir)

	assert.Equal(t, filepath.Base(dir), md.Name)
	assert.Equal(t, filepath.Join(dir, "README.md"), md.ReadmePath)
	assert.Equal(t, "notes/thing", md.BacklinkPage)
	// Not a git repository: the value is simply absent.
	assert.Empty(t, md.RepoURL)
	assert.True(t, md.HasLastModified)
}
