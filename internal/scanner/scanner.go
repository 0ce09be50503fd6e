// Package scanner harvests lightweight metadata from project directories:
// README presence, a Logseq-style back-link, the git-derived repository
// URL, and the most recent file modification time. Every value is
// best-effort: a failed or timed-out lookup leaves the field absent, never
// aborts the scan.
package scanner

import (
	"context"
	"io/fs"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	gitTimeout  = 5 * time.Second
	walkTimeout = 30 * time.Second
)

// Metadata is the harvested description of one project directory. Optional
// string fields are empty when unavailable; LastModified is reported
// through HasLastModified.
type Metadata struct {
	Name            string
	Path            string
	ReadmePath      string
	BacklinkPage    string
	RepoURL         string
	LastModified    time.Time
	HasLastModified bool
}

// excludedDirs are skipped when looking for the most recent modification.
var excludedDirs = map[string]bool{
	"venv":          true,
	".venv":         true,
	".git":          true,
	"__pycache__":   true,
	"node_modules":  true,
	".idea":         true,
	".pytest_cache": true,
}

// Collect gathers all metadata for a single project directory.
func Collect(ctx context.Context, dir string) Metadata {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}

	md := Metadata{
		Name: filepath.Base(abs),
		Path: abs,
	}

	readme := filepath.Join(abs, "README.md")
	if _, err := os.Stat(readme); err == nil {
		md.ReadmePath = readme
	}

	md.BacklinkPage = ParseBacklink(filepath.Join(abs, "Link.md"))
	md.RepoURL = GitHubURL(remoteURL(ctx, abs))
	md.LastModified, md.HasLastModified = LastModified(ctx, abs)

	return md
}

// ScanProjects returns the direct subdirectories of parent, each treated as
// one project. Hidden directories are skipped.
func ScanProjects(parent string) ([]string, error) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return nil, err
	}
	var projects []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		projects = append(projects, filepath.Join(parent, e.Name()))
	}
	return projects, nil
}

// backlinkPattern matches a Logseq graph link of the form
// [logseq](logseq://graph/NAME?page=PAGE).
var backlinkPattern = regexp.MustCompile(`\[logseq\]\(logseq://graph/[^?]+\?page=([^)]+)\)`)

// ParseBacklink extracts the URL-decoded page name from a Link.md back-link
// file. It returns "" when the file is missing or holds no valid link.
func ParseBacklink(linkFile string) string {
	content, err := os.ReadFile(linkFile)
	if err != nil {
		return ""
	}
	m := backlinkPattern.FindStringSubmatch(strings.TrimSpace(string(content)))
	if m == nil {
		return ""
	}
	page, err := url.QueryUnescape(m[1])
	if err != nil {
		return ""
	}
	return page
}

var (
	githubHTTPSPattern = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+?)(\.git)?$`)
	githubSSHPattern   = regexp.MustCompile(`^git@github\.com:([^/]+)/([^/]+?)(\.git)?$`)
)

// GitHubURL normalizes a git remote URL to its GitHub HTTPS form without
// the .git suffix. Non-GitHub hosts yield "".
func GitHubURL(remoteURL string) string {
	if remoteURL == "" || !strings.Contains(remoteURL, "github.com") {
		return ""
	}
	for _, p := range []*regexp.Regexp{githubHTTPSPattern, githubSSHPattern} {
		if m := p.FindStringSubmatch(remoteURL); m != nil {
			return "https://github.com/" + m[1] + "/" + m[2]
		}
	}
	return ""
}

// remoteURL asks git for the origin remote, capped at five seconds. A
// missing remote, a non-zero exit, or a timeout all yield "".
func remoteURL(ctx context.Context, dir string) string {
	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "git", "-C", dir, "remote", "get-url", "origin").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// LastModified walks the project tree and returns the most recent file
// modification time, skipping environment directories. The walk is capped
// at thirty seconds; on timeout or an empty tree the value is absent.
func LastModified(ctx context.Context, dir string) (time.Time, bool) {
	ctx, cancel := context.WithTimeout(ctx, walkTimeout)
	defer cancel()

	var latest time.Time
	found := false

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != dir && excludedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
			found = true
		}
		return nil
	})
	if err != nil || !found {
		return time.Time{}, false
	}
	return latest, true
}
