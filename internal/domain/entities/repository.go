package entities

import (
	"net/url"
	"path"
	"strings"
)

// Repository is a downstream repository bound to one remote and one local working copy.
// It is created from the settings at start-up and never mutated by the engine.
type Repository struct {
	Name                 string
	Owner                string
	CloneURL             string
	HTMLURL              string
	Dir                  string // local working directory
	Branch               string // configured base branch, empty when unset
	UseSinglePullRequest bool
	ProviderName         string
	// Token authenticates pushes; it must never be logged.
	Token string `json:"-" yaml:"-"`
}

// FullName returns "owner/name".
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// Host returns the host part of the clone URL (e.g. "github.com").
func (r Repository) Host() string {
	if u, err := url.Parse(r.CloneURL); err == nil && u.Host != "" {
		return u.Host
	}
	// scp-like syntax: git@github.com:owner/name.git
	if at := strings.Index(r.CloneURL, "@"); at >= 0 {
		rest := r.CloneURL[at+1:]
		if colon := strings.Index(rest, ":"); colon >= 0 {
			return rest[:colon]
		}
	}
	return ""
}

// HasCloneURL reports whether the repository can be cloned from the given URL.
// A missing ".git" suffix on either side is tolerated.
func (r Repository) HasCloneURL(cloneURL string) bool {
	trim := func(s string) string { return strings.TrimSuffix(s, ".git") }
	return trim(r.CloneURL) == trim(cloneURL)
}

// NewRepositoryFromCloneURL derives owner and name from a clone URL and places the
// working copy under workDir/<host>/<owner>/<name>.
func NewRepositoryFromCloneURL(cloneURL, workDir string) Repository {
	repo := Repository{CloneURL: cloneURL}

	trimmed := strings.TrimSuffix(cloneURL, ".git")
	var repoPath string
	if u, err := url.Parse(trimmed); err == nil && u.Host != "" {
		repoPath = strings.Trim(u.Path, "/")
		repo.HTMLURL = "https://" + u.Host + "/" + repoPath
	} else if colon := strings.LastIndex(trimmed, ":"); colon >= 0 {
		repoPath = strings.Trim(trimmed[colon+1:], "/")
		repo.HTMLURL = "https://" + repo.Host() + "/" + repoPath
	}

	repo.Name = path.Base(repoPath)
	repo.Owner = path.Dir(repoPath)
	if repo.Owner == "." {
		repo.Owner = ""
	}
	if workDir != "" {
		repo.Dir = path.Join(workDir, repo.Host(), repoPath)
	}
	return repo
}
