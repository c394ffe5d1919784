// Package git parses the remote URLs read from repository configs.
package git

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

// RemoteURL represents a parsed remote URL
type RemoteURL struct {
	Original string // Original input
	Protocol string // "ssh", "https", "http" or "git"
	Host     string // Host without user or port
	Owner    string // Everything between host and repository, e.g. "group/subgroup"
	Repo     string // Repository name (without .git)
}

// scp-like syntax: [user@]host:owner/repo[.git]
var scpURLRegex = regexp.MustCompile(`^(?:[a-zA-Z0-9_.-]+@)?([a-zA-Z0-9_.-]+):([a-zA-Z0-9_.~/-]+?)(?:\.git)?/?$`)

var urlSchemes = []string{"ssh", "git+ssh", "https", "http", "git"}

// ParseRemoteURL parses a git remote URL. Supported formats:
//   - scp-like: git@github.com:owner/repo.git
//   - URL: https://github.com/owner/repo, ssh://git@host:2222/owner/repo.git
//
// Local paths and file:// URLs are rejected.
func ParseRemoteURL(input string) (*RemoteURL, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, errors.New("empty URL provided")
	}

	if strings.Contains(input, "://") {
		return parseSchemeURL(input)
	}

	matches := scpURLRegex.FindStringSubmatch(input)
	if len(matches) != 3 {
		return nil, errors.Newf("invalid remote URL %q", input)
	}
	return newRemoteURL(input, "ssh", matches[1], matches[2])
}

func parseSchemeURL(input string) (*RemoteURL, error) {
	u, err := url.Parse(input)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid remote URL %q", input)
	}

	scheme := strings.ToLower(u.Scheme)
	found := false
	for _, s := range urlSchemes {
		if scheme == s {
			found = true
			break
		}
	}
	if !found || u.Hostname() == "" {
		return nil, errors.Newf("unsupported remote URL %q", input)
	}
	if scheme == "git+ssh" {
		scheme = "ssh"
	}

	return newRemoteURL(input, scheme, u.Hostname(), strings.TrimSuffix(u.Path, ".git"))
}

func newRemoteURL(input, protocol, host, repoPath string) (*RemoteURL, error) {
	repoPath = strings.Trim(strings.TrimSuffix(strings.Trim(repoPath, "/"), ".git"), "/")
	owner, repo, ok := cutLast(repoPath, "/")
	if !ok || owner == "" || repo == "" {
		return nil, errors.Newf("invalid remote URL %q: want host/owner/repo", input)
	}
	return &RemoteURL{
		Original: input,
		Protocol: protocol,
		Host:     strings.ToLower(host),
		Owner:    owner,
		Repo:     repo,
	}, nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return "", s, false
	}
	return s[:i], s[i+len(sep):], true
}

// Short returns "host/owner/repo".
func (r *RemoteURL) Short() string {
	return r.Host + "/" + r.Owner + "/" + r.Repo
}

// ShortName returns the short form of a remote URL, or the URL unchanged
// when it cannot be parsed.
func ShortName(remote string) string {
	r, err := ParseRemoteURL(remote)
	if err != nil {
		return remote
	}
	return r.Short()
}
