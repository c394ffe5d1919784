package ui

import (
	"path/filepath"
	"strings"
)

// CommonDirPrefixLen returns the length of the longest prefix of a and b that
// ends with a '/'. Identical strings without a trailing slash share nothing
// beyond their last separator.
func CommonDirPrefixLen(a, b string) int {
	n := min(len(a), len(b))
	last := 0
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			break
		}
		if a[i] == '/' {
			last = i + 1
		}
	}
	return last
}

// DisplayPath replaces a leading home directory with ~.
func DisplayPath(path, home string) string {
	if home == "" || home == "/" {
		return path
	}
	home = strings.TrimSuffix(home, string(filepath.Separator))
	if path == home {
		return "~"
	}
	if rest, ok := strings.CutPrefix(path, home+string(filepath.Separator)); ok {
		return "~/" + rest
	}
	return path
}

// matchesFilter reports whether every space separated term of filter occurs,
// case-insensitively, in the path or one of the remote URLs.
func matchesFilter(filter string, haystacks ...string) bool {
	terms := strings.Fields(strings.ToLower(filter))
	if len(terms) == 0 {
		return true
	}
	lowered := make([]string, len(haystacks))
	for i, h := range haystacks {
		lowered[i] = strings.ToLower(h)
	}
	for _, term := range terms {
		found := false
		for _, h := range lowered {
			if strings.Contains(h, term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
