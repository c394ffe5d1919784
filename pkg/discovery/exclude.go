package discovery

import (
	"github.com/gobwas/glob"

	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
)

// Excludes matches directory paths against glob patterns. '*' stops at '/',
// '**' crosses it. A nil *Excludes matches nothing.
type Excludes struct {
	patterns []string
	globs    []glob.Glob
}

// CompileExcludes compiles patterns, failing on the first invalid one.
func CompileExcludes(patterns []string) (*Excludes, error) {
	e := &Excludes{patterns: patterns}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, gmerrors.NewConfigErrorWithCause("scanner.excludes", "invalid glob pattern "+p, err)
		}
		e.globs = append(e.globs, g)
	}
	return e, nil
}

// Match reports whether path matches any pattern.
func (e *Excludes) Match(path string) bool {
	if e == nil {
		return false
	}
	for _, g := range e.globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// Patterns returns the source patterns.
func (e *Excludes) Patterns() []string {
	if e == nil {
		return nil
	}
	return e.patterns
}
