// Package gitclient launches the user's git client on a repository.
package gitclient

import (
	"fmt"
	"strings"

	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
)

// ErrTrailingPercent is returned for a template ending in a lone '%'.
var ErrTrailingPercent = gmerrors.New("malformed percent sequence at end of string")

// UnknownFormatCharacterError reports a '%x' sequence with no value for x.
type UnknownFormatCharacterError struct {
	Char rune
}

func (e *UnknownFormatCharacterError) Error() string {
	return fmt.Sprintf("unknown format character %q", e.Char)
}

// Format substitutes each '%c' in tmpl with values[c]. '%%' is a literal
// percent sign.
func Format(tmpl string, values map[rune]string) (string, error) {
	var (
		b       strings.Builder
		percent bool
	)
	b.Grow(len(tmpl))

	for _, c := range tmpl {
		switch {
		case percent && c == '%':
			b.WriteRune('%')
			percent = false
		case percent:
			v, ok := values[c]
			if !ok {
				return "", &UnknownFormatCharacterError{Char: c}
			}
			b.WriteString(v)
			percent = false
		case c == '%':
			percent = true
		default:
			b.WriteRune(c)
		}
	}

	if percent {
		return "", ErrTrailingPercent
	}
	return b.String(), nil
}

// FormatArgs formats every argument template with %f bound to path.
func FormatArgs(args []string, path string) ([]string, error) {
	values := map[rune]string{'f': path}
	out := make([]string, 0, len(args))
	for _, a := range args {
		s, err := Format(a, values)
		if err != nil {
			return nil, gmerrors.Wrapf(err, "git client argument %q", a)
		}
		out = append(out, s)
	}
	return out, nil
}
