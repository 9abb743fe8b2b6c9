package notes

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify derives the canonical path for a title. The input is NFKD-normalized
// so accented characters decompose into a base letter plus combining marks,
// lowercased, and trimmed; whitespace runs and literal hyphens become a single
// hyphen, kept wherever they fall, and every other rune outside [a-z0-9_] is
// dropped. A hyphen at either end survives: "- list item" derives "-list-item",
// and re-deriving a stored slug always reproduces it.
//
// An empty result means the input carried no usable characters. Callers must
// treat that as a validation failure, never as a valid path. Distinct titles
// may produce the same slug; resolving that collision is the orchestrator's
// job, not this function's.
func Slugify(text string) string {
	if text == "" {
		return ""
	}

	decomposed := norm.NFKD.String(strings.ToLower(strings.TrimSpace(text)))

	var builder strings.Builder
	builder.Grow(len(decomposed))
	prevHyphen := false
	for _, r := range decomposed {
		switch {
		case unicode.IsSpace(r) || r == '-':
			if !prevHyphen {
				builder.WriteByte('-')
				prevHyphen = true
			}
		case isSlugRune(r):
			builder.WriteRune(r)
			prevHyphen = false
		}
	}

	return builder.String()
}

func isSlugRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_'
}
