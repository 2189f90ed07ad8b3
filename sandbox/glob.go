package sandbox

import (
	"regexp"
	"strings"
)

// globToRegexPattern translates a pattern using *, **, and **/ into a regex
// source string. Semantics are preserved exactly as documented rather than
// delegated to a general-purpose glob library, whose `*` often also
// matches `/`:
//
//	**/  -> .*
//	**   -> .*
//	*    -> [^/]*
//
// All other regex metacharacters are escaped literally.
func globToRegexPattern(pattern string) string {
	var b strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch {
		case matchesAt(runes, i, "**/"):
			b.WriteString(".*")
			i += 2 // plus the loop's i++ consumes the '/'
		case matchesAt(runes, i, "**"):
			b.WriteString(".*")
			i++
		case runes[i] == '*':
			b.WriteString("[^/]*")
		case strings.ContainsRune(".+?^${}()|[]\\", runes[i]):
			b.WriteByte('\\')
			b.WriteRune(runes[i])
		default:
			b.WriteRune(runes[i])
		}
	}
	return b.String()
}

func matchesAt(runes []rune, i int, lit string) bool {
	litRunes := []rune(lit)
	if i+len(litRunes) > len(runes) {
		return false
	}
	for j, r := range litRunes {
		if runes[i+j] != r {
			return false
		}
	}
	return true
}

// compileGlob compiles a glob pattern into an unanchored regexp matching
// anywhere in the subject (substring semantics, per the pre-check's
// command-text matching model — not a full-path anchor).
func compileGlob(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(globToRegexPattern(pattern))
}

// hasGlobMeta reports whether s contains glob metacharacters.
func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// sbplStringEscape escapes a string for embedding inside a double-quoted
// Seatbelt profile literal: backslash and quote are escaped.
func sbplStringEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
