package utils

import (
	"unicode"
	"unicode/utf8"
)

// IsComposable reports whether r extends a composition.
// Anything else terminates it.
func IsComposable(r rune) bool {
	return unicode.IsLetter(r)
}

// IsValidKey checks if a corpus spelling can be indexed.
// Keys must be non-empty, valid UTF-8 and made of letters only.
func IsValidKey(s string) bool {
	if len(s) == 0 || !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// FirstRune returns the first character of s, or "" when s is empty.
func FirstRune(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return ""
	}
	return s[:size]
}
