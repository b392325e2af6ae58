package utils

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeKey folds typed input or a corpus spelling into lookup form.
// Full-width Latin collapses to ASCII under NFKC before lower-casing.
func NormalizeKey(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

// NormalizeSurface puts a surface form in canonical composition
func NormalizeSurface(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
