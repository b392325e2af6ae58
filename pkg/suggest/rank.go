// Package suggest turns index hits into the ordered candidate list shown while composing.
package suggest

import (
	"sort"

	"github.com/bastiangx/tinyime/pkg/lexicon"
)

// Rank orders entries by descending frequency and collapses duplicate surfaces.
// Equal frequencies keep their input order.
func Rank(entries []lexicon.Entry) []string {
	if len(entries) == 0 {
		return nil
	}
	sorted := make([]lexicon.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Frequency > sorted[j].Frequency
	})

	words := make([]string, 0, len(sorted))
	for _, e := range sorted {
		words = append(words, e.Surface)
	}
	return Dedup(words)
}

// RankRefs is Rank for entry references; nil references are dropped.
func RankRefs(refs []*lexicon.Entry) []string {
	entries := make([]lexicon.Entry, 0, len(refs))
	for _, r := range refs {
		if r == nil {
			continue
		}
		entries = append(entries, *r)
	}
	return Rank(entries)
}

// Dedup keeps the first occurrence of every word.
func Dedup(words []string) []string {
	if words == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
