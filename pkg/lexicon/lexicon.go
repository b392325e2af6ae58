package lexicon

import "github.com/bastiangx/tinyime/internal/utils"

// Stats describes a built lexicon.
type Stats struct {
	Keys         int
	Entries      int
	Alternatives int
	Corpus       ParseStats
	Words        int
	Sources      int
	FailedSource int
}

// Lexicon is the read-only bundle handed to composition once loading is done.
// A nil *Lexicon behaves as an empty one.
type Lexicon struct {
	index        *Index
	alternatives map[string][]string
	stats        Stats
}

// New wraps a finished index and fallback mapping. Neither may be mutated afterwards.
func New(idx *Index, alternatives map[string][]string, stats Stats) *Lexicon {
	if idx == nil {
		idx = NewIndex()
	}
	if alternatives == nil {
		alternatives = map[string][]string{}
	}
	stats.Keys = idx.Len()
	stats.Entries = idx.Entries()
	stats.Alternatives = len(alternatives)
	return &Lexicon{
		index:        idx,
		alternatives: alternatives,
		stats:        stats,
	}
}

// AddWord files a Latin word under its lower-cased form.
func AddWord(idx *Index, word string, frequency float64) bool {
	key := utils.NormalizeKey(word)
	if !utils.IsValidKey(key) || frequency < 0 {
		return false
	}
	idx.Add(key, Entry{Surface: utils.NormalizeSurface(word), Frequency: frequency})
	return true
}

// Index returns the prefix index
func (l *Lexicon) Index() *Index {
	if l == nil {
		return nil
	}
	return l.index
}

// Exact returns the entries registered under key
func (l *Lexicon) Exact(key string) ([]Entry, bool) {
	return l.Index().LookupExact(key)
}

// Prefix returns the entries of every key starting with prefix, in key order
func (l *Lexicon) Prefix(prefix string) []Entry {
	return l.Index().PrefixEntries(prefix)
}

// Alternates returns the fallback candidates for a spelling
func (l *Lexicon) Alternates(key string) []string {
	if l == nil {
		return nil
	}
	return l.alternatives[key]
}

// Stats returns build statistics
func (l *Lexicon) Stats() Stats {
	if l == nil {
		return Stats{}
	}
	return l.stats
}
