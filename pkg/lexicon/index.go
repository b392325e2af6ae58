// Package lexicon holds dictionary entries and the prefix index they are served from.
package lexicon

import (
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Entry is one dictionary word or character with its corpus weight.
type Entry struct {
	Surface   string
	Frequency float64
}

// postings is the ordered entry list of a single key.
// The trie and the exact map share the same pointer.
type postings struct {
	entries []Entry
}

// Index maps spelling and abbreviation keys to the entries filed under them.
// Keys are matched byte for byte; callers normalize before querying.
//
// An Index is built by a single writer and must not be mutated once it has
// been handed to readers. A nil *Index reads as empty.
type Index struct {
	trie    *patricia.Trie
	exact   map[string]*postings
	entries int
}

// NewIndex returns an empty index
func NewIndex() *Index {
	return &Index{
		trie:  patricia.NewTrie(),
		exact: make(map[string]*postings),
	}
}

// Add files e under key, after any entries already there.
func (idx *Index) Add(key string, e Entry) {
	if key == "" {
		return
	}
	p, ok := idx.exact[key]
	if !ok {
		p = &postings{}
		idx.exact[key] = p
		idx.trie.Insert(patricia.Prefix(key), p)
	}
	p.entries = append(p.entries, e)
	idx.entries++
}

// LookupExact returns the entries filed under key.
func (idx *Index) LookupExact(key string) ([]Entry, bool) {
	if idx == nil {
		return nil, false
	}
	p, ok := idx.exact[key]
	if !ok {
		return nil, false
	}
	return p.entries[:len(p.entries):len(p.entries)], true
}

// LookupPrefix returns every key starting with prefix and its entries.
// A miss yields an empty map.
func (idx *Index) LookupPrefix(prefix string) map[string][]Entry {
	matches := make(map[string][]Entry)
	idx.visit(prefix, func(key string, p *postings) {
		matches[key] = p.entries[:len(p.entries):len(p.entries)]
	})
	return matches
}

// PrefixEntries flattens LookupPrefix into one list ordered by key, then by
// insertion order within each key. Ranking relies on that order being stable.
func (idx *Index) PrefixEntries(prefix string) []Entry {
	var keys []string
	lists := make(map[string]*postings)
	idx.visit(prefix, func(key string, p *postings) {
		keys = append(keys, key)
		lists[key] = p
	})
	sort.Strings(keys)

	var out []Entry
	for _, key := range keys {
		out = append(out, lists[key].entries...)
	}
	return out
}

func (idx *Index) visit(prefix string, fn func(key string, p *postings)) {
	if idx == nil {
		return
	}
	visitor := func(p patricia.Prefix, item patricia.Item) error {
		list, ok := item.(*postings)
		if !ok {
			log.Errorf("Unknown item type: %T for key %s", item, p)
			return nil
		}
		key := string(p)
		// only keys that really start with prefix
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		fn(key, list)
		return nil
	}

	var err error
	if prefix == "" {
		// VisitSubtree rejects a nil prefix
		err = idx.trie.Visit(visitor)
	} else {
		err = idx.trie.VisitSubtree(patricia.Prefix(prefix), visitor)
	}
	if err != nil {
		log.Errorf("Error visiting trie subtree: %v", err)
	}
}

// Len returns the number of distinct keys
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.exact)
}

// Entries returns the number of (key, entry) registrations
func (idx *Index) Entries() int {
	if idx == nil {
		return 0
	}
	return idx.entries
}

// Keys returns all keys in lexicographic order
func (idx *Index) Keys() []string {
	if idx == nil {
		return nil
	}
	keys := make([]string, 0, len(idx.exact))
	for k := range idx.exact {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
