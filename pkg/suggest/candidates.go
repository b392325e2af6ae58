package suggest

import (
	"github.com/bastiangx/tinyime/internal/utils"
	"github.com/bastiangx/tinyime/pkg/lexicon"
	"github.com/charmbracelet/log"
)

const (
	// DefaultMaxConsidered caps the list before the final dedup.
	DefaultMaxConsidered = 20
	// DefaultMaxVisible caps what a renderer is given.
	DefaultMaxVisible = 12
)

// Options tunes candidate assembly
type Options struct {
	MaxConsidered int
	MaxVisible    int
}

// DefaultOptions returns the stock caps
func DefaultOptions() Options {
	return Options{
		MaxConsidered: DefaultMaxConsidered,
		MaxVisible:    DefaultMaxVisible,
	}
}

// Lookup returns the ranked dictionary surfaces for a normalized key.
// Exact hits win over prefix hits; the alternatives mapping is only
// consulted when the index has nothing at all.
func Lookup(lex *lexicon.Lexicon, key string) []string {
	if key == "" {
		return nil
	}
	if entries, ok := lex.Exact(key); ok {
		return Rank(entries)
	}
	if ranked := Rank(lex.Prefix(key)); len(ranked) > 0 {
		return ranked
	}
	return Dedup(lex.Alternates(key))
}

// Candidates builds the list for a composition buffer.
// The buffer itself always comes first so literal input stays committable.
// Dictionary surfaces are returned as stored, whatever the buffer's case.
func Candidates(lex *lexicon.Lexicon, buffer string, opts Options) []string {
	return assemble(buffer, Lookup(lex, utils.NormalizeKey(buffer)), opts)
}

// CandidatesCached is Candidates with dictionary hits served from cache.
func CandidatesCached(lex *lexicon.Lexicon, buffer string, opts Options, cache *QueryCache) []string {
	if cache == nil {
		return Candidates(lex, buffer, opts)
	}
	key := utils.NormalizeKey(buffer)
	ranked, ok := cache.Get(lex, key)
	if !ok {
		ranked = Lookup(lex, key)
		cache.Put(lex, key, ranked)
	}
	return assemble(buffer, ranked, opts)
}

func assemble(buffer string, ranked []string, opts Options) []string {
	if buffer == "" {
		return nil
	}
	list := make([]string, 0, len(ranked)+1)
	list = append(list, buffer)
	list = append(list, ranked...)
	if opts.MaxConsidered > 0 && len(list) > opts.MaxConsidered {
		list = list[:opts.MaxConsidered]
	}
	out := Dedup(list)
	log.Debugf("Candidates for '%s': %d (from %d hits)", buffer, len(out), len(ranked))
	return out
}

// Visible trims a candidate list to what a renderer may show.
func Visible(candidates []string, max int) []string {
	if max <= 0 || len(candidates) <= max {
		return candidates
	}
	return candidates[:max]
}
