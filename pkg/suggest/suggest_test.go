package suggest

import (
	"fmt"
	"testing"

	"github.com/bastiangx/tinyime/pkg/lexicon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLexicon() *lexicon.Lexicon {
	idx := lexicon.NewIndex()
	idx.Add("dong", lexicon.Entry{Surface: "东", Frequency: 10})
	idx.Add("dot", lexicon.Entry{Surface: "dot", Frequency: 50})
	return lexicon.New(idx, map[string][]string{"zz": {"仔", "子", "仔"}}, lexicon.Stats{})
}

func TestCandidatesPrefixHits(t *testing.T) {
	got := Candidates(sampleLexicon(), "do", DefaultOptions())
	assert.Equal(t, []string{"do", "dot", "东"}, got)
}

func TestCandidatesExactWins(t *testing.T) {
	idx := lexicon.NewIndex()
	idx.Add("na", lexicon.Entry{Surface: "那", Frequency: 9})
	idx.Add("na", lexicon.Entry{Surface: "拿", Frequency: 9})
	idx.Add("nan", lexicon.Entry{Surface: "南", Frequency: 100})
	lex := lexicon.New(idx, nil, lexicon.Stats{})

	assert.Equal(t, []string{"na", "那", "拿"}, Candidates(lex, "na", DefaultOptions()))
	assert.Equal(t, []string{"n", "南", "那", "拿"}, Candidates(lex, "n", DefaultOptions()))
}

func TestCandidatesFallsBackToAlternatives(t *testing.T) {
	got := Candidates(sampleLexicon(), "zz", DefaultOptions())
	assert.Equal(t, []string{"zz", "仔", "子"}, got)
}

func TestCandidatesUnreadyOrEmpty(t *testing.T) {
	assert.Nil(t, Candidates(sampleLexicon(), "", DefaultOptions()))
	assert.Equal(t, []string{"do"}, Candidates(nil, "do", DefaultOptions()))
	assert.Equal(t, []string{"q"}, Candidates(lexicon.New(nil, nil, lexicon.Stats{}), "q", DefaultOptions()))
}

func TestCandidatesLowercasesQueryKeepsLiteral(t *testing.T) {
	got := Candidates(sampleLexicon(), "Do", DefaultOptions())
	assert.Equal(t, []string{"Do", "dot", "东"}, got)
}

func TestCandidatesKeepStoredSurface(t *testing.T) {
	idx := lexicon.NewIndex()
	idx.Add("iphone", lexicon.Entry{Surface: "iPhone", Frequency: 5})
	lex := lexicon.New(idx, nil, lexicon.Stats{})

	assert.Equal(t, []string{"IP", "iPhone"}, Candidates(lex, "IP", DefaultOptions()))
	assert.Equal(t, []string{"DO", "dot", "东"}, Candidates(sampleLexicon(), "DO", DefaultOptions()))
}

func TestCandidatesLatinExactHidesLonger(t *testing.T) {
	idx := lexicon.NewIndex()
	idx.Add("the", lexicon.Entry{Surface: "the", Frequency: 90})
	idx.Add("there", lexicon.Entry{Surface: "there", Frequency: 40})
	idx.Add("these", lexicon.Entry{Surface: "these", Frequency: 30})
	lex := lexicon.New(idx, nil, lexicon.Stats{})

	assert.Equal(t, []string{"the"}, Candidates(lex, "the", DefaultOptions()))
	assert.Equal(t, []string{"th", "the", "there", "these"}, Candidates(lex, "th", DefaultOptions()))
}

func TestCandidatesLiteralDeduplicated(t *testing.T) {
	idx := lexicon.NewIndex()
	idx.Add("dot", lexicon.Entry{Surface: "dot", Frequency: 50})
	lex := lexicon.New(idx, nil, lexicon.Stats{})
	assert.Equal(t, []string{"dot"}, Candidates(lex, "dot", DefaultOptions()))
}

func TestCandidatesConsideredCap(t *testing.T) {
	idx := lexicon.NewIndex()
	for i := 0; i < 40; i++ {
		idx.Add("a", lexicon.Entry{Surface: fmt.Sprintf("w%02d", i), Frequency: float64(100 - i)})
	}
	lex := lexicon.New(idx, nil, lexicon.Stats{})

	got := Candidates(lex, "a", DefaultOptions())
	require.Len(t, got, DefaultMaxConsidered)
	assert.Equal(t, "a", got[0])
	assert.Equal(t, "w00", got[1])

	assert.Len(t, Visible(got, DefaultMaxVisible), DefaultMaxVisible)
	assert.Len(t, Visible(got, 0), DefaultMaxConsidered)
	assert.Len(t, Visible([]string{"a"}, 12), 1)

	unbounded := Candidates(lex, "a", Options{})
	assert.Len(t, unbounded, 41)
}

func TestRankOrderAndStability(t *testing.T) {
	entries := []lexicon.Entry{
		{Surface: "懂", Frequency: 8},
		{Surface: "东", Frequency: 9},
		{Surface: "动", Frequency: 7},
		{Surface: "洞", Frequency: 9},
		{Surface: "东", Frequency: 1},
	}
	want := []string{"东", "洞", "懂", "动"}
	assert.Equal(t, want, Rank(entries))
	assert.Equal(t, Rank(entries), Rank(entries), "ranking is deterministic")

	// input untouched
	assert.Equal(t, "懂", entries[0].Surface)
}

func TestRankDuplicateKeepsBestPosition(t *testing.T) {
	entries := []lexicon.Entry{
		{Surface: "b", Frequency: 1},
		{Surface: "a", Frequency: 5},
		{Surface: "b", Frequency: 10},
	}
	assert.Equal(t, []string{"b", "a"}, Rank(entries))
}

func TestRankRefsDropsNil(t *testing.T) {
	a := &lexicon.Entry{Surface: "a", Frequency: 1}
	b := &lexicon.Entry{Surface: "b", Frequency: 2}
	assert.Equal(t, []string{"b", "a"}, RankRefs([]*lexicon.Entry{nil, a, nil, b}))
	assert.Nil(t, RankRefs(nil))
	assert.Nil(t, Rank(nil))
}

func TestDedupIdempotent(t *testing.T) {
	inputs := [][]string{
		{"a", "b", "a", "c", "b"},
		{"x"},
		{},
	}
	for _, in := range inputs {
		once := Dedup(in)
		assert.Equal(t, once, Dedup(once))
	}
	assert.Equal(t, []string{"a", "b", "c"}, Dedup(inputs[0]))
	assert.Nil(t, Dedup(nil))
}

func TestQueryCache(t *testing.T) {
	lex := sampleLexicon()
	cache := NewQueryCache(2)

	_, ok := cache.Get(lex, "do")
	assert.False(t, ok)

	got := CandidatesCached(lex, "do", DefaultOptions(), cache)
	assert.Equal(t, []string{"do", "dot", "东"}, got)
	words, ok := cache.Get(lex, "do")
	require.True(t, ok)
	assert.Equal(t, []string{"dot", "东"}, words)

	// a cached hit keeps the typed literal only
	assert.Equal(t, []string{"DO", "dot", "东"}, CandidatesCached(lex, "DO", DefaultOptions(), cache))

	cache.Put(lex, "a", nil)
	cache.Put(lex, "b", nil)
	stats := cache.Stats()
	assert.Equal(t, 2, stats["cachedQueries"])
	_, ok = cache.Get(lex, "do")
	assert.False(t, ok, "least recently used query is evicted")

	other := sampleLexicon()
	_, ok = cache.Get(other, "a")
	assert.False(t, ok)
	cache.Put(other, "x", []string{"y"})
	assert.Equal(t, 1, cache.Stats()["cachedQueries"])

	assert.Equal(t, DefaultCacheSize, NewQueryCache(0).Stats()["maxQueries"])
	assert.Equal(t, []string{"do", "dot", "东"}, CandidatesCached(lex, "do", DefaultOptions(), nil))
}
