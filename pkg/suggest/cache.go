package suggest

import (
	"math"
	"sync"

	"github.com/bastiangx/tinyime/pkg/lexicon"
	"github.com/charmbracelet/log"
)

// DefaultCacheSize is the number of queries kept by NewQueryCache(0).
const DefaultCacheSize = 2048

type cachedQuery struct {
	words      []string
	accessTime int64
}

// QueryCache remembers ranked lookups for the lexicon they were computed
// against. Publishing a different lexicon drops every cached query.
type QueryCache struct {
	lex         *lexicon.Lexicon
	queries     map[string]*cachedQuery
	accessCount int64
	hits        int64
	misses      int64
	maxQueries  int
	mu          sync.RWMutex
}

// NewQueryCache creates a cache holding at most maxQueries results
func NewQueryCache(maxQueries int) *QueryCache {
	if maxQueries <= 0 {
		maxQueries = DefaultCacheSize
	}
	return &QueryCache{
		queries:    make(map[string]*cachedQuery, maxQueries),
		maxQueries: maxQueries,
	}
}

// Get returns the cached ranking of key for lex
func (qc *QueryCache) Get(lex *lexicon.Lexicon, key string) ([]string, bool) {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	if qc.lex != lex {
		qc.misses++
		return nil, false
	}
	q, ok := qc.queries[key]
	if !ok {
		qc.misses++
		return nil, false
	}
	qc.hits++
	q.accessTime = qc.nextAccessTime()
	return q.words, true
}

// Put stores the ranking of key for lex
func (qc *QueryCache) Put(lex *lexicon.Lexicon, key string, words []string) {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	if qc.lex != lex {
		if len(qc.queries) > 0 {
			log.Debugf("Lexicon changed, dropping %d cached queries", len(qc.queries))
		}
		qc.lex = lex
		qc.queries = make(map[string]*cachedQuery, qc.maxQueries)
	}
	if _, exists := qc.queries[key]; !exists && len(qc.queries) >= qc.maxQueries {
		qc.evictLRU()
	}
	qc.queries[key] = &cachedQuery{words: words, accessTime: qc.nextAccessTime()}
}

// Stats returns cache counters
func (qc *QueryCache) Stats() map[string]int {
	qc.mu.RLock()
	defer qc.mu.RUnlock()

	return map[string]int{
		"cachedQueries": len(qc.queries),
		"maxQueries":    qc.maxQueries,
		"cacheHits":     int(qc.hits),
		"cacheMisses":   int(qc.misses),
	}
}

func (qc *QueryCache) nextAccessTime() int64 {
	qc.accessCount++
	return qc.accessCount
}

func (qc *QueryCache) evictLRU() {
	var oldestKey string
	var oldestTime int64 = math.MaxInt64

	for key, q := range qc.queries {
		if q.accessTime < oldestTime {
			oldestTime = q.accessTime
			oldestKey = key
		}
	}
	if oldestTime != math.MaxInt64 {
		delete(qc.queries, oldestKey)
		log.Debugf("Evicted query '%s' from cache", oldestKey)
	}
}
