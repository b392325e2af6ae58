// Package ime wires the background dictionary load to composition sessions.
package ime

import (
	"context"
	"sync"

	"github.com/bastiangx/tinyime/pkg/compose"
	"github.com/bastiangx/tinyime/pkg/config"
	"github.com/bastiangx/tinyime/pkg/dictionary"
	"github.com/bastiangx/tinyime/pkg/lexicon"
	"github.com/bastiangx/tinyime/pkg/suggest"
	"github.com/charmbracelet/log"
)

// Engine owns the dictionary loader and the sessions reading from it.
// Sessions never wait for loading; they see an empty lexicon until it is published.
type Engine struct {
	cfg    *config.Config
	loader *dictionary.Loader
	cache  *suggest.QueryCache

	mu       sync.Mutex
	sessions map[*compose.Composer]struct{}
	closed   bool
}

// Stats describes the engine state
type Stats struct {
	Loader   dictionary.LoaderStats
	Sessions int
	Cache    map[string]int
}

// New creates an engine reading dictionary resources from src.
// A nil cfg uses the defaults.
func New(cfg *config.Config, src dictionary.Source) *Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.Sanitize()

	var cache *suggest.QueryCache
	if cfg.Engine.CacheSize > 0 {
		cache = suggest.NewQueryCache(cfg.Engine.CacheSize)
	}
	return &Engine{
		cfg:      cfg,
		loader:   dictionary.NewLoader(src, SpecFromConfig(cfg)),
		cache:    cache,
		sessions: make(map[*compose.Composer]struct{}),
	}
}

// SpecFromConfig maps the [dict] section onto a build spec
func SpecFromConfig(cfg *config.Config) dictionary.Spec {
	return dictionary.Spec{
		Corpus:       cfg.Dict.Corpus,
		Words:        cfg.Dict.Words,
		Alternatives: cfg.Dict.Alternatives,
		Marker:       cfg.Dict.ScriptMarker,
		MaxRetries:   cfg.Dict.MaxRetries,
		RetryDelay:   cfg.Dict.RetryDelay(),
	}
}

// Start begins loading the dictionary in the background
func (e *Engine) Start(ctx context.Context) {
	log.Debugf("Starting engine: corpus=%q words=%q alternatives=%q marker=%q",
		e.cfg.Dict.Corpus, e.cfg.Dict.Words, e.cfg.Dict.Alternatives, e.cfg.Dict.ScriptMarker)
	e.loader.Start(ctx)
}

// Stop abandons any running load and marks the engine closed.
// Open sessions are left to their owners, who release them with EndSession.
func (e *Engine) Stop() {
	e.loader.Stop()

	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}

// Closed reports whether Stop has been called
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// NewSession opens a composer that reports to host
func (e *Engine) NewSession(host compose.Host) *compose.Composer {
	c := compose.New(e.loader, host,
		compose.WithSuggestOptions(suggest.Options{
			MaxConsidered: e.cfg.Engine.MaxCandidates,
			MaxVisible:    e.cfg.Engine.MaxVisible,
		}),
		compose.WithCache(e.cache),
		compose.WithCapsLockWindow(e.cfg.Engine.CapsLockWindow()),
		compose.WithMaxBuffer(e.cfg.Engine.MaxBuffer),
	)

	e.mu.Lock()
	e.sessions[c] = struct{}{}
	e.mu.Unlock()
	return c
}

// EndSession drops the session's uncommitted text and forgets it
func (e *Engine) EndSession(c *compose.Composer) {
	if c == nil {
		return
	}
	c.Reset()

	e.mu.Lock()
	delete(e.sessions, c)
	e.mu.Unlock()
}

// Current returns the published lexicon, or nil while loading
func (e *Engine) Current() *lexicon.Lexicon {
	return e.loader.Current()
}

// Ready is closed once loading has finished
func (e *Engine) Ready() <-chan struct{} {
	return e.loader.Ready()
}

// Wait blocks until the dictionary is published, loading fails, or ctx is done
func (e *Engine) Wait(ctx context.Context) error {
	return e.loader.Wait(ctx)
}

// Config returns the engine configuration
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Stats returns loader, session and cache statistics
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	sessions := len(e.sessions)
	e.mu.Unlock()

	stats := Stats{
		Loader:   e.loader.Stats(),
		Sessions: sessions,
	}
	if e.cache != nil {
		stats.Cache = e.cache.Stats()
	}
	return stats
}
