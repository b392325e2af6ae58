package dictionary

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bastiangx/tinyime/internal/logger"
	"github.com/bastiangx/tinyime/pkg/lexicon"
)

// ErrNotReady is returned while no lexicon has been published.
var ErrNotReady = errors.New("lexicon not ready")

// LoaderStats provides statistics about the loading process
type LoaderStats struct {
	Started  bool
	Loading  bool
	Ready    bool
	Duration time.Duration
	Lexicon  lexicon.Stats
}

// Loader builds one lexicon in the background and publishes it once.
// Readers never block: Current returns nil until the build has finished.
type Loader struct {
	src  Source
	spec Spec

	current atomic.Pointer[lexicon.Lexicon]

	mu       sync.Mutex
	started  bool
	cancel   context.CancelFunc
	err      error
	duration time.Duration
	ready    chan struct{}
	done     chan struct{}
}

// NewLoader creates a loader for spec over src
func NewLoader(src Source, spec Spec) *Loader {
	return &Loader{
		src:   src,
		spec:  spec,
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Start launches the build. Calling it more than once has no effect.
func (l *Loader) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return
	}
	l.started = true

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	go l.run(ctx)
}

func (l *Loader) run(ctx context.Context) {
	defer close(l.done)
	defer close(l.ready)

	lg := logger.New("loader")
	start := time.Now()
	lg.Debug("Building lexicon")

	lex, err := Build(ctx, l.src, l.spec)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.duration = time.Since(start)

	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		l.err = err
		lg.Debugf("Lexicon build abandoned: %v", err)
		return
	}

	l.current.Store(lex)
	stats := lex.Stats()
	lg.Debugf("Lexicon ready in %v (%d keys, %d entries)", l.duration, stats.Keys, stats.Entries)
}

// Current returns the published lexicon, or nil while loading
func (l *Loader) Current() *lexicon.Lexicon {
	return l.current.Load()
}

// Ready is closed when the build has finished, published or not
func (l *Loader) Ready() <-chan struct{} {
	return l.ready
}

// Wait blocks until the build finishes or ctx is done.
func (l *Loader) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ready:
	}
	if l.Current() != nil {
		return nil
	}
	if err := l.Err(); err != nil {
		return err
	}
	return ErrNotReady
}

// Stop cancels a running build and waits for it to exit.
// A cancelled build is never published.
func (l *Loader) Stop() {
	l.mu.Lock()
	started, cancel := l.started, l.cancel
	l.mu.Unlock()
	if !started {
		return
	}
	cancel()
	<-l.done
}

// Err returns why the build ended without publishing
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Stats returns loader statistics
func (l *Loader) Stats() LoaderStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	lex := l.current.Load()
	loading := l.started
	select {
	case <-l.done:
		loading = false
	default:
	}
	return LoaderStats{
		Started:  l.started,
		Loading:  loading,
		Ready:    lex != nil,
		Duration: l.duration,
		Lexicon:  lex.Stats(),
	}
}
