// Package compose implements the keystroke-driven composition state machine.
//
// A Composer owns the uncommitted keystrokes of one input session. Every
// mutation recomputes the candidate list against whatever lexicon is
// currently published and reports the composing text to the Host. Commits
// reset the composition.
//
// A Composer is driven from a single goroutine and does no locking.
package compose

import (
	"errors"
	"fmt"
	"time"
	"unicode"

	"github.com/bastiangx/tinyime/internal/utils"
	"github.com/bastiangx/tinyime/pkg/lexicon"
	"github.com/bastiangx/tinyime/pkg/suggest"
	"github.com/charmbracelet/log"
)

// DefaultCapsLockWindow is the double-shift interval that toggles caps lock.
const DefaultCapsLockWindow = 800 * time.Millisecond

var (
	// ErrOutOfRange is returned when a selection index is outside the candidate list.
	ErrOutOfRange = errors.New("candidate index out of range")
	// ErrNotCandidate is returned when a selected value is not in the candidate list.
	ErrNotCandidate = errors.New("value is not a current candidate")
	// ErrUnknownKey is returned for key kinds the composer does not handle.
	ErrUnknownKey = errors.New("unknown key event")
)

// Host is the text surface. It only ever receives strings.
type Host interface {
	// SetComposingText replaces the editable, uncommitted text.
	SetComposingText(text string)
	// CommitText inserts final text and clears any composing text.
	CommitText(text string)
}

// LexiconSource yields the published lexicon, or nil while it is still loading.
type LexiconSource interface {
	Current() *lexicon.Lexicon
}

// Composer is the composition state machine of one input session.
type Composer struct {
	src  LexiconSource
	host Host

	buffer     []rune
	candidates []string

	opts      suggest.Options
	cache     *suggest.QueryCache
	maxBuffer int

	layer      Layer
	shifted    bool
	capsLock   bool
	lastShift  time.Time
	capsWindow time.Duration
	now        func() time.Time
}

// Option configures a Composer
type Option func(*Composer)

// WithSuggestOptions sets the candidate caps
func WithSuggestOptions(opts suggest.Options) Option {
	return func(c *Composer) { c.opts = opts }
}

// WithCache shares a query cache between sessions
func WithCache(cache *suggest.QueryCache) Option {
	return func(c *Composer) { c.cache = cache }
}

// WithClock replaces time.Now for shift timing
func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.now = now }
}

// WithCapsLockWindow sets the double-shift interval
func WithCapsLockWindow(d time.Duration) Option {
	return func(c *Composer) { c.capsWindow = d }
}

// WithMaxBuffer bounds the composition length; 0 means unbounded.
// Typing past the bound commits what is there and starts over.
func WithMaxBuffer(n int) Option {
	return func(c *Composer) { c.maxBuffer = n }
}

// New creates an empty composer. src may report nil until loading is done.
func New(src LexiconSource, host Host, opts ...Option) *Composer {
	c := &Composer{
		src:        src,
		host:       host,
		opts:       suggest.DefaultOptions(),
		capsWindow: DefaultCapsLockWindow,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Append adds r to the composition when it is a letter.
// Anything else terminates the composition: the buffer and r are committed
// together and the composer resets.
func (c *Composer) Append(r rune) {
	if c.shifted && c.layer == Letters {
		r = unicode.ToUpper(r)
	}
	if !c.capsLock {
		c.shifted = false
	}

	if !utils.IsComposable(r) {
		text := string(c.buffer) + string(r)
		log.Debugf("Terminator %q commits '%s'", r, text)
		c.host.CommitText(text)
		c.Reset()
		return
	}

	if c.maxBuffer > 0 && len(c.buffer) >= c.maxBuffer {
		c.Flush()
	}
	c.buffer = append(c.buffer, r)
	c.recompute()
}

// RemoveLast drops the last buffered character.
// It reports false when there was nothing to drop; the host should then
// apply its own delete.
func (c *Composer) RemoveLast() bool {
	if len(c.buffer) == 0 {
		return false
	}
	c.buffer = c.buffer[:len(c.buffer)-1]
	if len(c.buffer) == 0 {
		c.candidates = nil
		c.host.SetComposingText("")
		return true
	}
	c.recompute()
	return true
}

// Reset clears the buffer and the candidates
func (c *Composer) Reset() {
	c.buffer = nil
	c.candidates = nil
	c.host.SetComposingText("")
}

// Flush commits the buffer literally and resets.
// It returns the committed text, "" when the buffer was empty.
func (c *Composer) Flush() string {
	if len(c.buffer) == 0 {
		return ""
	}
	text := string(c.buffer)
	c.host.CommitText(text)
	c.Reset()
	return text
}

// Select commits the candidate at index i.
// An index outside the current list commits nothing.
func (c *Composer) Select(i int) (string, error) {
	if i < 0 || i >= len(c.candidates) {
		return "", fmt.Errorf("%w: index %d, %d candidates", ErrOutOfRange, i, len(c.candidates))
	}
	return c.commitCandidate(c.candidates[i]), nil
}

// SelectValue commits value if it is one of the current candidates
func (c *Composer) SelectValue(value string) (string, error) {
	for _, cand := range c.candidates {
		if cand == value {
			return c.commitCandidate(cand), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNotCandidate, value)
}

func (c *Composer) commitCandidate(text string) string {
	log.Debugf("Committing candidate '%s' for buffer '%s'", text, string(c.buffer))
	c.host.CommitText(text)
	c.Reset()
	return text
}

// Handle applies one key event.
// handled is false when the host still has work to do: a delete with
// nothing buffered, or the editor action that follows done.
func (c *Composer) Handle(ev KeyEvent) (handled bool, err error) {
	switch ev.Kind {
	case KeyChar:
		c.Append(ev.Char)
		return true, nil
	case KeyDelete:
		return c.RemoveLast(), nil
	case KeyShift:
		c.handleShift()
		return true, nil
	case KeyModeChange:
		c.handleModeChange()
		return true, nil
	case KeySelect:
		if _, err := c.Select(ev.Index); err != nil {
			return false, err
		}
		return true, nil
	case KeyDone:
		c.Flush()
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrUnknownKey, ev.Kind)
}

func (c *Composer) handleShift() {
	switch c.layer {
	case Letters:
		c.checkToggleCapsLock()
		c.shifted = c.capsLock || !c.shifted
	case Symbols:
		c.layer = SymbolsShifted
	case SymbolsShifted:
		c.layer = Symbols
	}
}

// checkToggleCapsLock flips caps lock on a second shift inside the window
func (c *Composer) checkToggleCapsLock() {
	now := c.now()
	if !c.lastShift.IsZero() && now.Sub(c.lastShift) < c.capsWindow {
		c.capsLock = !c.capsLock
		c.lastShift = time.Time{}
		return
	}
	c.lastShift = now
}

func (c *Composer) handleModeChange() {
	if c.layer == Letters {
		c.layer = Symbols
		return
	}
	c.layer = Letters
}

func (c *Composer) recompute() {
	text := string(c.buffer)
	c.candidates = suggest.CandidatesCached(c.current(), text, c.opts, c.cache)
	c.host.SetComposingText(text)
}

func (c *Composer) current() *lexicon.Lexicon {
	if c.src == nil {
		return nil
	}
	return c.src.Current()
}

// Buffer returns the composing text
func (c *Composer) Buffer() string { return string(c.buffer) }

// Candidates returns a copy of the full candidate list
func (c *Composer) Candidates() []string {
	if c.candidates == nil {
		return nil
	}
	out := make([]string, len(c.candidates))
	copy(out, c.candidates)
	return out
}

// Visible returns the candidates a renderer may show
func (c *Composer) Visible() []string {
	return suggest.Visible(c.Candidates(), c.opts.MaxVisible)
}

// State reports whether anything is being composed
func (c *Composer) State() State {
	if len(c.buffer) == 0 {
		return Empty
	}
	return Composing
}

// Layer returns the active key layer
func (c *Composer) Layer() Layer { return c.layer }

// Shifted reports whether the next letter is upper-cased
func (c *Composer) Shifted() bool { return c.shifted }

// CapsLock reports whether caps lock is on
func (c *Composer) CapsLock() bool { return c.capsLock }
