// Package cli drives a composition session from stdin lines for DBG and testing
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/tinyime/internal/utils"
	"github.com/bastiangx/tinyime/pkg/compose"
	"github.com/bastiangx/tinyime/pkg/config"
	"github.com/bastiangx/tinyime/pkg/ime"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// printHost collects commits until the next render
type printHost struct {
	composing string
	commits   []string
}

func (h *printHost) SetComposingText(text string) { h.composing = text }

func (h *printHost) CommitText(text string) {
	h.commits = append(h.commits, text)
	h.composing = ""
}

type styles struct {
	composing lipgloss.Style
	candidate lipgloss.Style
	literal   lipgloss.Style
	commit    lipgloss.Style
	dim       lipgloss.Style
}

func newStyles(out io.Writer, noColor bool) styles {
	r := lipgloss.NewRenderer(out)
	s := styles{
		composing: r.NewStyle().Underline(true),
		candidate: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"}),
		literal:   r.NewStyle().Italic(true),
		commit:    r.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}),
		dim:       r.NewStyle().Faint(true),
	}
	if noColor {
		plain := r.NewStyle()
		s = styles{composing: plain, candidate: plain, literal: plain, commit: plain, dim: plain}
	}
	return s
}

// InputHandler reads lines and feeds them to one composition session.
// Plain text is typed key by key; lines starting with ':' are commands.
type InputHandler struct {
	engine       *ime.Engine
	session      *compose.Composer
	host         *printHost
	in           io.Reader
	out          *log.Logger
	styles       styles
	prompt       string
	showHidden   bool
	requestCount int
}

// NewInputHandler opens a session on engine reading from in and printing to out
func NewInputHandler(engine *ime.Engine, cfg config.CliConfig, in io.Reader, out io.Writer) *InputHandler {
	logger := log.NewWithOptions(out, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
	})
	host := &printHost{}
	return &InputHandler{
		engine:     engine,
		session:    engine.NewSession(host),
		host:       host,
		in:         in,
		out:        logger,
		styles:     newStyles(out, cfg.NoColor),
		prompt:     cfg.Prompt,
		showHidden: cfg.ShowHidden,
	}
}

// Start runs the loop until EOF or :q
func (h *InputHandler) Start() error {
	defer h.engine.EndSession(h.session)

	h.out.Print("tinyime CLI [DBG]")
	h.out.Print("type letters and press Enter, :help lists commands (Ctrl+C to exit)")

	reader := bufio.NewReader(h.in)
	for {
		h.out.Print(h.prompt)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			if quit := h.handleInput(line); quit {
				return nil
			}
		}
		if err != nil {
			return nil
		}
	}
}

// handleInput runs one line and prints the resulting session state.
// It reports true when the user asked to quit.
func (h *InputHandler) handleInput(line string) bool {
	h.requestCount++
	start := time.Now()

	if strings.HasPrefix(line, ":") {
		quit, err := h.handleCommand(line)
		if quit {
			return true
		}
		if err != nil {
			h.out.Errorf("%v", err)
		}
	} else {
		for _, r := range line {
			h.session.Append(r)
		}
	}

	log.Debugf("Took [ %v ] for '%s'", time.Since(start), line)
	h.render()
	return false
}

func (h *InputHandler) handleCommand(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case ":q", ":quit":
		return true, nil
	case ":help":
		h.help()
	case ":bs":
		if !h.session.RemoveLast() {
			h.out.Print(h.styles.dim.Render("(nothing to delete)"))
		}
	case ":shift":
		_, err = h.session.Handle(compose.KeyEvent{Kind: compose.KeyShift})
	case ":mode":
		_, err = h.session.Handle(compose.KeyEvent{Kind: compose.KeyModeChange})
	case ":done":
		h.session.Flush()
	case ":reset":
		h.session.Reset()
	case ":sel":
		if len(args) != 1 {
			return false, errors.New("usage: :sel N")
		}
		n, convErr := strconv.Atoi(args[0])
		if convErr != nil {
			return false, fmt.Errorf("invalid candidate number %q", args[0])
		}
		_, err = h.session.Select(n - 1)
	case ":pick":
		if len(args) != 1 {
			return false, errors.New("usage: :pick WORD")
		}
		_, err = h.session.SelectValue(args[0])
	case ":stats":
		h.stats()
	default:
		err = fmt.Errorf("unknown command %s", cmd)
	}
	return false, err
}

func (h *InputHandler) render() {
	for _, c := range h.host.commits {
		h.out.Print("commit", "text", h.styles.commit.Render(c))
	}
	h.host.commits = nil

	if h.session.State() == compose.Empty {
		return
	}

	state := []any{"composing", h.styles.composing.Render(h.session.Buffer())}
	if h.session.CapsLock() {
		state = append(state, "caps", "lock")
	} else if h.session.Shifted() {
		state = append(state, "caps", "shift")
	}
	if h.session.Layer() != compose.Letters {
		state = append(state, "layer", h.session.Layer().String())
	}
	if h.engine.Current() == nil {
		state = append(state, "dict", "loading")
	}
	h.out.Print("", state...)

	candidates := h.session.Visible()
	if h.showHidden {
		candidates = h.session.Candidates()
	}
	for i, c := range candidates {
		word := h.styles.candidate.Render(c)
		if i == 0 {
			word = h.styles.literal.Render(c)
		}
		h.out.Printf("%2d. %s", i+1, word)
	}
	if hidden := len(h.session.Candidates()) - len(candidates); hidden > 0 {
		h.out.Print(h.styles.dim.Render(fmt.Sprintf("    (+%d more)", hidden)))
	}
}

func (h *InputHandler) stats() {
	stats := h.engine.Stats()
	lex := stats.Loader.Lexicon
	h.out.Print("dictionary",
		"ready", stats.Loader.Ready,
		"keys", utils.FormatWithCommas(lex.Keys),
		"entries", utils.FormatWithCommas(lex.Entries),
		"alternatives", utils.FormatWithCommas(lex.Alternatives),
		"load", stats.Loader.Duration)
	h.out.Print("corpus",
		"lines", utils.FormatWithCommas(lex.Corpus.Lines),
		"accepted", utils.FormatWithCommas(lex.Corpus.Accepted),
		"skipped", utils.FormatWithCommas(lex.Corpus.Skipped),
		"malformed", utils.FormatWithCommas(lex.Corpus.Malformed))
	if stats.Cache != nil {
		h.out.Print("cache",
			"queries", stats.Cache["cachedQueries"],
			"hits", stats.Cache["cacheHits"],
			"misses", stats.Cache["cacheMisses"])
	}
	h.out.Print("session", "sessions", stats.Sessions, "lines", h.requestCount)
}

func (h *InputHandler) help() {
	for _, l := range []string{
		"letters      compose; any other character commits with the composition",
		":bs          delete the last composed character",
		":shift       shift (twice quickly for caps lock)",
		":mode        switch letters/symbols",
		":sel N       commit candidate N",
		":pick WORD   commit the candidate equal to WORD",
		":done        commit the composition as typed",
		":reset       drop the composition",
		":stats       dictionary and cache statistics",
		":q           quit",
	} {
		h.out.Print(h.styles.dim.Render(l))
	}
}
