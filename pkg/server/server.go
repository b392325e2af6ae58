package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/bastiangx/tinyime/internal/logger"
	"github.com/bastiangx/tinyime/pkg/compose"
	"github.com/bastiangx/tinyime/pkg/ime"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// sessionHost buffers what the composer reports during one request.
type sessionHost struct {
	composing string
	commits   []string
}

func (h *sessionHost) SetComposingText(text string) { h.composing = text }

func (h *sessionHost) CommitText(text string) {
	h.commits = append(h.commits, text)
	h.composing = ""
}

func (h *sessionHost) takeCommits() []string {
	commits := h.commits
	h.commits = nil
	return commits
}

// Server handles the IPC for one composition session
type Server struct {
	engine  *ime.Engine
	session *compose.Composer
	host    *sessionHost

	dec    *msgpack.Decoder
	writer *bufio.Writer
	enc    *msgpack.Encoder
	log    *log.Logger

	allCandidates bool
	requests      int
}

// NewServer creates a server reading requests from r and writing responses to w
func NewServer(engine *ime.Engine, r io.Reader, w io.Writer) *Server {
	host := &sessionHost{}
	bw := bufio.NewWriter(w)
	return &Server{
		engine:        engine,
		session:       engine.NewSession(host),
		host:          host,
		dec:           msgpack.NewDecoder(bufio.NewReader(r)),
		writer:        bw,
		enc:           msgpack.NewEncoder(bw),
		log:           logger.New("server"),
		allCandidates: engine.Config().Server.AllCandidates,
	}
}

// Start announces the loader state and serves requests until EOF or ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.log.Debug("Starting server")
	defer s.engine.EndSession(s.session)

	if err := s.send(s.status("")); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var raw msgpack.RawMessage
		if err := s.dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Debug("Input closed")
				return nil
			}
			s.log.Errorf("Reading request: %v", err)
			return fmt.Errorf("reading request: %w", err)
		}
		s.requests++

		if err := s.send(s.handle(raw)); err != nil {
			return err
		}
	}
}

func (s *Server) handle(raw msgpack.RawMessage) any {
	var req Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		s.log.Debugf("Invalid request: %v", err)
		return ErrorResponse{Error: "invalid msgpack request", Code: CodeBadRequest}
	}

	if req.Action != "" {
		return s.handleAction(req)
	}
	return s.handleKey(req)
}

func (s *Server) handleAction(req Request) any {
	switch req.Action {
	case "status":
		return s.status(req.ID)
	case "reset":
		s.session.Reset()
		return s.keyResponse(req.ID, true)
	}
	return ErrorResponse{ID: req.ID, Error: fmt.Sprintf("unknown action: %s", req.Action), Code: CodeBadRequest}
}

func (s *Server) handleKey(req Request) any {
	kind, ok := compose.ParseKeyKind(req.Kind)
	if !ok {
		return ErrorResponse{ID: req.ID, Error: fmt.Sprintf("unknown key kind: %q", req.Kind), Code: CodeBadRequest}
	}

	ev := compose.KeyEvent{Kind: kind, Index: req.Index}
	if kind == compose.KeyChar {
		r, size := utf8.DecodeRuneInString(req.Char)
		if r == utf8.RuneError || size != len(req.Char) {
			return ErrorResponse{ID: req.ID, Error: "char must be exactly one character", Code: CodeBadRequest}
		}
		ev.Char = r
	}

	handled, err := s.session.Handle(ev)
	if err != nil {
		s.host.takeCommits()
		s.log.Debugf("Key %s rejected: %v", kind, err)
		code := CodeBadRequest
		if errors.Is(err, compose.ErrOutOfRange) {
			code = CodeOutOfRange
		}
		return ErrorResponse{ID: req.ID, Error: err.Error(), Code: code}
	}
	return s.keyResponse(req.ID, handled)
}

func (s *Server) keyResponse(id string, handled bool) KeyResponse {
	candidates := s.session.Visible()
	if s.allCandidates {
		candidates = s.session.Candidates()
	}
	if candidates == nil {
		candidates = []string{}
	}
	return KeyResponse{
		ID:         id,
		Composing:  s.session.Buffer(),
		Candidates: candidates,
		Commits:    s.host.takeCommits(),
		Handled:    handled,
		Ready:      s.engine.Current() != nil,
	}
}

func (s *Server) status(id string) StatusResponse {
	stats := s.engine.Stats()
	status := StatusLoading
	switch {
	case stats.Loader.Ready:
		status = StatusReady
	case stats.Loader.Started && !stats.Loader.Loading:
		status = StatusFailed
	}
	return StatusResponse{
		ID:         id,
		Status:     status,
		Keys:       stats.Loader.Lexicon.Keys,
		Entries:    stats.Loader.Lexicon.Entries,
		Sources:    stats.Loader.Lexicon.Sources,
		Failed:     stats.Loader.Lexicon.FailedSource,
		Composing:  s.session.Buffer(),
		Requests:   s.requests,
		LoadMillis: stats.Loader.Duration.Milliseconds(),
	}
}

func (s *Server) send(response any) error {
	if err := s.enc.Encode(response); err != nil {
		s.log.Errorf("Encoding response: %v", err)
		return fmt.Errorf("encoding response: %w", err)
	}
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}
