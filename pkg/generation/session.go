package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/papercomputeco/lingo/pkg/logger"
	"github.com/papercomputeco/lingo/pkg/ndjson"
	"github.com/papercomputeco/lingo/pkg/utils"
)

// token identifies one generation attempt. Only the current token may write
// to session state.
type token struct {
	id     uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. Defaults to logger.Nop().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithObserver registers fn to receive a snapshot after every state change.
// fn runs synchronously, in order, on the goroutine that made the change. It
// may call State but must not call Generate, Abort or ClearOutput.
func WithObserver(fn func(State)) Option {
	return func(s *Session) {
		s.observer = fn
	}
}

// Session streams one generation at a time through a Streamer and
// accumulates its output.
type Session struct {
	streamer Streamer
	logger   *slog.Logger
	observer func(State)

	mu       sync.Mutex
	notifyMu sync.Mutex
	seq      uint64
	current  *token
	output   strings.Builder
	status   Status
	errMsg   string
	pending  []State
}

// NewSession creates an idle Session that opens streams with streamer.
func NewSession(streamer Streamer, opts ...Option) *Session {
	s := &Session{
		streamer: streamer,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate cancels any generation in flight and starts req. It returns
// immediately; progress is visible through State, Wait and the observer.
//
// A blank prompt resets the session to idle and a missing model fails it,
// neither touching the network.
func (s *Session) Generate(ctx context.Context, req Request) {
	s.mu.Lock()
	s.cancelCurrentLocked()
	s.output.Reset()

	switch {
	case strings.TrimSpace(req.Prompt) == "":
		s.status, s.errMsg = StatusIdle, ""
		s.commitLocked()
		return

	case req.Model == "":
		s.status, s.errMsg = StatusFailed, NoModelMessage
		s.commitLocked()
		return
	}

	s.seq++
	tctx, cancel := context.WithCancel(ctx)
	tok := &token{
		id:     s.seq,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.current = tok
	s.status, s.errMsg = StatusInFlight, ""
	s.commitLocked()

	s.logger.Debug("generation started",
		"generation", tok.id,
		"model", req.Model,
		"server_url", req.ServerURL,
	)

	go s.run(tctx, tok, req)
}

// Abort cancels the generation in flight, if any. Output accumulated so far
// is kept and the status becomes StatusCancelled.
func (s *Session) Abort() {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return
	}
	s.logger.Debug("generation aborted", "generation", s.current.id)
	s.cancelCurrentLocked()
	s.status = StatusCancelled
	s.commitLocked()
}

// ClearOutput resets the session to an empty idle state. It does not cancel
// a generation in flight; pair it with Abort for that.
func (s *Session) ClearOutput() {
	s.mu.Lock()
	s.output.Reset()
	s.status, s.errMsg = StatusIdle, ""
	s.commitLocked()
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Wait blocks until the current generation ends and returns the resulting
// state. If ctx ends first, that generation is aborted and ctx.Err() is
// returned alongside the state at that moment.
func (s *Session) Wait(ctx context.Context) (State, error) {
	s.mu.Lock()
	tok := s.current
	s.mu.Unlock()

	if tok == nil {
		return s.State(), nil
	}

	select {
	case <-tok.done:
		return s.State(), nil
	case <-ctx.Done():
		s.mu.Lock()
		if s.current == tok {
			s.cancelCurrentLocked()
			s.status = StatusCancelled
			s.commitLocked()
		} else {
			s.mu.Unlock()
		}
		return s.State(), ctx.Err()
	}
}

func (s *Session) run(ctx context.Context, tok *token, req Request) {
	defer close(tok.done)
	defer tok.cancel()

	body, err := s.streamer.Stream(ctx, req)
	if err != nil {
		s.fail(ctx, tok, err)
		return
	}
	defer body.Close()

	// Unblock a pending Read as soon as the attempt is cancelled; not every
	// transport observes ctx on its own.
	stop := context.AfterFunc(ctx, func() { _ = body.Close() })
	defer stop()

	dec := ndjson.NewDecoder(body, ndjson.WithSkipHook(func(line []byte, err error) {
		s.logger.Debug("skipping malformed stream line",
			"generation", tok.id,
			"line", utils.Truncate(string(line), 200),
			"error", err,
		)
	}))

	for {
		rec, err := dec.Next()
		if err != nil {
			s.fail(ctx, tok, fmt.Errorf("reading generation stream: %w", err))
			return
		}
		if rec == nil {
			break
		}

		if rec.Error != "" {
			s.logger.Warn("server reported error mid-stream",
				"generation", tok.id,
				"error", rec.Error,
			)
		}
		if rec.Response == "" {
			continue
		}
		if !s.appendOutput(tok, rec.Response) {
			s.logger.Debug("discarding superseded generation", "generation", tok.id)
			return
		}
	}

	s.finish(tok)
}

func (s *Session) appendOutput(tok *token, text string) bool {
	s.mu.Lock()
	if s.current != tok {
		s.mu.Unlock()
		return false
	}
	s.output.WriteString(text)
	s.commitLocked()
	return true
}

func (s *Session) finish(tok *token) {
	s.mu.Lock()
	if s.current != tok {
		s.mu.Unlock()
		return
	}
	s.current = nil
	s.status = StatusSucceeded
	s.logger.Debug("generation succeeded",
		"generation", tok.id,
		"output_bytes", s.output.Len(),
	)
	s.commitLocked()
}

// fail records err for tok. Cancellations end quietly with the output kept;
// anything else clears the output and stores the message.
func (s *Session) fail(ctx context.Context, tok *token, err error) {
	s.mu.Lock()
	if s.current != tok {
		s.mu.Unlock()
		return
	}
	s.current = nil

	if isCancellation(ctx, err) {
		s.status = StatusCancelled
		s.logger.Debug("generation cancelled", "generation", tok.id)
		s.commitLocked()
		return
	}

	s.output.Reset()
	s.status, s.errMsg = StatusFailed, err.Error()
	s.logger.Debug("generation failed",
		"generation", tok.id,
		"error", err,
	)
	s.commitLocked()
}

func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// cancelCurrentLocked invalidates the current token. s.mu must be held.
func (s *Session) cancelCurrentLocked() {
	if s.current == nil {
		return
	}
	s.current.cancel()
	s.current = nil
}

func (s *Session) snapshotLocked() State {
	return State{
		Output: s.output.String(),
		Status: s.status,
		Err:    s.errMsg,
	}
}

// commitLocked queues a snapshot for the observer, releases s.mu and then
// drains the queue. notifyMu serializes delivery so the observer sees
// snapshots in the order they were taken.
func (s *Session) commitLocked() {
	if s.observer == nil {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending, s.snapshotLocked())
	s.mu.Unlock()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	for {
		s.mu.Lock()
		batch := s.pending
		s.pending = nil
		s.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, st := range batch {
			s.observer(st)
		}
	}
}
