// Package llmtest provides an in-memory llm.Runtime for tests.
package llmtest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"modelhub/internal/llm"
	"modelhub/pkg/types"
)

// Runtime is a fake llm.Runtime. The zero value loads every path and
// replies with the prompt followed by " ok".
type Runtime struct {
	// Reply builds the raw decoded output for a prompt. The output is
	// returned as is, so replies that echo the prompt exercise stripping.
	Reply func(prompt string, p llm.GenerateParams) string
	// FailLoad makes Load fail for paths it returns true for.
	FailLoad func(path string) bool
	// LoadErr, when set, is returned by every Load call.
	LoadErr error
	// GenerateErr fails every Generate call when set.
	GenerateErr error
	// Gate, when non-nil, blocks Generate until it is closed.
	Gate chan struct{}
	// Started receives once per Generate call when non-nil.
	Started chan struct{}
	// LoadGate, when non-nil, blocks Load until it is closed.
	LoadGate chan struct{}
	// LoadStarted receives once per Load call when non-nil.
	LoadStarted chan struct{}

	loads atomic.Int64

	mu       sync.Mutex
	sessions []*Session
}

// Load implements llm.Runtime.
func (r *Runtime) Load(path string, format types.Format) (llm.Session, error) {
	r.loads.Add(1)
	if r.LoadStarted != nil {
		r.LoadStarted <- struct{}{}
	}
	if r.LoadGate != nil {
		<-r.LoadGate
	}
	if r.LoadErr != nil {
		return nil, r.LoadErr
	}
	if r.FailLoad != nil && r.FailLoad(path) {
		return nil, errors.New("fake: cannot load " + path)
	}
	s := &Session{rt: r, Path: path, Format: format}
	r.mu.Lock()
	r.sessions = append(r.sessions, s)
	r.mu.Unlock()
	return s, nil
}

// Loads returns how many times Load was called.
func (r *Runtime) Loads() int { return int(r.loads.Load()) }

// Sessions returns every session created so far.
func (r *Runtime) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Session(nil), r.sessions...)
}

// Open returns the number of sessions not yet closed.
func (r *Runtime) Open() int {
	n := 0
	for _, s := range r.Sessions() {
		if !s.Closed() {
			n++
		}
	}
	return n
}

// Session is a fake llm.Session.
type Session struct {
	rt     *Runtime
	Path   string
	Format types.Format

	inflight   atomic.Int64
	closed     atomic.Bool
	usedClosed atomic.Bool
	last       atomic.Value // llm.GenerateParams
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool { return s.closed.Load() }

// UsedAfterClose reports whether any call reached the session after Close
// or Close ran while a generation was in flight.
func (s *Session) UsedAfterClose() bool { return s.usedClosed.Load() }

// LastParams returns the parameters of the most recent Generate call.
func (s *Session) LastParams() llm.GenerateParams {
	p, _ := s.last.Load().(llm.GenerateParams)
	return p
}

func (s *Session) check() {
	if s.closed.Load() {
		s.usedClosed.Store(true)
	}
}

func (s *Session) Tokenize(prompt string) (llm.Tokens, error) {
	s.check()
	fields := strings.Fields(prompt)
	ids := make([]int32, len(fields))
	for i := range fields {
		ids[i] = int32(i + 1)
	}
	return llm.Tokens{IDs: ids, Text: prompt}, nil
}

func (s *Session) Generate(ctx context.Context, in llm.Tokens, p llm.GenerateParams) (llm.Tokens, error) {
	s.check()
	s.inflight.Add(1)
	defer s.inflight.Add(-1)
	s.last.Store(p)
	if s.rt.Started != nil {
		s.rt.Started <- struct{}{}
	}
	if s.rt.Gate != nil {
		<-s.rt.Gate
	}
	if s.rt.GenerateErr != nil {
		return llm.Tokens{}, s.rt.GenerateErr
	}
	out := in.Text + " ok"
	if s.rt.Reply != nil {
		out = s.rt.Reply(in.Text, p)
	}
	s.check()
	return llm.Tokens{Text: out}, nil
}

func (s *Session) Decode(out llm.Tokens) (string, error) {
	s.check()
	return llm.StripSpecial(out.Text), nil
}

func (s *Session) Close() error {
	if s.inflight.Load() > 0 {
		s.usedClosed.Store(true)
	}
	s.closed.Store(true)
	return nil
}
