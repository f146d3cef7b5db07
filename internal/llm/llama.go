//go:build llama

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"

	"modelhub/internal/gguf"
	"modelhub/pkg/types"
)

// Built reports whether this binary carries a real inference runtime.
const Built = true

// Llama loads GGUF models through llama.cpp.
type Llama struct {
	ctxSize int
	threads int
}

// NewLlama returns a runtime with the given context size and thread count.
func NewLlama(ctxSize, threads int) *Llama {
	return &Llama{ctxSize: ctxSize, threads: threads}
}

type llamaSession struct {
	// llama.cpp contexts are not safe for concurrent prediction
	mu      sync.Mutex
	model   *llama.LLama
	threads int
}

// Load resolves the GGUF file under path and initializes a llama context.
func (l *Llama) Load(path string, format types.Format) (Session, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("model path is empty")
	}
	file, err := gguf.FindFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s model at %s: %w", format, path, err)
	}
	if _, err := gguf.Probe(file); err != nil {
		return nil, err
	}
	m, err := llama.New(file, llama.SetContext(l.ctxSize))
	if err != nil {
		return nil, err
	}
	return &llamaSession{model: m, threads: max(1, l.threads)}, nil
}

func (s *llamaSession) Tokenize(prompt string) (Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return Tokens{}, errors.New("llama model not initialized")
	}
	_, ids, err := s.model.TokenizeString(prompt, llama.SetThreads(s.threads))
	if err != nil {
		return Tokens{}, fmt.Errorf("tokenize: %w", err)
	}
	return Tokens{IDs: ids, Text: prompt}, nil
}

func (s *llamaSession) Generate(ctx context.Context, in Tokens, p GenerateParams) (Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return Tokens{}, errors.New("llama model not initialized")
	}
	s.model.SetTokenCallback(func(string) bool {
		return ctx.Err() == nil
	})
	defer s.model.SetTokenCallback(nil)
	text, err := s.model.Predict(in.Text,
		llama.SetTokens(max(1, p.MaxTokens)),
		llama.SetThreads(s.threads),
		llama.SetTemperature(float32(p.Temperature)),
		llama.SetTopP(llama.DefaultOptions.TopP),
		llama.SetTopK(llama.DefaultOptions.TopK),
	)
	if err != nil {
		if ctx.Err() != nil {
			return Tokens{}, ctx.Err()
		}
		return Tokens{}, err
	}
	return Tokens{Text: text}, nil
}

func (s *llamaSession) Decode(out Tokens) (string, error) {
	return StripSpecial(out.Text), nil
}

func (s *llamaSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model != nil {
		s.model.Free()
		s.model = nil
	}
	return nil
}
