// Package llm is the boundary between the model manager and an inference
// runtime. A Runtime materializes a Session from on-disk artifacts; a Session
// owns the model and tokenizer until Close.
package llm

import (
	"context"
	"errors"

	"modelhub/pkg/types"
)

// ErrNotBuilt is returned by runtimes compiled out of this binary.
var ErrNotBuilt = errors.New("llama support not built (missing 'llama' build tag)")

// Runtime loads models.
type Runtime interface {
	// Load blocks until the model at path is ready for inference.
	Load(path string, format types.Format) (Session, error)
}

// Tokens is an encoded sequence. Text carries the source text for runtimes
// that tokenize internally.
type Tokens struct {
	IDs  []int32
	Text string
}

// GenerateParams controls sampling.
type GenerateParams struct {
	MaxTokens   int
	Temperature float64
}

// Session is one loaded model. Generate may be called concurrently; Close
// must not overlap any other call.
type Session interface {
	Tokenize(prompt string) (Tokens, error)
	// Generate returns the output sequence. Runtimes may stop early when ctx
	// is done.
	Generate(ctx context.Context, in Tokens, p GenerateParams) (Tokens, error)
	// Decode renders tokens as text with special tokens removed.
	Decode(out Tokens) (string, error)
	Close() error
}
