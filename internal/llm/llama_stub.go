//go:build !llama

package llm

import "modelhub/pkg/types"

// Built reports whether this binary carries a real inference runtime.
const Built = false

// Llama is a stub that refuses to load models when the binary is built
// without the 'llama' tag.
type Llama struct {
	ctxSize int
	threads int
}

func NewLlama(ctxSize, threads int) *Llama {
	return &Llama{ctxSize: ctxSize, threads: threads}
}

func (l *Llama) Load(path string, format types.Format) (Session, error) {
	return nil, ErrNotBuilt
}
