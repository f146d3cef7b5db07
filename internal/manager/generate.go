package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"modelhub/internal/lane"
	"modelhub/internal/llm"
	"modelhub/pkg/types"
)

// Generate runs tokenize, generate and decode on the compute lane against a
// loaded model. Zero max_tokens and temperature take the defaults (100, 0.7).
// When the decoded text repeats the prompt, the prompt is stripped.
func (m *Manager) Generate(ctx context.Context, req types.GenerateRequest) (string, error) {
	if req.MaxTokens < 0 {
		return "", errInvalid("max_tokens must not be negative")
	}
	if req.Temperature < 0 {
		return "", errInvalid("temperature must not be negative")
	}
	params := llm.GenerateParams{MaxTokens: req.MaxTokens, Temperature: req.Temperature}
	if params.MaxTokens == 0 {
		params.MaxTokens = defaultMaxTokens
	}
	if params.Temperature == 0 {
		params.Temperature = defaultTemperature
	}

	m.mu.RLock()
	h := m.handles[req.ModelName]
	m.mu.RUnlock()
	if h == nil {
		return "", ErrModelNotLoaded(req.ModelName)
	}

	start := time.Now()
	text, err := m.generate(ctx, h, req.Prompt, params)
	if err != nil {
		switch {
		case errors.Is(err, errHandleClosed):
			err = ErrModelNotLoaded(req.ModelName)
			generationsTotal.WithLabelValues("not_loaded").Inc()
		case ctx.Err() != nil:
			generationsTotal.WithLabelValues("canceled").Inc()
		default:
			generationsTotal.WithLabelValues("error").Inc()
			m.log.Error().Err(err).Str("model", req.ModelName).Msg("generation failed")
			err = fmt.Errorf("generation failed: %w", err)
		}
		return "", err
	}
	generationsTotal.WithLabelValues("ok").Inc()
	generationDuration.Observe(time.Since(start).Seconds())

	if strings.HasPrefix(text, req.Prompt) {
		text = strings.TrimSpace(text[len(req.Prompt):])
	}
	return text, nil
}

func (m *Manager) generate(ctx context.Context, h *handle, prompt string, p llm.GenerateParams) (string, error) {
	in, err := lane.Do(ctx, m.compute, func() (llm.Tokens, error) {
		var out llm.Tokens
		err := h.use(func(s llm.Session) (err error) {
			out, err = s.Tokenize(prompt)
			return err
		})
		return out, err
	})
	if err != nil {
		return "", err
	}
	gen, err := lane.Do(ctx, m.compute, func() (llm.Tokens, error) {
		var out llm.Tokens
		err := h.use(func(s llm.Session) (err error) {
			out, err = s.Generate(ctx, in, p)
			return err
		})
		return out, err
	})
	if err != nil {
		return "", err
	}
	return lane.Do(ctx, m.compute, func() (string, error) {
		var text string
		err := h.use(func(s llm.Session) (err error) {
			text, err = s.Decode(gen)
			return err
		})
		return text, err
	})
}
