package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"modelhub/pkg/types"
)

const ownedBy = "transformers"

// openAIModels godoc
// @Summary      List loaded models (OpenAI format)
// @Tags         openai
// @Produce      json
// @Success      200  {object}  types.ModelList
// @Router       /v1/models [get]
func openAIModels(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := types.ModelList{Object: "list", Data: []types.ModelCard{}}
		for _, name := range svc.LoadedModels() {
			rec, ok := svc.Record(name)
			if !ok {
				continue
			}
			list.Data = append(list.Data, types.ModelCard{
				ID:      name,
				Object:  "model",
				Created: int64(rec.DownloadedAt),
				OwnedBy: ownedBy,
			})
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// openAICompletions godoc
// @Summary      Text completion (OpenAI format)
// @Tags         openai
// @Accept       json
// @Produce      json
// @Param        request  body      types.CompletionRequest  true  "Completion request"
// @Success      200      {object}  types.CompletionResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Router       /v1/completions [post]
func openAICompletions(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CompletionRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		text, ok := openAIGenerate(w, r, svc, "completion", req.Model, req.Prompt, req.MaxTokens, req.Temperature)
		if !ok {
			return
		}
		promptTokens, completionTokens := wordCount(req.Prompt), wordCount(text)
		writeJSON(w, http.StatusOK, types.CompletionResponse{
			ID:      "cmpl-" + uuid.NewString(),
			Object:  "text_completion",
			Created: time.Now().Unix(),
			Model:   req.Model,
			Choices: []types.CompletionChoice{{
				Text:         text,
				Index:        0,
				FinishReason: "stop",
			}},
			Usage: types.Usage{
				PromptTokens:     promptTokens,
				CompletionTokens: completionTokens,
				TotalTokens:      promptTokens + completionTokens,
			},
		})
	}
}

// openAIChatCompletions godoc
// @Summary      Chat completion (OpenAI format)
// @Tags         openai
// @Accept       json
// @Produce      json
// @Param        request  body      types.ChatCompletionRequest  true  "Chat completion request"
// @Success      200      {object}  types.ChatCompletionResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Router       /v1/chat/completions [post]
func openAIChatCompletions(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ChatCompletionRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		prompt := chatPrompt(req.Messages)
		text, ok := openAIGenerate(w, r, svc, "chat", req.Model, prompt, req.MaxTokens, req.Temperature)
		if !ok {
			return
		}
		promptTokens, completionTokens := wordCount(prompt), wordCount(text)
		writeJSON(w, http.StatusOK, types.ChatCompletionResponse{
			ID:      "chatcmpl-" + uuid.NewString(),
			Object:  "chat.completion",
			Created: time.Now().Unix(),
			Model:   req.Model,
			Choices: []types.ChatChoice{{
				Index:        0,
				Message:      types.ChatMessage{Role: "assistant", Content: strings.TrimSpace(text)},
				FinishReason: "stop",
			}},
			Usage: types.Usage{
				PromptTokens:     promptTokens,
				CompletionTokens: completionTokens,
				TotalTokens:      promptTokens + completionTokens,
			},
		})
	}
}

// openAIGenerate checks the model is loaded and runs the generation. On
// failure the error response is already written.
func openAIGenerate(w http.ResponseWriter, r *http.Request, svc Service, op, model, prompt string, maxTokens int, temperature float64) (string, bool) {
	lvl := requestLogLevel(r)
	start := time.Now()
	if !svc.IsLoaded(model) {
		msg := "Model " + model + " is not loaded"
		writeJSONError(w, http.StatusBadRequest, msg)
		logRequestEnd(r, lvl, op, model, start, http.StatusBadRequest, errors.New(msg))
		return "", false
	}
	ctx, cancel := requestContext(r, generateTimeout)
	defer cancel()
	text, err := svc.Generate(ctx, types.GenerateRequest{
		ModelName:   model,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		if r.Context().Err() != nil {
			return "", false
		}
		status := generateErrorStatus(ctx, err)
		writeJSONError(w, status, err.Error())
		logRequestEnd(r, lvl, op, model, start, status, err)
		return "", false
	}
	logRequestEnd(r, lvl, op, model, start, http.StatusOK, nil)
	return text, true
}

// chatPrompt flattens chat messages into role-prefixed lines and leaves the
// prompt open for the assistant. Unknown roles are skipped.
func chatPrompt(msgs []types.ChatMessage) string {
	var b strings.Builder
	for _, m := range msgs {
		switch m.Role {
		case "system":
			b.WriteString("System: " + m.Content + "\n")
		case "user":
			b.WriteString("User: " + m.Content + "\n")
		case "assistant":
			b.WriteString("Assistant: " + m.Content + "\n")
		}
	}
	b.WriteString("Assistant:")
	return b.String()
}

func wordCount(s string) int { return len(strings.Fields(s)) }
