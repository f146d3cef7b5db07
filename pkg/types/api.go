package types

// DownloadRequest starts a model download.
type DownloadRequest struct {
	// Operator-chosen registry name.
	// example: tinyllama
	ModelName string `json:"model_name" example:"tinyllama"`
	// Remote repository id.
	// example: TinyLlama/TinyLlama-1.1B-Chat-v1.0
	SourceID string `json:"hf_model_id" example:"TinyLlama/TinyLlama-1.1B-Chat-v1.0"`
	// Fetch a single .gguf file instead of the full snapshot.
	IsGGUF bool `json:"is_gguf,omitempty"`
	// Optional access token for gated repositories. Overrides the server token.
	Token string `json:"hf_token,omitempty"`
}

// GenerateRequest is the dashboard generation payload.
type GenerateRequest struct {
	// example: tinyllama
	ModelName string `json:"model_name" example:"tinyllama"`
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt" example:"Write a haiku about the ocean."`
	// Maximum number of new tokens; 0 or absent uses the server default (100).
	// example: 100
	MaxTokens int `json:"max_tokens,omitempty" example:"100"`
	// Sampling temperature; 0 or absent uses the server default (0.7).
	// example: 0.7
	Temperature float64 `json:"temperature,omitempty" example:"0.7"`
}

// GenerateResponse wraps generated text.
type GenerateResponse struct {
	GeneratedText string `json:"generated_text"`
}

// ModelsResponse wraps the list of models returned by GET /api/models.
type ModelsResponse struct {
	Models []ModelSummary `json:"models"`
}

// ActionResponse acknowledges a lifecycle action.
type ActionResponse struct {
	// example: loaded
	Status string `json:"status" example:"loaded"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Overall manager state (loading, ready).
	// example: ready
	State string `json:"state" example:"ready"`
	// Number of registry entries.
	// example: 3
	Registered int `json:"registered" example:"3"`
	// Names of loaded models.
	Loaded []string `json:"loaded"`
	// Names with a download in flight.
	Downloading []string `json:"downloading"`
	// Busy workers on the compute lane.
	ComputeBusy int `json:"compute_busy"`
	// Busy workers on the transfer lane.
	TransferBusy int `json:"transfer_busy"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
