package types

// Format identifies how a model's artifacts are laid out on disk.
type Format string

const (
	// FormatStandard is a full multi-file repository snapshot.
	FormatStandard Format = "huggingface"
	// FormatGGUF is a single quantized GGUF file selected from the repository.
	FormatGGUF Format = "gguf"
)

// ModelRecord is the persisted registry entry for a downloaded model.
// The model name is the registry key and is not repeated in the record.
type ModelRecord struct {
	// Remote repository reference the model was fetched from.
	// example: TinyLlama/TinyLlama-1.1B-Chat-v1.0
	SourceID string `json:"hf_model_id" example:"TinyLlama/TinyLlama-1.1B-Chat-v1.0"`
	// Local path of the artifacts (directory for huggingface, file for gguf).
	// example: models/tinyllama
	Path string `json:"path" example:"models/tinyllama"`
	// Completion time of the download in unix seconds.
	// example: 1700000000.25
	DownloadedAt float64 `json:"downloaded_at" example:"1700000000.25"`
	// Whether the model was loaded when the registry was last written.
	Loaded bool `json:"loaded"`
	// Artifact layout.
	// example: huggingface
	Format Format `json:"format" example:"huggingface"`
	// Selected file name for gguf models.
	// example: tinyllama-1.1b-chat.Q4_K_M.gguf
	GGUFFile string `json:"gguf_file,omitempty" example:"tinyllama-1.1b-chat.Q4_K_M.gguf"`
}

// DownloadStatus is the state carried by a DownloadProgress event.
type DownloadStatus string

const (
	// DownloadStarting covers the whole transfer; per-file ticks keep it.
	DownloadStarting  DownloadStatus = "starting"
	DownloadCompleted DownloadStatus = "completed"
	DownloadError     DownloadStatus = "error"
	DownloadNotFound  DownloadStatus = "not_found"
)

// Terminal reports whether no further events follow this status.
func (s DownloadStatus) Terminal() bool {
	return s == DownloadCompleted || s == DownloadError
}

// DownloadProgress is one event of a download attempt.
type DownloadProgress struct {
	// One of starting, completed or error.
	// example: starting
	Status DownloadStatus `json:"status" example:"starting"`
	// Percentage in [0,100].
	// example: 40
	Progress int `json:"progress" example:"40"`
	// example: 5
	TotalFiles int `json:"total_files" example:"5"`
	// example: 2
	DownloadedFiles int `json:"downloaded_files" example:"2"`
	// example: model.safetensors
	CurrentFile string `json:"current_file" example:"model.safetensors"`
	// Failure message for the error status, null otherwise.
	Error *string `json:"error"`
}

// ModelSummary is the listing view of a registered model.
type ModelSummary struct {
	// example: tinyllama
	Name string `json:"name" example:"tinyllama"`
	// example: TinyLlama/TinyLlama-1.1B-Chat-v1.0
	SourceID string `json:"hf_model_id" example:"TinyLlama/TinyLlama-1.1B-Chat-v1.0"`
	Loaded   bool   `json:"loaded"`
	// Bytes on disk under the model path.
	// example: 668788096
	Size int64 `json:"size" example:"668788096"`
	// example: 1700000000.25
	DownloadedAt float64 `json:"downloaded_at" example:"1700000000.25"`
	// example: gguf
	Format   Format `json:"format" example:"gguf"`
	GGUFFile string `json:"gguf_file,omitempty"`
	// GGUF header metadata, best effort.
	// example: llama
	Architecture string `json:"architecture,omitempty" example:"llama"`
	// example: Q4_K_M
	Quantization string `json:"quantization,omitempty" example:"Q4_K_M"`
	// example: 1100048384
	Parameters uint64 `json:"parameters,omitempty" example:"1100048384"`
}

// MemoryInfo is a virtual memory snapshot.
type MemoryInfo struct {
	Total     uint64  `json:"total"`
	Available uint64  `json:"available"`
	Percent   float64 `json:"percent"`
}

// DiskInfo is a disk usage snapshot of the root filesystem.
type DiskInfo struct {
	Total   uint64  `json:"total"`
	Free    uint64  `json:"free"`
	Percent float64 `json:"percent"`
}

// SystemInfo is returned by GET /api/system.
type SystemInfo struct {
	Memory     MemoryInfo `json:"memory"`
	Disk       DiskInfo   `json:"disk"`
	CPUPercent float64    `json:"cpu_percent"`
}
