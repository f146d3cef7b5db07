// Package manager coordinates the lifecycle of local models: download from
// the hub into the models directory, registration, load into an inference
// runtime, generation, unload and delete. It is structured into small files
// by concern:
//
//   - manager.go: core Manager type, Init/Close, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - errors.go: error types and helpers (IsValidation, IsModelNotFound, ...).
//   - locks.go: per-name lifecycle lock.
//   - download.go: Download and DownloadProgress.
//   - lifecycle.go: Load, Unload, Delete.
//   - generate.go: Generate (tokenize, generate, decode on the compute lane).
//   - list.go: ListModels, SystemInfo, Status.
//   - persist.go: registry save.
//   - events.go, eventpub_memory.go: lifecycle event publishing.
//   - metrics.go: Prometheus collectors.
//
// Blocking runtime calls run on the compute lane and hub transfers on the
// transfer lane (see internal/lane). Shared maps are guarded by one RWMutex;
// multi-step operations on a name are serialized by the per-name lock.
//
// Build tags and runtimes:
//
//   - In-process llama: go-llama.cpp adapter in internal/llm, enabled with
//     `-tags=llama`. Without the tag every Load fails with a
//     dependency-unavailable error (HTTP 503).
package manager
