package manager

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"modelhub/internal/hub"
	"modelhub/internal/lane"
	"modelhub/internal/llm"
	"modelhub/internal/registry"
	"modelhub/internal/sysinfo"
	"modelhub/pkg/types"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultModelsDir    = "models"
	defaultMaxDownloads = 2
	defaultLlamaCtx     = 2048
	defaultMaxTokens    = 100
	defaultTemperature  = 0.7
)

// Hub fetches repository files. *hub.Client satisfies it.
type Hub interface {
	ListFiles(ctx context.Context, repo, token string) ([]string, error)
	DownloadFile(ctx context.Context, repo, file, destDir, token string) (string, error)
}

// SystemReader snapshots host telemetry. *sysinfo.Reader satisfies it.
type SystemReader interface {
	Collect(ctx context.Context) (types.SystemInfo, error)
}

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// ModelsDir holds one subdirectory per model name.
	ModelsDir string
	// Store persists the registry. Defaults to an in-memory store.
	Store registry.Store
	// Runtime loads models. Defaults to the llama runtime built with
	// LlamaCtx and LlamaThreads.
	Runtime      llm.Runtime
	LlamaCtx     int
	LlamaThreads int
	// Hub defaults to the public Hugging Face hub.
	Hub    Hub
	System SystemReader
	// Workers bounds concurrent runtime calls (compute lane).
	Workers int
	// MaxDownloads bounds concurrent file transfers (transfer lane).
	MaxDownloads int
	Logger       *zerolog.Logger
	Publisher    EventPublisher
	// Now is the clock used for downloaded_at.
	Now func() time.Time
}

// NewWithConfig constructs a Manager from ManagerConfig. Call Init before
// serving requests.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		state:       StateLoading,
		records:     make(map[string]types.ModelRecord),
		handles:     make(map[string]*handle),
		progress:    make(map[string]types.DownloadProgress),
		downloading: make(map[string]bool),
		locks:       newKeyedLock(),
		closing:     make(chan struct{}),
		modelsDir:   cfg.ModelsDir,
		store:       cfg.Store,
		runtime:     cfg.Runtime,
		hub:         cfg.Hub,
		system:      cfg.System,
		pub:         cfg.Publisher,
		now:         cfg.Now,
	}
	// Apply defaults if unset
	if m.modelsDir == "" {
		m.modelsDir = defaultModelsDir
	}
	if m.store == nil {
		m.store = registry.NewMemoryStore()
	}
	if m.runtime == nil {
		ctxSize := cfg.LlamaCtx
		if ctxSize <= 0 {
			ctxSize = defaultLlamaCtx
		}
		threads := cfg.LlamaThreads
		if threads <= 0 {
			threads = runtime.NumCPU()
		}
		m.runtime = llm.NewLlama(ctxSize, threads)
	}
	if m.hub == nil {
		m.hub = hub.NewClient("")
	}
	if m.system == nil {
		m.system = sysinfo.NewReader()
	}
	if m.pub == nil {
		m.pub = noopPublisher{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "manager").Logger()
	} else {
		m.log = zerolog.Nop()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	maxDownloads := cfg.MaxDownloads
	if maxDownloads <= 0 {
		maxDownloads = defaultMaxDownloads
	}
	m.compute = lane.New("compute", workers)
	m.transfer = lane.New("transfer", maxDownloads)
	m.startTime = time.Now()
	return m
}
