package manager

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"modelhub/internal/common/fsutil"
	"modelhub/internal/lane"
	"modelhub/internal/llm"
	"modelhub/internal/registry"
	"modelhub/pkg/types"
)

// State represents lifecycle state of the manager.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateClosed  State = "closed"
)

type Manager struct {
	mu          sync.RWMutex
	state       State
	records     map[string]types.ModelRecord
	handles     map[string]*handle
	progress    map[string]types.DownloadProgress
	downloading map[string]bool

	locks  *keyedLock
	saveMu sync.Mutex
	// background downloads
	wg sync.WaitGroup
	// closed by Close; stops progress forwarders
	closing   chan struct{}
	closeOnce sync.Once

	modelsDir string
	store     registry.Store
	runtime   llm.Runtime
	hub       Hub
	system    SystemReader
	compute   *lane.Lane
	transfer  *lane.Lane
	log       zerolog.Logger
	pub       EventPublisher
	now       func() time.Time
	startTime time.Time
}

// handle owns one runtime session. Generations hold the read lock for the
// duration of each runtime call; unload takes the write lock before Close.
type handle struct {
	mu      sync.RWMutex
	session llm.Session
	closed  bool
}

var errHandleClosed = fmt.Errorf("session closed")

func (h *handle) use(fn func(llm.Session) error) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return errHandleClosed
	}
	return fn(h.session)
}

func (h *handle) close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	return h.session.Close()
}

// Init creates the models directory, loads the registry and reconciles it:
// nothing is loaded at startup, so every record is marked unloaded. A
// registry that cannot be read is replaced by an empty one.
func (m *Manager) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(m.modelsDir, 0o755); err != nil {
		return fmt.Errorf("models dir: %w", err)
	}
	recs, err := m.store.Load()
	if err != nil {
		m.log.Warn().Err(err).Msg("registry unreadable, starting empty")
		recs = map[string]types.ModelRecord{}
	}
	changed := false
	for name, rec := range recs {
		if rec.Loaded {
			rec.Loaded = false
			recs[name] = rec
			changed = true
		}
		if !fsutil.PathExists(rec.Path) {
			m.log.Warn().Str("model", name).Str("path", rec.Path).Msg("model artifacts missing")
		}
	}
	m.mu.Lock()
	m.records = recs
	m.state = StateReady
	m.mu.Unlock()
	if changed {
		m.persist()
	}
	m.log.Info().Int("models", len(recs)).Msg("registry loaded")
	m.pub.Publish(Event{Name: EventRegistryLoaded, Fields: map[string]any{"models": len(recs)}})
	return nil
}

var errManagerClosed = ErrDependencyUnavailable("model manager is shut down")

// Close refuses further loads, then unloads every loaded model one at a
// time. Downloads still running are not waited for.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.state = StateClosed
	m.mu.Unlock()
	m.closeOnce.Do(func() { close(m.closing) })

	for {
		names := m.LoadedModels()
		if len(names) == 0 {
			return nil
		}
		for _, name := range names {
			if err := m.Unload(context.Background(), name); err != nil {
				m.log.Warn().Err(err).Str("model", name).Msg("unload on close failed")
				return err
			}
		}
	}
}

// Wait blocks until background downloads have finished.
func (m *Manager) Wait() { m.wg.Wait() }

func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateReady
}

// IsLoaded reports whether name has a live handle.
func (m *Manager) IsLoaded(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.handles[name]
	return ok
}

// LoadedModels returns the names of loaded models, sorted.
func (m *Manager) LoadedModels() []string {
	m.mu.RLock()
	out := make([]string, 0, len(m.handles))
	for name := range m.handles {
		out = append(out, name)
	}
	m.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Record returns the registry entry for name.
func (m *Manager) Record(name string) (types.ModelRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[name]
	return rec, ok
}

// ModelsDir returns the directory holding model artifacts.
func (m *Manager) ModelsDir() string { return m.modelsDir }
