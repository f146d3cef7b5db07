package manager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"modelhub/internal/lane"
	"modelhub/internal/llm"
)

// Load materializes a runtime session for a registered model. Loading an
// already loaded model succeeds without work. The runtime call is not
// abandoned when ctx is cancelled, so a session is never leaked.
func (m *Manager) Load(ctx context.Context, name string) error {
	release, err := m.locks.acquire(ctx, name)
	if err != nil {
		return err
	}
	defer release()

	m.mu.RLock()
	rec, registered := m.records[name]
	_, loaded := m.handles[name]
	closed := m.state == StateClosed
	m.mu.RUnlock()
	if closed {
		return errManagerClosed
	}
	if loaded {
		return nil
	}
	if !registered {
		return ErrModelNotFound(name)
	}

	log := m.log.With().Str("model", name).Str("path", rec.Path).Logger()
	log.Info().Msg("load start")
	start := time.Now()
	sess, err := lane.Do(context.WithoutCancel(ctx), m.compute, func() (llm.Session, error) {
		return m.runtime.Load(rec.Path, rec.Format)
	})
	if err != nil {
		loadsTotal.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("load failed")
		m.pub.Publish(Event{Name: EventLoadFailed, ModelID: name, Fields: map[string]any{"error": err.Error()}})
		if errors.Is(err, llm.ErrNotBuilt) {
			return ErrDependencyUnavailable(err.Error())
		}
		return orchestrationError{op: "load", msg: "failed to load model"}
	}

	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		if cerr := sess.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("close of late session failed")
		}
		return errManagerClosed
	}
	m.handles[name] = &handle{session: sess}
	rec.Loaded = true
	m.records[name] = rec
	modelsLoaded.Set(float64(len(m.handles)))
	m.mu.Unlock()
	m.persist()

	loadsTotal.WithLabelValues("ok").Inc()
	log.Info().Dur("took", time.Since(start)).Msg("load ready")
	m.pub.Publish(Event{Name: EventModelLoaded, ModelID: name})
	return nil
}

// Unload releases the model's session. Unloading a model that is not loaded
// succeeds. In-flight generations finish before the session is closed; new
// ones see the model as not loaded.
func (m *Manager) Unload(ctx context.Context, name string) error {
	release, err := m.locks.acquire(ctx, name)
	if err != nil {
		return err
	}
	defer release()
	if m.unloadLocked(name) {
		m.persist()
	}
	return nil
}

// unloadLocked detaches and closes the handle. Caller holds the name lock.
// Reports whether the registry changed.
func (m *Manager) unloadLocked(name string) bool {
	m.mu.Lock()
	h := m.handles[name]
	delete(m.handles, name)
	rec, registered := m.records[name]
	changed := registered && rec.Loaded
	if registered {
		rec.Loaded = false
		m.records[name] = rec
	}
	modelsLoaded.Set(float64(len(m.handles)))
	m.mu.Unlock()

	if h != nil {
		if err := h.close(); err != nil {
			m.log.Warn().Err(err).Str("model", name).Msg("session close failed")
		}
		m.log.Info().Str("model", name).Msg("unloaded")
		m.pub.Publish(Event{Name: EventModelUnloaded, ModelID: name})
	}
	return changed
}

// Delete unloads the model, removes its directory under the models dir and
// drops the registry record. Deleting an unregistered name succeeds.
func (m *Manager) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	release, err := m.locks.acquire(ctx, name)
	if err != nil {
		return err
	}
	defer release()

	m.unloadLocked(name)
	dir := filepath.Join(m.modelsDir, name)
	if err := os.RemoveAll(dir); err != nil {
		m.log.Error().Err(err).Str("model", name).Str("dir", dir).Msg("delete artifacts failed")
		m.persist()
		return orchestrationError{op: "delete", msg: "failed to delete model"}
	}

	m.mu.Lock()
	_, registered := m.records[name]
	delete(m.records, name)
	m.mu.Unlock()
	m.persist()
	if registered {
		m.log.Info().Str("model", name).Msg("deleted")
		m.pub.Publish(Event{Name: EventModelDeleted, ModelID: name})
	}
	return nil
}
