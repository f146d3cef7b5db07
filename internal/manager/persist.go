package manager

import "modelhub/internal/registry"

// persist writes the current registry. Saves are serialized and each one
// snapshots state after taking the save lock, so the last write carries the
// latest state. Failures are logged and never surfaced.
func (m *Manager) persist() {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()
	m.mu.RLock()
	snap := registry.Copy(m.records)
	m.mu.RUnlock()
	if err := m.store.Save(snap); err != nil {
		registrySaveErrors.Inc()
		m.log.Warn().Err(err).Msg("registry save failed")
	}
}
