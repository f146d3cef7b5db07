package registry

import (
	"sync"

	"modelhub/pkg/types"
)

// MemoryStore keeps the registry in process memory. Nothing survives a
// restart; it backs tests and ephemeral setups.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]types.ModelRecord
	saves   int
	// Err, when set, is returned by Load and Save.
	Err error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]types.ModelRecord{}}
}

func (s *MemoryStore) Load() (map[string]types.ModelRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return Copy(s.records), nil
}

func (s *MemoryStore) Save(records map[string]types.ModelRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.records = Copy(records)
	s.saves++
	return nil
}

// Saves returns the number of successful Save calls.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
