package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"modelhub/internal/common/fsutil"
	"modelhub/pkg/types"
)

// JSONStore keeps the registry as one indented JSON object in a file.
type JSONStore struct {
	path string
}

// NewJSONStore returns a store backed by the file at path.
func NewJSONStore(path string) *JSONStore { return &JSONStore{path: path} }

// Path returns the backing file path.
func (s *JSONStore) Path() string { return s.path }

// Load reads the registry. A missing file is an empty registry.
func (s *JSONStore) Load() (map[string]types.ModelRecord, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]types.ModelRecord{}, nil
		}
		return nil, fmt.Errorf("read registry: %w", err)
	}
	records := map[string]types.ModelRecord{}
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", s.path, err)
	}
	return records, nil
}

// Save atomically replaces the registry file.
func (s *JSONStore) Save(records map[string]types.ModelRecord) error {
	if records == nil {
		records = map[string]types.ModelRecord{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	return nil
}
