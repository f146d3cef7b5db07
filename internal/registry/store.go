// Package registry persists the mapping of model name to ModelRecord.
package registry

import (
	"fmt"
	"path/filepath"
	"strings"

	"modelhub/internal/common/fsutil"
	"modelhub/pkg/types"
)

// Store loads and saves the full registry mapping. Save replaces everything
// previously stored; it is never incremental.
type Store interface {
	Load() (map[string]types.ModelRecord, error)
	Save(records map[string]types.ModelRecord) error
}

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Open returns the store for backend rooted at dataDir. An empty backend
// selects the JSON file store.
func Open(backend, dataDir string) (Store, error) {
	dir, err := fsutil.ExpandHome(dataDir)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendJSON:
		return NewJSONStore(filepath.Join(dir, "models.json")), nil
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dir, "models.db"))
	default:
		return nil, fmt.Errorf("unsupported registry backend: %s", backend)
	}
}

// Copy returns a deep copy of records.
func Copy(records map[string]types.ModelRecord) map[string]types.ModelRecord {
	out := make(map[string]types.ModelRecord, len(records))
	for k, v := range records {
		out[k] = v
	}
	return out
}
