package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Aman-CERP/classfind/internal/classsearch"
)

// Backend names an index backend.
type Backend string

const (
	// BackendSQLite is the SQLite index (default).
	// Concurrent multi-process readers via WAL mode.
	BackendSQLite Backend = "sqlite"

	// BackendBleve is the Bleve index.
	// BoltDB holds an exclusive file lock, so one process at a time.
	BackendBleve Backend = "bleve"
)

// ValidBackends lists the accepted backend names.
var ValidBackends = []Backend{BackendSQLite, BackendBleve}

// IsValidBackend reports whether name is a known backend.
func IsValidBackend(name string) bool {
	for _, b := range ValidBackends {
		if string(b) == name {
			return true
		}
	}
	return false
}

// IndexPath returns the on-disk location of a backend's index within dataDir.
func IndexPath(dataDir string, backend Backend) string {
	basePath := filepath.Join(dataDir, "classes")
	switch backend {
	case BackendBleve:
		return basePath + ".bleve"
	default:
		return basePath + ".db"
	}
}

// NewIndex opens one backend. An empty dataDir opens an in-memory index.
func NewIndex(dataDir string, backend Backend) (ClassIndex, error) {
	var path string
	if dataDir != "" {
		path = IndexPath(dataDir, backend)
	}

	switch backend {
	case BackendSQLite, "":
		return NewSQLiteIndex(path)
	case BackendBleve:
		return NewBleveIndex(path)
	default:
		return nil, fmt.Errorf("unknown index backend: %s (valid options: sqlite, bleve)", backend)
	}
}

// Open opens every configured backend under dataDir.
// If any backend fails, the ones already opened are closed.
func Open(dataDir string, backends []string) ([]ClassIndex, error) {
	if len(backends) == 0 {
		backends = []string{string(BackendSQLite)}
	}

	indexes := make([]ClassIndex, 0, len(backends))
	for _, name := range backends {
		idx, err := NewIndex(dataDir, Backend(name))
		if err != nil {
			_ = CloseAll(indexes)
			return nil, fmt.Errorf("failed to open %s index: %w", name, err)
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

// Existing reports which backends already have an index under dataDir.
func Existing(dataDir string) []Backend {
	var found []Backend
	if fileExists(IndexPath(dataDir, BackendSQLite)) {
		found = append(found, BackendSQLite)
	}
	if dirExists(IndexPath(dataDir, BackendBleve)) {
		found = append(found, BackendBleve)
	}
	return found
}

// Providers exposes indexes as search providers.
func Providers(indexes []ClassIndex) []classsearch.Provider {
	providers := make([]classsearch.Provider, len(indexes))
	for i, idx := range indexes {
		providers[i] = idx
	}
	return providers
}

// CloseAll closes every index and returns the joined errors.
func CloseAll(indexes []ClassIndex) error {
	var errs []error
	for _, idx := range indexes {
		if err := idx.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// fileExists checks if a file exists at the given path.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// dirExists checks if a directory exists at the given path.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IndexStatus reports one index for status output.
type IndexStatus struct {
	Name      string `json:"name"`
	Artifacts int    `json:"artifacts"`
	Error     string `json:"error,omitempty"`
}

// Status counts the artifacts of every index. A failing count is reported, not returned.
func Status(ctx context.Context, indexes []ClassIndex) []IndexStatus {
	statuses := make([]IndexStatus, 0, len(indexes))
	for _, idx := range indexes {
		st := IndexStatus{Name: idx.Name()}
		n, err := idx.Count(ctx)
		if err != nil {
			st.Error = err.Error()
		} else {
			st.Artifacts = n
		}
		statuses = append(statuses, st)
	}
	return statuses
}
