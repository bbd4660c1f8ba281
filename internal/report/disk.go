package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// DefaultDirName is the directory under os.TempDir used when no store
// directory is configured. It is stable so that separate invocations of
// the CLI can read each other's runs.
const DefaultDirName = "shellcap-runs"

// DiskStore writes RunResult as JSON files to a directory created lazily
// on first use.
type DiskStore struct {
	mu   sync.Mutex
	root string
	dir  string
}

// NewDiskStore creates a DiskStore rooted at dir. An empty dir selects
// DefaultDirName under os.TempDir.
func NewDiskStore(dir string) *DiskStore {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), DefaultDirName)
	}
	return &DiskStore{root: dir}
}

// Save writes a RunResult as a JSON file to disk.
func (s *DiskStore) Save(result *RunResult) error {
	path, err := s.path(result.ID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshalling result %s: %w", result.ID, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing result %s: %w", result.ID, err)
	}
	return nil
}

// Load reads a RunResult from disk.
func (s *DiskStore) Load(runID string) (*RunResult, error) {
	path, err := s.path(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result %s: %w", runID, err)
	}
	var result RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshalling result %s: %w", runID, err)
	}
	return &result, nil
}

// path maps a run ID to its file. IDs are UUIDs, which also keeps callers
// from naming files outside the store.
func (s *DiskStore) path(runID string) (string, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return "", fmt.Errorf("invalid run id %q: %w", runID, err)
	}
	dir, err := s.ensureDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, runID+".json"), nil
}

func (s *DiskStore) ensureDir() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dir != "" {
		return s.dir, nil
	}
	if err := os.MkdirAll(s.root, 0o700); err != nil {
		return "", fmt.Errorf("creating result directory: %w", err)
	}
	s.dir = s.root
	return s.dir, nil
}
