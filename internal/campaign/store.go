package campaign

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists the campaign log as a single JSON array in one file,
// the durable slot read once at startup and rewritten wholesale on every
// mutation.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store, creating the parent directory if
// needed.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Load reads the persisted log. A missing file is an empty log.
func (fs *FileStore) Load() ([]Campaign, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var campaigns []Campaign
	if err := json.Unmarshal(data, &campaigns); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", fs.path, err)
	}
	return campaigns, nil
}

// Save rewrites the whole log. The write goes through a temp file and rename
// so a crash mid-write leaves the previous log intact.
func (fs *FileStore) Save(campaigns []Campaign) error {
	if campaigns == nil {
		campaigns = []Campaign{}
	}
	data, err := json.MarshalIndent(campaigns, "", "  ")
	if err != nil {
		return err
	}
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, fs.path)
}

// MemStore keeps the log in memory only; used by tests and as a fallback
// when no storage path is configured.
type MemStore struct {
	campaigns []Campaign
	saves     int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore { return &MemStore{} }

// Load returns the stored log.
func (ms *MemStore) Load() ([]Campaign, error) {
	return append([]Campaign(nil), ms.campaigns...), nil
}

// Save replaces the stored log.
func (ms *MemStore) Save(campaigns []Campaign) error {
	ms.campaigns = append([]Campaign(nil), campaigns...)
	ms.saves++
	return nil
}

// Saves reports how many times Save ran; tests use it to assert the
// rewrite-on-every-mutation contract.
func (ms *MemStore) Saves() int { return ms.saves }
