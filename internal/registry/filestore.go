package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore serializes the registry as a single JSON document at path.
// Each save rewrites the whole file; there is no incremental format.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (map[string]int64, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]int64{}, nil
		}
		return nil, fmt.Errorf("read registry file: %w", err)
	}

	entries := make(map[string]int64)
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse registry file: %w", err)
	}
	return entries, nil
}

func (s *FileStore) Save(entries map[string]int64) error {
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write registry file: %w", err)
	}
	return nil
}
