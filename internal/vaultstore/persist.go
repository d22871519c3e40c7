package vaultstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// persistDoc is the on-disk shape: {"vaults": {...}} pretty-printed,
// plus a trailing newline.
type persistDoc struct {
	Vaults map[string]*Vault `json:"vaults"`
}

// Load reads the persistence file at path into a fresh Store. If the
// file is absent the store initializes empty; if present and
// non-parsable the store refuses to start.
func Load(path string, logger *logrus.Logger) (*Store, error) {
	s := New(logger)

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logger.WithField("path", path).Info("no existing state file, starting empty")
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("vaultstore: failed to read state file %s: %w", path, err)
	}

	var doc persistDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("vaultstore: state file %s is corrupt, refusing to start: %w", path, err)
	}
	if doc.Vaults == nil {
		doc.Vaults = make(map[string]*Vault)
	}
	s.vaults = doc.Vaults
	logger.WithField("path", path).WithField("vaultCount", len(s.vaults)).Info("loaded state file")
	return s, nil
}

// Save rewrites the persistence file with the store's current state.
// It writes to a temporary file in the same directory and renames over
// the destination, which is as close to atomic as a single writer
// needs.
func (s *Store) Save(path string) error {
	doc := persistDoc{Vaults: s.vaults}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("vaultstore: failed to marshal state: %w", err)
	}
	b = append(b, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("vaultstore: failed to create state directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".xvault-state-*.tmp")
	if err != nil {
		return fmt.Errorf("vaultstore: failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("vaultstore: failed to write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("vaultstore: failed to close temp state file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("vaultstore: failed to rename temp state file into place: %w", err)
	}
	return nil
}
