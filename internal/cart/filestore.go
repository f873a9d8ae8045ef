package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore persists cart snapshots as a JSON file keyed by session id.
// Writes go through a temp file and rename so a crash mid-write leaves the
// previous snapshot intact.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed persister under dir for one session.
func NewFileStore(dir, sessionID string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cart storage dir: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, fmt.Sprintf("cart_%s.json", sessionID))}, nil
}

// Save writes the snapshot atomically.
func (f *FileStore) Save(snapshot Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal cart snapshot: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cart snapshot: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace cart snapshot: %w", err)
	}
	return nil
}

// Load reads the persisted snapshot. The second return value is false when
// no snapshot exists yet.
func (f *FileStore) Load() (Snapshot, bool, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("failed to read cart snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, false, fmt.Errorf("failed to parse cart snapshot: %w", err)
	}
	return snapshot, true, nil
}
