package away

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store persists the away record.
type Store interface {
	// Load returns the persisted state. When the record is absent or
	// unreadable it returns DefaultState together with an error wrapping
	// ErrCorruptOrMissing.
	Load(ctx context.Context) (State, error)
	// Save replaces the persisted record. Errors wrap ErrPersistence.
	Save(ctx context.Context, st State) error
}

// FileStore keeps the record in a JSON file replaced atomically on every save.
type FileStore struct {
	path string
	perm os.FileMode

	// rename is swapped in tests to simulate a crash before the final replace.
	rename func(oldpath, newpath string) error
}

// NewFileStore returns a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, perm: 0o600, rename: os.Rename}
}

// Path returns the file backing the store.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and decodes the state file.
func (s *FileStore) Load(_ context.Context) (State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultState(), fmt.Errorf("%w: %s does not exist", ErrCorruptOrMissing, s.path)
		}
		return DefaultState(), fmt.Errorf("%w: read %s: %v", ErrCorruptOrMissing, s.path, err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return DefaultState(), fmt.Errorf("%w: decode %s: %v", ErrCorruptOrMissing, s.path, err)
	}
	return st, nil
}

// Save writes st to a temp file next to the target, syncs it and renames it
// over the previous record. On failure the previous record stays intact.
func (s *FileStore) Save(_ context.Context, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersistence, err)
	}
	if err := s.write(data); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func (s *FileStore) write(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	f, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := f.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, s.perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	rename := s.rename
	if rename == nil {
		rename = os.Rename
	}
	if err := rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	committed = true
	return nil
}
