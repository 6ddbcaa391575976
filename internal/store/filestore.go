package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// FileStore keeps each collection in <dataDir>/<name>.json. The mutex only
// serializes individual file reads and writes; callers that need a whole
// read-modify-write cycle to be atomic must provide their own locking.
type FileStore struct {
	dir string
	mu  sync.Mutex
	log *zerolog.Logger
}

func NewFileStore(dir string, log *zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir, log: log}, nil
}

func (f *FileStore) path(name string) string {
	return filepath.Join(f.dir, name+".json")
}

func (f *FileStore) ReadCollection(_ context.Context, name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path(name))
	if os.IsNotExist(err) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", name, err)
	}
	return data, nil
}

func (f *FileStore) WriteCollection(_ context.Context, name string, doc []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, doc, "", "  "); err != nil {
		return fmt.Errorf("invalid document for collection %s: %w", name, err)
	}

	// Write to a temp file and rename so a crash mid-write never leaves a
	// truncated collection on disk.
	tmp := f.path(name) + ".tmp"
	if err := os.WriteFile(tmp, pretty.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write collection %s: %w", name, err)
	}
	if err := os.Rename(tmp, f.path(name)); err != nil {
		return fmt.Errorf("failed to replace collection %s: %w", name, err)
	}

	f.log.Debug().Str("collection", name).Int("bytes", pretty.Len()).Msg("collection written")
	return nil
}
