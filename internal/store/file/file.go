// Package file implements store.Store on top of a single JSON array file.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vovakirdan/portfolio-server/internal/store"
)

// FileStore keeps submissions in a pretty-printed JSON array on disk.
// Writes hold mu for the whole read-modify-write and replace the file via rename,
// so readers never see a partially written array.
type FileStore struct {
	path  string
	limit int
	now   func() time.Time

	mu sync.RWMutex
}

var _ store.Store = (*FileStore)(nil)

// New creates a file-backed store at path, creating its parent directory.
// The file itself is created lazily on the first append.
func New(path string, limit int) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{
		path:  path,
		limit: store.NormalizeRetention(limit),
		now:   time.Now,
	}, nil
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

// Append implements store.Store.
func (s *FileStore) Append(ctx context.Context, in store.Input) (store.Submission, error) {
	if err := ctx.Err(); err != nil {
		return store.Submission{}, fmt.Errorf("%w: %w", store.ErrWrite, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.load()
	if err != nil {
		return store.Submission{}, fmt.Errorf("%w: load %s: %w", store.ErrWrite, s.path, err)
	}

	sub := store.NewSubmission(in, s.now())
	subs = store.Retain(append(subs, sub), s.limit)

	if err := s.replace(subs); err != nil {
		return store.Submission{}, fmt.Errorf("%w: %w", store.ErrWrite, err)
	}
	return sub, nil
}

// ReadAll implements store.Store.
func (s *FileStore) ReadAll(ctx context.Context) ([]store.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrRead, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	subs, err := s.load()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", store.ErrRead, s.path, err)
	}
	return subs, nil
}

// Close is a no-op; the file is opened per operation.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) load() ([]store.Submission, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []store.Submission{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []store.Submission{}, nil
	}

	var subs []store.Submission
	if err := json.Unmarshal(data, &subs); err != nil {
		return nil, fmt.Errorf("decode submissions: %w", err)
	}
	if subs == nil {
		subs = []store.Submission{}
	}
	return subs, nil
}

// replace writes subs to a temp file next to the target, syncs it and renames it into place.
func (s *FileStore) replace(subs []store.Submission) error {
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode submissions: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	committed = true
	return nil
}
