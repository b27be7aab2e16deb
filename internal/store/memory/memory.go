// Package memory implements a process-local store.Store.
//
// Submissions live only as long as the process: nothing is written to disk
// and a restart starts from an empty list.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vovakirdan/portfolio-server/internal/store"
)

// MemoryStore holds submissions in a slice guarded by a mutex.
type MemoryStore struct {
	limit int
	now   func() time.Time

	mu   sync.RWMutex
	subs []store.Submission
}

var _ store.Store = (*MemoryStore)(nil)

// New returns an empty in-memory store.
func New(limit int) *MemoryStore {
	return &MemoryStore{
		limit: store.NormalizeRetention(limit),
		now:   time.Now,
		subs:  make([]store.Submission, 0),
	}
}

// Append implements store.Store.
func (s *MemoryStore) Append(ctx context.Context, in store.Input) (store.Submission, error) {
	if err := ctx.Err(); err != nil {
		return store.Submission{}, fmt.Errorf("%w: %w", store.ErrWrite, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub := store.NewSubmission(in, s.now())
	s.subs = store.Retain(append(s.subs, sub), s.limit)
	return sub, nil
}

// ReadAll implements store.Store. The returned slice is a copy.
func (s *MemoryStore) ReadAll(ctx context.Context) ([]store.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrRead, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Submission, len(s.subs))
	copy(out, s.subs)
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
