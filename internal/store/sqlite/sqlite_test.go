package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/vovakirdan/portfolio-server/internal/store"
	"github.com/vovakirdan/portfolio-server/internal/store/storetest"
)

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T, limit int) store.Store {
		s, err := New(":memory:", limit)
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestReopenKeepsSubmissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.db")
	ctx := context.Background()

	s, err := New(path, 0)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	sub, err := s.Append(ctx, store.Input{Name: "Ann", Email: "ann@x.com", Message: "Hi", IPAddress: "unknown"})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	reopened, err := New(path, 0)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()

	subs, err := reopened.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(subs) != 1 || subs[0] != sub {
		t.Fatalf("expected [%+v], got %+v", sub, subs)
	}
}

func TestClosedStoreReportsKinds(t *testing.T) {
	s, err := New(":memory:", 0)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	_ = s.Close()

	ctx := context.Background()
	if _, err := s.Append(ctx, store.Input{Name: "a", Email: "b", Message: "c"}); !errors.Is(err, store.ErrWrite) {
		t.Errorf("expected ErrWrite, got %v", err)
	}
	if _, err := s.ReadAll(ctx); !errors.Is(err, store.ErrRead) {
		t.Errorf("expected ErrRead, got %v", err)
	}
}
