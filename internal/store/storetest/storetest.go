// Package storetest provides a behavioral test suite shared by every store.Store backend.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/portfolio-server/internal/store"
)

// Factory builds an empty store with the given retention limit.
// Implementations should register cleanup with t.Cleanup.
type Factory func(t *testing.T, limit int) store.Store

// Run executes the shared suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("EmptyStoreReadsEmpty", func(t *testing.T) { testEmpty(t, newStore) })
	t.Run("AppendThenReadAll", func(t *testing.T) { testAppendThenReadAll(t, newStore) })
	t.Run("AppendsLandLast", func(t *testing.T) { testAppendsLandLast(t, newStore) })
	t.Run("UniqueIDs", func(t *testing.T) { testUniqueIDs(t, newStore) })
	t.Run("RetentionKeepsMostRecent", func(t *testing.T) { testRetention(t, newStore) })
	t.Run("RetentionEvictsFirst", func(t *testing.T) { testRetentionEvictsFirst(t, newStore) })
	t.Run("IPAddressRoundTrip", func(t *testing.T) { testIPAddress(t, newStore) })
	t.Run("ConcurrentAppends", func(t *testing.T) { testConcurrentAppends(t, newStore) })
}

func testEmpty(t *testing.T, newStore Factory) {
	req := require.New(t)
	st := newStore(t, store.DefaultRetention)

	subs, err := st.ReadAll(context.Background())
	req.NoError(err)
	req.NotNil(subs)
	req.Empty(subs)
}

func testAppendThenReadAll(t *testing.T, newStore Factory) {
	req := require.New(t)
	st := newStore(t, store.DefaultRetention)
	ctx := context.Background()

	before := time.Now().UTC().Truncate(time.Millisecond)
	sub, err := st.Append(ctx, store.Input{Name: "Ann", Email: "ann@x.com", Message: "Hi"})
	req.NoError(err)
	after := time.Now().UTC()

	req.NotEmpty(sub.ID)
	req.Equal("Ann", sub.Name)
	req.Equal("ann@x.com", sub.Email)
	req.Equal("Hi", sub.Message)

	ts, err := time.Parse(time.RFC3339Nano, sub.Timestamp)
	req.NoError(err, "timestamp %q is not ISO-8601", sub.Timestamp)
	req.False(ts.Before(before), "timestamp %v before %v", ts, before)
	req.False(ts.After(after), "timestamp %v after %v", ts, after)

	subs, err := st.ReadAll(ctx)
	req.NoError(err)
	req.Equal([]store.Submission{sub}, subs)
}

func testAppendsLandLast(t *testing.T, newStore Factory) {
	req := require.New(t)
	st := newStore(t, store.DefaultRetention)
	ctx := context.Background()

	var appended []store.Submission
	for i := 0; i < 5; i++ {
		sub, err := st.Append(ctx, store.Input{
			Name:    fmt.Sprintf("user-%d", i),
			Email:   fmt.Sprintf("user-%d@example.com", i),
			Message: "hello",
		})
		req.NoError(err)
		appended = append(appended, sub)

		subs, err := st.ReadAll(ctx)
		req.NoError(err)
		req.Len(subs, i+1)
		req.Equal(sub, subs[len(subs)-1])
	}

	subs, err := st.ReadAll(ctx)
	req.NoError(err)
	req.Equal(appended, subs)
}

func testUniqueIDs(t *testing.T, newStore Factory) {
	req := require.New(t)
	st := newStore(t, 1000)
	ctx := context.Background()

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		sub, err := st.Append(ctx, store.Input{Name: "n", Email: "e", Message: "m"})
		req.NoError(err)
		_, dup := seen[sub.ID]
		req.False(dup, "duplicate id %q", sub.ID)
		seen[sub.ID] = struct{}{}
	}
}

func testRetention(t *testing.T, newStore Factory) {
	req := require.New(t)
	st := newStore(t, store.DefaultRetention)
	ctx := context.Background()

	const total = 130
	for i := 0; i < total; i++ {
		_, err := st.Append(ctx, store.Input{Name: fmt.Sprintf("n%d", i), Email: "e", Message: "m"})
		req.NoError(err)
	}

	subs, err := st.ReadAll(ctx)
	req.NoError(err)
	req.Len(subs, store.DefaultRetention)
	for i, sub := range subs {
		req.Equal(fmt.Sprintf("n%d", total-store.DefaultRetention+i), sub.Name)
	}
}

func testRetentionEvictsFirst(t *testing.T, newStore Factory) {
	req := require.New(t)
	st := newStore(t, store.DefaultRetention)
	ctx := context.Background()

	for i := 0; i < 101; i++ {
		_, err := st.Append(ctx, store.Input{Name: fmt.Sprintf("sender-%03d", i), Email: "e", Message: "m"})
		req.NoError(err)
	}

	subs, err := st.ReadAll(ctx)
	req.NoError(err)
	req.Len(subs, 100)
	req.Equal("sender-001", subs[0].Name)
	req.Equal("sender-100", subs[99].Name)
}

func testIPAddress(t *testing.T, newStore Factory) {
	req := require.New(t)
	st := newStore(t, store.DefaultRetention)
	ctx := context.Background()

	withIP, err := st.Append(ctx, store.Input{Name: "a", Email: "b", Message: "c", IPAddress: "203.0.113.7"})
	req.NoError(err)
	withoutIP, err := st.Append(ctx, store.Input{Name: "d", Email: "e", Message: "f"})
	req.NoError(err)

	subs, err := st.ReadAll(ctx)
	req.NoError(err)
	req.Equal([]store.Submission{withIP, withoutIP}, subs)
	req.Equal("203.0.113.7", subs[0].IPAddress)
	req.Empty(subs[1].IPAddress)
}

func testConcurrentAppends(t *testing.T, newStore Factory) {
	req := require.New(t)
	st := newStore(t, 1000)
	ctx := context.Background()

	const workers = 8
	const perWorker = 10

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := st.Append(ctx, store.Input{Name: fmt.Sprintf("w%d-%d", w, i), Email: "e", Message: "m"})
				if err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	subs, err := st.ReadAll(ctx)
	req.NoError(err)
	req.Len(subs, workers*perWorker)

	names := make(map[string]struct{}, len(subs))
	for _, sub := range subs {
		names[sub.Name] = struct{}{}
	}
	req.Len(names, workers*perWorker)
}
