package main

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInMemoryReportStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("store and retrieve", func(t *testing.T) {
		storage := NewInMemoryReportStorage(time.Hour)
		require.NoError(t, storage.StoreReport(ctx, "a", []byte(`{"ok":true}`)))

		report, err := storage.RetrieveReport(ctx, "a")
		require.NoError(t, err)
		require.JSONEq(t, `{"ok":true}`, string(report))

		// reports can be fetched more than once
		_, err = storage.RetrieveReport(ctx, "a")
		require.NoError(t, err)
	})

	t.Run("unknown id", func(t *testing.T) {
		storage := NewInMemoryReportStorage(time.Hour)
		_, err := storage.RetrieveReport(ctx, "missing")
		require.ErrorIs(t, err, ErrReportNotFound)
	})

	t.Run("overwrite", func(t *testing.T) {
		storage := NewInMemoryReportStorage(time.Hour)
		require.NoError(t, storage.StoreReport(ctx, "a", []byte("1")))
		require.NoError(t, storage.StoreReport(ctx, "a", []byte("2")))

		report, err := storage.RetrieveReport(ctx, "a")
		require.NoError(t, err)
		require.Equal(t, "2", string(report))
	})

	t.Run("expiry", func(t *testing.T) {
		now := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
		storage := NewInMemoryReportStorage(time.Minute)
		storage.now = func() time.Time { return now }

		require.NoError(t, storage.StoreReport(ctx, "old", []byte("old")))
		now = now.Add(59 * time.Second)
		_, err := storage.RetrieveReport(ctx, "old")
		require.NoError(t, err)

		now = now.Add(time.Second)
		_, err = storage.RetrieveReport(ctx, "old")
		require.ErrorIs(t, err, ErrReportNotFound)
	})

	t.Run("expired reports are evicted on store", func(t *testing.T) {
		now := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
		storage := NewInMemoryReportStorage(time.Minute)
		storage.now = func() time.Time { return now }

		require.NoError(t, storage.StoreReport(ctx, "old", []byte("old")))
		now = now.Add(2 * time.Minute)
		require.NoError(t, storage.StoreReport(ctx, "new", []byte("new")))
		require.Len(t, storage.reports, 1)
	})

	t.Run("concurrent use", func(t *testing.T) {
		storage := NewInMemoryReportStorage(time.Hour)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := fmt.Sprintf("r%d", i)
				if err := storage.StoreReport(ctx, id, []byte(id)); err != nil {
					t.Errorf("store %s: %v", id, err)
				}
				if _, err := storage.RetrieveReport(ctx, id); err != nil {
					t.Errorf("retrieve %s: %v", id, err)
				}
			}(i)
		}
		wg.Wait()
		require.Len(t, storage.reports, 20)
	})
}
