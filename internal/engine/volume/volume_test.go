package volume

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	t.Run("unseen sender reads zero usage", func(t *testing.T) {
		usage, err := store.Get(ctx, "asset-1", "alice")
		require.NoError(t, err)
		assert.Zero(t, usage.DailyUsed)
		assert.Zero(t, usage.MonthlyUsed)
	})

	t.Run("put then get", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "asset-1", "alice", Usage{
			DailyUsed:   30,
			MonthlyUsed: 120,
			LastTs:      5000,
		}))

		usage, err := store.Get(ctx, "asset-1", "alice")
		require.NoError(t, err)
		assert.Equal(t, uint64(30), usage.DailyUsed)
		assert.Equal(t, uint64(120), usage.MonthlyUsed)
		assert.Equal(t, int64(5000), usage.LastTs)
	})

	t.Run("keyed per asset and sender", func(t *testing.T) {
		usage, err := store.Get(ctx, "asset-2", "alice")
		require.NoError(t, err)
		assert.Zero(t, usage.DailyUsed)

		usage, err = store.Get(ctx, "asset-1", "bob")
		require.NoError(t, err)
		assert.Zero(t, usage.DailyUsed)
	})
}
