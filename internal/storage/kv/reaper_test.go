package kv

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashkv/engine/internal/storage/codec"
)

func TestStore_Reaper_SweepsExpired(t *testing.T) {
	opts := DefaultOptions()
	opts.ReapInterval = 20 * time.Millisecond

	store, err := Open(filepath.Join(t.TempDir(), "reaper.db"), opts)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "keep", codec.Int(1), 0))
	require.NoError(t, store.Put(ctx, "drop", codec.Int(2), 30*time.Millisecond))

	require.Eventually(t, func() bool {
		n, err := store.Count(ctx)
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)

	exists, err := store.Exists(ctx, "keep")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_Reaper_StopsOnClose(t *testing.T) {
	opts := DefaultOptions()
	opts.ReapInterval = 10 * time.Millisecond

	store, err := Open(filepath.Join(t.TempDir(), "reaper.db"), opts)
	require.NoError(t, err)

	// Close must wait for the reaper goroutine to exit.
	require.NoError(t, store.Close())
}
