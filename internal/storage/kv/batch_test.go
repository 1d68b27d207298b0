package kv

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashkv/engine/internal/storage/codec"
)

func TestStore_PutManyGetMany(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	entries := map[string]Entry{
		"a": {Value: codec.Int(1)},
		"b": {Value: codec.Text("two")},
		"c": {Value: codec.Bytes([]byte{0x03})},
	}
	require.NoError(t, store.PutMany(ctx, entries))

	// Absent keys are omitted from the result, not mapped to null.
	values, err := store.GetMany(ctx, []string{"a", "b", "c", "missing"})
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.True(t, codec.Int(1).Equal(values["a"]))
	assert.True(t, codec.Text("two").Equal(values["b"]))
	assert.True(t, codec.Bytes([]byte{0x03}).Equal(values["c"]))
	_, present := values["missing"]
	assert.False(t, present)
}

func TestStore_PutMany_SharedExpiryBase(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	pinClock(store)

	entries := map[string]Entry{}
	for i := 0; i < 10; i++ {
		entries[fmt.Sprintf("k%d", i)] = Entry{Value: codec.Int(int64(i)), TTL: time.Minute}
	}
	require.NoError(t, store.PutMany(ctx, entries))

	want := store.now() + time.Minute.Milliseconds()
	for key := range entries {
		expiry, ok, err := store.GetExpire(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, expiry.UnixMilli(), "key %s", key)
	}
}

func TestStore_PutMany_RejectsWholeBatch(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	entries := map[string]Entry{
		"good": {Value: codec.Int(1)},
		"":     {Value: codec.Int(2)},
	}
	err := store.PutMany(ctx, entries)
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))

	// Nothing from the batch was written.
	exists, err := store.Exists(ctx, "good")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_PutMany_Empty(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.PutMany(context.Background(), nil))
}

func TestStore_GetMany_ExcludesExpired(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	advance := pinClock(store)

	require.NoError(t, store.PutMany(ctx, map[string]Entry{
		"live":  {Value: codec.Int(1)},
		"dying": {Value: codec.Int(2), TTL: time.Second},
	}))

	advance(2 * time.Second)

	values, err := store.GetMany(ctx, []string{"live", "dying"})
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.True(t, codec.Int(1).Equal(values["live"]))
}

func TestStore_Batch_Chunking(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// Well past one chunk of bound parameters.
	const total = maxBatchKeys*2 + 57

	entries := make(map[string]Entry, total)
	keys := make([]string, 0, total)
	for i := 0; i < total; i++ {
		key := fmt.Sprintf("bulk:%05d", i)
		entries[key] = Entry{Value: codec.Int(int64(i))}
		keys = append(keys, key)
	}
	require.NoError(t, store.PutMany(ctx, entries))

	values, err := store.GetMany(ctx, keys)
	require.NoError(t, err)
	assert.Len(t, values, total)

	require.NoError(t, store.DeleteMany(ctx, keys))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestStore_DeleteMany(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	seedKeys(t, store, "a", "b", "c")

	// Missing keys in the batch are ignored.
	require.NoError(t, store.DeleteMany(ctx, []string{"a", "b", "ghost"}))

	keys, err := store.Keys(ctx, "%")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, keys)
}

func TestChunkKeys(t *testing.T) {
	keys := []string{"a", "b", "c", "d", "e"}

	chunks := chunkKeys(keys, 2)
	require.Len(t, chunks, 3)
	assert.Equal(t, []string{"a", "b"}, chunks[0])
	assert.Equal(t, []string{"c", "d"}, chunks[1])
	assert.Equal(t, []string{"e"}, chunks[2])

	assert.Nil(t, chunkKeys(nil, 2))
	assert.Len(t, chunkKeys(keys, 10), 1)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?,?,?", placeholders(3))
}
