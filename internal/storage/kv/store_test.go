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

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "test.db"), DefaultOptions())
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store
}

// pinClock freezes the store's observation time and returns a function
// that advances it.
func pinClock(store *Store) func(d time.Duration) {
	base := time.Now().UnixMilli()
	now := base
	store.now = func() int64 { return now }
	return func(d time.Duration) {
		now += d.Milliseconds()
	}
}

func TestStore_PutGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	value := codec.Text("hello")
	require.NoError(t, store.Put(ctx, "greeting", value, 0))

	got, found, err := store.Get(ctx, "greeting")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, value.Equal(got))
}

func TestStore_Get_Missing(t *testing.T) {
	store := setupTestStore(t)

	_, found, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_PutGet_Structured(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	value := codec.Map(map[string]codec.Value{
		"count": codec.Int(3),
		"tags":  codec.List(codec.Text("a"), codec.Text("b")),
	})
	require.NoError(t, store.Put(ctx, "doc", value, 0))

	got, found, err := store.Get(ctx, "doc")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, value.Equal(got))
}

func TestStore_Put_TTLExpiry(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	advance := pinClock(store)

	require.NoError(t, store.Put(ctx, "ephemeral", codec.Text("v"), time.Second))

	_, found, err := store.Get(ctx, "ephemeral")
	require.NoError(t, err)
	assert.True(t, found)

	advance(time.Second + time.Millisecond)

	// Expired reads miss without any cleanup having run.
	_, found, err = store.Get(ctx, "ephemeral")
	require.NoError(t, err)
	assert.False(t, found)

	exists, err := store.Exists(ctx, "ephemeral")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_Put_OverwriteClearsTTL(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	advance := pinClock(store)

	require.NoError(t, store.Put(ctx, "k", codec.Text("old"), time.Second))
	require.NoError(t, store.Put(ctx, "k", codec.Text("new"), 0))

	advance(time.Hour)

	got, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "new", got.TextValue())

	_, ok, err := store.GetExpire(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Put_InvalidArguments(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.Put(ctx, "", codec.Text("v"), 0)
	require.Error(t, err)
	assert.IsType(t, InvalidKeyError{}, err)
	assert.True(t, IsInvalidArgument(err))

	err = store.Put(ctx, "k", codec.Text("v"), -time.Second)
	require.Error(t, err)
	assert.IsType(t, InvalidTTLError{}, err)
	assert.True(t, IsInvalidArgument(err))
}

func TestStore_Exists(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Put(ctx, "k", codec.Int(1), 0))

	exists, err = store.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_Delete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", codec.Int(1), 0))
	require.NoError(t, store.Delete(ctx, "k"))

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting a missing key is a no-op.
	require.NoError(t, store.Delete(ctx, "k"))
}

func TestStore_Rename(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "old", codec.Text("v"), 0))
	require.NoError(t, store.Rename(ctx, "old", "new"))

	_, found, err := store.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, found)

	got, found, err := store.Get(ctx, "new")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", got.TextValue())
}

func TestStore_Rename_ExpiredRecord(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	advance := pinClock(store)

	require.NoError(t, store.Put(ctx, "old", codec.Text("v"), time.Second))
	advance(2 * time.Second)

	// The record is logically expired but unswept; renaming still
	// carries it, expiry included.
	require.NoError(t, store.Rename(ctx, "old", "new"))

	_, found, err := store.Get(ctx, "new")
	require.NoError(t, err)
	assert.False(t, found)

	_, ok, err := store.GetExpire(ctx, "new")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_Rename_MissingSource(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.Rename(context.Background(), "ghost", "new"))

	exists, err := store.Exists(context.Background(), "new")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_GetExpire(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	pinClock(store)

	// Missing key
	_, ok, err := store.GetExpire(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	// Never-expiring key
	require.NoError(t, store.Put(ctx, "forever", codec.Int(1), 0))
	_, ok, err = store.GetExpire(ctx, "forever")
	require.NoError(t, err)
	assert.False(t, ok)

	// Expiring key
	require.NoError(t, store.Put(ctx, "ttl", codec.Int(1), time.Minute))
	expiry, ok, err := store.GetExpire(ctx, "ttl")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, store.now()+time.Minute.Milliseconds(), expiry.UnixMilli())
}

func TestStore_SetExpire(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	advance := pinClock(store)

	require.NoError(t, store.Put(ctx, "k", codec.Text("v"), 0))
	require.NoError(t, store.SetExpire(ctx, "k", time.Second))

	advance(2 * time.Second)

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_SetExpire_MissingKey(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetExpire(ctx, "ghost", time.Second))

	exists, err := store.Exists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_SetExpire_NegativeTTL(t *testing.T) {
	store := setupTestStore(t)

	err := store.SetExpire(context.Background(), "k", -time.Second)
	require.Error(t, err)
	assert.IsType(t, InvalidTTLError{}, err)
}

func TestStore_Update(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	pinClock(store)

	require.NoError(t, store.Put(ctx, "k", codec.Text("old"), time.Minute))

	before, ok, err := store.GetExpire(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	updated, err := store.Update(ctx, "k", codec.Text("new"))
	require.NoError(t, err)
	assert.True(t, updated)

	got, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "new", got.TextValue())

	// Expiry survives the payload swap.
	after, ok, err := store.GetExpire(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, before, after)
}

func TestStore_Update_MissingKey(t *testing.T) {
	store := setupTestStore(t)

	updated, err := store.Update(context.Background(), "ghost", codec.Text("v"))
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestStore_Pop(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", codec.Text("v"), 0))

	got, found, err := store.Pop(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", got.TextValue())

	exists, err := store.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_Pop_EmptyRawValue(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// An empty byte payload is still a found value and must be removed.
	require.NoError(t, store.Put(ctx, "k", codec.Bytes(nil), 0))

	got, found, err := store.Pop(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, codec.KindBytes, got.Kind())
	assert.Empty(t, got.BytesValue())

	exists, err := store.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_Pop_Missing(t *testing.T) {
	store := setupTestStore(t)

	_, found, err := store.Pop(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_Pop_Expired(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	advance := pinClock(store)

	require.NoError(t, store.Put(ctx, "k", codec.Text("v"), time.Second))
	advance(2 * time.Second)

	_, found, err := store.Pop(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	// The expired record is untouched, left for the reaper.
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_Move(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	pinClock(store)

	require.NoError(t, store.Put(ctx, "src", codec.Text("v"), time.Minute))
	require.NoError(t, store.Put(ctx, "dst", codec.Text("stale"), 0))

	srcExpiry, ok, err := store.GetExpire(ctx, "src")
	require.NoError(t, err)
	require.True(t, ok)

	moved, err := store.Move(ctx, "src", "dst")
	require.NoError(t, err)
	assert.True(t, moved)

	_, found, err := store.Get(ctx, "src")
	require.NoError(t, err)
	assert.False(t, found)

	got, found, err := store.Get(ctx, "dst")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v", got.TextValue())

	// The moved record keeps its own expiry, replacing the target's.
	dstExpiry, ok, err := store.GetExpire(ctx, "dst")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, srcExpiry, dstExpiry)
}

func TestStore_Move_MissingOrExpiredSource(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	advance := pinClock(store)

	moved, err := store.Move(ctx, "ghost", "dst")
	require.NoError(t, err)
	assert.False(t, moved)

	require.NoError(t, store.Put(ctx, "src", codec.Text("v"), time.Second))
	advance(2 * time.Second)

	moved, err = store.Move(ctx, "src", "dst")
	require.NoError(t, err)
	assert.False(t, moved)

	exists, err := store.Exists(ctx, "dst")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_MemoryMode(t *testing.T) {
	store, err := Open(MemoryPath, DefaultOptions())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "k", codec.Int(7), 0))

	got, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(7), got.IntValue())
}

func TestStore_CorruptPayload(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// Plant a payload with a tag byte no codec variant claims.
	_, err := store.Exec(ctx,
		`INSERT INTO flashkv (key, value, expires_at) VALUES (?, ?, NULL)`,
		"bad", []byte{0x7f, 0x01})
	require.NoError(t, err)

	_, _, err = store.Get(ctx, "bad")
	require.Error(t, err)
	assert.True(t, IsCorrupt(err))

	var corrupt CorruptPayloadError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, "bad", corrupt.Key)
}
