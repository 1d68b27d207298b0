package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashkv/engine/internal/storage/codec"
)

func TestStore_QueryExecPassthrough(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a", codec.Int(1), 0))
	require.NoError(t, store.Put(ctx, "b", codec.Int(2), 0))

	rows, err := store.Query(ctx, `SELECT key FROM flashkv WHERE key > ? ORDER BY key`, "a")
	require.NoError(t, err)
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		require.NoError(t, rows.Scan(&k))
		keys = append(keys, k)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"b"}, keys)

	res, err := store.Exec(ctx, `DELETE FROM flashkv WHERE key = ?`, "a")
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_Ready(t *testing.T) {
	store := setupTestStore(t)
	assert.True(t, store.Ready(context.Background()))
}
