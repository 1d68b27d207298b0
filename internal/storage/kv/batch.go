package kv

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/flashkv/engine/internal/storage/codec"
)

// PutMany upserts every entry using one shared observation time, so every
// key in the batch gets a consistent expiry base. The batch runs in a
// single transaction: either all entries become visible together or none
// do.
func (s *Store) PutMany(ctx context.Context, entries map[string]Entry) (err error) {
	start := time.Now()
	defer func() { s.finish("put_many", start, err) }()
	ctx, span := startSpan(ctx, "put_many", "")
	defer span.End()

	for key, entry := range entries {
		if err = validateKey(key); err != nil {
			return err
		}
		if err = validateTTL(entry.TTL); err != nil {
			return err
		}
	}
	if len(entries) == 0 {
		return nil
	}

	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("put_many", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO flashkv (key, value, expires_at) VALUES (?, ?, ?)`)
	if err != nil {
		return storeErr("put_many", err)
	}
	defer stmt.Close()

	for key, entry := range entries {
		payload, encErr := codec.Encode(entry.Value)
		if encErr != nil {
			err = encErr
			return err
		}
		if _, err = stmt.ExecContext(ctx, key, payload, expiresAt(now, entry.TTL)); err != nil {
			recordSpanError(span, err)
			return storeErr("put_many", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return storeErr("put_many", err)
	}
	return nil
}

// GetMany returns the live values for keys. Keys that are missing or
// expired are omitted from the result, never present as null entries.
// Lookups are chunked to respect the engine's bound-parameter limit and
// the chunks share one observation time; all chunk results are merged.
func (s *Store) GetMany(ctx context.Context, keys []string) (_ map[string]codec.Value, err error) {
	start := time.Now()
	defer func() { s.finish("get_many", start, err) }()
	ctx, span := startSpan(ctx, "get_many", "")
	defer span.End()

	for _, key := range keys {
		if err = validateKey(key); err != nil {
			return nil, err
		}
	}

	now := s.now()
	result := make(map[string]codec.Value, len(keys))

	for _, chunk := range chunkKeys(keys, maxBatchKeys) {
		args := make([]interface{}, 0, len(chunk)+1)
		for _, key := range chunk {
			args = append(args, key)
		}
		args = append(args, now)

		rows, qErr := s.db.QueryContext(ctx,
			`SELECT key, value FROM flashkv WHERE key IN (`+placeholders(len(chunk))+
				`) AND `+livePredicate, args...)
		if qErr != nil {
			err = storeErr("get_many", qErr)
			recordSpanError(span, err)
			return nil, err
		}

		if err = scanPairs(rows, result); err != nil {
			rows.Close()
			recordSpanError(span, err)
			return nil, err
		}
		rows.Close()
	}

	return result, nil
}

// DeleteMany removes every named key in a single transaction, chunked the
// same way as GetMany. Missing keys are ignored; a failed chunk aborts
// the whole call rather than committing a prefix.
func (s *Store) DeleteMany(ctx context.Context, keys []string) (err error) {
	start := time.Now()
	defer func() { s.finish("delete_many", start, err) }()
	ctx, span := startSpan(ctx, "delete_many", "")
	defer span.End()

	for _, key := range keys {
		if err = validateKey(key); err != nil {
			return err
		}
	}
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("delete_many", err)
	}
	defer tx.Rollback()

	for _, chunk := range chunkKeys(keys, maxBatchKeys) {
		args := make([]interface{}, 0, len(chunk))
		for _, key := range chunk {
			args = append(args, key)
		}
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM flashkv WHERE key IN (`+placeholders(len(chunk))+`)`,
			args...); err != nil {
			recordSpanError(span, err)
			return storeErr("delete_many", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return storeErr("delete_many", err)
	}
	return nil
}

func chunkKeys(keys []string, size int) [][]string {
	var chunks [][]string
	for len(keys) > size {
		chunks = append(chunks, keys[:size])
		keys = keys[size:]
	}
	if len(keys) > 0 {
		chunks = append(chunks, keys)
	}
	return chunks
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func scanPairs(rows *sql.Rows, into map[string]codec.Value) error {
	for rows.Next() {
		var key string
		var payload []byte
		if err := rows.Scan(&key, &payload); err != nil {
			return storeErr("get_many", err)
		}
		v, err := codec.Decode(payload)
		if err != nil {
			return CorruptPayloadError{Key: key, Err: err}
		}
		into[key] = v
	}
	if err := rows.Err(); err != nil {
		return storeErr("get_many", err)
	}
	return nil
}
