package kv

import (
	"context"
	"database/sql"
	"time"
)

// Flush forces every buffered write onto stable storage by checkpointing
// the write-ahead log.
func (s *Store) Flush(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.finish("flush", start, err) }()

	if _, err = s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return storeErr("flush", err)
	}
	return nil
}

// Vacuum rebuilds the database file to reclaim the space freed by
// deleted records.
func (s *Store) Vacuum(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.finish("vacuum", start, err) }()

	if _, err = s.db.ExecContext(ctx, `VACUUM`); err != nil {
		return storeErr("vacuum", err)
	}
	return nil
}

// Ready reports whether the backing database is reachable.
func (s *Store) Ready(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}

// Query is a passthrough for arbitrary parameterized read statements
// against the backing engine. The caller owns the returned rows.
func (s *Store) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("query", err)
	}
	return rows, nil
}

// Exec is a passthrough for arbitrary parameterized write statements
// against the backing engine.
func (s *Store) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("exec", err)
	}
	return res, nil
}
