package kv

import (
	"context"
	"database/sql"
	"time"
)

// Keys returns all live keys matching pattern, ordered lexicographically.
// Patterns use SQL LIKE syntax: % matches any run of characters, _
// exactly one; matching is case-sensitive. "%" matches every key.
func (s *Store) Keys(ctx context.Context, pattern string) (_ []string, err error) {
	start := time.Now()
	defer func() { s.finish("keys", start, err) }()
	ctx, span := startSpan(ctx, "keys", pattern)
	defer span.End()

	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM flashkv WHERE key LIKE ? AND `+livePredicate+` ORDER BY key`,
		pattern, s.now())
	if err != nil {
		recordSpanError(span, err)
		return nil, storeErr("keys", err)
	}
	defer rows.Close()

	return collectKeys(rows)
}

// Paginate returns the page-th window of live keys matching pattern.
// Pages are 1-based and pageSize wide; the lexicographic ordering keeps
// consecutive pages gap- and overlap-free absent concurrent writes.
func (s *Store) Paginate(ctx context.Context, pattern string, page, pageSize int) (_ []string, err error) {
	start := time.Now()
	defer func() { s.finish("paginate", start, err) }()

	if page < 1 || pageSize < 1 {
		err = InvalidPageError{Page: page, PageSize: pageSize}
		return nil, err
	}

	offset := (page - 1) * pageSize
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM flashkv WHERE key LIKE ? AND `+livePredicate+
			` ORDER BY key LIMIT ? OFFSET ?`,
		pattern, s.now(), pageSize, offset)
	if err != nil {
		return nil, storeErr("paginate", err)
	}
	defer rows.Close()

	return collectKeys(rows)
}

// Count returns the total number of stored records, including expired
// records that have not been swept yet. It matches the live-key count
// only right after a sweep; the asymmetry with Keys is deliberate.
func (s *Store) Count(ctx context.Context) (_ int64, err error) {
	start := time.Now()
	defer func() { s.finish("count", start, err) }()

	var n int64
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM flashkv`).Scan(&n); err != nil {
		return 0, storeErr("count", err)
	}
	return n, nil
}

// CountExpired returns the number of records whose expiry has passed but
// that are still physically present.
func (s *Store) CountExpired(ctx context.Context) (_ int64, err error) {
	start := time.Now()
	defer func() { s.finish("count_expired", start, err) }()

	var n int64
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM flashkv WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		s.now()).Scan(&n)
	if err != nil {
		return 0, storeErr("count_expired", err)
	}
	return n, nil
}

// Cleanup physically removes every record whose expiry has passed and
// returns how many were removed. It is idempotent and safe to call at
// any time.
func (s *Store) Cleanup(ctx context.Context) (_ int64, err error) {
	start := time.Now()
	defer func() { s.finish("cleanup", start, err) }()
	ctx, span := startSpan(ctx, "cleanup", "")
	defer span.End()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM flashkv WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		s.now())
	if err != nil {
		recordSpanError(span, err)
		return 0, storeErr("cleanup", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("cleanup", err)
	}
	if n > 0 {
		s.metrics.RecordReaped(n)
		s.log.Debug().Int64("reaped", n).Msg("Expired records removed")
	}
	return n, nil
}

func collectKeys(rows *sql.Rows) ([]string, error) {
	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, storeErr("scan keys", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("scan keys", err)
	}
	return keys, nil
}
