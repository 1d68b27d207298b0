// Package kv implements the persistent TTL-aware key-value store on top
// of SQLite. A key is live when it exists and its expiry, if set, has not
// passed at the observation time; every read-path operation filters by
// that predicate and leaves physical reclamation to Cleanup or the
// background reaper.
package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flashkv/engine/internal/logger"
	"github.com/flashkv/engine/internal/metrics"
	"github.com/flashkv/engine/internal/storage/codec"
	"github.com/rs/zerolog"

	_ "modernc.org/sqlite"
)

// MemoryPath opens an in-memory database instead of a file.
const MemoryPath = ":memory:"

// livePredicate is the SQL liveness filter. The timestamp parameter is
// the operation's single "now" in Unix milliseconds.
const livePredicate = "(expires_at IS NULL OR expires_at > ?)"

// Store owns one SQLite database holding the key -> (payload, expiry)
// mapping. It is safe for concurrent use; conflicting writers are
// serialized by the engine with a bounded busy timeout.
type Store struct {
	db      *sql.DB
	log     zerolog.Logger
	metrics *metrics.StoreMetrics

	// now is split out so expiry tests can pin the clock.
	now func() int64

	reaperStop chan struct{}
	reaperDone chan struct{}
}

// Open opens or creates the store at path. Use MemoryPath for an
// in-memory database.
func Open(path string, opts Options) (*Store, error) {
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = DefaultBusyTimeout
	}
	if opts.CacheSizeKB <= 0 {
		opts.CacheSizeKB = DefaultCacheSizeKB
	}

	db, err := sql.Open("sqlite", buildDSN(path, opts))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == MemoryPath {
		// A pool of connections to a private in-memory database would see
		// independent databases; pin to one connection.
		db.SetMaxOpenConns(1)
	}

	s := &Store{
		db:      db,
		log:     logger.WithComponent("kv"),
		metrics: opts.Metrics,
		now:     func() int64 { return time.Now().UnixMilli() },
	}

	if err := s.setup(); err != nil {
		db.Close()
		return nil, err
	}

	if opts.ReapInterval > 0 {
		s.reaperStop = make(chan struct{})
		s.reaperDone = make(chan struct{})
		go s.runReaper(opts.ReapInterval)
	}

	s.log.Info().Str("path", path).Dur("busy_timeout", opts.BusyTimeout).Msg("Store opened")
	return s, nil
}

func buildDSN(path string, opts Options) string {
	name := path
	params := []string{}
	if path == MemoryPath {
		name = "flashkv"
		params = append(params, "mode=memory", "cache=shared")
	}
	params = append(params,
		fmt.Sprintf("_pragma=busy_timeout(%d)", opts.BusyTimeout.Milliseconds()),
		"_pragma=journal_mode(WAL)",
		"_pragma=synchronous(NORMAL)",
		"_pragma=temp_store(MEMORY)",
		fmt.Sprintf("_pragma=cache_size(-%d)", opts.CacheSizeKB),
		"_pragma=case_sensitive_like(1)",
	)
	return "file:" + name + "?" + strings.Join(params, "&")
}

// setup creates the schema. The partial index accelerates Cleanup and
// CountExpired without indexing never-expiring rows.
func (s *Store) setup() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS flashkv (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			expires_at INTEGER
		) WITHOUT ROWID`,
		`CREATE INDEX IF NOT EXISTS idx_flashkv_expires_at
			ON flashkv (expires_at) WHERE expires_at IS NOT NULL`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("setup schema: %w", err)
		}
	}
	return nil
}

// Close stops the reaper and closes the database.
func (s *Store) Close() error {
	if s.reaperStop != nil {
		close(s.reaperStop)
		<-s.reaperDone
		s.reaperStop = nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	s.log.Info().Msg("Store closed")
	return nil
}

func validateKey(key string) error {
	if key == "" {
		return InvalidKeyError{Key: key, Reason: "key cannot be empty"}
	}
	return nil
}

func validateTTL(ttl time.Duration) error {
	if ttl < 0 {
		return InvalidTTLError{TTL: ttl}
	}
	return nil
}

// expiresAt derives the stored expiry from the operation's "now". A zero
// TTL means the key never expires; the expiry is always stored absolute.
func expiresAt(now int64, ttl time.Duration) interface{} {
	if ttl == 0 {
		return nil
	}
	return now + ttl.Milliseconds()
}

func (s *Store) finish(op string, start time.Time, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		if IsContention(err) {
			s.metrics.RecordContention(op)
		}
	}
	s.metrics.RecordOperation(op, status, time.Since(start))
}

// Put upserts key with value and an optional TTL. A zero TTL stores a
// never-expiring record; overwriting an existing key replaces both its
// payload and its expiry.
func (s *Store) Put(ctx context.Context, key string, value codec.Value, ttl time.Duration) (err error) {
	start := time.Now()
	defer func() { s.finish("put", start, err) }()
	ctx, span := startSpan(ctx, "put", key)
	defer span.End()

	if err = validateKey(key); err != nil {
		return err
	}
	if err = validateTTL(ttl); err != nil {
		return err
	}

	payload, err := codec.Encode(value)
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO flashkv (key, value, expires_at) VALUES (?, ?, ?)`,
		key, payload, expiresAt(s.now(), ttl))
	if err != nil {
		recordSpanError(span, err)
		return storeErr("put", err)
	}
	return nil
}

// Get returns the live value for key. The second return is false when the
// key does not exist or has expired, which is not an error.
func (s *Store) Get(ctx context.Context, key string) (_ codec.Value, _ bool, err error) {
	start := time.Now()
	defer func() { s.finish("get", start, err) }()
	ctx, span := startSpan(ctx, "get", key)
	defer span.End()

	if err = validateKey(key); err != nil {
		return codec.Value{}, false, err
	}

	var payload []byte
	err = s.db.QueryRowContext(ctx,
		`SELECT value FROM flashkv WHERE key = ? AND `+livePredicate,
		key, s.now()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return codec.Value{}, false, nil
	}
	if err != nil {
		recordSpanError(span, err)
		return codec.Value{}, false, storeErr("get", err)
	}

	v, decErr := codec.Decode(payload)
	if decErr != nil {
		err = CorruptPayloadError{Key: key, Err: decErr}
		recordSpanError(span, err)
		return codec.Value{}, false, err
	}
	return v, true, nil
}

// Exists reports whether key is live.
func (s *Store) Exists(ctx context.Context, key string) (_ bool, err error) {
	start := time.Now()
	defer func() { s.finish("exists", start, err) }()

	if err = validateKey(key); err != nil {
		return false, err
	}

	var one int
	err = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM flashkv WHERE key = ? AND `+livePredicate+` LIMIT 1`,
		key, s.now()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return false, nil
	}
	if err != nil {
		return false, storeErr("exists", err)
	}
	return true, nil
}

// Delete removes key unconditionally. Deleting a missing key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { s.finish("delete", start, err) }()
	ctx, span := startSpan(ctx, "delete", key)
	defer span.End()

	if err = validateKey(key); err != nil {
		return err
	}

	if _, err = s.db.ExecContext(ctx, `DELETE FROM flashkv WHERE key = ?`, key); err != nil {
		recordSpanError(span, err)
		return storeErr("delete", err)
	}
	return nil
}

// Rename retargets oldKey's record to newKey in place, carrying payload
// and expiry. A missing oldKey is a no-op. The record's liveness is not
// checked, so a logically expired but unswept record can still be
// renamed; renaming onto an existing newKey fails on the key constraint.
func (s *Store) Rename(ctx context.Context, oldKey, newKey string) (err error) {
	start := time.Now()
	defer func() { s.finish("rename", start, err) }()

	if err = validateKey(oldKey); err != nil {
		return err
	}
	if err = validateKey(newKey); err != nil {
		return err
	}

	if _, err = s.db.ExecContext(ctx,
		`UPDATE flashkv SET key = ? WHERE key = ?`, newKey, oldKey); err != nil {
		return storeErr("rename", err)
	}
	return nil
}

// GetExpire returns the stored expiry for key without any liveness
// filtering: a timestamp already in the past is returned as-is for a
// record not yet swept. The second return is false when the key is
// missing or never expires.
func (s *Store) GetExpire(ctx context.Context, key string) (_ time.Time, _ bool, err error) {
	start := time.Now()
	defer func() { s.finish("get_expire", start, err) }()

	if err = validateKey(key); err != nil {
		return time.Time{}, false, err
	}

	var millis sql.NullInt64
	err = s.db.QueryRowContext(ctx,
		`SELECT expires_at FROM flashkv WHERE key = ? LIMIT 1`, key).Scan(&millis)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, storeErr("get_expire", err)
	}
	if !millis.Valid {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(millis.Int64), true, nil
}

// SetExpire sets key's expiry to now + ttl without touching its payload.
// Setting the expiry of a missing key affects nothing and is not an
// error.
func (s *Store) SetExpire(ctx context.Context, key string, ttl time.Duration) (err error) {
	start := time.Now()
	defer func() { s.finish("set_expire", start, err) }()

	if err = validateKey(key); err != nil {
		return err
	}
	if ttl < 0 {
		err = InvalidTTLError{TTL: ttl}
		return err
	}

	if _, err = s.db.ExecContext(ctx,
		`UPDATE flashkv SET expires_at = ? WHERE key = ?`,
		s.now()+ttl.Milliseconds(), key); err != nil {
		return storeErr("set_expire", err)
	}
	return nil
}

// Update replaces key's payload when a record exists, in any liveness
// state, leaving its expiry untouched. Reports whether a record was
// updated.
func (s *Store) Update(ctx context.Context, key string, value codec.Value) (_ bool, err error) {
	start := time.Now()
	defer func() { s.finish("update", start, err) }()

	if err = validateKey(key); err != nil {
		return false, err
	}

	payload, err := codec.Encode(value)
	if err != nil {
		return false, fmt.Errorf("update: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE flashkv SET value = ? WHERE key = ?`, payload, key)
	if err != nil {
		return false, storeErr("update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storeErr("update", err)
	}
	return n > 0, nil
}

// Pop returns the live value for key and deletes it. The delete happens
// whenever a live record was found, regardless of what the payload
// decodes to; an empty raw payload is still a found value. A missing or
// expired key returns false with no side effect.
func (s *Store) Pop(ctx context.Context, key string) (_ codec.Value, _ bool, err error) {
	start := time.Now()
	defer func() { s.finish("pop", start, err) }()
	ctx, span := startSpan(ctx, "pop", key)
	defer span.End()

	if err = validateKey(key); err != nil {
		return codec.Value{}, false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return codec.Value{}, false, storeErr("pop", err)
	}
	defer tx.Rollback()

	var payload []byte
	err = tx.QueryRowContext(ctx,
		`SELECT value FROM flashkv WHERE key = ? AND `+livePredicate,
		key, s.now()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return codec.Value{}, false, nil
	}
	if err != nil {
		recordSpanError(span, err)
		return codec.Value{}, false, storeErr("pop", err)
	}

	// Decode before deleting so a corrupt record is surfaced without
	// destroying the evidence.
	v, decErr := codec.Decode(payload)
	if decErr != nil {
		err = CorruptPayloadError{Key: key, Err: decErr}
		recordSpanError(span, err)
		return codec.Value{}, false, err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM flashkv WHERE key = ?`, key); err != nil {
		recordSpanError(span, err)
		return codec.Value{}, false, storeErr("pop", err)
	}
	if err = tx.Commit(); err != nil {
		return codec.Value{}, false, storeErr("pop", err)
	}
	return v, true, nil
}

// Move retargets oldKey's live record to newKey, replacing whatever
// newKey held and preserving the record's expiry. Reports whether a move
// happened; a missing or expired oldKey moves nothing.
func (s *Store) Move(ctx context.Context, oldKey, newKey string) (_ bool, err error) {
	start := time.Now()
	defer func() { s.finish("move", start, err) }()
	ctx, span := startSpan(ctx, "move", oldKey)
	defer span.End()

	if err = validateKey(oldKey); err != nil {
		return false, err
	}
	if err = validateKey(newKey); err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, storeErr("move", err)
	}
	defer tx.Rollback()

	var payload []byte
	var expiry sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT value, expires_at FROM flashkv WHERE key = ? AND `+livePredicate,
		oldKey, s.now()).Scan(&payload, &expiry)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return false, nil
	}
	if err != nil {
		recordSpanError(span, err)
		return false, storeErr("move", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM flashkv WHERE key = ?`, oldKey); err != nil {
		recordSpanError(span, err)
		return false, storeErr("move", err)
	}
	var expiryArg interface{}
	if expiry.Valid {
		expiryArg = expiry.Int64
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO flashkv (key, value, expires_at) VALUES (?, ?, ?)`,
		newKey, payload, expiryArg); err != nil {
		recordSpanError(span, err)
		return false, storeErr("move", err)
	}
	if err = tx.Commit(); err != nil {
		return false, storeErr("move", err)
	}
	return true, nil
}
