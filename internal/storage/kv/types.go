package kv

import (
	"time"

	"github.com/flashkv/engine/internal/metrics"
	"github.com/flashkv/engine/internal/storage/codec"
)

const (
	// DefaultBusyTimeout bounds how long a writer waits on a locked
	// database before the operation fails with a ContentionError.
	DefaultBusyTimeout = 5 * time.Second

	// DefaultCacheSizeKB is the SQLite page cache size in KiB.
	DefaultCacheSizeKB = 64000

	// maxBatchKeys caps the number of bound parameters per statement when
	// batch operations are chunked. Chunking is invisible to callers.
	maxBatchKeys = 500
)

// Entry is one key's value and TTL in a PutMany batch. A zero TTL means
// the key never expires.
type Entry struct {
	Value codec.Value
	TTL   time.Duration
}

// Options configures a Store at open time.
type Options struct {
	// BusyTimeout is the bounded wait on write-lock contention.
	// Zero means DefaultBusyTimeout.
	BusyTimeout time.Duration

	// CacheSizeKB is the page cache size in KiB. Zero means
	// DefaultCacheSizeKB.
	CacheSizeKB int

	// ReapInterval is the period of the background expiration reaper.
	// Zero disables the reaper; expired rows are then reclaimed only by
	// explicit Cleanup calls.
	ReapInterval time.Duration

	// Metrics receives operation and reaper observations. Nil disables
	// metric recording.
	Metrics *metrics.StoreMetrics
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		BusyTimeout: DefaultBusyTimeout,
		CacheSizeKB: DefaultCacheSizeKB,
	}
}
