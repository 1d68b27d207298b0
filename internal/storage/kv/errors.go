package kv

import (
	"errors"
	"fmt"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// InvalidKeyError indicates an invalid key was provided.
type InvalidKeyError struct {
	Key    string
	Reason string
}

func (e InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid key %q: %s", e.Key, e.Reason)
}

// InvalidTTLError indicates a negative TTL was provided.
type InvalidTTLError struct {
	TTL time.Duration
}

func (e InvalidTTLError) Error() string {
	return fmt.Sprintf("invalid ttl %s: must not be negative", e.TTL)
}

// InvalidPageError indicates an out-of-range pagination request.
type InvalidPageError struct {
	Page     int
	PageSize int
}

func (e InvalidPageError) Error() string {
	return fmt.Sprintf("invalid pagination: page=%d page_size=%d (both must be >= 1)", e.Page, e.PageSize)
}

// CorruptPayloadError indicates a stored payload could not be decoded.
// Not retryable; the stored bytes are damaged or foreign.
type CorruptPayloadError struct {
	Key string
	Err error
}

func (e CorruptPayloadError) Error() string {
	return fmt.Sprintf("corrupt payload for key %q: %v", e.Key, e.Err)
}

func (e CorruptPayloadError) Unwrap() error { return e.Err }

// ContentionError indicates the backing engine could not acquire the
// needed lock within the busy timeout. Callers may retry with backoff.
type ContentionError struct {
	Op  string
	Err error
}

func (e ContentionError) Error() string {
	return fmt.Sprintf("%s: database contention: %v", e.Op, e.Err)
}

func (e ContentionError) Unwrap() error { return e.Err }

// IsContention reports whether err is a retryable contention failure.
func IsContention(err error) bool {
	var ce ContentionError
	return errors.As(err, &ce)
}

// IsCorrupt reports whether err is a payload corruption failure.
func IsCorrupt(err error) bool {
	var ce CorruptPayloadError
	return errors.As(err, &ce)
}

// IsInvalidArgument reports whether err is a synchronous argument
// rejection.
func IsInvalidArgument(err error) bool {
	var ke InvalidKeyError
	var te InvalidTTLError
	var pe InvalidPageError
	return errors.As(err, &ke) || errors.As(err, &te) || errors.As(err, &pe)
}

// isBusy reports whether err is a SQLite lock-wait failure.
func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// storeErr classifies a backing-engine failure for the named operation.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isBusy(err) {
		return ContentionError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
