// Package validation performs request-level checks before anything
// reaches the store.
package validation

import (
	"fmt"
	"time"
)

const (
	// MaxKeyLength is the maximum length of a key (1KB)
	MaxKeyLength = 1024
	// MaxValueSize is the maximum size of a raw value (1MB)
	MaxValueSize = 1024 * 1024
	// MaxTTL is the maximum TTL (1 year)
	MaxTTL = 365 * 24 * time.Hour
	// MaxBatchSize is the maximum number of entries in one batch request
	MaxBatchSize = 10000
	// MaxPageSize is the maximum pagination window
	MaxPageSize = 1000
)

// ValidateKey validates a key format
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("key length (%d) exceeds maximum (%d)", len(key), MaxKeyLength)
	}
	return nil
}

// ValidateKeys validates every key of a batch request
func ValidateKeys(keys []string) error {
	if len(keys) == 0 {
		return fmt.Errorf("keys cannot be empty")
	}
	if len(keys) > MaxBatchSize {
		return fmt.Errorf("batch size (%d) exceeds maximum (%d)", len(keys), MaxBatchSize)
	}
	for _, key := range keys {
		if err := ValidateKey(key); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRawValue validates a raw byte value
func ValidateRawValue(value []byte) error {
	if len(value) > MaxValueSize {
		return fmt.Errorf("value size (%d bytes) exceeds maximum (%d bytes)", len(value), MaxValueSize)
	}
	return nil
}

// ValidateTTL validates a TTL duration; zero means "never expires"
func ValidateTTL(ttl time.Duration) error {
	if ttl < 0 {
		return fmt.Errorf("ttl cannot be negative")
	}
	if ttl > MaxTTL {
		return fmt.Errorf("ttl cannot exceed %v (1 year)", MaxTTL)
	}
	return nil
}

// ValidatePattern validates a LIKE pattern
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("pattern cannot be empty")
	}
	if len(pattern) > MaxKeyLength {
		return fmt.Errorf("pattern length (%d) exceeds maximum (%d)", len(pattern), MaxKeyLength)
	}
	return nil
}

// ValidatePagination validates a pagination window
func ValidatePagination(page, pageSize int) error {
	if page < 1 {
		return fmt.Errorf("page must be >= 1")
	}
	if pageSize < 1 {
		return fmt.Errorf("page_size must be >= 1")
	}
	if pageSize > MaxPageSize {
		return fmt.Errorf("page_size cannot exceed %d", MaxPageSize)
	}
	return nil
}
