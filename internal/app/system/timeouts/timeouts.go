// Package timeouts provides centralized timeout values for handler operations.
//
// These timeouts are used with context.WithTimeout for database and external
// service calls. Using centralized values ensures consistency and makes it
// easy to adjust timeouts across the application.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks and connectivity verification
//   - Store: DynamoDB reads and transactional writes
//   - External: Graph and Stripe round trips
package timeouts

import (
	"os"
	"sync"
	"time"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing     = 2 * time.Second
	DefaultStore    = 10 * time.Second
	DefaultExternal = 15 * time.Second
)

// mu protects all timeout values from concurrent access.
var mu sync.RWMutex

var (
	ping     = DefaultPing
	store    = DefaultStore
	external = DefaultExternal
)

// Ping returns the timeout for health checks and connectivity verification.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Store returns the timeout for database reads and transactional writes.
func Store() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return store
}

// External returns the timeout for directory and payment processor calls.
func External() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return external
}

// Config holds timeout configuration values.
// Zero values are ignored (defaults are kept).
type Config struct {
	Ping     time.Duration
	Store    time.Duration
	External time.Duration
}

// Configure sets custom timeout values. Zero values in the config are
// ignored, keeping the current (or default) values. Call during startup
// before handlers are registered.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Store > 0 {
		store = cfg.Store
	}
	if cfg.External > 0 {
		external = cfg.External
	}
}

// Reset restores all timeouts to their default values. Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	store = DefaultStore
	external = DefaultExternal
}

// ConfigureFromEnv reads timeout overrides from TIMEOUT_PING,
// TIMEOUT_STORE, and TIMEOUT_EXTERNAL. Returns how many were applied.
func ConfigureFromEnv() int {
	mu.Lock()
	defer mu.Unlock()
	configured := 0

	if v := os.Getenv("TIMEOUT_PING"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			ping = d
			configured++
		}
	}
	if v := os.Getenv("TIMEOUT_STORE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			store = d
			configured++
		}
	}
	if v := os.Getenv("TIMEOUT_EXTERNAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			external = d
			configured++
		}
	}

	return configured
}
