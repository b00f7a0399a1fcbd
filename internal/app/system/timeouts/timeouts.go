// Package timeouts holds the process-wide time budgets for requests and
// backend calls.
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing    = 2 * time.Second
	DefaultRequest = 30 * time.Second
	DefaultBatch   = 60 * time.Second
)

// Config holds timeout configuration values. Zero fields keep the current value.
type Config struct {
	Ping    time.Duration // health and readiness pings
	Request time.Duration // whole HTTP request
	Batch   time.Duration // one-shot CLI work (schema, seed)
}

var (
	mu      sync.RWMutex
	current = defaults()
)

func defaults() Config {
	return Config{Ping: DefaultPing, Request: DefaultRequest, Batch: DefaultBatch}
}

// Ping returns the timeout for health pings.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return current.Ping
}

// Request returns the timeout applied to every HTTP request.
func Request() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return current.Request
}

// Batch returns the timeout for one-shot bulk operations.
func Batch() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return current.Batch
}

// Configure sets the positive fields of cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		current.Ping = cfg.Ping
	}
	if cfg.Request > 0 {
		current.Request = cfg.Request
	}
	if cfg.Batch > 0 {
		current.Batch = cfg.Batch
	}
}

// Reset restores all timeouts to defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = defaults()
}

// Current returns the current timeout configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// WithTimeout creates a context with timeout whose cancel func logs when the
// deadline was hit.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
