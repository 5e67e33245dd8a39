// ABOUTME: Generic single-snapshot controller for read-only status panels
// ABOUTME: Skills, channels, and cron are Resources with different fetch functions

package controller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/coven-dashboard/internal/gateway"
)

// FetchFunc loads one snapshot for key. A nil result with a nil error means
// the gateway had nothing to report.
type FetchFunc[T any] func(ctx context.Context, client gateway.Requester, key string) (*T, error)

// Resource holds one remotely fetched value with the usual busy and error pair.
type Resource[T any] struct {
	name   string
	handle *gateway.Handle
	fetch  FetchFunc[T]
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	loading     bool
	lastErr     string
	value       *T
	key         string
	lastSuccess time.Time
}

// ResourceSnapshot is a read-only view of a Resource.
type ResourceSnapshot[T any] struct {
	Loading     bool
	Error       string
	Value       *T
	Key         string
	LastSuccess time.Time
}

// NewResource creates a Resource named name that loads through fetch.
func NewResource[T any](name string, handle *gateway.Handle, fetch FetchFunc[T], logger *slog.Logger) *Resource[T] {
	if logger == nil {
		logger = slog.Default().With("component", name)
	}
	return &Resource[T]{name: name, handle: handle, fetch: fetch, logger: logger, now: time.Now}
}

// Load fetches the value for key and replaces the snapshot on success.
// A failure leaves the previous value in place.
func (r *Resource[T]) Load(ctx context.Context, key string) {
	client, ok := connectedClient(r.handle)
	if !ok {
		r.logger.Debug("load skipped: not connected", "resource", r.name)
		return
	}

	r.mu.Lock()
	if r.loading {
		r.mu.Unlock()
		r.logger.Debug("load skipped: already loading", "resource", r.name)
		return
	}
	r.loading = true
	r.lastErr = ""
	r.mu.Unlock()

	res, err := r.fetch(ctx, client, key)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = false
	if err != nil {
		r.logger.Warn("load failed", "resource", r.name, "key", key, "error", err)
		r.lastErr = describe(err)
		return
	}
	if res == nil {
		return
	}
	r.value = res
	r.key = key
	r.lastSuccess = r.now()
}

// Snapshot returns the current state.
func (r *Resource[T]) Snapshot() ResourceSnapshot[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ResourceSnapshot[T]{
		Loading:     r.loading,
		Error:       r.lastErr,
		Value:       r.value,
		Key:         r.key,
		LastSuccess: r.lastSuccess,
	}
}

// Reset drops the value and error.
func (r *Resource[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = false
	r.lastErr = ""
	r.value = nil
	r.key = ""
	r.lastSuccess = time.Time{}
}
