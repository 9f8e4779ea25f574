// Package store provides the local task snapshot cache. The backend owns
// every task; the cache only remembers the last fetched list per user so the
// dashboard can paint immediately while a fresh fetch is in flight.
package store

import (
	"context"
	"time"

	"github.com/taskdeck/taskdeck/internal/domain"
)

// Cache persists the most recent task snapshot per user.
type Cache interface {
	// SaveSnapshot replaces the user's cached task list wholesale. Every
	// refresh overwrites the full snapshot; there is no per-task patching.
	SaveSnapshot(ctx context.Context, userID string, tasks []domain.Task) error

	// Snapshot returns the cached tasks and the time they were fetched.
	// A user with no snapshot gets an empty list and a zero time.
	Snapshot(ctx context.Context, userID string) ([]domain.Task, time.Time, error)

	// Clear removes the user's snapshot, e.g. at logout.
	Clear(ctx context.Context, userID string) error

	// Ping verifies the cache is usable.
	Ping(ctx context.Context) error

	// Close releases the underlying database.
	Close() error
}
