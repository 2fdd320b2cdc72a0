// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

package interactions

import (
	"context"
	"time"
)

// Store is the persistence boundary for the per-series interaction blobs.
type Store interface {
	// Get loads the blob for a series. A missing or malformed value yields
	// an empty blob, never an error.
	Get(ctx context.Context, seriesSlug string) (Blob, error)

	// Update runs a read-modify-write cycle on a series blob. The mutate
	// function receives the current blob (empty if absent) and reports
	// whether the result should be persisted. Implementations guard the
	// cycle against concurrent writers.
	Update(ctx context.Context, seriesSlug string, mutate func(Blob) (Blob, bool)) error
}

// AuditLog records mutating actions, write-once with a bounded retention.
//
// Appending is best-effort at every call site: an audit failure must never
// fail the primary operation.
type AuditLog interface {
	Append(ctx context.Context, key string, record any, ttl time.Duration) error
}
