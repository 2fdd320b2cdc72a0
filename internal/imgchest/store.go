// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

package imgchest

import (
	"context"
	"time"
)

// Cache is the key-value store behind the read-through endpoints.
//
// Get returns the stored bytes verbatim; the second result reports whether
// the key was present. Set overwrites the key with the given retention.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
