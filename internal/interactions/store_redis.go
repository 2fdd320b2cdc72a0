// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

package interactions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lesporoiniens/portal/internal/platform/apperr"
	"github.com/lesporoiniens/portal/internal/platform/constants"
)

// maxUpdateRetries bounds the optimistic-concurrency retry loop.
const maxUpdateRetries = 5

// RedisStore implements [Store] on the interactions keyspace.
//
// # Concurrency
//
// The blob is rewritten wholesale on every mutation. Two concurrent batches
// touching the same series would race under a plain GET/SET, so Update runs
// under WATCH: when another writer commits between the read and the write,
// the transaction fails and the whole cycle is retried against the fresh
// value. Retries are bounded; exhaustion surfaces as a conflict.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed [Store].
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

/*
Get loads the interactions blob for a series.

Description: A missing key or an undecodable value yields an empty blob.

Returns:
  - Blob: Per-chapter likes and comments
  - error: Connectivity errors only
*/
func (store *RedisStore) Get(ctx context.Context, seriesSlug string) (Blob, error) {
	key := constants.RedisPrefixInteractions + seriesSlug

	raw, err := store.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Blob{}, nil
		}
		return nil, fmt.Errorf("interactions_get_failed: %w", err)
	}

	return decodeBlob(raw), nil
}

/*
Update runs one guarded read-modify-write cycle on a series blob.

Parameters:
  - ctx: context.Context
  - seriesSlug: Series identifier (cache key suffix)
  - mutate: Receives the current blob; returns the new blob and whether to persist

Returns:
  - error: Connectivity errors, or apperr.Conflict after retry exhaustion
*/
func (store *RedisStore) Update(ctx context.Context, seriesSlug string, mutate func(Blob) (Blob, bool)) error {
	key := constants.RedisPrefixInteractions + seriesSlug

	transaction := func(tx *redis.Tx) error {
		blob := Blob{}
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("interactions_read_failed: %w", err)
		}
		if err == nil {
			blob = decodeBlob(raw)
		}

		updated, persist := mutate(blob)
		if !persist {
			return nil
		}

		payload, err := json.Marshal(updated)
		if err != nil {
			return fmt.Errorf("interactions_encode_failed: %w", err)
		}

		// The write only commits if the key is untouched since the GET.
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err := store.client.Watch(ctx, transaction, key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}

	return apperr.Conflict("Concurrent interaction updates, retry later")
}

// decodeBlob parses a stored blob, defaulting to empty on malformed data so
// a corrupt value never wedges the series.
func decodeBlob(raw []byte) Blob {
	blob := Blob{}
	if err := json.Unmarshal(raw, &blob); err != nil {
		return Blob{}
	}
	return blob
}

// RedisAuditLog implements [AuditLog] on the audit keyspace.
type RedisAuditLog struct {
	client *redis.Client
}

// NewRedisAuditLog creates a Redis-backed [AuditLog].
func NewRedisAuditLog(client *redis.Client) *RedisAuditLog {
	return &RedisAuditLog{client: client}
}

/*
Append writes one audit record with the given retention.
*/
func (log *RedisAuditLog) Append(ctx context.Context, key string, record any, ttl time.Duration) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("audit_encode_failed: %w", err)
	}

	if err := log.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("audit_append_failed: %w", err)
	}
	return nil
}
