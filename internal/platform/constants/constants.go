// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, cache key prefixes, and retention
policies that are shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Cache Taxonomy: Redis key prefixes and per-key retention windows.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "poroiniens-portal"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Redis Prefixes (Cache Taxonomy)

// These key formats predate the Go server and are shared with existing
// tooling; they must not change without a coordinated migration.
const (
	// RedisPrefixInteractions keys the per-series interactions blob.
	RedisPrefixInteractions = "interactions:"

	// RedisPrefixChapterPages keys a cached imgchest chapter file list.
	RedisPrefixChapterPages = "imgchest_chapter_"

	// RedisPrefixChapterMeta keys a cached imgchest view count (metadata only).
	RedisPrefixChapterMeta = "imgchest_chapter_meta_"

	// RedisPrefixAllPages keys the aggregated imgchest post listing,
	// suffixed with the username variant that answered.
	RedisPrefixAllPages = "imgchest_all_pages_"

	// RedisPrefixActionLog keys an audit record of a raw interaction batch.
	RedisPrefixActionLog = "log:batch:"

	// RedisPrefixDeletionLog keys an audit record of an admin comment deletion.
	RedisPrefixDeletionLog = "deleted:"
)

// # Cache Retention

const (
	// TTLChapterPages is the retention for cached chapter file lists.
	TTLChapterPages = 30 * 24 * time.Hour

	// TTLChapterMeta is the retention for cached view counts.
	TTLChapterMeta = 7 * 24 * time.Hour

	// TTLAllPages is the retention for the aggregated post listing.
	TTLAllPages = time.Hour

	// TTLActionLog is the retention for raw interaction batch audit records.
	TTLActionLog = 30 * 24 * time.Hour

	// TTLDeletionLog is the retention for admin deletion audit records.
	TTLDeletionLog = 365 * 24 * time.Hour
)

// # Header Identifiers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"

	// HeaderXCache marks whether an API response was served from cache.
	HeaderXCache = "X-Cache"

	// HeaderXUserSelected reports which username variant answered upstream.
	HeaderXUserSelected = "X-User-Selected"
)

// # Cache Markers

const (
	CacheHit  = "HIT"
	CacheMiss = "MISS"
)

// # JSON Field Identifiers

const (
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldStatus  = "status"
	FieldChecks  = "checks"
)
