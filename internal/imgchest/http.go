// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

package imgchest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lesporoiniens/portal/internal/platform/constants"
	"github.com/lesporoiniens/portal/internal/platform/ctxutil"
	requestutil "github.com/lesporoiniens/portal/internal/platform/request"
)

// maxListingPages bounds the aggregation of the per-user post listing.
const maxListingPages = 8

// Handler serves the imgchest proxy endpoints.
//
// # Contract
//
// Response shapes and headers are shared with deployed client code and the
// existing cache keyspace; they are fixed. Every response carries
// Access-Control-Allow-Origin: * and an X-Cache HIT/MISS marker.
type Handler struct {
	client   *Client
	cache    Cache
	username string
}

// NewHandler wires the proxy endpoints.
func NewHandler(client *Client, cache Cache, username string) *Handler {
	return &Handler{client: client, cache: cache, username: username}
}

// Routes returns the router for the proxy endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/imgchest-chapter-pages", handler.chapterPages)
	router.Get("/imgchest-get-all-pages", handler.allPages)
	return router
}

// # Chapter Pages

// chapterPages handles GET /api/imgchest-chapter-pages?id=<post>[&meta=1].
//
// Read-through: serve the cached payload when present, otherwise scrape the
// public post page, cache the minimal payload, and return it. The full file
// list and the metadata-only view count use distinct keys and retentions so
// the two caches never collide.
func (handler *Handler) chapterPages(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	logger := ctxutil.GetLogger(ctx)

	id := requestutil.Query(request, "id")
	metaOnly := requestutil.Query(request, "meta") == "1"

	if id == "" {
		writeProxy(writer, http.StatusBadRequest, constants.CacheMiss,
			mustJSON(map[string]string{"error": "Le paramètre 'id' est manquant."}))
		return
	}

	key := constants.RedisPrefixChapterPages + id
	ttl := constants.TTLChapterPages
	if metaOnly {
		key = constants.RedisPrefixChapterMeta + id
		ttl = constants.TTLChapterMeta
	}

	// Cache hit: return the stored bytes verbatim. Lookup failures are
	// treated as a miss, never as a request failure.
	if cached, found, err := handler.cache.Get(ctx, key); err != nil {
		logger.WarnContext(ctx, "imgchest_cache_lookup_failed", slog.Any("error", err))
	} else if found {
		writeProxy(writer, http.StatusOK, constants.CacheHit, cached)
		return
	}

	post, err := handler.client.PostPage(ctx, id)
	if err != nil {
		logger.WarnContext(ctx, "imgchest_chapter_fetch_failed",
			slog.String("id", id),
			slog.Any("error", err),
		)
		writeProxy(writer, http.StatusInternalServerError, constants.CacheMiss,
			mustJSON(map[string]string{
				"error":   "Impossible de récupérer les données du chapitre.",
				"details": err.Error(),
			}))
		return
	}

	var payload []byte
	if metaOnly {
		payload = mustJSON(struct {
			ID    string `json:"id"`
			Views *int64 `json:"views"`
		}{ID: id, Views: post.Views})
	} else {
		payload = mustJSON(post.Files)
	}

	// Best effort: a cache write failure degrades to uncached, not to a 500.
	if err := handler.cache.Set(ctx, key, payload, ttl); err != nil {
		logger.WarnContext(ctx, "imgchest_cache_write_failed", slog.Any("error", err))
	}

	writeProxy(writer, http.StatusOK, constants.CacheMiss, payload)
}

// # Post Listing

// probeResult is the diagnostic trail of the username variant probing.
type probeResult struct {
	Candidate string `json:"candidate"`
	Status    any    `json:"status"`
	Detail    string `json:"detail,omitempty"`
}

// allPages handles GET /api/imgchest-get-all-pages.
//
// The configured username circulates in several casings and accent forms;
// each variant is probed against page 1 of the listing until one answers
// with data. Subsequent pages are aggregated up to a fixed bound, stopping
// cleanly on the first failed or short page. A total probing failure is a
// 200 with an empty listing and the diagnostic trail, never an error.
func (handler *Handler) allPages(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	logger := ctxutil.GetLogger(ctx)

	variants := UsernameVariants(handler.username)

	var chosen string
	var firstPage []ListedPost
	var last probeResult

	for _, candidate := range variants {
		posts, err := handler.client.Posts(ctx, candidate, 1)

		last = probeResult{Candidate: candidate, Status: http.StatusOK}
		if err != nil {
			var upstream *UpstreamError
			if errors.As(err, &upstream) {
				last.Status = upstream.Status
			} else {
				last.Status = "fetch_error"
				last.Detail = err.Error()
			}
			continue
		}
		if len(posts) == 0 {
			last.Detail = "empty data"
			continue
		}

		chosen = candidate
		firstPage = posts
		break
	}

	if chosen == "" {
		writer.Header().Set(constants.HeaderXUserSelected, "none")
		writeProxy(writer, http.StatusOK, constants.CacheMiss, mustJSON(map[string]any{
			"posts": []ListedPost{},
			"debug": map[string]any{"tested": variants, "last": last},
		}))
		return
	}

	writer.Header().Set(constants.HeaderXUserSelected, chosen)

	// The cache key depends on the variant that answered, so stale entries
	// for a renamed account age out on their own.
	key := constants.RedisPrefixAllPages + chosen
	if cached, found, err := handler.cache.Get(ctx, key); err != nil {
		logger.WarnContext(ctx, "imgchest_cache_lookup_failed", slog.Any("error", err))
	} else if found {
		writeProxy(writer, http.StatusOK, constants.CacheHit, cached)
		return
	}

	allPosts := firstPage
	for page := 2; page <= maxListingPages; page++ {
		posts, err := handler.client.Posts(ctx, chosen, page)
		if err != nil || len(posts) == 0 {
			break
		}
		allPosts = append(allPosts, posts...)
		if len(posts) < listingPageSize {
			break
		}
	}

	payload := mustJSON(map[string]any{"posts": allPosts})

	if len(allPosts) > 0 {
		if err := handler.cache.Set(ctx, key, payload, constants.TTLAllPages); err != nil {
			logger.WarnContext(ctx, "imgchest_cache_write_failed", slog.Any("error", err))
		}
	}

	writeProxy(writer, http.StatusOK, constants.CacheMiss, payload)
}

// # Response Helpers

// writeProxy writes a proxy response with the fixed header set.
func writeProxy(writer http.ResponseWriter, status int, cacheStatus string, body []byte) {
	header := writer.Header()
	header.Set("Content-Type", "application/json")
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set(constants.HeaderXCache, cacheStatus)
	writer.WriteHeader(status)
	_, _ = writer.Write(body)
}

// mustJSON marshals a value whose shape is statically known.
func mustJSON(value any) []byte {
	payload, err := json.Marshal(value)
	if err != nil {
		panic(fmt.Sprintf("imgchest: marshal of static shape failed: %v", err))
	}
	return payload
}
