// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

package interactions_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesporoiniens/portal/internal/interactions"
)

// memoryStore is an in-process Store for tests. Update applies the mutation
// directly; writes counts the persisted cycles so grouping can be asserted.
type memoryStore struct {
	blobs  map[string]interactions.Blob
	writes int
	err    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{blobs: map[string]interactions.Blob{}}
}

func (store *memoryStore) Get(_ context.Context, seriesSlug string) (interactions.Blob, error) {
	if blob, ok := store.blobs[seriesSlug]; ok {
		return blob, nil
	}
	return interactions.Blob{}, nil
}

func (store *memoryStore) Update(_ context.Context, seriesSlug string, mutate func(interactions.Blob) (interactions.Blob, bool)) error {
	if store.err != nil {
		return store.err
	}

	blob, ok := store.blobs[seriesSlug]
	if !ok {
		blob = interactions.Blob{}
	}

	updated, persist := mutate(blob)
	if persist {
		store.blobs[seriesSlug] = updated
		store.writes++
	}
	return nil
}

// memoryAudit records appended keys and payloads.
type memoryAudit struct {
	keys    []string
	records []any
}

func (audit *memoryAudit) Append(_ context.Context, key string, record any, _ time.Duration) error {
	audit.keys = append(audit.keys, key)
	audit.records = append(audit.records, record)
	return nil
}

func newTestService(store interactions.Store, audit interactions.AuditLog) *interactions.Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return interactions.NewService(store, audit, "admin", log)
}

func likeAction(slug, chapter string, delta int) interactions.Action {
	return interactions.Action{
		SeriesSlug: slug,
		ChapterKey: chapter,
		Kind:       interactions.KindLike,
		LikeDelta:  delta,
	}
}

func commentAction(slug, chapter string, comment interactions.Comment) interactions.Action {
	return interactions.Action{
		SeriesSlug: slug,
		ChapterKey: chapter,
		Kind:       interactions.KindComment,
		Comment:    &comment,
	}
}

func TestService_Apply_Likes(t *testing.T) {
	ctx := context.Background()

	t.Run("accumulates_deltas", func(t *testing.T) {
		store := newMemoryStore()
		service := newTestService(store, &memoryAudit{})

		err := service.Apply(ctx, []interactions.Action{
			likeAction("berserk", "12", 1),
			likeAction("berserk", "12", 1),
			likeAction("berserk", "12", -1),
		}, json.RawMessage(`[]`))
		require.NoError(t, err)

		blob, err := service.Series(ctx, "berserk")
		require.NoError(t, err)
		require.Contains(t, blob, "12")
		assert.Equal(t, 1, blob["12"].Likes)
	})

	t.Run("counter_never_goes_below_zero", func(t *testing.T) {
		store := newMemoryStore()
		service := newTestService(store, &memoryAudit{})

		err := service.Apply(ctx, []interactions.Action{
			likeAction("berserk", "12", -1),
			likeAction("berserk", "12", -1),
		}, json.RawMessage(`[]`))
		require.NoError(t, err)

		blob, err := service.Series(ctx, "berserk")
		require.NoError(t, err)
		assert.Equal(t, 0, blob["12"].Likes)
	})

	t.Run("one_store_cycle_per_series", func(t *testing.T) {
		store := newMemoryStore()
		service := newTestService(store, &memoryAudit{})

		err := service.Apply(ctx, []interactions.Action{
			likeAction("berserk", "12", 1),
			likeAction("one_piece", "1000", 1),
			likeAction("berserk", "13", 1),
		}, json.RawMessage(`[]`))
		require.NoError(t, err)

		assert.Equal(t, 2, store.writes)
	})
}

func TestService_Apply_CommentUpsert(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	service := newTestService(store, &memoryAudit{})

	original := interactions.Comment{ID: "c1", Username: "guts", Comment: "first", Timestamp: 1}
	edited := interactions.Comment{ID: "c1", Username: "guts", Comment: "edited", Timestamp: 2}
	other := interactions.Comment{ID: "c2", Username: "casca", Comment: "second", Timestamp: 3}

	err := service.Apply(ctx, []interactions.Action{
		commentAction("berserk", "12", original),
		commentAction("berserk", "12", other),
	}, json.RawMessage(`[]`))
	require.NoError(t, err)

	// Re-applying with a known id replaces in place, never duplicates.
	err = service.Apply(ctx, []interactions.Action{
		commentAction("berserk", "12", edited),
	}, json.RawMessage(`[]`))
	require.NoError(t, err)

	blob, err := service.Series(ctx, "berserk")
	require.NoError(t, err)
	comments := blob["12"].Comments
	require.Len(t, comments, 2)
	assert.Equal(t, "c1", comments[0].ID)
	assert.Equal(t, "edited", comments[0].Comment)
	assert.Equal(t, "c2", comments[1].ID)
}

func TestService_Apply_AuditsRawBatch(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	audit := &memoryAudit{}
	service := newTestService(store, audit)

	raw := json.RawMessage(`[{"slug":"berserk","chapter":"12","type":"like"}]`)
	err := service.Apply(ctx, []interactions.Action{likeAction("berserk", "12", 1)}, raw)
	require.NoError(t, err)

	require.Len(t, audit.keys, 1)
	assert.True(t, strings.HasPrefix(audit.keys[0], "log:batch:"))
}

func TestService_BatchDelete(t *testing.T) {
	ctx := context.Background()
	meta := interactions.RequestMeta{IP: "203.0.113.9", UserAgent: "test-agent"}

	seed := func(t *testing.T) (*interactions.Service, *memoryStore, *memoryAudit) {
		t.Helper()
		store := newMemoryStore()
		audit := &memoryAudit{}
		service := newTestService(store, audit)

		err := service.Apply(ctx, []interactions.Action{
			commentAction("berserk", "12", interactions.Comment{ID: "c1", Username: "guts", Comment: "one"}),
			commentAction("berserk", "12", interactions.Comment{ID: "c2", Username: "casca", Comment: "two"}),
		}, json.RawMessage(`[]`))
		require.NoError(t, err)
		audit.keys, audit.records = nil, nil
		return service, store, audit
	}

	t.Run("deletes_by_id_and_audits", func(t *testing.T) {
		service, _, audit := seed(t)

		results, err := service.BatchDelete(ctx, []interactions.DeleteItem{
			{SeriesSlug: "berserk", ChapterKey: "12", CommentIDs: []string{"c1"}},
		}, meta)
		require.NoError(t, err)

		require.Len(t, results, 1)
		assert.True(t, results[0].OK)
		require.NotNil(t, results[0].Deleted)
		assert.Equal(t, 1, *results[0].Deleted)

		blob, err := service.Series(ctx, "berserk")
		require.NoError(t, err)
		require.Len(t, blob["12"].Comments, 1)
		assert.Equal(t, "c2", blob["12"].Comments[0].ID)

		require.Len(t, audit.keys, 1)
		assert.True(t, strings.HasPrefix(audit.keys[0], "deleted:berserk:"))
	})

	t.Run("invalid_item_reported_not_fatal", func(t *testing.T) {
		service, _, _ := seed(t)

		results, err := service.BatchDelete(ctx, []interactions.DeleteItem{
			{SeriesSlug: "", ChapterKey: "12", CommentIDs: []string{"c1"}},
			{SeriesSlug: "berserk", ChapterKey: "12", CommentIDs: []string{"c2"}},
		}, meta)
		require.NoError(t, err)

		require.Len(t, results, 2)
		assert.False(t, results[0].OK)
		assert.Equal(t, "payload invalide", results[0].Reason)
		assert.True(t, results[1].OK)
	})

	t.Run("unknown_ids_count_zero_without_audit", func(t *testing.T) {
		service, _, audit := seed(t)

		results, err := service.BatchDelete(ctx, []interactions.DeleteItem{
			{SeriesSlug: "berserk", ChapterKey: "99", CommentIDs: []string{"missing"}},
		}, meta)
		require.NoError(t, err)

		require.Len(t, results, 1)
		assert.True(t, results[0].OK)
		require.NotNil(t, results[0].Deleted)
		assert.Equal(t, 0, *results[0].Deleted)
		assert.Empty(t, audit.keys)
	})

	t.Run("store_failure_aborts_request", func(t *testing.T) {
		store := newMemoryStore()
		store.err = assert.AnError
		service := newTestService(store, &memoryAudit{})

		_, err := service.BatchDelete(ctx, []interactions.DeleteItem{
			{SeriesSlug: "berserk", ChapterKey: "12", CommentIDs: []string{"c1"}},
		}, meta)
		assert.Error(t, err)
	})
}
