// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

package interactions_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesporoiniens/portal/internal/interactions"
)

func TestHandler_LogAction(t *testing.T) {
	post := func(handler *interactions.Handler, body string) *httptest.ResponseRecorder {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/api/log-action", strings.NewReader(body))
		handler.LogAction(recorder, request)
		return recorder
	}

	t.Run("success", func(t *testing.T) {
		store := newMemoryStore()
		handler := interactions.NewHandler(newTestService(store, &memoryAudit{}))

		recorder := post(handler, `{"actions":[{"slug":"berserk","chapter":"12","type":"like"}]}`)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.JSONEq(t, `{"success":true}`, recorder.Body.String())
		assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))

		blob, err := store.Get(context.Background(), "berserk")
		require.NoError(t, err)
		assert.Equal(t, 1, blob["12"].Likes)
	})

	t.Run("unhandled_types_with_slug_are_a_noop", func(t *testing.T) {
		// Deployed clients emit comment-like toggles the server does not
		// aggregate; such batches must succeed without touching the blob.
		store := newMemoryStore()
		handler := interactions.NewHandler(newTestService(store, &memoryAudit{}))

		recorder := post(handler, `{"actions":[{"slug":"berserk","chapter":"12","type":"like_comment","payload":{"commentId":"c1"}}]}`)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.JSONEq(t, `{"success":true}`, recorder.Body.String())
		assert.Zero(t, store.writes)
	})

	t.Run("missing_chapter_with_slug_is_a_noop", func(t *testing.T) {
		store := newMemoryStore()
		handler := interactions.NewHandler(newTestService(store, &memoryAudit{}))

		recorder := post(handler, `{"actions":[{"slug":"berserk","type":"like"}]}`)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.NotContains(t, recorder.Body.String(), "seriesSlug manquant.")
		assert.Zero(t, store.writes)
	})

	t.Run("empty_batch", func(t *testing.T) {
		handler := interactions.NewHandler(newTestService(newMemoryStore(), &memoryAudit{}))

		recorder := post(handler, `{"actions":[]}`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Données invalides (actions manquantes).")
	})

	t.Run("actions_without_slug", func(t *testing.T) {
		handler := interactions.NewHandler(newTestService(newMemoryStore(), &memoryAudit{}))

		recorder := post(handler, `{"actions":[{"chapter":"12","type":"like"}]}`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "seriesSlug manquant.")
	})

	t.Run("store_failure", func(t *testing.T) {
		store := newMemoryStore()
		store.err = assert.AnError
		handler := interactions.NewHandler(newTestService(store, &memoryAudit{}))

		recorder := post(handler, `{"actions":[{"slug":"berserk","chapter":"12","type":"like"}]}`)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Erreur interne du serveur.")
	})
}

func TestHandler_GetSeries(t *testing.T) {
	t.Run("returns_blob", func(t *testing.T) {
		store := newMemoryStore()
		service := newTestService(store, &memoryAudit{})
		handler := interactions.NewHandler(service)

		err := service.Apply(context.Background(), []interactions.Action{
			likeAction("berserk", "12", 3),
		}, json.RawMessage(`[]`))
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/api/interactions?series=berserk", nil)
		handler.GetSeries(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.JSONEq(t, `{"12":{"likes":3,"comments":[]}}`, recorder.Body.String())
	})

	t.Run("missing_series_param", func(t *testing.T) {
		handler := interactions.NewHandler(newTestService(newMemoryStore(), &memoryAudit{}))

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/api/interactions", nil)
		handler.GetSeries(recorder, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestAdminHandler_BatchDelete(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) (*interactions.AdminHandler, *memoryStore) {
		t.Helper()
		store := newMemoryStore()
		service := newTestService(store, &memoryAudit{})

		err := service.Apply(ctx, []interactions.Action{
			commentAction("berserk", "12", interactions.Comment{ID: "c1", Username: "guts", Comment: "one"}),
			commentAction("berserk", "12", interactions.Comment{ID: "c2", Username: "casca", Comment: "two"}),
		}, json.RawMessage(`[]`))
		require.NoError(t, err)

		return interactions.NewAdminHandler(service), store
	}

	post := func(handler *interactions.AdminHandler, body string) *httptest.ResponseRecorder {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/api/admin/batch-delete", strings.NewReader(body))
		request.Header.Set("Content-Type", "application/json")
		handler.BatchDelete(recorder, request)
		return recorder
	}

	t.Run("batch_shape", func(t *testing.T) {
		handler, store := seed(t)

		recorder := post(handler, `{"items":[{"seriesSlug":"berserk","chapterNumber":"12","commentIds":["c1"]}]}`)

		require.Equal(t, http.StatusOK, recorder.Code)

		var response struct {
			OK      bool                        `json:"ok"`
			Results []interactions.DeleteResult `json:"results"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		assert.True(t, response.OK)
		require.Len(t, response.Results, 1)
		assert.True(t, response.Results[0].OK)
		require.NotNil(t, response.Results[0].Deleted)
		assert.Equal(t, 1, *response.Results[0].Deleted)

		require.Len(t, store.blobs["berserk"]["12"].Comments, 1)
	})

	t.Run("single_item_shape", func(t *testing.T) {
		handler, store := seed(t)

		recorder := post(handler, `{"seriesSlug":"berserk","chapterNumber":12,"commentIds":["c1","c2"]}`)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Empty(t, store.blobs["berserk"]["12"].Comments)
	})

	t.Run("partial_success", func(t *testing.T) {
		handler, _ := seed(t)

		recorder := post(handler, `{"items":[
			{"seriesSlug":"","chapterNumber":"12","commentIds":["c1"]},
			{"seriesSlug":"berserk","chapterNumber":"12","commentIds":["c2"]}
		]}`)

		require.Equal(t, http.StatusOK, recorder.Code)

		var response struct {
			OK      bool                        `json:"ok"`
			Results []interactions.DeleteResult `json:"results"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		assert.True(t, response.OK)
		require.Len(t, response.Results, 2)
		assert.False(t, response.Results[0].OK)
		assert.Equal(t, "payload invalide", response.Results[0].Reason)
		assert.True(t, response.Results[1].OK)
	})

	t.Run("malformed_body", func(t *testing.T) {
		handler, _ := seed(t)

		recorder := post(handler, `{{{`)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"Server error"`)
	})
}
