// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

package edge_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesporoiniens/portal/internal/content"
	"github.com/lesporoiniens/portal/internal/edge"
)

// fakeAssets serves shells and series records from in-memory maps.
type fakeAssets struct {
	shells map[string]string
	series map[string]*content.Record
}

func (f *fakeAssets) Shell(_ context.Context, path string) (string, error) {
	shell, ok := f.shells[path]
	if !ok {
		return "", fmt.Errorf("no shell %q", path)
	}
	return shell, nil
}

func (f *fakeAssets) Series(_ context.Context, filename string) (*content.Record, error) {
	record, ok := f.series[filename]
	if !ok {
		return nil, fmt.Errorf("no record %q", filename)
	}
	return record, nil
}

const testShell = `<html><head>` + edge.MarkerOGTags + `</head>` +
	`<body><script>window.data = ` + edge.MarkerSeriesData + `;</script></body></html>`

const testReaderShell = `<html><head>` + edge.MarkerOGTags + `</head>` +
	`<body><script>window.reader = ` + edge.MarkerReaderData + `;</script></body></html>`

func newTestRouter(t *testing.T) *edge.Router {
	t.Helper()

	record, err := content.ParseRecord([]byte(`{
		"title": "Berserk",
		"description": "Dark fantasy.",
		"chapters": {"12": {"title": "The Hawk"}},
		"anime": [{"title": "Berserk (1997)", "cover_an": "https://cdn.example.org/berserk_anime.jpg"}]
	}`))
	require.NoError(t, err)

	assets := &fakeAssets{
		shells: map[string]string{
			"/index.html":         testShell,
			"/presentation.html":  testShell,
			"/galerie.html":       testShell,
			"/series-detail.html": testShell,
			"/series-covers.html": testShell,
			"/reader.html":        testReaderShell,
		},
		series: map[string]*content.Record{"berserk.json": record},
	}
	slugs := content.NewSlugMap(map[string]string{"berserk": "berserk.json"})

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	router, err := edge.NewRouter(assets, slugs, "https://lesporoiniens.org", log)
	require.NoError(t, err)
	return router
}

// serve runs one request through the router with a sentinel fallback handler.
func serve(router *edge.Router, target string) *httptest.ResponseRecorder {
	fallback := http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusTeapot)
		_, _ = writer.Write([]byte("fallback"))
	})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, target, nil)
	router.Middleware(fallback).ServeHTTP(recorder, request)
	return recorder
}

func TestRouter_PathNormalization(t *testing.T) {
	router := newTestRouter(t)

	t.Run("home_aliases_route_identically", func(t *testing.T) {
		root := serve(router, "/")
		index := serve(router, "/index")
		indexHTML := serve(router, "/index.html")

		assert.Equal(t, http.StatusOK, root.Code)
		assert.Contains(t, root.Body.String(), "<title>Accueil - Les Poroïniens</title>")
		assert.Equal(t, root.Body.String(), index.Body.String())
		assert.Equal(t, root.Body.String(), indexHTML.Body.String())
	})

	t.Run("series_aliases_route_identically", func(t *testing.T) {
		bare := serve(router, "/berserk")
		slash := serve(router, "/berserk/")
		html := serve(router, "/berserk.html")

		assert.Equal(t, http.StatusOK, bare.Code)
		assert.Contains(t, bare.Body.String(), "<title>Berserk - Les Poroïniens</title>")
		assert.Equal(t, bare.Body.String(), slash.Body.String())
		assert.Equal(t, bare.Body.String(), html.Body.String())
	})
}

func TestRouter_StaticPages(t *testing.T) {
	router := newTestRouter(t)

	t.Run("presentation", func(t *testing.T) {
		recorder := serve(router, "/presentation")

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "text/html; charset=UTF-8", recorder.Header().Get("Content-Type"))
		assert.Contains(t, recorder.Body.String(), "<title>Questions & Réponses - Les Poroïniens</title>")
	})

	t.Run("gallery_prefix", func(t *testing.T) {
		recorder := serve(router, "/galerie")

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "<title>Galerie - Les Poroïniens</title>")
	})

	t.Run("home_image_override", func(t *testing.T) {
		recorder := serve(router, "/")

		assert.Contains(t, recorder.Body.String(), `<meta property="og:image" content="/img/banner.jpg" />`)
	})
}

func TestRouter_PassThrough(t *testing.T) {
	router := newTestRouter(t)

	for _, target := range []string{
		"/css/site.css",
		"/js/app.js",
		"/api/interactions",
		"/data/series/berserk.json",
	} {
		t.Run(target, func(t *testing.T) {
			recorder := serve(router, target)

			assert.Equal(t, http.StatusTeapot, recorder.Code)
			assert.Equal(t, "fallback", recorder.Body.String())
		})
	}
}

func TestRouter_ChapterClassification(t *testing.T) {
	router := newTestRouter(t)

	t.Run("numeric_second_segment_is_a_chapter", func(t *testing.T) {
		recorder := serve(router, "/berserk/12")

		require.Equal(t, http.StatusOK, recorder.Code)
		body := recorder.Body.String()
		assert.Contains(t, body, `"chapterNumber":"12"`)
		assert.Contains(t, body, `"title":"Berserk"`)
		assert.Contains(t, body, "<title>Berserk - Chapitre 12 | Les Poroïniens</title>")
	})

	t.Run("third_segment_still_a_chapter_route", func(t *testing.T) {
		recorder := serve(router, "/berserk/12/3")

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"chapterNumber":"12"`)
	})

	t.Run("non_numeric_segment_falls_through", func(t *testing.T) {
		recorder := serve(router, "/berserk/abc")

		assert.Equal(t, http.StatusTeapot, recorder.Code)
	})

	t.Run("nan_and_inf_are_not_chapters", func(t *testing.T) {
		// ParseFloat accepts these spellings; chapter keys never do.
		for _, target := range []string{"/berserk/NaN", "/berserk/Inf", "/berserk/+Inf"} {
			recorder := serve(router, target)

			assert.Equal(t, http.StatusTeapot, recorder.Code, "target %s", target)
		}
	})

	t.Run("unknown_chapter_injects_sentinel", func(t *testing.T) {
		recorder := serve(router, "/berserk/99")

		require.Equal(t, http.StatusOK, recorder.Code)
		body := recorder.Body.String()
		assert.Contains(t, body, "window.reader = "+edge.SentinelReaderData+";")
		assert.NotContains(t, body, "window.reader = null")
		assert.Contains(t, body, "<title>Lecture - Les Poroïniens</title>")
	})
}

func TestRouter_SeriesDetail(t *testing.T) {
	router := newTestRouter(t)

	t.Run("resolved_slug_injects_raw_record", func(t *testing.T) {
		recorder := serve(router, "/berserk")

		require.Equal(t, http.StatusOK, recorder.Code)
		body := recorder.Body.String()
		assert.Contains(t, body, `"description": "Dark fantasy."`)
		assert.Contains(t, body, `<meta property="og:image" content="https://lesporoiniens.org/img/banner/berserk.png" />`)
	})

	t.Run("unresolved_slug_injects_sentinel", func(t *testing.T) {
		recorder := serve(router, "/ghost-series")

		require.Equal(t, http.StatusOK, recorder.Code)
		body := recorder.Body.String()
		assert.Contains(t, body, "window.data = "+edge.SentinelSeriesData+";")
		assert.NotContains(t, body, "window.data = null")
		// Meta falls back to the generic banner and brand-only title.
		assert.Contains(t, body, `<meta property="og:image" content="https://lesporoiniens.org/img/banner.jpg" />`)
	})
}

func TestRouter_Episodes(t *testing.T) {
	router := newTestRouter(t)

	t.Run("episode_list", func(t *testing.T) {
		recorder := serve(router, "/berserk/episodes")

		require.Equal(t, http.StatusOK, recorder.Code)
		body := recorder.Body.String()
		assert.Contains(t, body, "<title>Épisodes de Berserk - Les Poroïniens</title>")
		// Anime cover preferred over the series banner.
		assert.Contains(t, body, `<meta property="og:image" content="https://cdn.example.org/berserk_anime.jpg" />`)
	})

	t.Run("single_episode", func(t *testing.T) {
		recorder := serve(router, "/berserk/episodes/3")

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "<title>Épisode 3 de Berserk - Les Poroïniens</title>")
	})
}

func TestRouter_Covers(t *testing.T) {
	router := newTestRouter(t)

	recorder := serve(router, "/berserk/cover")

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "<title>Couvertures de Berserk - Les Poroïniens</title>")
}

func TestRouter_ShellFetchFailureFallsThrough(t *testing.T) {
	assets := &fakeAssets{shells: map[string]string{}, series: map[string]*content.Record{}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	router, err := edge.NewRouter(assets, content.NewSlugMap(nil), "https://lesporoiniens.org", log)
	require.NoError(t, err)

	recorder := serve(router, "/")

	assert.Equal(t, http.StatusTeapot, recorder.Code)
	assert.Equal(t, "fallback", recorder.Body.String())
}
