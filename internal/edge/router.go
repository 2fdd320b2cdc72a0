// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

/*
Package edge rewrites inbound page requests into server-rendered HTML.

The router classifies each request path into a fixed set of route kinds,
fetches the matching shell from the asset origin, resolves the series record
through the slug map, composes Open Graph tags, and injects JSON payloads
into the shell's placeholder markers. Asset paths and unrecognized routes
fall through untouched to the next handler.

# Placeholder Contract

Shells contain literal markers replaced server-side. When a series cannot be
resolved, the data marker is replaced with a literal sentinel string instead
of JSON — deployed client code checks for the sentinel before parsing, so the
sentinel must never be confused with valid JSON (in particular it is never
"null" or the empty string).
*/
package edge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/lesporoiniens/portal/internal/content"
)

// # Placeholder Markers

const (
	// MarkerOGTags is replaced with the composed head-tag fragment.
	MarkerOGTags = "<!-- DYNAMIC_OG_TAGS_PLACEHOLDER -->"

	// MarkerReaderData is replaced with {series, chapterNumber} JSON.
	MarkerReaderData = "<!-- READER_DATA_PLACEHOLDER -->"

	// MarkerSeriesData is replaced with the series record JSON.
	MarkerSeriesData = "<!-- SERIES_DATA_PLACEHOLDER -->"

	// SentinelReaderData signals "no reader data" to client code.
	SentinelReaderData = "READER_DATA_PLACEHOLDER"

	// SentinelSeriesData signals "no series data" to client code.
	SentinelSeriesData = "SERIES_DATA_PLACEHOLDER"
)

// # Shells

const (
	shellGallery      = "/galerie.html"
	shellReader       = "/reader.html"
	shellSeriesDetail = "/series-detail.html"
	shellSeriesCovers = "/series-covers.html"
)

// passPrefixes are asset directories delegated untouched to the next handler.
var passPrefixes = []string{
	"/css/", "/js/", "/img/", "/data/", "/includes/",
	"/functions/", "/api/", "/fonts/", "/ln/",
}

// pageMeta describes one entry of the fixed static page table.
type pageMeta struct {
	title       string
	description string
	shell       string
	image       string
}

// staticPages is the fixed table of known static pages, keyed by
// normalized path. Only the home page overrides the image.
var staticPages = map[string]pageMeta{
	"/": {
		title:       "Accueil - Les Poroïniens",
		description: SiteTagline,
		shell:       "/index.html",
		image:       "/img/banner.jpg",
	},
	"/presentation": {
		title:       "Questions & Réponses - Les Poroïniens",
		description: "Les réponses des Poroïniens à vos questions sur son parcours dans le scantrad.",
		shell:       "/presentation.html",
	},
}

// # Collaborators

// AssetSource fetches shells and series records from the static origin.
type AssetSource interface {
	Shell(ctx context.Context, path string) (string, error)
	Series(ctx context.Context, filename string) (*content.Record, error)
}

// SlugResolver maps a URL path segment to a series record filename.
// An empty return value means the segment is unknown.
type SlugResolver interface {
	Resolve(segment string) string
}

// # Router

// Router is the edge request-rewriting middleware.
type Router struct {
	assets AssetSource
	slugs  SlugResolver
	site   *url.URL
	log    *slog.Logger
}

// NewRouter builds the edge router for the given canonical site origin.
func NewRouter(assets AssetSource, slugs SlugResolver, siteOrigin string, log *slog.Logger) (*Router, error) {
	parsed, err := url.Parse(siteOrigin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("edge: invalid site origin %q", siteOrigin)
	}
	return &Router{assets: assets, slugs: slugs, site: parsed, log: log}, nil
}

// Middleware wraps next with the edge routing logic. Requests the router
// does not rewrite are passed through to next unchanged.
func (router *Router) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		router.handle(writer, request, next)
	})
}

func (router *Router) handle(writer http.ResponseWriter, request *http.Request, next http.Handler) {
	pathname := normalizePath(request.URL.Path)
	pageURL := router.pageURL(request)

	// 1. Gallery
	if strings.HasPrefix(pathname, "/galerie") {
		meta := Meta{
			Title:       "Galerie - Les Poroïniens",
			Description: "Découvrez toutes les colorisations et fan-arts de la communauté !",
			URL:         pageURL,
		}
		if router.servePage(writer, request, shellGallery, meta, nil) {
			return
		}
		next.ServeHTTP(writer, request)
		return
	}

	// 2. Known static pages
	if page, ok := staticPages[pathname]; ok {
		meta := Meta{
			Title:       page.title,
			Description: page.description,
			Image:       page.image,
			URL:         pageURL,
		}
		if router.servePage(writer, request, page.shell, meta, nil) {
			return
		}
		next.ServeHTTP(writer, request)
		return
	}

	// 3. Pass-through asset prefixes
	for _, prefix := range passPrefixes {
		if strings.HasPrefix(pathname, prefix) {
			next.ServeHTTP(writer, request)
			return
		}
	}

	// 4. Dynamic content routes. Failures here are logged and swallowed:
	// a routing-layer error must never surface as a 500 when the fallback
	// handler can still serve something reasonable.
	segments := splitPath(pathname)
	if len(segments) > 0 {
		if router.dynamic(writer, request, segments, pageURL) {
			return
		}
	}

	// 5. Fallback
	next.ServeHTTP(writer, request)
}

// # Dynamic Routing

// dynamic handles series, reader, episode, and cover routes. It reports
// whether it wrote a response.
func (router *Router) dynamic(writer http.ResponseWriter, request *http.Request, segments []string, pageURL string) bool {
	ctx := request.Context()
	seriesSlug := segments[0]

	// Resolve the record via the slug map: no scan, no extra fetch on miss.
	filename := router.slugs.Resolve(seriesSlug)

	var record *content.Record
	ogImage := router.absoluteURL(BannerPath)

	if filename != "" {
		fetched, err := router.assets.Series(ctx, filename)
		if err != nil {
			// Degrade to the generic banner and an unset record.
			router.log.WarnContext(ctx, "series_fetch_failed",
				slog.String("slug", seriesSlug),
				slog.String("filename", filename),
				slog.Any("error", err),
			)
		} else {
			record = fetched
			ogImage = router.absoluteURL("/img/banner/" + strings.TrimSuffix(filename, ".json") + ".png")
		}
	}

	isChapterRoute := (len(segments) == 2 || len(segments) == 3) && parsesAsNumber(segments[1])
	isEpisodes := len(segments) > 1 && segments[1] == "episodes"
	isCover := len(segments) > 1 && segments[1] == "cover"

	switch {
	case isChapterRoute:
		return router.serveReader(writer, request, record, segments[1], ogImage, pageURL)

	case isEpisodes:
		return router.serveEpisodes(writer, request, record, segments, ogImage, pageURL)

	case isCover:
		meta := Meta{
			Title:       fmt.Sprintf("Couvertures de %s - Les Poroïniens", recordTitle(record)),
			Description: fmt.Sprintf("Découvrez toutes les couvertures de la série %s !", recordTitle(record)),
			Image:       ogImage,
			URL:         pageURL,
		}
		return router.servePage(writer, request, shellSeriesCovers, meta, nil)

	case len(segments) == 1:
		meta := Meta{
			Title:       fmt.Sprintf("%s - Les Poroïniens", recordTitle(record)),
			Description: recordDescription(record),
			Image:       ogImage,
			URL:         pageURL,
		}
		return router.servePage(writer, request, shellSeriesDetail, meta, seriesDataInjection(record))
	}

	return false
}

// serveReader renders the chapter reading route (/slug/123[/x]).
func (router *Router) serveReader(writer http.ResponseWriter, request *http.Request, record *content.Record, chapterNumber, ogImage, pageURL string) bool {
	var meta Meta
	var injection *dataInjection

	if record.HasChapter(chapterNumber) {
		meta = Meta{
			Title:       fmt.Sprintf("%s - Chapitre %s | Les Poroïniens", record.Title, chapterNumber),
			Description: fmt.Sprintf("Lisez le chapitre %s de %s. %s", chapterNumber, record.Title, record.Description),
			Image:       ogImage,
			URL:         pageURL,
		}

		payload, err := json.Marshal(struct {
			Series        json.RawMessage `json:"series"`
			ChapterNumber string          `json:"chapterNumber"`
		}{Series: record.Raw, ChapterNumber: chapterNumber})
		if err != nil {
			router.log.ErrorContext(request.Context(), "reader_payload_marshal_failed", slog.Any("error", err))
			return false
		}

		injection = &dataInjection{marker: MarkerReaderData, value: string(payload)}
	} else {
		// No chapter data: inject the literal sentinel so client code
		// detects the absence and fetches for itself (never a JSON null).
		meta = Meta{
			Title: "Lecture - Les Poroïniens",
			Image: ogImage,
			URL:   pageURL,
		}
		injection = &dataInjection{marker: MarkerReaderData, value: SentinelReaderData}
	}

	return router.servePage(writer, request, shellReader, meta, injection)
}

// serveEpisodes renders the anime episode routes (/slug/episodes[/<n>]).
func (router *Router) serveEpisodes(writer http.ResponseWriter, request *http.Request, record *content.Record, segments []string, ogImage, pageURL string) bool {
	image := ogImage
	if anime := record.FirstAnime(); anime != nil && anime.CoverAn != "" {
		image = anime.CoverAn
	}

	var meta Meta
	if len(segments) == 3 {
		meta = Meta{
			Title:       fmt.Sprintf("Épisode %s de %s - Les Poroïniens", segments[2], recordTitle(record)),
			Description: fmt.Sprintf("Regardez l'épisode %s de l'anime %s.", segments[2], recordTitle(record)),
			Image:       image,
			URL:         pageURL,
		}
	} else {
		meta = Meta{
			Title:       fmt.Sprintf("Épisodes de %s - Les Poroïniens", recordTitle(record)),
			Description: fmt.Sprintf("Liste de tous les épisodes de l'anime %s.", recordTitle(record)),
			Image:       image,
			URL:         pageURL,
		}
	}

	return router.servePage(writer, request, shellSeriesDetail, meta, seriesDataInjection(record))
}

// # Shell Rendering

// dataInjection replaces one data marker in a shell with a value — either a
// JSON payload or the literal sentinel.
type dataInjection struct {
	marker string
	value  string
}

// seriesDataInjection builds the series-data injection: the raw record JSON
// when present, the sentinel otherwise.
func seriesDataInjection(record *content.Record) *dataInjection {
	value := SentinelSeriesData
	if record != nil {
		value = string(record.Raw)
	}
	return &dataInjection{marker: MarkerSeriesData, value: value}
}

// servePage fetches a shell, injects the composed meta tags and optional
// data payload, and writes the document. It reports whether it wrote a
// response; shell fetch failures are logged and left to the fallback.
func (router *Router) servePage(writer http.ResponseWriter, request *http.Request, shell string, meta Meta, injection *dataInjection) bool {
	html, err := router.assets.Shell(request.Context(), shell)
	if err != nil {
		router.log.WarnContext(request.Context(), "shell_fetch_failed",
			slog.String("shell", shell),
			slog.Any("error", err),
		)
		return false
	}

	html = strings.Replace(html, MarkerOGTags, MetaTags(meta), 1)
	if injection != nil {
		html = strings.Replace(html, injection.marker, injection.value, 1)
	}

	writer.Header().Set("Content-Type", "text/html; charset=UTF-8")
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write([]byte(html))
	return true
}

// # Path Helpers

// normalizePath applies the entry normalization: strip a single trailing
// slash (except the root), strip a trailing ".html", and map /index to /.
func normalizePath(pathname string) string {
	if len(pathname) > 1 && strings.HasSuffix(pathname, "/") {
		pathname = pathname[:len(pathname)-1]
	}
	pathname = strings.TrimSuffix(pathname, ".html")
	if pathname == "/index" {
		pathname = "/"
	}
	return pathname
}

// splitPath splits a path into its non-empty segments.
func splitPath(pathname string) []string {
	parts := strings.Split(pathname, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// parsesAsNumber reports whether the segment is a chapter number. ParseFloat
// alone would accept "NaN" and "Inf", which are never chapter keys.
func parsesAsNumber(segment string) bool {
	value, err := strconv.ParseFloat(segment, 64)
	return err == nil && !math.IsNaN(value) && !math.IsInf(value, 0)
}

// pageURL rebuilds the absolute public URL of the request.
func (router *Router) pageURL(request *http.Request) string {
	ref := &url.URL{Path: request.URL.Path, RawQuery: request.URL.RawQuery}
	return router.site.ResolveReference(ref).String()
}

// absoluteURL resolves an absolute path against the site origin.
func (router *Router) absoluteURL(assetPath string) string {
	return router.site.ResolveReference(&url.URL{Path: assetPath}).String()
}

// recordTitle returns the record title, or "" when the record is unset.
func recordTitle(record *content.Record) string {
	if record == nil {
		return ""
	}
	return record.Title
}

// recordDescription returns the record description, or "" when unset.
func recordDescription(record *content.Record) string {
	if record == nil {
		return ""
	}
	return record.Description
}
