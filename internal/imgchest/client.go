// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

/*
Package imgchest proxies and caches the third-party image host.

ImgChest has no stable public API for the data we need: chapter file lists
and view counts are scraped from the JSON data island embedded in the public
post page, and the per-user post listing comes from an undocumented paginated
endpoint. Both are fronted by a read-through cache so the upstream is hit at
most once per retention window.
*/
package imgchest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// userAgent is deliberately ASCII-only: some proxies reject non-ASCII headers.
const userAgent = "LesPoroiniens-Fetch/1.2 (+https://lesporoiniens.org)"

// listingPageSize is the upstream page size; a shorter page ends pagination.
const listingPageSize = 24

// dataIsland matches the JSON data island on a public post page.
var dataIsland = regexp.MustCompile(`<div id="app" data-page="([^"]+)"></div>`)

// # Error Taxonomy

// UpstreamError reports a non-success HTTP status from the image host.
type UpstreamError struct {
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Status)
}

// ParseError reports that an upstream response did not contain the expected
// embedded data, or failed JSON decoding.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return e.Reason
}

// # Upstream Types

// Post is the parsed content of one public post page.
type Post struct {
	// Files is the ordered file list, kept as raw JSON so the cached payload
	// is byte-faithful to whatever shape upstream currently emits.
	Files []json.RawMessage

	// Views is nil when the page carries no view counter.
	Views *int64
}

// ListedPost is one simplified entry of the per-user post listing.
type ListedPost struct {
	ID    string `json:"id"`
	Views int64  `json:"views"`
	Title string `json:"title"`
	NSFW  bool   `json:"nsfw"`
}

// # Client

// Client talks to the image host.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for the given base URL (e.g. "https://imgchest.com").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// PostPage fetches a public post page and extracts its data island.
func (client *Client) PostPage(ctx context.Context, id string) (*Post, error) {
	body, err := client.get(ctx, client.baseURL+"/p/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}

	match := dataIsland.FindSubmatch(body)
	if match == nil {
		return nil, &ParseError{Reason: "Markup ImgChest non reconnu"}
	}

	// The island is JSON inside an HTML attribute; quotes arrive encoded.
	island := strings.ReplaceAll(string(match[1]), "&quot;", `"`)

	var page struct {
		Props struct {
			Post struct {
				Files []json.RawMessage `json:"files"`
				Views *int64            `json:"views"`
				Stats *struct {
					Views *int64 `json:"views"`
				} `json:"stats"`
			} `json:"post"`
		} `json:"props"`
	}
	if err := json.Unmarshal([]byte(island), &page); err != nil {
		return nil, &ParseError{Reason: "Markup ImgChest non reconnu"}
	}

	post := &Post{Files: page.Props.Post.Files}
	if post.Files == nil {
		post.Files = []json.RawMessage{}
	}

	if page.Props.Post.Views != nil {
		post.Views = page.Props.Post.Views
	} else if page.Props.Post.Stats != nil {
		post.Views = page.Props.Post.Stats.Views
	}

	return post, nil
}

// Posts fetches one page of a user's post listing, newest first.
func (client *Client) Posts(ctx context.Context, username string, page int) ([]ListedPost, error) {
	endpoint := fmt.Sprintf("%s/api/posts?username=%s&sort=new&page=%d&status=0",
		client.baseURL, url.QueryEscape(username), page)

	body, err := client.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var listing struct {
		Data []struct {
			ID    json.Number `json:"id"`
			Slug  string      `json:"slug"`
			Views int64       `json:"views"`
			Title string      `json:"title"`
			NSFW  bool        `json:"nsfw"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, &ParseError{Reason: "réponse ImgChest illisible"}
	}

	posts := make([]ListedPost, 0, len(listing.Data))
	for _, item := range listing.Data {
		id := item.Slug
		if id == "" {
			id = item.ID.String()
		}
		posts = append(posts, ListedPost{
			ID:    id,
			Views: item.Views,
			Title: item.Title,
			NSFW:  item.NSFW,
		})
	}

	return posts, nil
}

// get performs one upstream request and returns the body bytes.
func (client *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("User-Agent", userAgent)
	request.Header.Set("Accept", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Status: response.StatusCode}
	}

	return io.ReadAll(response.Body)
}

// UsernameVariants returns the casing/accent candidates tried against the
// listing endpoint: the configured name, its de-accented form, and the
// lowercase of both, deduplicated in order.
func UsernameVariants(raw string) []string {
	ascii := stripDiacritics(raw)

	seen := map[string]bool{}
	variants := make([]string, 0, 4)
	for _, candidate := range []string{raw, ascii, strings.ToLower(raw), strings.ToLower(ascii)} {
		if candidate == "" || seen[candidate] {
			continue
		}
		seen[candidate] = true
		variants = append(variants, candidate)
	}
	return variants
}

// stripDiacritics removes combining marks ("Poroïniens" → "Poroiniens").
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}), norm.NFC)

	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
