// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

/*
Package assets is the HTTP client for the static asset origin.

The origin serves everything that is not computed per request: the HTML
shells the edge router mutates, the series JSON records, and the whole
tree of pass-through assets (css, js, images, fonts). The server never
writes to it.
*/
package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"path"
	"time"

	"github.com/lesporoiniens/portal/internal/content"
)

// seriesDir is the origin directory holding the series JSON records.
const seriesDir = "/data/series/"

// Client fetches shells and series records from the asset origin.
type Client struct {
	origin     *url.URL
	httpClient *http.Client
}

// NewClient builds a client for the given origin base URL.
func NewClient(origin string) (*Client, error) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("assets: invalid origin %q", origin)
	}

	return &Client{
		origin: parsed,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Shell fetches an HTML shell (e.g. "/reader.html") and returns its body.
func (client *Client) Shell(ctx context.Context, shellPath string) (string, error) {
	body, err := client.get(ctx, shellPath)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Series fetches and decodes the series record with the given filename.
func (client *Client) Series(ctx context.Context, filename string) (*content.Record, error) {
	body, err := client.get(ctx, path.Join(seriesDir, filename))
	if err != nil {
		return nil, err
	}
	return content.ParseRecord(body)
}

// Ping fetches the origin root, for the readiness probe.
func (client *Client) Ping(ctx context.Context) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodHead, client.origin.String(), nil)
	if err != nil {
		return err
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("assets: origin unreachable: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 500 {
		return fmt.Errorf("assets: origin returned HTTP %d", response.StatusCode)
	}
	return nil
}

// get fetches one origin path and returns the body bytes.
func (client *Client) get(ctx context.Context, assetPath string) ([]byte, error) {
	target := client.origin.ResolveReference(&url.URL{Path: assetPath})

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("assets: fetch %s: %w", assetPath, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("assets: fetch %s: HTTP %d", assetPath, response.StatusCode)
	}

	return io.ReadAll(response.Body)
}

// NewProxy returns the fallback handler: a reverse proxy that forwards any
// request the edge router does not rewrite straight to the asset origin.
func NewProxy(origin string) (http.Handler, error) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("assets: invalid origin %q", origin)
	}

	proxy := httputil.NewSingleHostReverseProxy(parsed)

	// The origin routes by Host header; rewrite it alongside the URL.
	baseDirector := proxy.Director
	proxy.Director = func(request *http.Request) {
		baseDirector(request)
		request.Host = parsed.Host
	}

	return proxy, nil
}
