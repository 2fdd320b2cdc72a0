// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

package edge

import (
	"fmt"
	"net/url"
)

// # Site Identity

const (
	// BrandName is the fixed site brand, used as the default page title.
	BrandName = "Les Poroïniens"

	// SiteTagline is the fixed default description.
	SiteTagline = "Retrouvez toutes les sorties des Poroïniens en un seul et unique endroit !"

	// CanonicalRoot is the default canonical URL when none is supplied.
	CanonicalRoot = "https://lesporoiniens.org"

	// BannerPath is the generic Open Graph image, resolved against the page origin.
	BannerPath = "/img/banner.jpg"
)

// Meta is the per-page metadata a route hands to [MetaTags].
//
// Callers are responsible for pre-sanitizing any user-influenced string; in
// practice every field derives from trusted content records.
type Meta struct {
	Title       string
	Description string
	Image       string
	URL         string
}

// MetaTags renders the canonical head-tag fragment for a page.
//
// # Defaulting
//
// Each field falls back independently: title to the brand name, description
// to the site tagline, url to the canonical root, and image to the banner
// asset resolved against the (effective) url's origin.
func MetaTags(meta Meta) string {
	title := meta.Title
	if title == "" {
		title = BrandName
	}

	description := meta.Description
	if description == "" {
		description = SiteTagline
	}

	pageURL := meta.URL
	if pageURL == "" {
		pageURL = CanonicalRoot
	}

	imageURL := meta.Image
	if imageURL == "" {
		imageURL = resolveAgainstOrigin(pageURL, BannerPath)
	}

	return fmt.Sprintf(`
    <title>%s</title>
    <meta name="description" content="%s">
    <meta property="og:title" content="%s" />
    <meta property="og:description" content="%s" />
    <meta property="og:image" content="%s" />
    <meta property="og:image:width" content="1200" />
    <meta property="og:image:height" content="630" />
    <meta property="og:url" content="%s" />
    <meta name="twitter:title" content="%s">
    <meta name="twitter:description" content="%s">
    <meta name="twitter:image" content="%s">
  `,
		title, description,
		title, description, imageURL, pageURL,
		title, description, imageURL,
	)
}

// resolveAgainstOrigin resolves an absolute path against the origin of base.
// A base that does not parse falls back to the canonical root.
func resolveAgainstOrigin(base, assetPath string) string {
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		parsed, _ = url.Parse(CanonicalRoot)
	}
	return parsed.ResolveReference(&url.URL{Path: assetPath}).String()
}
