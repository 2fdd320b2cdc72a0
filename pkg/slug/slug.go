// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

// Package slug derives canonical slugs from series titles.
//
// # Usage
//
// Slugs are the URL identifiers for series (e.g., "/one_piece/1042"). The same
// transform is applied when the slug map is generated offline and when an
// incoming path segment is interpreted by the edge router — any divergence
// between the two sides breaks lookups silently, so both go through [From].
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// whitespaceRun matches any run of whitespace, including the full-width
	// ideographic space (U+3000) used in Japanese titles.
	whitespaceRun = regexp.MustCompile(`[\s\p{Zs}\x{3000}]+`)
	// nonWord matches any run of characters outside the word/hyphen set.
	nonWord = regexp.MustCompile(`[^\w-]+`)
	// multiHyphen collapses runs of two or more hyphens into an underscore.
	multiHyphen = regexp.MustCompile(`--+`)
)

// From converts an arbitrary Unicode string into a canonical slug.
//
// # Transformation Pipeline
//
//  1. Normalizes to NFD (decomposes accented chars: é → e + combining acute).
//  2. Removes combining marks (accents).
//  3. Converts to lowercase and trims surrounding whitespace.
//  4. Collapses whitespace runs (including U+3000) into single underscores.
//  5. Strips any character outside the word/hyphen set.
//  6. Collapses hyphen padding into single underscores.
//
// The transform is idempotent: From(From(s)) == From(s).
func From(s string) string {
	if s == "" {
		return ""
	}

	// 1. Normalize and remove accents
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	result, _, _ := transform.String(t, s)

	// 2. Lowercase and trim
	result = strings.ToLower(result)
	result = strings.TrimSpace(result)

	// 3. Whitespace runs become underscores
	result = whitespaceRun.ReplaceAllString(result, "_")

	// 4. Drop everything outside the word/hyphen set
	result = nonWord.ReplaceAllString(result, "")

	// 5. Collapse hyphen padding
	result = multiHyphen.ReplaceAllString(result, "_")

	return result
}

// isMn reports whether r is a Unicode non-spacing mark (e.g., accents).
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
