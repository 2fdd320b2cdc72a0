// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

package content

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// SlugMap maps canonical slugs to series record filenames.
//
// # Lifecycle
//
// The map is generated offline by cmd/slugmap, loaded once at startup, and
// immutable at request time. Every key is the output of [pkg/slug.From]
// applied to a series title or a filename stem.
type SlugMap struct {
	entries map[string]string
}

// NewSlugMap wraps an existing slug → filename mapping.
func NewSlugMap(entries map[string]string) *SlugMap {
	if entries == nil {
		entries = map[string]string{}
	}
	return &SlugMap{entries: entries}
}

// LoadSlugMap reads a slug map from a JSON file on disk.
func LoadSlugMap(path string) (*SlugMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("content: read slug map: %w", err)
	}

	entries := map[string]string{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("content: malformed slug map %q: %w", path, err)
	}

	return NewSlugMap(entries), nil
}

// Resolve maps a URL path segment to a series record filename.
//
// # Lookup Order
//
// Exact match first, then the segment with hyphens replaced by underscores,
// then with underscores replaced by hyphens — user-facing slugs circulate in
// both forms. Absence yields the empty string, never an error.
func (m *SlugMap) Resolve(segment string) string {
	if segment == "" {
		return ""
	}

	if filename, ok := m.entries[segment]; ok {
		return filename
	}
	if filename, ok := m.entries[strings.ReplaceAll(segment, "-", "_")]; ok {
		return filename
	}
	if filename, ok := m.entries[strings.ReplaceAll(segment, "_", "-")]; ok {
		return filename
	}

	return ""
}

// Len returns the number of entries, for startup logging.
func (m *SlugMap) Len() int {
	return len(m.entries)
}
