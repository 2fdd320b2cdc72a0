// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

/*
Package content models the static series records and the slug map that
addresses them.

A series record is a JSON document authored out-of-band and served by the
static asset origin; the server only ever reads it. The slug map is built
offline (cmd/slugmap) from the same records and loaded once at startup.
*/
package content

import (
	"encoding/json"
	"fmt"
)

// Record is one series document (manga, light novel, anime, or game).
//
// Decoding is deliberately lenient: records are hand-authored and fields come
// and go. The fields below are the ones the routing layer reads; Raw retains
// the full document so injected payloads stay byte-faithful to the origin.
type Record struct {
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	Cover         string             `json:"cover"`
	ReleaseStatus string             `json:"release_status"`
	Tags          []string           `json:"tags"`
	Chapters      map[string]Chapter `json:"chapters"`
	Anime         []AnimeEntry       `json:"anime"`
	Episodes      []json.RawMessage  `json:"episodes"`

	// Raw is the undecoded document as fetched from the asset origin.
	Raw json.RawMessage `json:"-"`
}

// Chapter is one entry of a record's ordered-by-key chapters mapping.
type Chapter struct {
	Title string `json:"title"`
	// Volume groups chapters in the detail view.
	Volume string `json:"volume"`
	// Groups maps a scanlation group name to its reading link.
	Groups map[string]string `json:"groups"`
	// LastUpdated is a Unix timestamp of the latest release for this chapter.
	LastUpdated int64 `json:"last_updated"`
	// Licencied lists licensing notes; a non-empty list hides reading links.
	Licencied []string `json:"licencied"`
	// File points to a light-novel chapter file when the series is a novel.
	File string `json:"file"`
}

// AnimeEntry describes one anime adaptation attached to a series.
type AnimeEntry struct {
	Title string `json:"title"`
	// CoverAn is the adaptation's own cover art, preferred over the series
	// banner on episode pages.
	CoverAn string `json:"cover_an"`
}

// ParseRecord decodes a series document, retaining the raw bytes.
func ParseRecord(data []byte) (*Record, error) {
	record := &Record{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("content: malformed series record: %w", err)
	}
	record.Raw = json.RawMessage(data)
	return record, nil
}

// HasChapter reports whether the record carries an entry for the given
// chapter key (the raw number string, e.g. "12.5").
func (r *Record) HasChapter(key string) bool {
	if r == nil || r.Chapters == nil {
		return false
	}
	_, ok := r.Chapters[key]
	return ok
}

// FirstAnime returns the first anime adaptation, or nil if there is none.
func (r *Record) FirstAnime() *AnimeEntry {
	if r == nil || len(r.Anime) == 0 {
		return nil
	}
	return &r.Anime[0]
}
