// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

/*
Package interactions accumulates the per-series like counters and comment
lists, and exposes the moderation surface over them.

One blob per series lives in the key-value store under "interactions:<slug>".
The blob is not row-addressable: every mutation is a read-modify-write of the
whole value, performed under optimistic concurrency (see the Redis store).
Each mutating batch also appends a best-effort audit record with a bounded
retention.
*/
package interactions

// Comment is one reader comment on a chapter.
//
// The id is client-generated and unique within a chapter; a comment with a
// known id is upserted in place, never duplicated.
type Comment struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Comment   string `json:"comment"`
	Timestamp int64  `json:"timestamp"`
	Likes     int    `json:"likes"`
}

// Entry holds the interactions of one chapter.
type Entry struct {
	Likes    int       `json:"likes"`
	Comments []Comment `json:"comments"`
}

// Blob is the aggregate interactions document of one series, keyed by the
// chapter number string.
type Blob map[string]*Entry

// entry returns the chapter entry, creating it on first use. The comments
// slice is always non-nil so the blob serializes as [] rather than null.
func (blob Blob) entry(chapterKey string) *Entry {
	if existing, ok := blob[chapterKey]; ok && existing != nil {
		if existing.Comments == nil {
			existing.Comments = []Comment{}
		}
		return existing
	}
	fresh := &Entry{Comments: []Comment{}}
	blob[chapterKey] = fresh
	return fresh
}
