// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

package interactions

import (
	"encoding/json"
	"strings"
)

// # Canonical Action Schema

// ActionKind discriminates the canonical action variants.
type ActionKind string

const (
	// KindComment upserts a comment into a chapter's comment list.
	KindComment ActionKind = "comment"

	// KindLike applies a signed delta to a chapter's like counter.
	KindLike ActionKind = "like"
)

// Action is the canonical internal form of one interaction.
//
// Client payloads exist in several historical schemas; [NormalizeBatch]
// converts every accepted shape into this one before any business logic
// runs. LikeDelta is always resolved here — downstream code never infers.
type Action struct {
	SeriesSlug string
	ChapterKey string
	Kind       ActionKind
	Comment    *Comment
	LikeDelta  int
}

// # Boundary Normalizer

// rawAction mirrors the union of all client action schemas.
type rawAction struct {
	SeriesSlug    string      `json:"seriesSlug"`
	Slug          string      `json:"slug"`
	Chapter       flexString  `json:"chapter"`
	ChapterNumber flexString  `json:"chapterNumber"`
	Type          string      `json:"type"`
	Comment       *Comment    `json:"comment"`
	Delta         *int        `json:"delta"`
	Liked         *bool       `json:"liked"`
}

// batchEnvelope mirrors the object-shaped payload variants.
type batchEnvelope struct {
	Actions    []rawAction `json:"actions"`
	Action     *rawAction  `json:"action"`
	SeriesSlug string      `json:"seriesSlug"`
}

// NormalizeBatch converts a request body into canonical actions.
//
// # Accepted Shapes
//
// {actions: [...]}, a bare array [...], or {action: {...}} — plus a
// body-level seriesSlug that takes precedence over per-action slugs.
// Malformed or unattributable actions (missing chapter key, missing series
// slug, unhandled type) are skipped silently, tolerating partial payloads
// and newer action types from deployed client versions. A body matching no
// variant yields an empty batch, not an error.
//
// slugSeen reports whether any raw action carried a series slug, even if
// that action was skipped — callers use it to tell a no-op batch apart from
// one that was never attributable to a series.
func NormalizeBatch(body []byte) (actions []Action, slugSeen bool) {
	envelope := batchEnvelope{}

	if err := json.Unmarshal(body, &envelope); err != nil {
		// Not an object: try the bare-array shape.
		var bare []rawAction
		if err := json.Unmarshal(body, &bare); err != nil {
			return nil, false
		}
		envelope.Actions = bare
	}

	raws := envelope.Actions
	if raws == nil && envelope.Action != nil {
		raws = []rawAction{*envelope.Action}
	}

	actions = make([]Action, 0, len(raws))
	for _, raw := range raws {
		slug := strings.TrimSpace(firstNonEmpty(envelope.SeriesSlug, raw.SeriesSlug, raw.Slug))
		if slug != "" {
			slugSeen = true
		}
		if action, ok := normalizeOne(raw, slug); ok {
			actions = append(actions, action)
		}
	}
	return actions, slugSeen
}

// normalizeOne maps one raw action to the canonical schema.
func normalizeOne(raw rawAction, slug string) (Action, bool) {
	chapterKey := strings.TrimSpace(firstNonEmpty(string(raw.Chapter), string(raw.ChapterNumber)))

	if slug == "" || chapterKey == "" {
		return Action{}, false
	}

	switch raw.Type {
	case "comment":
		if raw.Comment == nil {
			return Action{}, false
		}
		return Action{
			SeriesSlug: slug,
			ChapterKey: chapterKey,
			Kind:       KindComment,
			Comment:    raw.Comment,
		}, true

	case "like", "unlike":
		return Action{
			SeriesSlug: slug,
			ChapterKey: chapterKey,
			Kind:       KindLike,
			LikeDelta:  resolveDelta(raw),
		}, true
	}

	return Action{}, false
}

// resolveDelta collapses the three historical like conventions into one
// signed delta: an explicit numeric delta wins, then the boolean liked
// flag (true → +1, false → -1), then the action type's default.
func resolveDelta(raw rawAction) int {
	if raw.Delta != nil {
		return *raw.Delta
	}
	if raw.Liked != nil {
		if *raw.Liked {
			return 1
		}
		return -1
	}
	if raw.Type == "unlike" {
		return -1
	}
	return 1
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// flexString decodes a JSON string or number into a string, since chapter
// keys arrive in both forms ("12.5" and 12.5).
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*f = flexString(asString)
		return nil
	}

	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err == nil {
		*f = flexString(asNumber.String())
		return nil
	}

	// Any other shape is treated as absent, not as a batch failure.
	*f = ""
	return nil
}
