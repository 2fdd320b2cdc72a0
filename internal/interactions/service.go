// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

package interactions

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lesporoiniens/portal/internal/platform/constants"
)

// RequestMeta carries the requester hints recorded in audit entries.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Service applies interaction batches and moderation deletes to the store.
type Service struct {
	store     Store
	audit     AuditLog
	adminName string
	log       *slog.Logger
}

// NewService wires the interactions service.
func NewService(store Store, audit AuditLog, adminName string, log *slog.Logger) *Service {
	return &Service{store: store, audit: audit, adminName: adminName, log: log}
}

// # Batch Application

// Apply merges a normalized action batch into the per-series blobs.
//
// Actions are grouped by series so each distinct series costs one guarded
// read-modify-write cycle, not one per action. The raw client batch is
// appended to the audit log afterwards, best-effort.
func (service *Service) Apply(ctx context.Context, actions []Action, rawBatch json.RawMessage) error {
	order := make([]string, 0, len(actions))
	groups := make(map[string][]Action, len(actions))

	for _, action := range actions {
		if _, seen := groups[action.SeriesSlug]; !seen {
			order = append(order, action.SeriesSlug)
		}
		groups[action.SeriesSlug] = append(groups[action.SeriesSlug], action)
	}

	for _, seriesSlug := range order {
		group := groups[seriesSlug]
		err := service.store.Update(ctx, seriesSlug, func(blob Blob) (Blob, bool) {
			for _, action := range group {
				applyAction(blob, action)
			}
			return blob, true
		})
		if err != nil {
			return err
		}
	}

	service.auditBatch(ctx, rawBatch)
	return nil
}

// Series returns the interactions blob of one series.
func (service *Service) Series(ctx context.Context, seriesSlug string) (Blob, error) {
	return service.store.Get(ctx, seriesSlug)
}

// applyAction merges one canonical action into the blob.
func applyAction(blob Blob, action Action) {
	entry := blob.entry(action.ChapterKey)

	switch action.Kind {
	case KindComment:
		upsertComment(entry, *action.Comment)

	case KindLike:
		entry.Likes += action.LikeDelta
		if entry.Likes < 0 {
			entry.Likes = 0
		}
	}
}

// upsertComment replaces a comment with a matching id in place, preserving
// its position; without a match (or without an id) the comment is appended.
func upsertComment(entry *Entry, comment Comment) {
	if comment.ID != "" {
		for i := range entry.Comments {
			if entry.Comments[i].ID == comment.ID {
				entry.Comments[i] = comment
				return
			}
		}
	}
	entry.Comments = append(entry.Comments, comment)
}

// auditBatch appends the raw batch to the audit log. Failures are logged
// and swallowed — auditing can never fail the primary operation.
func (service *Service) auditBatch(ctx context.Context, rawBatch json.RawMessage) {
	record := map[string]any{
		"at":      time.Now().UnixMilli(),
		"actions": rawBatch,
	}

	if err := service.audit.Append(ctx, constants.RedisPrefixActionLog+newAuditID(), record, constants.TTLActionLog); err != nil {
		service.log.WarnContext(ctx, "interactions_audit_failed", slog.Any("error", err))
	}
}

// # Moderation

// DeleteItem is one validated unit of an admin batch delete.
type DeleteItem struct {
	SeriesSlug string
	ChapterKey string
	CommentIDs []string
}

// DeleteResult is the per-item outcome of a batch delete.
type DeleteResult struct {
	SeriesSlug string `json:"seriesSlug"`
	Chapter    string `json:"chapter"`
	OK         bool   `json:"ok"`
	Deleted    *int   `json:"deleted,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// BatchDelete removes comments by id, one item at a time, so a multi-item
// batch can partially succeed. Invalid items are reported in the results,
// not as a request-level error; store failures abort the whole request.
func (service *Service) BatchDelete(ctx context.Context, items []DeleteItem, meta RequestMeta) ([]DeleteResult, error) {
	results := make([]DeleteResult, 0, len(items))

	for _, item := range items {
		seriesSlug := strings.TrimSpace(item.SeriesSlug)
		chapterKey := strings.TrimSpace(item.ChapterKey)
		ids := compactIDs(item.CommentIDs)

		if seriesSlug == "" || chapterKey == "" || len(ids) == 0 {
			results = append(results, DeleteResult{
				SeriesSlug: seriesSlug,
				Chapter:    chapterKey,
				Reason:     "payload invalide",
			})
			continue
		}

		idSet := make(map[string]bool, len(ids))
		for _, id := range ids {
			idSet[id] = true
		}

		var beforeCount, afterCount int
		err := service.store.Update(ctx, seriesSlug, func(blob Blob) (Blob, bool) {
			entry, ok := blob[chapterKey]
			if !ok || entry == nil || len(entry.Comments) == 0 {
				beforeCount, afterCount = 0, 0
				return blob, false
			}

			beforeCount = len(entry.Comments)
			kept := make([]Comment, 0, beforeCount)
			for _, comment := range entry.Comments {
				if !idSet[comment.ID] {
					kept = append(kept, comment)
				}
			}
			entry.Comments = kept
			afterCount = len(kept)
			return blob, true
		})
		if err != nil {
			return nil, err
		}

		if beforeCount > 0 {
			service.auditDeletion(ctx, seriesSlug, chapterKey, ids, beforeCount, afterCount, meta)
		}

		deleted := beforeCount - afterCount
		results = append(results, DeleteResult{
			SeriesSlug: seriesSlug,
			Chapter:    chapterKey,
			OK:         true,
			Deleted:    &deleted,
		})
	}

	return results, nil
}

// auditDeletion appends a deletion record with requester metadata. Retention
// is one year; failures are logged and swallowed.
func (service *Service) auditDeletion(ctx context.Context, seriesSlug, chapterKey string, ids []string, beforeCount, afterCount int, meta RequestMeta) {
	record := map[string]any{
		"type":          "delete",
		"at":            time.Now().UnixMilli(),
		"by":            service.adminName,
		"ip":            meta.IP,
		"userAgent":     meta.UserAgent,
		"seriesSlug":    seriesSlug,
		"chapterNumber": chapterKey,
		"deletedIds":    ids,
		"beforeCount":   beforeCount,
		"afterCount":    afterCount,
	}

	key := constants.RedisPrefixDeletionLog + seriesSlug + ":" + newAuditID()
	if err := service.audit.Append(ctx, key, record, constants.TTLDeletionLog); err != nil {
		service.log.WarnContext(ctx, "deletion_audit_failed", slog.Any("error", err))
	}
}

// compactIDs drops empty id strings from a client-supplied list.
func compactIDs(ids []string) []string {
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) != "" {
			kept = append(kept, id)
		}
	}
	return kept
}

// newAuditID returns a time-sortable unique suffix for audit keys.
func newAuditID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
