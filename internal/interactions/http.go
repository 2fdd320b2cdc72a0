// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

package interactions

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/lesporoiniens/portal/internal/platform/apperr"
	"github.com/lesporoiniens/portal/internal/platform/middleware"
	requestutil "github.com/lesporoiniens/portal/internal/platform/request"
	"github.com/lesporoiniens/portal/internal/platform/respond"
)

// maxBatchBytes bounds an interaction batch body.
const maxBatchBytes = 1 << 20

// Handler serves the public interaction endpoints.
type Handler struct {
	service *Service
}

// NewHandler wires the interaction endpoints.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// LogAction handles POST /api/log-action.
//
// The body is normalized at the boundary (multiple historical shapes) and
// applied as one batch. Responses keep the pre-existing contract: bare
// {success: true} on success, {error: ...} with French messages otherwise.
func (handler *Handler) LogAction(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Access-Control-Allow-Origin", "*")

	body, err := io.ReadAll(io.LimitReader(request.Body, maxBatchBytes))
	if err != nil {
		respond.JSON(writer, http.StatusBadRequest, map[string]string{"error": "Données invalides (actions manquantes)."})
		return
	}

	// A batch whose actions all get skipped (unhandled types, missing
	// chapter keys) is a no-op, not an error, as long as a series slug was
	// present somewhere: deployed clients send such batches and expect
	// success. Rejection is reserved for bodies with no actions at all, or
	// whose actions never named a series.
	actions, slugSeen := NormalizeBatch(body)
	if len(actions) == 0 && !slugSeen {
		if hasAnyAction(body) {
			respond.JSON(writer, http.StatusBadRequest, map[string]string{"error": "seriesSlug manquant."})
			return
		}
		respond.JSON(writer, http.StatusBadRequest, map[string]string{"error": "Données invalides (actions manquantes)."})
		return
	}

	if err := handler.service.Apply(request.Context(), actions, body); err != nil {
		respond.JSON(writer, http.StatusInternalServerError, map[string]string{"error": "Erreur interne du serveur."})
		return
	}

	respond.JSON(writer, http.StatusOK, map[string]bool{"success": true})
}

// GetSeries handles GET /api/interactions?series=<slug>.
//
// It returns the raw blob so client renderers can hydrate like counters and
// comment lists without parsing injected HTML.
func (handler *Handler) GetSeries(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Access-Control-Allow-Origin", "*")

	seriesSlug := requestutil.Query(request, "series")
	if seriesSlug == "" {
		respond.Error(writer, request, apperr.ValidationError("Missing series parameter",
			apperr.FieldError{Field: "series", Message: "This field is required"}))
		return
	}

	blob, err := handler.service.Series(request.Context(), seriesSlug)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusOK, blob)
}

// # Admin Surface

// AdminHandler serves the authenticated moderation endpoints. The bearer
// gate is applied where these routes are mounted, before any processing.
type AdminHandler struct {
	service *Service
}

// NewAdminHandler wires the moderation endpoints.
func NewAdminHandler(service *Service) *AdminHandler {
	return &AdminHandler{service: service}
}

// deleteItemPayload mirrors one client-supplied deletion unit.
type deleteItemPayload struct {
	SeriesSlug    string     `json:"seriesSlug"`
	ChapterNumber flexString `json:"chapterNumber"`
	CommentIDs    []string   `json:"commentIds"`
}

// deleteRequest accepts either a single deletion or a batch of them.
type deleteRequest struct {
	Items []deleteItemPayload `json:"items"`

	// Single-item shape, used when Items is absent.
	deleteItemPayload
}

// BatchDelete handles POST /api/admin/batch-delete.
func (handler *AdminHandler) BatchDelete(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Access-Control-Allow-Origin", "*")

	payload := deleteRequest{}
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.JSON(writer, http.StatusInternalServerError, map[string]any{"ok": false, "error": "Server error"})
		return
	}

	items := payload.Items
	if items == nil {
		items = []deleteItemPayload{payload.deleteItemPayload}
	}

	deleteItems := make([]DeleteItem, 0, len(items))
	for _, item := range items {
		deleteItems = append(deleteItems, DeleteItem{
			SeriesSlug: item.SeriesSlug,
			ChapterKey: string(item.ChapterNumber),
			CommentIDs: item.CommentIDs,
		})
	}

	meta := RequestMeta{
		IP:        middleware.RealIP(request),
		UserAgent: request.UserAgent(),
	}

	results, err := handler.service.BatchDelete(request.Context(), deleteItems, meta)
	if err != nil {
		respond.JSON(writer, http.StatusInternalServerError, map[string]any{"ok": false, "error": "Server error"})
		return
	}

	respond.JSON(writer, http.StatusOK, map[string]any{"ok": true, "results": results})
}

// hasAnyAction reports whether the body carried actions in any accepted
// shape, regardless of whether they were attributable to a series.
func hasAnyAction(body []byte) bool {
	envelope := batchEnvelope{}
	if err := json.Unmarshal(body, &envelope); err == nil {
		return len(envelope.Actions) > 0 || envelope.Action != nil
	}

	var bare []rawAction
	return json.Unmarshal(body, &bare) == nil && len(bare) > 0
}
