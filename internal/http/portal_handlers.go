package httpapi

import (
	"fmt"
	"net/http"

	"carepath-portal/internal/service"

	"go.uber.org/zap"
)

// PortalHandler serves /portal/api/v1/*: the logged-in user's own checklist,
// profile, search, export and reference content.
type PortalHandler struct {
	checklists service.ChecklistService
	users      service.UserService
	search     service.SearchService
	export     service.ExportService
	content    service.ContentService
	sessions   *Sessions
	logger     *zap.Logger
}

func NewPortalHandler(
	checklists service.ChecklistService,
	users service.UserService,
	search service.SearchService,
	export service.ExportService,
	content service.ContentService,
	sessions *Sessions,
	logger *zap.Logger,
) *PortalHandler {
	return &PortalHandler{
		checklists: checklists,
		users:      users,
		search:     search,
		export:     export,
		content:    content,
		sessions:   sessions,
		logger:     logger,
	}
}

func (h *PortalHandler) GetChecklist(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.sessions.Actor(w, r)
	if !ok {
		return
	}
	resp, err := h.checklists.GetMyChecklist(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// UpdateItemStatus handles PUT /portal/api/v1/checklist/items/{id}/status.
func (h *PortalHandler) UpdateItemStatus(w http.ResponseWriter, r *http.Request, itemID string) {
	actor, ok := h.sessions.Actor(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	resp, err := h.checklists.UpdateItemStatus(r.Context(), actor, service.UpdateItemStatusRequest{
		ItemID: itemID,
		Status: req.Status,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *PortalHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.sessions.Actor(w, r)
	if !ok {
		return
	}
	var req struct {
		UserID    string  `json:"userId"`
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
		Phone     *string `json:"phone"`
		Role      *string `json:"role"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	dto, err := h.users.UpdateProfile(r.Context(), actor, service.UpdateProfileRequest{
		UserID:    req.UserID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      req.Role,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(dto))
}

func (h *PortalHandler) Search(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.sessions.Actor(w, r)
	if !ok {
		return
	}
	results, err := h.search.Search(r.Context(), actor, r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(results))
}

// ExportChecklist streams the checklist snapshot as a download. Unlike the
// JSON endpoints, failures here are plain HTTP statuses.
func (h *PortalHandler) ExportChecklist(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.sessions.Actor(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = service.ExportFormatCSV
	}
	result, err := h.export.ExportChecklist(r.Context(), actor, r.URL.Query().Get("userId"), format)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		h.logger.Warn("Export write failed", zap.Error(err))
	}
}

func (h *PortalHandler) ListFAQs(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.sessions.Actor(w, r)
	if !ok {
		return
	}
	faqs, err := h.content.ListFAQs(r.Context(), actor.IsAdmin())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(faqs))
}

func (h *PortalHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.sessions.Actor(w, r)
	if !ok {
		return
	}
	docs, err := h.content.ListDocuments(r.Context(), actor.IsAdmin())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(docs))
}
