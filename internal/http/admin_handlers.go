package httpapi

import (
	"net/http"

	"carepath-portal/internal/service"

	"go.uber.org/zap"
)

// AdminHandler serves /admin/api/v1/*. Every route requires an admin session;
// the services re-check on top of that.
type AdminHandler struct {
	users      service.UserService
	checklists service.ChecklistService
	templates  service.TemplateService
	insights   service.InsightsService
	content    service.ContentService
	sessions   *Sessions
	logger     *zap.Logger
}

func NewAdminHandler(
	users service.UserService,
	checklists service.ChecklistService,
	templates service.TemplateService,
	insights service.InsightsService,
	content service.ContentService,
	sessions *Sessions,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		users:      users,
		checklists: checklists,
		templates:  templates,
		insights:   insights,
		content:    content,
		sessions:   sessions,
		logger:     logger,
	}
}

// ============================================
// Users
// ============================================

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	users, err := h.users.ListUsers(r.Context(), actor, service.ListUsersRequest{
		Role:   q.Get("role"),
		Status: q.Get("status"),
		Search: q.Get("search"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(users))
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request, userID string) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	user, err := h.users.GetUser(r.Context(), actor, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(user))
}

func (h *AdminHandler) ApproveUser(w http.ResponseWriter, r *http.Request, userID string) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	user, err := h.users.ApproveUser(r.Context(), actor, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(user))
}

func (h *AdminHandler) RejectUser(w http.ResponseWriter, r *http.Request, userID string) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	user, err := h.users.RejectUser(r.Context(), actor, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(user))
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request, userID string) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	if err := h.users.DeleteUser(r.Context(), actor, userID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// ============================================
// Templates
// ============================================

func (h *AdminHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	templates, err := h.templates.ListTemplates(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(templates))
}

func (h *AdminHandler) GetTemplate(w http.ResponseWriter, r *http.Request, role string) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	tmpl, err := h.templates.GetTemplate(r.Context(), actor, role)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(tmpl))
}

func (h *AdminHandler) EnsureTemplate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	tmpl, err := h.templates.EnsureTemplate(r.Context(), actor, req.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(tmpl))
}

// SyncTemplate handles POST /admin/api/v1/templates/{role}/sync.
func (h *AdminHandler) SyncTemplate(w http.ResponseWriter, r *http.Request, role string) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	var req struct {
		UpdateContent bool `json:"updateContent"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	result, err := h.checklists.SyncTemplateToUsers(r.Context(), actor, service.SyncTemplateRequest{
		Role:          role,
		UpdateContent: req.UpdateContent,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(result))
}

type sectionBody struct {
	Role      string `json:"role"`
	SectionID string `json:"sectionId"`
	Title     string `json:"title"`
	SortOrder int    `json:"sortOrder"`
}

func (h *AdminHandler) AddSection(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	var req sectionBody
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	id, err := h.templates.AddSection(r.Context(), actor, service.AddSectionRequest{
		Role:      req.Role,
		Title:     req.Title,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"sectionId": id}))
}

func (h *AdminHandler) UpdateSection(w http.ResponseWriter, r *http.Request, sectionID string) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	var req sectionBody
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	err := h.templates.UpdateSection(r.Context(), actor, service.UpdateSectionRequest{
		SectionID: sectionID,
		Title:     req.Title,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *AdminHandler) DeleteSection(w http.ResponseWriter, r *http.Request, sectionID string) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	if err := h.templates.DeleteSection(r.Context(), actor, sectionID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

type itemBody struct {
	SectionID   string `json:"sectionId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	LinkURL     string `json:"linkUrl"`
	FileURL     string `json:"fileUrl"`
	DueInDays   *int   `json:"dueInDays"`
	SortOrder   int    `json:"sortOrder"`
}

func (h *AdminHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	var req itemBody
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	id, err := h.templates.AddItem(r.Context(), actor, service.AddItemRequest{
		SectionID:   req.SectionID,
		Title:       req.Title,
		Description: req.Description,
		LinkURL:     req.LinkURL,
		FileURL:     req.FileURL,
		DueInDays:   req.DueInDays,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"itemId": id}))
}

func (h *AdminHandler) UpdateItem(w http.ResponseWriter, r *http.Request, itemID string) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	var req itemBody
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	err := h.templates.UpdateItem(r.Context(), actor, service.UpdateItemRequest{
		ItemID:      itemID,
		Title:       req.Title,
		Description: req.Description,
		LinkURL:     req.LinkURL,
		FileURL:     req.FileURL,
		DueInDays:   req.DueInDays,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *AdminHandler) DeleteItem(w http.ResponseWriter, r *http.Request, itemID string) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	if err := h.templates.DeleteItem(r.Context(), actor, itemID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// ============================================
// Insights
// ============================================

func (h *AdminHandler) AtRiskUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	profiles, err := h.insights.IdentifyAtRiskUsers(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(profiles))
}

func (h *AdminHandler) Forecasts(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	forecasts, err := h.insights.ForecastCompletions(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(forecasts))
}

func (h *AdminHandler) Bottlenecks(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	bottlenecks, err := h.insights.RankBottlenecks(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(bottlenecks))
}

func (h *AdminHandler) RoleComparison(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	stats, err := h.insights.CompareRoles(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(stats))
}

// ============================================
// Content
// ============================================

func (h *AdminHandler) SaveFAQ(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	var req struct {
		FAQID     string `json:"faqId"`
		Question  string `json:"question"`
		Answer    string `json:"answer"`
		Category  string `json:"category"`
		SortOrder int    `json:"sortOrder"`
		Published bool   `json:"published"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	id, err := h.content.SaveFAQ(r.Context(), actor, service.SaveFAQRequest{
		FAQID:     req.FAQID,
		Question:  req.Question,
		Answer:    req.Answer,
		Category:  req.Category,
		SortOrder: req.SortOrder,
		Published: req.Published,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"faqId": id}))
}

func (h *AdminHandler) DeleteFAQ(w http.ResponseWriter, r *http.Request, faqID string) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	if err := h.content.DeleteFAQ(r.Context(), actor, faqID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *AdminHandler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	var req struct {
		DocumentID  string `json:"documentId"`
		Title       string `json:"title"`
		Description string `json:"description"`
		FileURL     string `json:"fileUrl"`
		Category    string `json:"category"`
		Published   bool   `json:"published"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	id, err := h.content.SaveDocument(r.Context(), actor, service.SaveDocumentRequest{
		DocumentID:  req.DocumentID,
		Title:       req.Title,
		Description: req.Description,
		FileURL:     req.FileURL,
		Category:    req.Category,
		Published:   req.Published,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"documentId": id}))
}

func (h *AdminHandler) DeleteDocument(w http.ResponseWriter, r *http.Request, documentID string) {
	actor, ok := h.sessions.AdminActor(w, r)
	if !ok {
		return
	}
	if err := h.content.DeleteDocument(r.Context(), actor, documentID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}
