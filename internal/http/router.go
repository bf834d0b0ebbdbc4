package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router wraps the standard library http.ServeMux; path parameters are
// trimmed by hand rather than pulling in a routing dependency.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func methodOnly(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// pathID extracts the single trailing segment after prefix, rejecting
// nested paths. Empty string means no match.
func pathID(path, prefix string) string {
	id := strings.TrimPrefix(path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}

// RegisterAuthRoutes wires /auth/api/v1/*.
func (r *Router) RegisterAuthRoutes(h *AuthHandler) {
	r.Handle("/auth/api/v1/register", methodOnly(http.MethodPost, h.Register))
	r.Handle("/auth/api/v1/login", methodOnly(http.MethodPost, h.Login))
	r.Handle("/auth/api/v1/logout", methodOnly(http.MethodPost, h.Logout))
	r.Handle("/auth/api/v1/me", methodOnly(http.MethodGet, h.Me))
	r.Handle("/auth/api/v1/forgot-password", methodOnly(http.MethodPost, h.ForgotPassword))
	r.Handle("/auth/api/v1/reset-password", methodOnly(http.MethodPost, h.ResetPassword))
	r.Handle("/auth/api/v1/verify-email", methodOnly(http.MethodPost, h.VerifyEmail))
}

// RegisterPortalRoutes wires /portal/api/v1/*.
func (r *Router) RegisterPortalRoutes(h *PortalHandler) {
	r.Handle("/portal/api/v1/checklist", methodOnly(http.MethodGet, h.GetChecklist))

	// checklist/items/{id}/status
	r.Handle("/portal/api/v1/checklist/items/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/portal/api/v1/checklist/items/")
		itemID, ok := strings.CutSuffix(rest, "/status")
		if !ok || itemID == "" || strings.Contains(itemID, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if req.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.UpdateItemStatus(w, req, itemID)
	})

	r.Handle("/portal/api/v1/profile", methodOnly(http.MethodPut, h.UpdateProfile))
	r.Handle("/portal/api/v1/search", methodOnly(http.MethodGet, h.Search))
	r.Handle("/portal/api/v1/checklist/export", methodOnly(http.MethodGet, h.ExportChecklist))
	r.Handle("/portal/api/v1/faqs", methodOnly(http.MethodGet, h.ListFAQs))
	r.Handle("/portal/api/v1/documents", methodOnly(http.MethodGet, h.ListDocuments))
}

// RegisterAdminRoutes wires /admin/api/v1/*.
func (r *Router) RegisterAdminRoutes(h *AdminHandler) {
	r.Handle("/admin/api/v1/users", methodOnly(http.MethodGet, h.ListUsers))
	r.Handle("/admin/api/v1/users/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/admin/api/v1/users/")
		switch {
		case strings.HasSuffix(rest, "/approve"):
			if req.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.ApproveUser(w, req, strings.TrimSuffix(rest, "/approve"))
		case strings.HasSuffix(rest, "/reject"):
			if req.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.RejectUser(w, req, strings.TrimSuffix(rest, "/reject"))
		case rest != "" && !strings.Contains(rest, "/"):
			switch req.Method {
			case http.MethodGet:
				h.GetUser(w, req, rest)
			case http.MethodDelete:
				h.DeleteUser(w, req, rest)
			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	r.Handle("/admin/api/v1/templates", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.ListTemplates(w, req)
		case http.MethodPost:
			h.EnsureTemplate(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	r.Handle("/admin/api/v1/templates/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/admin/api/v1/templates/")
		switch {
		case strings.HasSuffix(rest, "/sync"):
			if req.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.SyncTemplate(w, req, strings.TrimSuffix(rest, "/sync"))
		case rest != "" && !strings.Contains(rest, "/"):
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.GetTemplate(w, req, rest)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	r.Handle("/admin/api/v1/sections", methodOnly(http.MethodPost, h.AddSection))
	r.Handle("/admin/api/v1/sections/", func(w http.ResponseWriter, req *http.Request) {
		sectionID := pathID(req.URL.Path, "/admin/api/v1/sections/")
		if sectionID == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch req.Method {
		case http.MethodPut:
			h.UpdateSection(w, req, sectionID)
		case http.MethodDelete:
			h.DeleteSection(w, req, sectionID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	r.Handle("/admin/api/v1/items", methodOnly(http.MethodPost, h.AddItem))
	r.Handle("/admin/api/v1/items/", func(w http.ResponseWriter, req *http.Request) {
		itemID := pathID(req.URL.Path, "/admin/api/v1/items/")
		if itemID == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch req.Method {
		case http.MethodPut:
			h.UpdateItem(w, req, itemID)
		case http.MethodDelete:
			h.DeleteItem(w, req, itemID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	r.Handle("/admin/api/v1/insights/at-risk", methodOnly(http.MethodGet, h.AtRiskUsers))
	r.Handle("/admin/api/v1/insights/forecast", methodOnly(http.MethodGet, h.Forecasts))
	r.Handle("/admin/api/v1/insights/bottlenecks", methodOnly(http.MethodGet, h.Bottlenecks))
	r.Handle("/admin/api/v1/insights/roles", methodOnly(http.MethodGet, h.RoleComparison))

	r.Handle("/admin/api/v1/faqs", methodOnly(http.MethodPost, h.SaveFAQ))
	r.Handle("/admin/api/v1/faqs/", func(w http.ResponseWriter, req *http.Request) {
		faqID := pathID(req.URL.Path, "/admin/api/v1/faqs/")
		if faqID == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if req.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.DeleteFAQ(w, req, faqID)
	})

	r.Handle("/admin/api/v1/documents", methodOnly(http.MethodPost, h.SaveDocument))
	r.Handle("/admin/api/v1/documents/", func(w http.ResponseWriter, req *http.Request) {
		documentID := pathID(req.URL.Path, "/admin/api/v1/documents/")
		if documentID == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if req.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.DeleteDocument(w, req, documentID)
	})
}
