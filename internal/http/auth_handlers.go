package httpapi

import (
	"net/http"

	"carepath-portal/internal/service"

	"go.uber.org/zap"
)

// AuthHandler serves /auth/api/v1/*.
type AuthHandler struct {
	auth     service.AuthService
	sessions *Sessions
	logger   *zap.Logger
}

func NewAuthHandler(auth service.AuthService, sessions *Sessions, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions, logger: logger}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Role      string `json:"role"`
		Phone     string `json:"phone"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	resp, err := h.auth.Register(r.Context(), service.RegisterRequest{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		Phone:     req.Phone,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"userId": resp.UserID}))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	resp, err := h.auth.Login(r.Context(), service.LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		h.logger.Warn("Login rejected", zap.String("ip_address", r.RemoteAddr), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"token":  resp.SessionToken,
		"userId": resp.Actor.UserID,
		"role":   resp.Actor.Role,
		"email":  resp.Actor.Email,
	}))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), bearerToken(r)); err != nil {
		writeJSON(w, http.StatusOK, Fail("logout failed"))
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.sessions.Actor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, Ok(actor))
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	// Always succeeds from the client's point of view.
	if err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.logger.Warn("Password reset request failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	if err := h.auth.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	_ = readBodyJSON(r, 1<<20, &req)
	if req.Token == "" {
		req.Token = r.URL.Query().Get("token")
	}
	if err := h.auth.VerifyEmail(r.Context(), req.Token); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}
