package httpapi

import (
	"net/http"

	"carepath-portal/internal/domain"
	"carepath-portal/internal/service"

	"go.uber.org/zap"
)

// Sessions resolves the Bearer token on a request to the acting principal.
type Sessions struct {
	auth   service.AuthService
	logger *zap.Logger
}

func NewSessions(auth service.AuthService, logger *zap.Logger) *Sessions {
	return &Sessions{auth: auth, logger: logger}
}

// Actor resolves the request's session. On failure it writes the 401
// envelope and returns ok=false; the handler must return immediately.
func (s *Sessions) Actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, err := s.auth.CurrentUser(r.Context(), bearerToken(r))
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, SessionExpired())
		return domain.Actor{}, false
	}
	return actor, true
}

// AdminActor is Actor plus an admin-role check.
func (s *Sessions) AdminActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := s.Actor(w, r)
	if !ok {
		return domain.Actor{}, false
	}
	if !actor.IsAdmin() {
		writeJSON(w, http.StatusForbidden, Fail("forbidden"))
		return domain.Actor{}, false
	}
	return actor, true
}
