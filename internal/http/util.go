package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"carepath-portal/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// bearerToken extracts the session token from the Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(h)
}

// writeServiceError maps service sentinels onto the failure envelope.
// Business failures stay HTTP 200 so the front-end envelope handling is
// uniform; only missing/expired sessions get a real 401.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		writeJSON(w, http.StatusForbidden, Fail("forbidden"))
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Fail("not found"))
	case errors.Is(err, service.ErrTemplateNotFound):
		writeJSON(w, http.StatusNotFound, Fail(service.ErrTemplateNotFound.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, Fail("invalid input"))
	default:
		writeJSON(w, http.StatusOK, Fail(err.Error()))
	}
}
