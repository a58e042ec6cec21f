package http

import (
	"net/http"

	"github.com/google/uuid"

	"mathtoys-quiz/internal/domain"
)

// DefaultCookieName names the cookie carrying the caller's session id.
const DefaultCookieName = "quiz_session"

// sessionID returns the caller's session id, or ErrSessionNotFound.
func (h *Handler) sessionID(r *http.Request) (string, error) {
	c, err := r.Cookie(h.cookieName)
	if err != nil || c.Value == "" {
		return "", domain.ErrSessionNotFound
	}
	return c.Value, nil
}

// ensureSession reuses the caller's session id or issues a new one.
func (h *Handler) ensureSession(w http.ResponseWriter, r *http.Request) string {
	if id, err := h.sessionID(r); err == nil {
		return id
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
