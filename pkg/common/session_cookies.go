package common

import (
	"net/http"

	"github.com/google/uuid"
)

const sessionCookie = "sid"

func setSessionCookie(w http.ResponseWriter, r *http.Request, sessionId string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sessionId,
		SameSite: http.SameSiteNoneMode,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		MaxAge:   30 * 24 * 3600,
		Path:     "/",
	})
}

// HandleSessionCookie returns the session id of the request, creating and
// setting a new one when the sid cookie is missing or invalid.
func HandleSessionCookie(w http.ResponseWriter, r *http.Request) (string, bool) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err = uuid.Parse(c.Value); err == nil {
			return c.Value, false
		}
	}
	sessionId := uuid.New().String()
	setSessionCookie(w, r, sessionId)
	return sessionId, true
}
