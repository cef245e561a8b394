package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/duet-app/duet/internal/auth"
	"github.com/duet-app/duet/internal/store"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "duet_session"

// RequireAuth validates the session cookie and populates AuthContext.
// This is a JSON API, so unauthenticated requests get a 401 body rather
// than a redirect.
func RequireAuth(sessionStore *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessionStore.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			ac := auth.AuthContext{
				ProfileID: sess.ProfileID,
				SessionID: sess.ID,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "not authenticated"})
}
