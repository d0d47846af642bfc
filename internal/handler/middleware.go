package handler

import (
	"context"
	"net/http"

	"github.com/bigtree/storefront-inquiry-go/internal/domain"
	"github.com/bigtree/storefront-inquiry-go/internal/service"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionCookieName is the cookie carrying the caller's session ID.
const SessionCookieName = "inquiry_session"

// SessionMiddleware resolves the caller's session from the session cookie,
// minting a guest session (and setting the cookie) when none exists.
func SessionMiddleware(sessions *service.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sess domain.Session

			if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
				sess = sessions.Resolve(cookie.Value)
			} else {
				sess = sessions.NewGuestSession()
				setSessionCookie(w, sess.ID)
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext extracts the caller's session from context.
func SessionFromContext(ctx context.Context) domain.Session {
	v, _ := ctx.Value(sessionKey).(domain.Session)
	return v
}

func setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
