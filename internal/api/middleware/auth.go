package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/sessions"
)

// Context keys for storing request identity
type contextKey string

const actorDIDKey contextKey = "actor_did"

// cookieSessionName is the local UI cookie holding the bound actor
const cookieSessionName = "skyframe_session"

// CookieAuth binds HTTP requests to the device's authenticated Bluesky
// actor via a signed cookie set at login. This gates the local HTTP
// surface; Bluesky token auth itself lives in the session manager.
type CookieAuth struct {
	store *sessions.CookieStore
}

// NewCookieAuth creates the cookie-session middleware
func NewCookieAuth(secret string) *CookieAuth {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieAuth{store: store}
}

// Bind stores the actor DID in the cookie session after a login
func (a *CookieAuth) Bind(w http.ResponseWriter, r *http.Request, did string) error {
	sess, _ := a.store.Get(r, cookieSessionName)
	sess.Values["did"] = did
	return sess.Save(r, w)
}

// Unbind clears the cookie session at logout
func (a *CookieAuth) Unbind(w http.ResponseWriter, r *http.Request) error {
	sess, _ := a.store.Get(r, cookieSessionName)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// RequireAuth rejects requests with no bound actor and injects the DID
// into the request context
func (a *CookieAuth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := a.store.Get(r, cookieSessionName)
		if err != nil {
			http.Error(w, "Invalid session cookie", http.StatusUnauthorized)
			return
		}

		did, ok := sess.Values["did"].(string)
		if !ok || did == "" {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), actorDIDKey, did)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetActorDID returns the authenticated actor DID from the request
// context, or "" when the request is unauthenticated
func GetActorDID(r *http.Request) string {
	did, _ := r.Context().Value(actorDIDKey).(string)
	return did
}
