package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	authhandler "skyframe/internal/api/handlers/auth"
	"skyframe/internal/api/middleware"
	"skyframe/internal/atproto/session"
)

// RegisterSessionRoutes registers the login/logout endpoints on the router
func RegisterSessionRoutes(r chi.Router, sessions *session.Manager, cookies *middleware.CookieAuth, logger *slog.Logger) {
	handler := authhandler.NewHandler(sessions, cookies, logger)

	// Log in with an app password and bind the device cookie
	r.Post("/api/session", handler.HandleLogin)

	// Clear both the Bluesky session and the device cookie
	r.Delete("/api/session", handler.HandleLogout)
}
