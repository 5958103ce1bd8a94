package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"skyframe/internal/api/handlers/interaction"
	"skyframe/internal/api/middleware"
	"skyframe/internal/core/interactions"
)

// RegisterInteractionRoutes registers like, repost and follow toggles on
// the router. All mutations require the device cookie.
func RegisterInteractionRoutes(r chi.Router, service interactions.Service, auth *middleware.CookieAuth, logger *slog.Logger) {
	handler := interaction.NewHandler(service, logger)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Post("/api/likes", handler.HandleLike)
		r.Delete("/api/likes", handler.HandleUnlike)

		r.Post("/api/reposts", handler.HandleRepost)
		r.Delete("/api/reposts", handler.HandleUnrepost)

		r.Post("/api/follows", handler.HandleFollow)
		r.Delete("/api/follows", handler.HandleUnfollow)
	})
}
