package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	profilehandler "skyframe/internal/api/handlers/profile"
	"skyframe/internal/api/middleware"
	"skyframe/internal/core/profiles"
)

// RegisterProfileRoutes registers actor profile lookups on the router
func RegisterProfileRoutes(r chi.Router, service profiles.Service, auth *middleware.CookieAuth, logger *slog.Logger) {
	handler := profilehandler.NewHandler(service, logger)

	r.With(auth.RequireAuth).Get("/api/actors/{actor}", handler.HandleGetProfile)
}
