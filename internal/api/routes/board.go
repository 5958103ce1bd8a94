package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	boardhandler "skyframe/internal/api/handlers/board"
	"skyframe/internal/api/middleware"
	"skyframe/internal/core/boards"
)

// RegisterBoardRoutes registers the board collection endpoints on the
// router. Boards belong to the authenticated actor, so every route
// requires the device cookie.
func RegisterBoardRoutes(r chi.Router, service boards.Service, auth *middleware.CookieAuth, logger *slog.Logger) {
	handler := boardhandler.NewHandler(service, logger)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		// List the caller's boards with hydrated posts
		r.Get("/api/boards", handler.HandleListBoards)

		// Create a board
		r.Post("/api/boards", handler.HandleCreateBoard)

		// Single board view from the cached load
		r.Get("/api/boards/{boardID}", handler.HandleGetBoard)

		// Partial board update
		r.Patch("/api/boards/{boardID}", handler.HandleUpdateBoard)

		// Delete a board and all its saved posts
		r.Delete("/api/boards/{boardID}", handler.HandleDeleteBoard)

		// Save a post to a board (idempotent)
		r.Post("/api/boards/{boardID}/posts", handler.HandleSavePost)

		// Unsave a post from a board (idempotent)
		r.Delete("/api/boards/{boardID}/posts", handler.HandleRemovePost)

		// Which boards contain a post
		r.Get("/api/saved", handler.HandleBoardsWithPost)
	})
}
