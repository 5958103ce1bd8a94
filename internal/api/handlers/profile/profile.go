package profile

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"skyframe/internal/core/profiles"
)

// Handler serves actor profile lookups
type Handler struct {
	service profiles.Service
	logger  *slog.Logger
}

// NewHandler creates the profile handler
func NewHandler(service profiles.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// HandleGetProfile looks up an actor by handle or DID
// GET /api/actors/{actor}
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	actor := chi.URLParam(r, "actor")
	if actor == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "actor is required")
		return
	}

	p, err := h.service.GetProfile(r.Context(), actor)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
