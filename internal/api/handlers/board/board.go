package board

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"skyframe/internal/api/middleware"
	"skyframe/internal/core/boards"
	"skyframe/internal/core/posts"
)

// Handler serves the board collection surface
type Handler struct {
	service boards.Service
	logger  *slog.Logger
}

// NewHandler creates the board handler
func NewHandler(service boards.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// HandleListBoards returns the caller's boards with hydrated posts
// GET /api/boards
func (h *Handler) HandleListBoards(w http.ResponseWriter, r *http.Request) {
	did := middleware.GetActorDID(r)
	if did == "" {
		writeError(w, http.StatusUnauthorized, "AuthenticationRequired", "Please log in")
		return
	}

	list, err := h.service.LoadBoards(r.Context(), did)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"boards": list})
}

type createBoardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"isPrivate"`
}

// HandleCreateBoard creates a new board
// POST /api/boards
func (h *Handler) HandleCreateBoard(w http.ResponseWriter, r *http.Request) {
	did := middleware.GetActorDID(r)
	if did == "" {
		writeError(w, http.StatusUnauthorized, "AuthenticationRequired", "Please log in")
		return
	}

	var req createBoardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	b, err := h.service.CreateBoard(r.Context(), did, req.Title, req.Description, req.IsPrivate)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// HandleUpdateBoard applies a partial board update
// PATCH /api/boards/{boardID}
func (h *Handler) HandleUpdateBoard(w http.ResponseWriter, r *http.Request) {
	var fields boards.BoardUpdate
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	b, err := h.service.UpdateBoard(r.Context(), chi.URLParam(r, "boardID"), fields)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// HandleDeleteBoard removes a board and all its saved posts
// DELETE /api/boards/{boardID}
func (h *Handler) HandleDeleteBoard(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteBoard(r.Context(), chi.URLParam(r, "boardID")); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetBoard returns a single cached board view
// GET /api/boards/{boardID}
func (h *Handler) HandleGetBoard(w http.ResponseWriter, r *http.Request) {
	b, ok := h.service.GetBoard(chi.URLParam(r, "boardID"))
	if !ok {
		writeError(w, http.StatusNotFound, "BoardNotFound", "Board not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// HandleSavePost saves a post to a board
// POST /api/boards/{boardID}/posts
func (h *Handler) HandleSavePost(w http.ResponseWriter, r *http.Request) {
	var p posts.Post
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.URI == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "A post with a uri is required")
		return
	}

	if err := h.service.SavePost(r.Context(), chi.URLParam(r, "boardID"), p); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRemovePost unsaves a post from a board
// DELETE /api/boards/{boardID}/posts?uri=...
func (h *Handler) HandleRemovePost(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "uri is required")
		return
	}

	if err := h.service.RemovePost(r.Context(), chi.URLParam(r, "boardID"), uri); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleBoardsWithPost returns which cached boards contain a post
// GET /api/saved?uri=...
func (h *Handler) HandleBoardsWithPost(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "uri is required")
		return
	}

	matches := h.service.BoardsWithPost(uri)
	ids := make([]string, 0, len(matches))
	for _, b := range matches {
		ids = append(ids, b.ID)
	}
	writeJSON(w, http.StatusOK, map[string]any{"boardIds": ids})
}
