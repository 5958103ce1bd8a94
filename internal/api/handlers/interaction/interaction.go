package interaction

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"skyframe/internal/core/interactions"
)

// Handler serves the like/repost/follow toggle surface
type Handler struct {
	service interactions.Service
	logger  *slog.Logger
}

// NewHandler creates the interaction handler
func NewHandler(service interactions.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

type postRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

type actorRef struct {
	DID string `json:"did"`
}

// HandleLike likes a post
// POST /api/likes {uri, cid}
func (h *Handler) HandleLike(w http.ResponseWriter, r *http.Request) {
	var ref postRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil || ref.URI == "" || ref.CID == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "uri and cid are required")
		return
	}

	if err := h.service.LikePost(r.Context(), ref.URI, ref.CID); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleState(h.service, interactions.KindLike, ref.URI))
}

// HandleUnlike removes a like
// DELETE /api/likes?uri=...
func (h *Handler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "uri is required")
		return
	}

	if err := h.service.UnlikePost(r.Context(), uri); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleState(h.service, interactions.KindLike, uri))
}

// HandleRepost reposts a post
// POST /api/reposts {uri, cid}
func (h *Handler) HandleRepost(w http.ResponseWriter, r *http.Request) {
	var ref postRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil || ref.URI == "" || ref.CID == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "uri and cid are required")
		return
	}

	if err := h.service.RepostPost(r.Context(), ref.URI, ref.CID); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleState(h.service, interactions.KindRepost, ref.URI))
}

// HandleUnrepost removes a repost
// DELETE /api/reposts?uri=...
func (h *Handler) HandleUnrepost(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "uri is required")
		return
	}

	if err := h.service.UnrepostPost(r.Context(), uri); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleState(h.service, interactions.KindRepost, uri))
}

// HandleFollow follows an actor
// POST /api/follows {did}
func (h *Handler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	var ref actorRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil || ref.DID == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "did is required")
		return
	}

	if err := h.service.FollowUser(r.Context(), ref.DID); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleState(h.service, interactions.KindFollow, ref.DID))
}

// HandleUnfollow unfollows an actor
// DELETE /api/follows?did=...
func (h *Handler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	did := r.URL.Query().Get("did")
	if did == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "did is required")
		return
	}

	if err := h.service.UnfollowUser(r.Context(), did); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleState(h.service, interactions.KindFollow, did))
}

type stateResponse struct {
	Active    bool   `json:"active"`
	RecordURI string `json:"recordUri,omitempty"`
}

func toggleState(s interactions.Service, kind interactions.Kind, subject string) stateResponse {
	return stateResponse{
		Active:    s.Active(kind, subject),
		RecordURI: s.RecordURI(kind, subject),
	}
}
