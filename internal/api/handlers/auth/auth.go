package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"skyframe/internal/api/middleware"
	"skyframe/internal/atproto/session"
)

// Handler serves login/logout for the local UI
type Handler struct {
	sessions *session.Manager
	cookies  *middleware.CookieAuth
	logger   *slog.Logger
}

// NewHandler creates the auth handler
func NewHandler(sessions *session.Manager, cookies *middleware.CookieAuth, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{sessions: sessions, cookies: cookies, logger: logger}
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResponse struct {
	DID    string `json:"did"`
	Handle string `json:"handle"`
}

// HandleLogin authenticates with Bluesky app-password credentials and
// binds the cookie session to the resulting actor
// POST /api/session
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "Malformed JSON body")
		return
	}

	sess, err := h.sessions.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		h.logger.Warn("login failed", "identifier", req.Identifier, "error", err)
		writeError(w, http.StatusUnauthorized, "LoginFailed", "Invalid identifier or password")
		return
	}

	if err := h.cookies.Bind(w, r, sess.DID); err != nil {
		h.logger.Error("failed to bind cookie session", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalServerError", "Failed to establish session")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{DID: sess.DID, Handle: sess.Handle})
}

// HandleLogout clears both the Bluesky session and the cookie binding
// DELETE /api/session
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		h.logger.Error("logout failed", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalServerError", "Failed to clear session")
		return
	}

	if err := h.cookies.Unbind(w, r); err != nil {
		h.logger.Warn("failed to clear cookie session", "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}
