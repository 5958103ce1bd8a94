package board

import (
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"

	"skyframe/internal/atproto/gateway"
	"skyframe/internal/atproto/session"
	"skyframe/internal/core/boards"
)

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, errorType, message string) {
	writeJSON(w, status, apiError{Error: errorType, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
	}
}

// handleServiceError maps board service errors to HTTP responses. Board
// loads hydrate posts through the gateway, so upstream and session errors
// surface here too.
func handleServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var valErr *boards.ValidationError
	switch {
	case errors.As(err, &valErr):
		writeError(w, http.StatusBadRequest, "ValidationError", valErr.Error())
	case errors.Is(err, boards.ErrBoardNotFound):
		writeError(w, http.StatusNotFound, "BoardNotFound", "Board not found")
	case errors.Is(err, session.ErrAuthenticationRequired):
		writeError(w, http.StatusUnauthorized, "AuthenticationRequired", "Please log in again")
	case errors.Is(err, gateway.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "RateLimited", "Upstream rate limit hit, try again shortly")
	case errors.Is(err, gateway.ErrNotFound):
		writeError(w, http.StatusNotFound, "NotFound", "The requested resource was not found")
	default:
		logger.Error("board request failed", "error", err)
		writeError(w, http.StatusBadGateway, "UpstreamError", "Failed to reach Bluesky")
	}
}
