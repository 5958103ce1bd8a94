package interaction

import (
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"

	"skyframe/internal/atproto/gateway"
	"skyframe/internal/atproto/session"
	"skyframe/internal/core/interactions"
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

// handleServiceError maps interaction errors to HTTP responses
func handleServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, interactions.ErrInvalidCID):
		writeError(w, http.StatusBadRequest, "InvalidCID", "The post CID is not a valid content identifier")
	case errors.Is(err, interactions.ErrOperationInProgress):
		writeError(w, http.StatusConflict, "OperationInProgress", "A request for this subject is already in flight")
	case errors.Is(err, interactions.ErrAlreadyActive):
		writeError(w, http.StatusConflict, "AlreadyActive", "This interaction is already active")
	case errors.Is(err, interactions.ErrNoRecord):
		writeError(w, http.StatusConflict, "NoRecord", "No record URI is known for this interaction")
	case errors.Is(err, session.ErrAuthenticationRequired):
		writeError(w, http.StatusUnauthorized, "AuthenticationRequired", "Please log in again")
	case errors.Is(err, gateway.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "RateLimited", "Upstream rate limit hit, try again shortly")
	case errors.Is(err, gateway.ErrNotFound):
		writeError(w, http.StatusNotFound, "NotFound", "The requested resource was not found")
	default:
		logger.Error("interaction request failed", "error", err)
		writeError(w, http.StatusBadGateway, "UpstreamError", "Failed to reach Bluesky")
	}
}
