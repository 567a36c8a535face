package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/BRAITOU555/reservationvtc6/internal/booking/domain"
	"github.com/BRAITOU555/reservationvtc6/internal/common/contextx"
	"github.com/BRAITOU555/reservationvtc6/internal/common/log"
)

// handleServiceError maps the error taxonomy onto HTTP statuses.
func (h *Handler) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSONError(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidToken):
		writeJSONError(ctx, w, http.StatusBadRequest, "invalid or already-used verification token")
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNotVerified):
		writeJSONError(ctx, w, http.StatusBadRequest, "driver not found or not verified")
	case errors.Is(err, domain.ErrCredentials):
		writeJSONError(ctx, w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrCollaborator):
		log.Warn(ctx, h.logger, "collaborator_fault", "External collaborator failed", err)
		writeJSONError(ctx, w, http.StatusBadGateway, "external service unavailable")
	case errors.Is(err, domain.ErrPersistence):
		log.Error(ctx, h.logger, "persistence_fault", "Store read/write failed", err)
		writeJSONError(ctx, w, http.StatusInternalServerError, "internal server error")
	default:
		log.Error(ctx, h.logger, "internal_error", "Unhandled service error", err)
		writeJSONError(ctx, w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSONError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := map[string]any{
		"error":      message,
		"code":       status,
		"request_id": contextx.GetRequestID(ctx),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
