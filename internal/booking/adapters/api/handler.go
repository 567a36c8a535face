package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/BRAITOU555/reservationvtc6/internal/booking/app"
	"github.com/BRAITOU555/reservationvtc6/internal/common/contextx"
	"github.com/BRAITOU555/reservationvtc6/internal/common/log"
)

type Handler struct {
	svc    *app.Service
	logger *slog.Logger
}

// NewHandler constructs the API handler.
func NewHandler(svc *app.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Router wires all HTTP routes. wsHandler serves the push-channel upgrade
// endpoint; pass nil to skip it (tests).
func (h *Handler) Router(wsHandler http.HandlerFunc) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/reserve", h.reserve).Methods(http.MethodPost)
	r.HandleFunc("/reservations", h.listReservations).Methods(http.MethodGet)
	r.HandleFunc("/estimate", h.estimate).Methods(http.MethodPost)
	r.HandleFunc("/driver-register", h.registerDriver).Methods(http.MethodPost)
	r.HandleFunc("/verify-driver", h.verifyDriver).Methods(http.MethodGet)
	r.HandleFunc("/driver-profile", h.updateDriverProfile).Methods(http.MethodPost)
	r.HandleFunc("/register", h.registerAdmin).Methods(http.MethodPost)
	r.HandleFunc("/login", h.loginAdmin).Methods(http.MethodPost)
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	if wsHandler != nil {
		r.HandleFunc("/ws", wsHandler)
	}
	return r
}

func (h *Handler) reserve(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())
	start := time.Now()

	var req app.CreateReservationInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleDecodeError(ctx, w, err)
		return
	}

	res, err := h.svc.CreateReservation(ctx, req)
	if err != nil {
		h.handleServiceError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, res)
	log.Info(ctx, h.logger, "reserve_ok",
		fmt.Sprintf("reservation=%s duration_ms=%d", res.ID, time.Since(start).Milliseconds()))
}

func (h *Handler) listReservations(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())

	list, err := h.svc.ListReservations(ctx)
	if err != nil {
		h.handleServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, list)
}

func (h *Handler) estimate(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())

	var req app.EstimateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleDecodeError(ctx, w, err)
		return
	}

	quote, err := h.svc.EstimateFare(ctx, req)
	if err != nil {
		h.handleServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, quote)
}

type registerDriverResponse struct {
	Success  bool   `json:"success"`
	DriverID string `json:"driverId"`
	Notified bool   `json:"notified"`
	Message  string `json:"message"`
}

func (h *Handler) registerDriver(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())

	var req app.RegisterDriverInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleDecodeError(ctx, w, err)
		return
	}

	driver, notified, err := h.svc.RegisterDriver(ctx, req)
	if err != nil {
		h.handleServiceError(ctx, w, err)
		return
	}

	msg := "A verification email has been sent."
	if !notified {
		msg = "Account created, but the verification email could not be sent."
	}
	writeJSON(ctx, w, http.StatusOK, registerDriverResponse{
		Success:  true,
		DriverID: driver.ID,
		Notified: notified,
		Message:  msg,
	})
}

func (h *Handler) verifyDriver(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())

	token := r.URL.Query().Get("token")
	if _, err := h.svc.VerifyDriver(ctx, token); err != nil {
		h.handleServiceError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Driver account verified. You can now complete your profile.",
	})
}

func (h *Handler) updateDriverProfile(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())

	var req app.UpdateProfileInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleDecodeError(ctx, w, err)
		return
	}

	if _, err := h.svc.UpdateDriverProfile(ctx, req); err != nil {
		h.handleServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Driver profile updated",
	})
}

func (h *Handler) registerAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())

	var req app.AdminCredentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleDecodeError(ctx, w, err)
		return
	}

	admin, err := h.svc.RegisterAdmin(ctx, req)
	if err != nil {
		h.handleServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, map[string]any{
		"id":       admin.ID,
		"username": admin.Username,
	})
}

func (h *Handler) loginAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())

	var req app.AdminCredentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleDecodeError(ctx, w, err)
		return
	}

	token, err := h.svc.LoginAdmin(ctx, req)
	if err != nil {
		h.handleServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]any{"token": token})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleDecodeError distinguishes a non-numeric fare (the one type mismatch
// the original service called out explicitly) from generally bad JSON.
func (h *Handler) handleDecodeError(ctx context.Context, w http.ResponseWriter, err error) {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field == "discountedFare" {
		writeJSONError(ctx, w, http.StatusBadRequest, "Invalid discountedFare value")
		return
	}
	log.Warn(ctx, h.logger, "invalid_body", "Unable to decode request body", err)
	writeJSONError(ctx, w, http.StatusBadRequest, "invalid JSON body")
}
