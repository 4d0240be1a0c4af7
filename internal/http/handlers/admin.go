// Package handlers hosts the staff-facing admin endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/devdanielvaldez/autoclinic-bot/internal/bookings"
	"github.com/devdanielvaldez/autoclinic-bot/internal/confirmation"
	"github.com/devdanielvaldez/autoclinic-bot/internal/operator"
	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

// PauseController forces the hand-off flag of a customer.
type PauseController interface {
	ForcePause(ctx context.Context, phone string, paused bool) (string, error)
	ListPaused(ctx context.Context) ([]string, error)
}

// BookingAdmin is the staff view of bookings.
type BookingAdmin interface {
	Lookup(ctx context.Context, code string) (*bookings.Booking, error)
	SetStatus(ctx context.Context, code string, status bookings.Status) error
}

// AdminHandler serves /admin routes. Authentication is applied by the router.
type AdminHandler struct {
	pauses   PauseController
	bookings BookingAdmin
	logger   *logging.Logger
}

func NewAdminHandler(pauses PauseController, bookingAdmin BookingAdmin, logger *logging.Logger) *AdminHandler {
	if pauses == nil {
		panic("handlers: pause controller cannot be nil")
	}
	if bookingAdmin == nil {
		panic("handlers: booking admin cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{pauses: pauses, bookings: bookingAdmin, logger: logger}
}

// ListPaused handles GET /admin/paused.
func (h *AdminHandler) ListPaused(w http.ResponseWriter, r *http.Request) {
	ids, err := h.pauses.ListPaused(r.Context())
	if err != nil {
		h.logger.Error("failed to list paused sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list paused sessions")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"paused": ids})
}

// Pause handles POST /admin/sessions/{phone}/pause.
func (h *AdminHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.setPaused(w, r, true)
}

// Resume handles POST /admin/sessions/{phone}/resume.
func (h *AdminHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.setPaused(w, r, false)
}

func (h *AdminHandler) setPaused(w http.ResponseWriter, r *http.Request, paused bool) {
	id, err := h.pauses.ForcePause(r.Context(), chi.URLParam(r, "phone"), paused)
	if errors.Is(err, operator.ErrInvalidPhone) {
		writeError(w, http.StatusBadRequest, "invalid phone number")
		return
	}
	if err != nil {
		h.logger.Error("failed to update pause flag", "error", err, "paused", paused)
		writeError(w, http.StatusInternalServerError, "failed to update session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": id, "paused": paused})
}

// GetBooking handles GET /admin/bookings/{code}.
func (h *AdminHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	code, ok := codeParam(w, r)
	if !ok {
		return
	}
	b, err := h.bookings.Lookup(r.Context(), code)
	switch {
	case errors.Is(err, bookings.ErrNotFound):
		writeError(w, http.StatusNotFound, "booking not found")
	case err != nil:
		h.logger.Error("booking lookup failed", "error", err, "code", code)
		writeError(w, http.StatusInternalServerError, "failed to load booking")
	default:
		writeJSON(w, http.StatusOK, b)
	}
}

type statusRequest struct {
	Status bookings.Status `json:"status"`
}

// UpdateBookingStatus handles PATCH /admin/bookings/{code}/status.
func (h *AdminHandler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	code, ok := codeParam(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	err := h.bookings.SetStatus(r.Context(), code, req.Status)
	switch {
	case errors.Is(err, bookings.ErrNotFound):
		writeError(w, http.StatusNotFound, "booking not found")
	case err != nil:
		h.logger.Error("booking status update failed", "error", err, "code", code)
		writeError(w, http.StatusInternalServerError, "failed to update booking")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"confirmation_number": code, "status": req.Status})
	}
}

func codeParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "code"))
	if !confirmation.LooksLikeCode(raw) {
		writeError(w, http.StatusBadRequest, "invalid confirmation code")
		return "", false
	}
	return confirmation.Normalize(raw), true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
