package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lashbook/lashbook/internal/availability"
	"github.com/lashbook/lashbook/internal/model"
)

type AvailabilityHandler struct {
	appointments AppointmentStore
	blackouts    BlackoutStore
	settings     model.BookingSettings
	logger       *slog.Logger
}

func NewAvailabilityHandler(appointments AppointmentStore, blackouts BlackoutStore, settings model.BookingSettings, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{appointments: appointments, blackouts: blackouts, settings: settings, logger: logger}
}

// Slots returns the occupied slot labels for one calendar day, so the
// booking page can grey them out. The day boundary is the business
// timezone's midnight, not UTC's.
func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		http.Error(w, "date query parameter is required", http.StatusBadRequest)
		return
	}
	day, err := time.ParseInLocation("2006-01-02", date, h.settings.Location)
	if err != nil {
		http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	dayStart := day
	dayEnd := day.AddDate(0, 0, 1)

	ctx := r.Context()
	appointments, err := h.appointments.ListOccupyingOn(ctx, dayStart, dayEnd)
	if err != nil {
		h.logger.Error("occupying appointments query failed", "date", date, "err", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	blackouts, err := h.blackouts.ListOn(ctx, date)
	if err != nil {
		h.logger.Error("blackouts query failed", "date", date, "err", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	labels, err := availability.OccupiedSlots(h.settings, appointments, blackouts)
	if err != nil {
		if errors.Is(err, availability.ErrInvalidConfiguration) {
			http.Error(w, "invalid booking configuration", http.StatusBadRequest)
			return
		}
		h.logger.Error("slot computation failed", "date", date, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dataEnvelope{Data: labels})
}
