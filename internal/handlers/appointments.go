package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lashbook/lashbook/internal/model"
	"github.com/lashbook/lashbook/internal/outbox"
	"github.com/lashbook/lashbook/internal/storage"
)

type AppointmentHandler struct {
	store     AppointmentStore
	events    EventRecorder
	lifecycle Lifecycle
	logger    *slog.Logger
}

func NewAppointmentHandler(store AppointmentStore, events EventRecorder, lifecycle Lifecycle, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{store: store, events: events, lifecycle: lifecycle, logger: logger}
}

type createAppointmentRequest struct {
	ClientName  string              `json:"client_name"`
	ClientEmail string              `json:"client_email"`
	ClientPhone string              `json:"client_phone"`
	ScheduledAt string              `json:"scheduled_at"`
	Services    []model.ServiceItem `json:"services"`
	StaffID     string              `json:"staff_id"`
	Status      string              `json:"status"`
}

type updateAppointmentRequest struct {
	ID          string               `json:"id"`
	ScheduledAt *string              `json:"scheduled_at"`
	Status      *string              `json:"status"`
	StaffID     *string              `json:"staff_id"`
	Services    *[]model.ServiceItem `json:"services"`
	Published   *bool                `json:"published"`
}

type appointmentResponse struct {
	ID          string              `json:"id"`
	ClientName  string              `json:"client_name"`
	ClientEmail string              `json:"client_email"`
	ClientPhone string              `json:"client_phone,omitempty"`
	ScheduledAt string              `json:"scheduled_at"`
	Services    []model.ServiceItem `json:"services"`
	StaffID     string              `json:"staff_id,omitempty"`
	Status      string              `json:"status"`
	PublishedAt string              `json:"published_at,omitempty"`
	CreatedAt   string              `json:"created_at"`
}

func toAppointmentResponse(a model.Appointment) appointmentResponse {
	resp := appointmentResponse{
		ID:          a.ID,
		ClientName:  a.ClientName,
		ClientEmail: a.ClientEmail,
		ClientPhone: a.ClientPhone,
		ScheduledAt: a.ScheduledAt.UTC().Format(time.RFC3339),
		Services:    a.Services,
		StaffID:     a.StaffID,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.PublishedAt != nil {
		resp.PublishedAt = a.PublishedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// Create books a new appointment. Clients entering the deposit flow create
// Pending rows; admin-created rows may enter directly in an active status,
// which is the only creation that notifies.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req.ClientName = strings.TrimSpace(req.ClientName)
	req.ClientEmail = strings.TrimSpace(req.ClientEmail)
	if req.ClientName == "" || req.ClientEmail == "" {
		http.Error(w, "client_name and client_email are required", http.StatusBadRequest)
		return
	}
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		http.Error(w, "invalid scheduled_at", http.StatusBadRequest)
		return
	}

	status := model.StatusPending
	if req.Status != "" {
		status = model.Status(req.Status)
		if !status.Valid() {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
	}

	appt := model.Appointment{
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		ClientPhone: strings.TrimSpace(req.ClientPhone),
		ScheduledAt: scheduledAt.UTC(),
		Services:    req.Services,
		StaffID:     strings.TrimSpace(req.StaffID),
		Status:      status,
	}
	if status != model.StatusPending {
		now := time.Now().UTC()
		appt.PublishedAt = &now
	}

	ctx := r.Context()
	created, err := h.store.Create(ctx, appt)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			http.Error(w, "an active appointment already exists for this client and time", http.StatusConflict)
			return
		}
		h.logger.Error("appointment create failed", "err", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	h.recordEvent(r, "appointment.created", created)
	h.lifecycle.AfterCreate(created)

	writeJSON(w, http.StatusCreated, dataEnvelope{Data: toAppointmentResponse(created)})
}

// Update applies a partial change to an existing appointment. The current
// row is captured before the write so the notifier can classify the
// transition.
func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req updateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	current, err := h.store.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("appointment load failed", "appointment_id", req.ID, "err", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	next := current
	if req.ScheduledAt != nil {
		at, err := time.Parse(time.RFC3339, *req.ScheduledAt)
		if err != nil {
			http.Error(w, "invalid scheduled_at", http.StatusBadRequest)
			return
		}
		next.ScheduledAt = at.UTC()
	}
	if req.Status != nil {
		status := model.Status(*req.Status)
		if !status.Valid() {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
		next.Status = status
	}
	if req.StaffID != nil {
		next.StaffID = strings.TrimSpace(*req.StaffID)
	}
	if req.Services != nil {
		next.Services = *req.Services
	}
	if req.Published != nil {
		if *req.Published && next.PublishedAt == nil {
			now := time.Now().UTC()
			next.PublishedAt = &now
		} else if !*req.Published {
			next.PublishedAt = nil
		}
	}

	h.lifecycle.RecordBefore(current)

	updated, err := h.store.Update(ctx, next)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			http.Error(w, "an active appointment already exists for this client and time", http.StatusConflict)
			return
		}
		h.logger.Error("appointment update failed", "appointment_id", req.ID, "err", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	h.recordEvent(r, "appointment.updated", updated)
	h.lifecycle.AfterUpdate(updated)

	writeJSON(w, http.StatusOK, dataEnvelope{Data: toAppointmentResponse(updated)})
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id query parameter is required", http.StatusBadRequest)
		return
	}

	appt, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("appointment load failed", "appointment_id", id, "err", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dataEnvelope{Data: toAppointmentResponse(appt)})
}

// recordEvent appends to the outbox; a failure there must not fail the
// request the appointment write already succeeded for.
func (h *AppointmentHandler) recordEvent(r *http.Request, eventType string, appt model.Appointment) {
	if h.events == nil {
		return
	}
	payload, err := json.Marshal(toAppointmentResponse(appt))
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"id":%q}`, appt.ID))
	}
	if err := h.events.Insert(r.Context(), outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		h.logger.Error("outbox insert failed", "event_type", eventType, "appointment_id", appt.ID, "err", err)
	}
}
