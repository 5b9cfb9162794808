package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lashbook/lashbook/internal/model"
	"github.com/lashbook/lashbook/internal/outbox"
)

type recordingLifecycle struct {
	befores, updates, creates []model.Appointment
}

func (l *recordingLifecycle) RecordBefore(a model.Appointment) { l.befores = append(l.befores, a) }
func (l *recordingLifecycle) AfterUpdate(a model.Appointment)  { l.updates = append(l.updates, a) }
func (l *recordingLifecycle) AfterCreate(a model.Appointment)  { l.creates = append(l.creates, a) }

type recordingEvents struct {
	events []outbox.Event
}

func (r *recordingEvents) Insert(_ context.Context, evt outbox.Event) error {
	r.events = append(r.events, evt)
	return nil
}

func TestCreateAppointmentDefaultsToPending(t *testing.T) {
	store := &stubOccupancy{stubAppointments: stubAppointments{byID: map[string]model.Appointment{}}}
	life := &recordingLifecycle{}
	events := &recordingEvents{}
	h := NewAppointmentHandler(store, events, life, slog.New(slog.DiscardHandler))

	body := `{"client_name":"Ada Obi","client_email":"ada@example.com",` +
		`"scheduled_at":"2026-09-14T10:00:00+01:00",` +
		`"services":[{"name":"Classic Full Set","duration_minutes":120,"deposit_minor":500000}]}`
	w := httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body)))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data appointmentResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Status != "Pending" {
		t.Fatalf("status = %q, want Pending", resp.Data.Status)
	}
	if resp.Data.PublishedAt != "" {
		t.Fatal("pending creation must not be published")
	}
	// Instants are stored and rendered in UTC.
	if resp.Data.ScheduledAt != "2026-09-14T09:00:00Z" {
		t.Fatalf("scheduled_at = %q", resp.Data.ScheduledAt)
	}
	if len(life.creates) != 1 {
		t.Fatalf("after-create hooks = %d", len(life.creates))
	}
	if len(events.events) != 1 || events.events[0].EventType != "appointment.created" {
		t.Fatalf("events = %+v", events.events)
	}
}

func TestCreateAppointmentRequiresFields(t *testing.T) {
	store := &stubOccupancy{stubAppointments: stubAppointments{byID: map[string]model.Appointment{}}}
	h := NewAppointmentHandler(store, nil, &recordingLifecycle{}, slog.New(slog.DiscardHandler))

	w := httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(http.MethodPost, "/api/v1/appointments",
		strings.NewReader(`{"client_name":"Ada"}`)))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestUpdateAppointmentRecordsBeforeState(t *testing.T) {
	store := &stubOccupancy{stubAppointments: stubAppointments{byID: map[string]model.Appointment{
		"appt-1": {ID: "appt-1", ClientName: "Ada Obi", ClientEmail: "ada@example.com", Status: model.StatusConfirmed},
	}}}
	life := &recordingLifecycle{}
	h := NewAppointmentHandler(store, nil, life, slog.New(slog.DiscardHandler))

	body := `{"id":"appt-1","status":"Completed"}`
	w := httptest.NewRecorder()
	h.Update(w, httptest.NewRequest(http.MethodPost, "/api/v1/appointments/update", strings.NewReader(body)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(life.befores) != 1 || life.befores[0].Status != model.StatusConfirmed {
		t.Fatalf("before hooks = %+v", life.befores)
	}
	if len(life.updates) != 1 || life.updates[0].Status != model.StatusCompleted {
		t.Fatalf("after hooks = %+v", life.updates)
	}
	if store.byID["appt-1"].Status != model.StatusCompleted {
		t.Fatalf("stored status = %q", store.byID["appt-1"].Status)
	}
}

func TestUpdateAppointmentPublishToggle(t *testing.T) {
	store := &stubOccupancy{stubAppointments: stubAppointments{byID: map[string]model.Appointment{
		"appt-1": {ID: "appt-1", ClientEmail: "ada@example.com", Status: model.StatusConfirmed},
	}}}
	h := NewAppointmentHandler(store, nil, &recordingLifecycle{}, slog.New(slog.DiscardHandler))

	w := httptest.NewRecorder()
	h.Update(w, httptest.NewRequest(http.MethodPost, "/api/v1/appointments/update",
		strings.NewReader(`{"id":"appt-1","published":true}`)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if store.byID["appt-1"].PublishedAt == nil {
		t.Fatal("appointment should be published")
	}
}

func TestUpdateAppointmentUnknownID(t *testing.T) {
	store := &stubOccupancy{stubAppointments: stubAppointments{byID: map[string]model.Appointment{}}}
	h := NewAppointmentHandler(store, nil, &recordingLifecycle{}, slog.New(slog.DiscardHandler))

	w := httptest.NewRecorder()
	h.Update(w, httptest.NewRequest(http.MethodPost, "/api/v1/appointments/update",
		strings.NewReader(`{"id":"missing"}`)))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestUpdateAppointmentRejectsBadStatus(t *testing.T) {
	store := &stubOccupancy{stubAppointments: stubAppointments{byID: map[string]model.Appointment{
		"appt-1": {ID: "appt-1", Status: model.StatusPending},
	}}}
	h := NewAppointmentHandler(store, nil, &recordingLifecycle{}, slog.New(slog.DiscardHandler))

	w := httptest.NewRecorder()
	h.Update(w, httptest.NewRequest(http.MethodPost, "/api/v1/appointments/update",
		strings.NewReader(`{"id":"appt-1","status":"Archived"}`)))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
