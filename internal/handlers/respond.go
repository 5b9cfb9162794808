package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/lashbook/lashbook/internal/model"
	"github.com/lashbook/lashbook/internal/outbox"
)

// AppointmentStore is the appointment storage surface the handlers use.
type AppointmentStore interface {
	Create(ctx context.Context, appt model.Appointment) (model.Appointment, error)
	GetByID(ctx context.Context, id string) (model.Appointment, error)
	Update(ctx context.Context, appt model.Appointment) (model.Appointment, error)
	ListOccupyingOn(ctx context.Context, dayStart, dayEnd time.Time) ([]model.Appointment, error)
}

type BlackoutStore interface {
	Create(ctx context.Context, b model.BlackoutRange) (model.BlackoutRange, error)
	ListOn(ctx context.Context, date string) ([]model.BlackoutRange, error)
}

type PaymentStore interface {
	GetByReference(ctx context.Context, reference string) (model.PaymentRecord, error)
}

// EventRecorder appends a domain event for asynchronous publication. A nil
// recorder disables event emission.
type EventRecorder interface {
	Insert(ctx context.Context, evt outbox.Event) error
}

// Lifecycle receives the before/after hooks around appointment writes.
type Lifecycle interface {
	RecordBefore(appt model.Appointment)
	AfterUpdate(appt model.Appointment)
	AfterCreate(appt model.Appointment)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// dataEnvelope matches the {"data": ...} response shape of the public API.
type dataEnvelope struct {
	Data any `json:"data"`
}
