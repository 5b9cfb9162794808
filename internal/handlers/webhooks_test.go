package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lashbook/lashbook/internal/model"
	"github.com/lashbook/lashbook/internal/storage"
	"github.com/lashbook/lashbook/internal/webhook"
)

type stubAppointments struct {
	byID map[string]model.Appointment
}

func (s *stubAppointments) GetByID(_ context.Context, id string) (model.Appointment, error) {
	appt, ok := s.byID[id]
	if !ok {
		return model.Appointment{}, storage.ErrNotFound
	}
	return appt, nil
}

func (s *stubAppointments) FindActiveByNaturalKey(context.Context, string, time.Time) (model.Appointment, error) {
	return model.Appointment{}, storage.ErrNotFound
}

func (s *stubAppointments) Create(_ context.Context, appt model.Appointment) (model.Appointment, error) {
	appt.ID = "created-1"
	s.byID[appt.ID] = appt
	return appt, nil
}

func (s *stubAppointments) Update(_ context.Context, appt model.Appointment) (model.Appointment, error) {
	s.byID[appt.ID] = appt
	return appt, nil
}

type stubPayments struct {
	refs map[string]bool
}

func (s *stubPayments) CreateIfAbsent(_ context.Context, rec model.PaymentRecord) (bool, error) {
	if s.refs[rec.Reference] {
		return false, nil
	}
	s.refs[rec.Reference] = true
	return true, nil
}

type nopLifecycle struct{}

func (nopLifecycle) RecordBefore(model.Appointment) {}
func (nopLifecycle) AfterUpdate(model.Appointment)  {}
func (nopLifecycle) AfterCreate(model.Appointment)  {}

func newWebhookTestHandler(appts *stubAppointments) *WebhookHandler {
	logger := slog.New(slog.DiscardHandler)
	p := &webhook.Processor{
		Appointments: appts,
		Payments:     &stubPayments{refs: map[string]bool{}},
		Notifier:     nopLifecycle{},
		Logger:       logger,
	}
	return NewWebhookHandler("sk_test_secret", p, nil, logger)
}

func signedRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", strings.NewReader(body))
	r.Header.Set(webhook.SignatureHeader, webhook.Signature("sk_test_secret", []byte(body)))
	return r
}

func TestPaystackRejectsBadSignature(t *testing.T) {
	h := newWebhookTestHandler(&stubAppointments{byID: map[string]model.Appointment{}})

	body := `{"event":"charge.success"}`
	r := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", strings.NewReader(body))
	r.Header.Set(webhook.SignatureHeader, "deadbeef")
	w := httptest.NewRecorder()

	h.Paystack(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestPaystackAcknowledgesIgnorableEvent(t *testing.T) {
	h := newWebhookTestHandler(&stubAppointments{byID: map[string]model.Appointment{}})

	w := httptest.NewRecorder()
	h.Paystack(w, signedRequest(t, `{"event":"transfer.success","data":{}}`))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "ignored" {
		t.Fatalf("status field = %q", resp["status"])
	}
}

func TestPaystackConfirmsAppointment(t *testing.T) {
	appts := &stubAppointments{byID: map[string]model.Appointment{
		"appt-1": {
			ID:          "appt-1",
			ClientName:  "Ada Obi",
			ClientEmail: "ada@example.com",
			ScheduledAt: time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC),
			Status:      model.StatusPending,
		},
	}}
	h := newWebhookTestHandler(appts)

	body := `{"event":"charge.success","data":{"reference":"ref_1","amount":500000,` +
		`"customer":{"email":"ada@example.com"},"metadata":{"appointment_id":"appt-1"}}}`
	w := httptest.NewRecorder()
	h.Paystack(w, signedRequest(t, body))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "confirmed" || resp["appointment_id"] != "appt-1" {
		t.Fatalf("response = %v", resp)
	}
	if appts.byID["appt-1"].Status != model.StatusConfirmed {
		t.Fatalf("appointment status = %q", appts.byID["appt-1"].Status)
	}
}

func TestPaystackRejectsWhenSecretMissing(t *testing.T) {
	h := NewWebhookHandler("", nil, nil, slog.New(slog.DiscardHandler))

	w := httptest.NewRecorder()
	h.Paystack(w, httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", strings.NewReader("{}")))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestPaystackMethodNotAllowed(t *testing.T) {
	h := newWebhookTestHandler(&stubAppointments{byID: map[string]model.Appointment{}})

	w := httptest.NewRecorder()
	h.Paystack(w, httptest.NewRequest(http.MethodGet, "/api/v1/webhooks/paystack", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
}
